package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/profile"
)

// Storage keys
const (
	keyPreferences   = "preferences"
	keyProfilePrefix = "profile:"
)

// Preferences stores the engine settings between sessions.
type Preferences struct {
	Difficulty string    `json:"difficulty"`
	Threads    int       `json:"threads"`
	UseBook    bool      `json:"use_book"`
	Profile    string    `json:"profile"`
	LastPlayed time.Time `json:"last_played"`
}

// DefaultPreferences returns default engine preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		Difficulty: "medium",
		Threads:    1,
		UseBook:    true,
		Profile:    "default",
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log zerolog.Logger
}

// NewStorage opens the store in the platform data directory.
func NewStorage(log zerolog.Logger) (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir, log)
}

// Open opens the store in dir, creating it if needed.
func Open(dir string, log zerolog.Logger) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{log: log.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Msg("store opened")
	return &Storage{db: db, log: log}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func profileKey(name string) []byte {
	return []byte(keyProfilePrefix + name)
}

// SaveProfile stores p under its name.
func (s *Storage) SaveProfile(p *profile.PlayerProfile) error {
	if p == nil || p.Name == "" {
		return errors.New("save profile: profile has no name")
	}
	data, err := profile.Marshal(p)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Name, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(p.Name), []byte(data))
	})
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Name, err)
	}
	s.log.Debug().Str("profile", p.Name).Int("games", p.Games()).Msg("profile saved")
	return nil
}

// LoadProfile loads the named profile. A profile that was never saved is
// returned as a new default profile.
func (s *Storage) LoadProfile(name string) (*profile.PlayerProfile, error) {
	var p *profile.PlayerProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var perr error
			p, perr = profile.Unmarshal(string(val))
			return perr
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", name, err)
	}
	if p == nil {
		return profile.New(name), nil
	}
	p.Name = name
	return p, nil
}

// DeleteProfile removes the named profile. Deleting a missing profile is
// not an error.
func (s *Storage) DeleteProfile(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(profileKey(name))
	})
}

// ListProfiles returns the names of all stored profiles in key order.
func (s *Storage) ListProfiles() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyProfilePrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, keyProfilePrefix))
		}
		return nil
	})
	return names, err
}

// SavePreferences saves engine preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads engine preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})

	return prefs, err
}

// badgerLogger routes badger's log output through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}
