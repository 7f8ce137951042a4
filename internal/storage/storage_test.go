package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/profile"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfiles(t *testing.T) {
	s := openTemp(t)

	t.Run("MissingIsDefault", func(t *testing.T) {
		p, err := s.LoadProfile("nobody")
		if err != nil {
			t.Fatalf("LoadProfile: %v", err)
		}
		if p.Name != "nobody" || p.Games() != 0 || p.Traits != profile.DefaultTraits() {
			t.Errorf("got %+v, want a fresh default profile", p)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		p := profile.New("alice")
		p.UpdateMetrics(profile.Win, 3*time.Second, "Sicilian Defense")
		p.UpdateMetrics(profile.Draw, time.Second, "Queen's Gambit")
		p.SetTraits(profile.Traits{Aggression: 0.7, RiskTaking: 0.3, Positional: 0.9})

		if err := s.SaveProfile(p); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
		got, err := s.LoadProfile("alice")
		if err != nil {
			t.Fatalf("LoadProfile: %v", err)
		}
		if got.Wins != 1 || got.Draws != 1 || got.Traits != p.Traits {
			t.Errorf("loaded %+v, saved %+v", got, p)
		}
		if got.AvgMoveTime != p.AvgMoveTime {
			t.Errorf("AvgMoveTime = %v, want %v", got.AvgMoveTime, p.AvgMoveTime)
		}
		if got.Openings["Sicilian Defense"] != 1 || got.Openings["Queen's Gambit"] != 1 {
			t.Errorf("Openings = %v", got.Openings)
		}
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		if err := s.SaveProfile(profile.New("bob")); err != nil {
			t.Fatal(err)
		}
		names, err := s.ListProfiles()
		if err != nil {
			t.Fatal(err)
		}
		if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
			t.Errorf("ListProfiles = %v", names)
		}

		if err := s.DeleteProfile("bob"); err != nil {
			t.Fatal(err)
		}
		names, _ = s.ListProfiles()
		if len(names) != 1 {
			t.Errorf("after delete: %v", names)
		}
	})

	t.Run("Unnamed", func(t *testing.T) {
		if err := s.SaveProfile(&profile.PlayerProfile{}); err == nil {
			t.Error("saved a profile without a name")
		}
	})
}

func TestPreferences(t *testing.T) {
	s := openTemp(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if *prefs != *DefaultPreferences() {
		t.Errorf("defaults = %+v", prefs)
	}

	prefs.Difficulty = "hard"
	prefs.Threads = 4
	prefs.UseBook = false
	prefs.Profile = "alice"
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if got.Difficulty != "hard" || got.Threads != 4 || got.UseBook || got.Profile != "alice" {
		t.Errorf("loaded %+v", got)
	}
	if got.LastPlayed.IsZero() {
		t.Error("LastPlayed not set")
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	p := profile.New("carol")
	p.UpdateMetrics(profile.Loss, time.Second, "")
	if err := s.SaveProfile(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.LoadProfile("carol")
	if err != nil || got.Losses != 1 {
		t.Errorf("after reopen: %+v, %v", got, err)
	}
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME is only honoured on Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir: %v", err)
	}
	if want := filepath.Join(base, appName, "db"); dbDir != want {
		t.Errorf("GetDatabaseDir = %s, want %s", dbDir, want)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}
