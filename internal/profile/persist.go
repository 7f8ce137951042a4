package profile

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Keys of the flat KEY=VALUE profile format.
const (
	keyName        = "NAME"
	keyAggression  = "AGGRESSION"
	keyRiskTaking  = "RISK_TAKING"
	keyPositional  = "POSITIONAL"
	keyWins        = "WINS"
	keyLosses      = "LOSSES"
	keyDraws       = "DRAWS"
	keyAvgMoveTime = "AVG_MOVE_TIME"
	keyMoves       = "MOVES"
	keyCaptures    = "CAPTURES"
	keyOpenings    = "OPENINGS"
)

// Marshal renders the profile as KEY=VALUE lines.
func Marshal(p *PlayerProfile) (string, error) {
	return godotenv.Marshal(toMap(p))
}

// Unmarshal parses a profile from KEY=VALUE text. Missing keys keep their
// defaults.
func Unmarshal(s string) (*PlayerProfile, error) {
	env, err := godotenv.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return fromMap(env)
}

// Write writes the profile to w.
func Write(w io.Writer, p *PlayerProfile) error {
	s, err := Marshal(p)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s+"\n")
	return err
}

// Read parses a profile from r.
func Read(r io.Reader) (*PlayerProfile, error) {
	env, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return fromMap(env)
}

// SaveFile writes the profile to a file, replacing it.
func SaveFile(path string, p *PlayerProfile) error {
	if err := godotenv.Write(toMap(p), path); err != nil {
		return fmt.Errorf("save profile %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a profile written by SaveFile.
func LoadFile(path string) (*PlayerProfile, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", path, err)
	}
	return fromMap(env)
}

func toMap(p *PlayerProfile) map[string]string {
	openings := url.Values{}
	names := make([]string, 0, len(p.Openings))
	for name := range p.Openings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		openings.Set(name, strconv.Itoa(p.Openings[name]))
	}

	return map[string]string{
		keyName:        p.Name,
		keyAggression:  formatFloat(p.Traits.Aggression),
		keyRiskTaking:  formatFloat(p.Traits.RiskTaking),
		keyPositional:  formatFloat(p.Traits.Positional),
		keyWins:        strconv.Itoa(p.Wins),
		keyLosses:      strconv.Itoa(p.Losses),
		keyDraws:       strconv.Itoa(p.Draws),
		keyAvgMoveTime: p.AvgMoveTime.String(),
		keyMoves:       strconv.Itoa(p.Moves),
		keyCaptures:    strconv.Itoa(p.Captures),
		keyOpenings:    openings.Encode(),
	}
}

func fromMap(env map[string]string) (*PlayerProfile, error) {
	p := New(env[keyName])

	floats := []struct {
		key string
		dst *float64
	}{
		{keyAggression, &p.Traits.Aggression},
		{keyRiskTaking, &p.Traits.RiskTaking},
		{keyPositional, &p.Traits.Positional},
	}
	for _, f := range floats {
		v, ok := env[f.key]
		if !ok {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", f.key, err)
		}
		*f.dst = x
	}
	p.Traits = p.Traits.Clamp()

	ints := []struct {
		key string
		dst *int
	}{
		{keyWins, &p.Wins},
		{keyLosses, &p.Losses},
		{keyDraws, &p.Draws},
		{keyMoves, &p.Moves},
		{keyCaptures, &p.Captures},
	}
	for _, f := range ints {
		v, ok := env[f.key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", f.key, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("profile %s: negative count %d", f.key, n)
		}
		*f.dst = n
	}

	if v, ok := env[keyAvgMoveTime]; ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", keyAvgMoveTime, err)
		}
		p.AvgMoveTime = d
	}

	if v := env[keyOpenings]; v != "" {
		q, err := url.ParseQuery(v)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", keyOpenings, err)
		}
		for name := range q {
			n, err := strconv.Atoi(q.Get(name))
			if err != nil {
				return nil, fmt.Errorf("profile %s %q: %w", keyOpenings, name, err)
			}
			p.Openings[name] = n
		}
	}

	return p, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
