package profile

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWinRate(t *testing.T) {
	tests := []struct {
		wins, losses int
	}{
		{0, 0},
		{1, 0},
		{0, 3},
		{3, 1},
		{7, 5},
	}

	for _, tc := range tests {
		p := New("tester")
		for i := 0; i < tc.wins; i++ {
			p.UpdateMetrics(Win, time.Second, "")
		}
		for i := 0; i < tc.losses; i++ {
			p.UpdateMetrics(Loss, time.Second, "")
		}

		want := 0.0
		if n := tc.wins + tc.losses; n > 0 {
			want = float64(tc.wins) / float64(n)
		}
		if got := p.WinRate(); math.Abs(got-want) > 1e-12 {
			t.Errorf("%d wins %d losses: WinRate() = %v, want %v", tc.wins, tc.losses, got, want)
		}
	}
}

func TestUpdateMetrics(t *testing.T) {
	p := New("tester")
	p.UpdateMetrics(Win, 2*time.Second, "Sicilian Defense")
	p.UpdateMetrics(Draw, 4*time.Second, "Sicilian Defense")
	p.UpdateMetrics(Loss, 6*time.Second, "")

	if p.Wins != 1 || p.Draws != 1 || p.Losses != 1 {
		t.Errorf("counters = %d/%d/%d, want 1/1/1", p.Wins, p.Losses, p.Draws)
	}
	if p.AvgMoveTime != 4*time.Second {
		t.Errorf("AvgMoveTime = %v, want 4s", p.AvgMoveTime)
	}
	if p.Openings["Sicilian Defense"] != 2 || len(p.Openings) != 1 {
		t.Errorf("Openings = %v", p.Openings)
	}
	if got := p.FavoriteOpening(); got != "Sicilian Defense" {
		t.Errorf("FavoriteOpening() = %q", got)
	}
}

func TestAdaptStyleAggression(t *testing.T) {
	opponent := New("opponent")
	opponent.Traits.Aggression = 0.9

	for _, start := range []float64{0.15, 0.5, 1.0} {
		p := New("ai")
		p.Traits.Aggression = start
		p.AdaptStyle(opponent)
		if p.Traits.Aggression >= start {
			t.Errorf("from %v: aggression %v did not decrease", start, p.Traits.Aggression)
		}
	}

	p := New("ai")
	p.Traits.Aggression = 0.05
	for i := 0; i < 5; i++ {
		p.AdaptStyle(opponent)
		if p.Traits.Aggression < 0 {
			t.Fatalf("aggression went negative: %v", p.Traits.Aggression)
		}
	}
	if p.Traits.Aggression != 0 {
		t.Errorf("aggression = %v, want clamp at 0", p.Traits.Aggression)
	}

	passive := New("passive")
	passive.Traits.Aggression = 0.1
	p = New("ai")
	p.AdaptStyle(passive)
	if p.Traits.Aggression <= 0.5 {
		t.Errorf("aggression %v did not rise against a passive opponent", p.Traits.Aggression)
	}

	neutral := New("neutral")
	p = New("ai")
	p.AdaptStyle(neutral)
	if p.Traits.Aggression != 0.5 {
		t.Errorf("aggression changed against a neutral opponent: %v", p.Traits.Aggression)
	}
}

func TestAdaptStyleRisk(t *testing.T) {
	strong := New("strong")
	for i := 0; i < 7; i++ {
		strong.UpdateMetrics(Win, time.Second, "")
	}
	for i := 0; i < 3; i++ {
		strong.UpdateMetrics(Loss, time.Second, "")
	}

	p := New("ai")
	p.AdaptStyle(strong)
	if p.Traits.RiskTaking >= 0.5 {
		t.Errorf("risk %v did not fall against a strong opponent", p.Traits.RiskTaking)
	}

	weak := New("weak")
	p = New("ai")
	p.Traits.RiskTaking = 0.95
	p.AdaptStyle(weak)
	if p.Traits.RiskTaking != 1 {
		t.Errorf("risk = %v, want clamp at 1", p.Traits.RiskTaking)
	}
}

func TestAdaptStyleWithPolicy(t *testing.T) {
	pol := Policy{HighAggression: 0.5, LowAggression: 0.1, WinRateThreshold: 0.9, Step: 0.25}
	opponent := New("opponent")
	opponent.Traits.Aggression = 0.6

	p := New("ai")
	p.AdaptStyleWith(opponent, pol)
	if math.Abs(p.Traits.Aggression-0.25) > 1e-12 {
		t.Errorf("aggression = %v, want 0.25", p.Traits.Aggression)
	}
	if math.Abs(p.Traits.RiskTaking-0.75) > 1e-12 {
		t.Errorf("risk = %v, want 0.75", p.Traits.RiskTaking)
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		in   string
		want Result
	}{
		{"win", Win},
		{"WIN", Win},
		{"1-0", Win},
		{"loss", Loss},
		{"0-1", Loss},
		{" draw ", Draw},
		{"1/2-1/2", Draw},
	}

	for _, tc := range tests {
		got, err := ParseResult(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseResult(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}

	if _, err := ParseResult("resign"); !errors.Is(err, ErrUnknownResult) {
		t.Errorf("ParseResult(resign) error = %v, want ErrUnknownResult", err)
	}
}

func TestEstimatedAggression(t *testing.T) {
	p := New("human")
	if got := p.EstimatedAggression(); got != 0.5 {
		t.Errorf("no moves: EstimatedAggression() = %v, want 0.5", got)
	}

	for i := 0; i < 10; i++ {
		p.ObserveMove(i < 5)
	}
	if got := p.EstimatedAggression(); got != 1 {
		t.Errorf("half captures: EstimatedAggression() = %v, want 1", got)
	}

	q := New("quiet")
	for i := 0; i < 20; i++ {
		q.ObserveMove(false)
	}
	if got := q.EstimatedAggression(); got != 0 {
		t.Errorf("no captures: EstimatedAggression() = %v, want 0", got)
	}
}

func sampleProfile() *PlayerProfile {
	p := New("Magnus the Bold")
	p.Traits = Traits{Aggression: 0.7, RiskTaking: 0.25, Positional: 1}
	p.UpdateMetrics(Win, 3*time.Second, "Queen's Gambit")
	p.UpdateMetrics(Loss, 1500*time.Millisecond, "Sicilian Defense")
	p.UpdateMetrics(Win, 2*time.Second, "Queen's Gambit")
	p.ObserveMove(true)
	p.ObserveMove(false)
	return p
}

func assertSameProfile(t *testing.T, got, want *PlayerProfile) {
	t.Helper()
	if got.Name != want.Name || got.Traits != want.Traits {
		t.Errorf("got %q %+v, want %q %+v", got.Name, got.Traits, want.Name, want.Traits)
	}
	if got.Wins != want.Wins || got.Losses != want.Losses || got.Draws != want.Draws {
		t.Errorf("counters = %d/%d/%d, want %d/%d/%d",
			got.Wins, got.Losses, got.Draws, want.Wins, want.Losses, want.Draws)
	}
	if got.AvgMoveTime != want.AvgMoveTime {
		t.Errorf("AvgMoveTime = %v, want %v", got.AvgMoveTime, want.AvgMoveTime)
	}
	if got.Moves != want.Moves || got.Captures != want.Captures {
		t.Errorf("moves/captures = %d/%d, want %d/%d", got.Moves, got.Captures, want.Moves, want.Captures)
	}
	if len(got.Openings) != len(want.Openings) {
		t.Fatalf("Openings = %v, want %v", got.Openings, want.Openings)
	}
	for k, v := range want.Openings {
		if got.Openings[k] != v {
			t.Errorf("Openings[%q] = %d, want %d", k, got.Openings[k], v)
		}
	}
}

func TestPersistRoundTrip(t *testing.T) {
	want := sampleProfile()

	t.Run("string", func(t *testing.T) {
		s, err := Marshal(want)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !strings.Contains(s, "WINS=2") {
			t.Errorf("Marshal output missing WINS=2:\n%s", s)
		}
		got, err := Unmarshal(s)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		assertSameProfile(t, got, want)
	})

	t.Run("stream", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, want); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := Read(&buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		assertSameProfile(t, got, want)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.env")
		if err := SaveFile(path, want); err != nil {
			t.Fatalf("SaveFile: %v", err)
		}
		got, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		assertSameProfile(t, got, want)
	})
}

func TestUnmarshalDefaultsAndErrors(t *testing.T) {
	p, err := Unmarshal("NAME=\"partial\"\nWINS=4")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Name != "partial" || p.Wins != 4 || p.Traits != DefaultTraits() {
		t.Errorf("partial profile = %+v", p)
	}

	p, err = Unmarshal("AGGRESSION=\"3.5\"")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Traits.Aggression != 1 {
		t.Errorf("aggression = %v, want clamp at 1", p.Traits.Aggression)
	}

	bad := []string{
		"AGGRESSION=\"high\"",
		"WINS=\"many\"",
		"LOSSES=-2",
		"AVG_MOVE_TIME=\"soon\"",
		"OPENINGS=\"Ruy+Lopez=x\"",
	}
	for _, s := range bad {
		if _, err := Unmarshal(s); err == nil {
			t.Errorf("Unmarshal(%q) succeeded", s)
		}
	}
}

func TestClone(t *testing.T) {
	p := sampleProfile()
	c := p.Clone()
	c.Openings["Queen's Gambit"] = 99
	c.Traits.Aggression = 0
	if p.Openings["Queen's Gambit"] != 2 || p.Traits.Aggression != 0.7 {
		t.Error("Clone shares state with the original")
	}
}
