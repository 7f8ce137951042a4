// Package profile models a player's style traits and adapts them from game
// outcomes.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// ErrUnknownResult is returned when a game result string is not recognised.
var ErrUnknownResult = errors.New("unknown game result")

// Result is the outcome of a finished game from the profile owner's side.
type Result int

const (
	Win Result = iota
	Loss
	Draw
)

// String returns the lowercase result name.
func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Invert returns the result seen from the other player's side.
func (r Result) Invert() Result {
	switch r {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return r
	}
}

// ParseResult parses "win", "loss", "draw" and the PGN forms 1-0, 0-1 and 1/2-1/2.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "1-0":
		return Win, nil
	case "loss", "lose", "0-1":
		return Loss, nil
	case "draw", "1/2-1/2":
		return Draw, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownResult, s)
}

// Traits are the style parameters that bias move selection. Each lies in [0,1].
type Traits struct {
	Aggression float64
	RiskTaking float64
	Positional float64
}

// DefaultTraits returns a neutral style.
func DefaultTraits() Traits {
	return Traits{
		Aggression: 0.5,
		RiskTaking: 0.5,
		Positional: 0.5,
	}
}

// Clamp returns the traits limited to [0,1].
func (t Traits) Clamp() Traits {
	return Traits{
		Aggression: clamp(t.Aggression, 0, 1),
		RiskTaking: clamp(t.RiskTaking, 0, 1),
		Positional: clamp(t.Positional, 0, 1),
	}
}

// Policy holds the adaptation constants used by AdaptStyle.
type Policy struct {
	HighAggression   float64 // opponent aggression above this lowers ours
	LowAggression    float64 // opponent aggression below this raises ours
	WinRateThreshold float64 // opponent win rate above this lowers risk taking
	Step             float64
}

// DefaultPolicy returns the standard adaptation constants.
func DefaultPolicy() Policy {
	return Policy{
		HighAggression:   0.8,
		LowAggression:    0.2,
		WinRateThreshold: 0.6,
		Step:             0.1,
	}
}

// PlayerProfile is a player's traits together with their game history.
// It is not safe for concurrent use.
type PlayerProfile struct {
	Name   string
	Traits Traits

	Wins   int
	Losses int
	Draws  int

	// AvgMoveTime is the running mean of per-game average move time.
	AvgMoveTime time.Duration

	// Openings counts how often each named opening was played.
	Openings map[string]int

	// Moves and Captures are observed over play and feed EstimatedAggression.
	Moves    int
	Captures int
}

// New returns a profile with default traits and no history.
func New(name string) *PlayerProfile {
	return &PlayerProfile{
		Name:     name,
		Traits:   DefaultTraits(),
		Openings: make(map[string]int),
	}
}

// Clone returns a deep copy of the profile.
func (p *PlayerProfile) Clone() *PlayerProfile {
	c := *p
	c.Openings = make(map[string]int, len(p.Openings))
	for k, v := range p.Openings {
		c.Openings[k] = v
	}
	return &c
}

// Games returns the number of completed games.
func (p *PlayerProfile) Games() int {
	return p.Wins + p.Losses + p.Draws
}

// WinRate returns wins divided by games played, or 0 before any game.
func (p *PlayerProfile) WinRate() float64 {
	n := p.Games()
	if n == 0 {
		return 0
	}
	return float64(p.Wins) / float64(n)
}

// UpdateMetrics records a finished game.
func (p *PlayerProfile) UpdateMetrics(r Result, moveTime time.Duration, opening string) {
	switch r {
	case Win:
		p.Wins++
	case Loss:
		p.Losses++
	case Draw:
		p.Draws++
	}

	n := p.Games()
	if n > 0 {
		p.AvgMoveTime += (moveTime - p.AvgMoveTime) / time.Duration(n)
	}

	if opening != "" {
		if p.Openings == nil {
			p.Openings = make(map[string]int)
		}
		p.Openings[opening]++
	}
}

// FavoriteOpening returns the most played opening, or "" if none was recorded.
// Ties go to the alphabetically first name.
func (p *PlayerProfile) FavoriteOpening() string {
	best, count := "", 0
	for name, n := range p.Openings {
		if n > count || (n == count && name < best) {
			best, count = name, n
		}
	}
	return best
}

// AdaptStyle adjusts the traits against an opponent using DefaultPolicy.
func (p *PlayerProfile) AdaptStyle(opponent *PlayerProfile) {
	p.AdaptStyleWith(opponent, DefaultPolicy())
}

// AdaptStyleWith adjusts the traits against an opponent. Aggression moves
// against the opponent's aggression and risk taking falls against strong
// opponents. All traits are clamped to [0,1] afterwards.
func (p *PlayerProfile) AdaptStyleWith(opponent *PlayerProfile, pol Policy) {
	if opponent != nil {
		switch {
		case opponent.Traits.Aggression > pol.HighAggression:
			p.Traits.Aggression -= pol.Step
		case opponent.Traits.Aggression < pol.LowAggression:
			p.Traits.Aggression += pol.Step
		}

		if opponent.WinRate() > pol.WinRateThreshold {
			p.Traits.RiskTaking -= pol.Step
		} else {
			p.Traits.RiskTaking += pol.Step
		}
	}
	p.Traits = p.Traits.Clamp()
}

// SetTraits replaces the traits, clamping each to [0,1].
func (p *PlayerProfile) SetTraits(t Traits) {
	p.Traits = t.Clamp()
}

// ObserveMove records one move and whether it captured.
func (p *PlayerProfile) ObserveMove(captured bool) {
	p.Moves++
	if captured {
		p.Captures++
	}
}

// captureRateScale maps a capture rate to aggression: capturing on every
// third move or more reads as fully aggressive.
const captureRateScale = 3.0

// EstimatedAggression derives aggression from the observed capture rate and
// updates the Aggression trait. With no moves observed the trait is unchanged.
func (p *PlayerProfile) EstimatedAggression() float64 {
	if p.Moves > 0 {
		rate := float64(p.Captures) / float64(p.Moves)
		p.Traits.Aggression = clamp(rate*captureRateScale, 0, 1)
	}
	return p.Traits.Aggression
}

func clamp[T constraints.Float | constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
