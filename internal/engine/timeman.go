package engine

import (
	"time"

	"github.com/hailam/adaptiveplay/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Infinite  bool             // search until stopped
}

// Time allocation bounds.
const (
	minMoveTime   = 10 * time.Millisecond
	moveOverhead  = 20 * time.Millisecond
	maxTimeShare  = 0.5 // never plan to spend more than half the clock
	defaultMTG    = 40
	minMovesToGo  = 10
	earlyGamePlys = 8
)

// TimeManager turns clock limits into a per-move budget.
type TimeManager struct {
	budget    time.Duration
	startTime time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the budget for a new search. ply is the game ply.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.budget = Allocate(limits, us, ply)
}

// Allocate returns the time to spend on one move, or 0 for no limit.
func Allocate(limits UCILimits, us board.Color, ply int) time.Duration {
	if limits.MoveTime > 0 {
		return limits.MoveTime
	}
	if limits.Infinite || us > board.Black || limits.Time[us] <= 0 {
		return 0
	}

	left := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg <= 0 {
		// Sudden death: expect fewer remaining moves as the game goes on
		mtg = max(defaultMTG-ply/4, minMovesToGo)
	}

	budget := left/time.Duration(mtg) + inc*9/10
	if ply < earlyGamePlys {
		budget = budget * 85 / 100
	}

	limit := time.Duration(float64(left) * maxTimeShare)
	if budget > limit {
		budget = limit
	}
	budget -= moveOverhead
	if budget < minMoveTime {
		budget = minMoveTime
	}
	return budget
}

// Budget returns the time allotted to the current move.
func (tm *TimeManager) Budget() time.Duration {
	return tm.budget
}

// Elapsed returns the time elapsed since the search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// ShouldStop returns true once the budget is spent.
func (tm *TimeManager) ShouldStop() bool {
	return tm.budget > 0 && tm.Elapsed() >= tm.budget
}
