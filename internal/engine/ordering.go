package engine

import (
	"github.com/hailam/adaptiveplay/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures
	PromotionBase   = 950000
	KillerScore1    = 900000 // First killer move
	KillerScore2    = 800000 // Second killer move
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer sorts moves for interior search nodes. Each search worker
// owns one.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	mo := &MoveOrderer{}
	mo.Clear()
	return mo
}

// Clear forgets all killer moves.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
}

// scoreMove rates a move: TT move, then captures by MVV-LVA, then
// promotions, then killers.
func (mo *MoveOrderer) scoreMove(m board.Move, ply int, ttMove board.Move) int {
	if !ttMove.IsNull() && m.SameAs(ttMove) {
		return TTMoveScore
	}

	if m.IsCapture() {
		victim, attacker := m.Captured.Type(), m.Piece.Type()
		if victim > board.King || attacker > board.King {
			return GoodCaptureBase
		}
		score := GoodCaptureBase + mvvLva[victim][attacker]*1000
		if m.IsPromotion() {
			score += int(m.Promotion) * 100
		}
		return score
	}

	if m.IsPromotion() {
		return PromotionBase + int(m.Promotion)*100
	}

	if ply < MaxPly {
		if m.SameAs(mo.killers[ply][0]) {
			return KillerScore1
		}
		if m.SameAs(mo.killers[ply][1]) {
			return KillerScore2
		}
	}
	return 0
}

// Order sorts moves in place, best first. Equal scores keep generation order.
func (mo *MoveOrderer) Order(moves []board.Move, ply int, ttMove board.Move) {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = mo.scoreMove(m, ply, ttMove)
	}

	// Insertion sort is stable and fast enough for ~40 moves
	for i := 1; i < len(moves); i++ {
		m, s := moves[i], scores[i]
		j := i - 1
		for j >= 0 && scores[j] < s {
			moves[j+1], scores[j+1] = moves[j], scores[j]
			j--
		}
		moves[j+1], scores[j+1] = m, s
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || m.IsCapture() {
		return
	}
	if m.SameAs(mo.killers[ply][0]) {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// Killers returns the killer moves stored for ply.
func (mo *MoveOrderer) Killers(ply int) [2]board.Move {
	if ply >= MaxPly {
		return [2]board.Move{board.NoMove, board.NoMove}
	}
	return mo.killers[ply]
}
