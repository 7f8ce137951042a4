// Package engine implements the adaptive chess AI: evaluation, caches and
// a negamax alpha-beta search biased by a player profile.
package engine

import (
	"github.com/hailam/adaptiveplay/internal/board"
)

// Weights scale the heuristic evaluation terms. Material always has weight 1.
type Weights struct {
	Mobility      float64
	KingSafety    float64
	PawnStructure float64
	PieceActivity float64
	CenterControl float64
}

// DefaultWeights returns the standard term weights.
func DefaultWeights() Weights {
	return Weights{
		Mobility:      0.3,
		KingSafety:    0.5,
		PawnStructure: 0.4,
		PieceActivity: 0.35,
		CenterControl: 0.25,
	}
}

// Heuristic terms are accumulated as integers in fixed units so that
// mirrored positions produce bit-identical sums.
const (
	kingSafetyUnit    = 20 // 1 pawn = 20 units
	pawnStructureUnit = 10
	pieceActivityUnit = 10
)

// King safety, in kingSafetyUnit.
const (
	shieldPawnBonus   = 10 // +0.5 per shield pawn
	openFileNearKing  = -10
	bareFileNearKing  = -5 // extra when no pawn of either color
	kingZoneAttackPen = -2 // -0.1 per attack on the king zone
)

// Pawn structure, in pawnStructureUnit.
const (
	doubledPawnPen  = -5
	isolatedPawnPen = -5
	passedPawnBase  = 5 // plus the pawn's relative rank
)

// Piece activity, in pieceActivityUnit.
const (
	minorOnCenter   = 3
	minorNearCenter = 1
	minorDeveloped  = 2
)

var centerSquares = [4]board.Square{board.D4, board.E4, board.D5, board.E5}

// Terms is an evaluation breakdown. Every field is White minus Black in pawns.
type Terms struct {
	Material      float64
	Mobility      float64
	KingSafety    float64
	PawnStructure float64
	PieceActivity float64
	CenterControl float64
}

// Evaluator scores positions from material plus weighted heuristics.
type Evaluator struct {
	Weights Weights

	// PositionalScale multiplies the king safety, pawn structure, piece
	// activity and center control weights.
	PositionalScale float64

	pawns *PawnTable
}

// NewEvaluator creates an evaluator. pawns may be nil to disable pawn caching.
func NewEvaluator(w Weights, pawns *PawnTable) *Evaluator {
	return &Evaluator{
		Weights:         w,
		PositionalScale: 1,
		pawns:           pawns,
	}
}

// SetPositional derives PositionalScale from a positional trait in [0,1].
// It reports whether the scale changed.
func (e *Evaluator) SetPositional(positional float64) bool {
	scale := 0.5 + positional
	if scale == e.PositionalScale {
		return false
	}
	e.PositionalScale = scale
	return true
}

// Evaluate returns the score of b from c's point of view, in pawns.
// A nil or empty board scores 0.
func (e *Evaluator) Evaluate(b *board.Board, c board.Color) float64 {
	if b == nil || b.PieceCount() == 0 {
		return 0
	}
	t := e.Terms(b)
	w := e.Weights
	s := e.PositionalScale

	score := t.Material +
		w.Mobility*t.Mobility +
		s*(w.KingSafety*t.KingSafety+
			w.PawnStructure*t.PawnStructure+
			w.PieceActivity*t.PieceActivity+
			w.CenterControl*t.CenterControl)

	if c == board.Black {
		return -score
	}
	return score
}

// Terms computes the unweighted evaluation terms from White's side.
func (e *Evaluator) Terms(b *board.Board) Terms {
	if b == nil {
		return Terms{}
	}
	return Terms{
		Material:      b.Material(),
		Mobility:      mobility(b),
		KingSafety:    float64(kingSafety(b, board.White)-kingSafety(b, board.Black)) / kingSafetyUnit,
		PawnStructure: e.pawnStructure(b),
		PieceActivity: float64(pieceActivity(b, board.White)-pieceActivity(b, board.Black)) / pieceActivityUnit,
		CenterControl: float64(centerControl(b, board.White) - centerControl(b, board.Black)),
	}
}

// mobility is the legal move count difference normalised by the total.
func mobility(b *board.Board) float64 {
	w := len(b.LegalMoves(board.White))
	bl := len(b.LegalMoves(board.Black))
	if w+bl == 0 {
		return 0
	}
	return float64(w-bl) / float64(w+bl)
}

// kingSafety scores the pawn shield, open files and attacks around c's king.
func kingSafety(b *board.Board, c board.Color) int {
	ksq := b.KingSquare(c)
	if ksq == board.NoSquare {
		return 0
	}
	them := c.Other()
	ours := board.NewPiece(board.Pawn, c)
	theirs := board.NewPiece(board.Pawn, them)
	dir := 1
	if c == board.Black {
		dir = -1
	}

	score := 0
	for df := -1; df <= 1; df++ {
		// Shield pawns on the two ranks in front of the king
		for dr := 1; dr <= 2; dr++ {
			if sq, ok := ksq.Offset(df, dr*dir); ok && b.PieceAt(sq) == ours {
				score += shieldPawnBonus
			}
		}

		file := ksq.File() + df
		if file < 0 || file > 7 {
			continue
		}
		own, anyPawn := false, false
		for rank := 0; rank < 8; rank++ {
			switch b.PieceAt(board.NewSquare(file, rank)) {
			case ours:
				own, anyPawn = true, true
			case theirs:
				anyPawn = true
			}
		}
		if !own {
			score += openFileNearKing
			if !anyPawn {
				score += bareFileNearKing
			}
		}
	}

	// Attacks on the king and its neighbours
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if sq, ok := ksq.Offset(df, dr); ok {
				score += kingZoneAttackPen * b.AttackersTo(sq, them)
			}
		}
	}
	return score
}

// pawnStructure returns White minus Black pawn structure in pawns, using
// the pawn cache when present.
func (e *Evaluator) pawnStructure(b *board.Board) float64 {
	if e.pawns != nil {
		key := b.PawnDigest()
		if v, ok := e.pawns.Probe(key); ok {
			return v
		}
		v := float64(pawnScore(b, board.White)-pawnScore(b, board.Black)) / pawnStructureUnit
		e.pawns.Store(key, v)
		return v
	}
	return float64(pawnScore(b, board.White)-pawnScore(b, board.Black)) / pawnStructureUnit
}

// pawnScore penalises doubled and isolated pawns and rewards passed pawns.
func pawnScore(b *board.Board, c board.Color) int {
	ours := board.NewPiece(board.Pawn, c)
	theirs := board.NewPiece(board.Pawn, c.Other())

	var files [8]int
	for _, sq := range b.PiecesOf(c) {
		if b.PieceAt(sq) == ours {
			files[sq.File()]++
		}
	}

	score := 0
	for f, n := range files {
		if n > 1 {
			score += doubledPawnPen * (n - 1)
		}
		if n > 0 {
			left := f > 0 && files[f-1] > 0
			right := f < 7 && files[f+1] > 0
			if !left && !right {
				score += isolatedPawnPen * n
			}
		}
	}

	for _, sq := range b.PiecesOf(c) {
		if b.PieceAt(sq) != ours {
			continue
		}
		if isPassed(b, sq, c, theirs) {
			score += passedPawnBase + sq.RelativeRank(c)
		}
	}
	return score
}

// isPassed reports whether no enemy pawn stands ahead of sq on its own or
// an adjacent file.
func isPassed(b *board.Board, sq board.Square, c board.Color, theirs board.Piece) bool {
	for df := -1; df <= 1; df++ {
		file := sq.File() + df
		if file < 0 || file > 7 {
			continue
		}
		for rank := 0; rank < 8; rank++ {
			ahead := rank > sq.Rank()
			if c == board.Black {
				ahead = rank < sq.Rank()
			}
			if ahead && b.PieceAt(board.NewSquare(file, rank)) == theirs {
				return false
			}
		}
	}
	return true
}

// pieceActivity rewards centralised and developed minor pieces.
func pieceActivity(b *board.Board, c board.Color) int {
	score := 0
	for _, sq := range b.PiecesOf(c) {
		pt := b.PieceAt(sq).Type()
		if pt != board.Knight && pt != board.Bishop {
			continue
		}
		f, r := sq.File(), sq.Rank()
		switch {
		case (f == 3 || f == 4) && (r == 3 || r == 4):
			score += minorOnCenter
		case f >= 2 && f <= 5 && r >= 2 && r <= 5:
			score += minorNearCenter
		}
		if sq.RelativeRank(c) != 0 {
			score += minorDeveloped
		}
	}
	return score
}

// centerControl counts c's attackers on the four central squares.
func centerControl(b *board.Board, c board.Color) int {
	n := 0
	for _, sq := range centerSquares {
		n += b.AttackersTo(sq, c)
	}
	return n
}
