package board

import (
	"errors"
	"fmt"
)

// ErrIllegalMove is returned when a move string does not match any legal move.
var ErrIllegalMove = errors.New("illegal move")

// Move flags
const (
	FlagNormal    uint8 = 0
	FlagCastling  uint8 = 1
	FlagEnPassant uint8 = 2
)

// Move is a from/to pair with the moving piece and, when the move
// captures, the piece it takes.
type Move struct {
	From      Square
	To        Square
	Piece     Piece
	Captured  Piece     // NoPiece for quiet moves
	Promotion PieceType // NoPieceType unless a pawn promotes
	Flag      uint8
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Promotion: NoPieceType}

// IsNull returns true for NoMove and other moves without squares.
func (m Move) IsNull() bool {
	return m.From >= NoSquare || m.To >= NoSquare
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType && m.Promotion != Pawn
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag == FlagCastling
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag == FlagEnPassant
}

// SameAs compares the squares and promotion only.
func (m Move) SameAs(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}

	s := m.From.String() + m.To.String()

	if m.IsPromotion() {
		s += string("pnbrqk"[m.Promotion])
	}

	return s
}

// ParseMove parses a UCI format move string against the legal moves of
// the side to move.
func (b *Board) ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: bad promotion piece %q", ErrIllegalMove, s[4])
		}
	}

	for _, m := range b.LegalMoves(b.SideToMove) {
		if m.From == from && m.To == to && m.Promotion == promo {
			return m, nil
		}
	}

	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// Undo stores information needed to undo a move.
type Undo struct {
	Captured       Piece
	CapturedSquare Square
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
	SideToMove     Color
}
