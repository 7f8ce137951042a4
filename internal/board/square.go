// Package board implements a mailbox chess board with legal move generation.
package board

import (
	"errors"
	"fmt"
)

// ErrInvalidSquare is returned when algebraic square notation cannot be parsed.
var ErrInvalidSquare = errors.New("invalid square")

// Square indexes Board.squares: a1 is 0, h1 is 7 and h8 is 63.
// NoSquare marks an absent en passant target.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// NewSquare returns the mailbox index of a 0-based file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank<<3 | file)
}

// File is the column, 0 for the a-file.
func (sq Square) File() int { return int(sq) & 7 }

// Rank is the row, 0 for the first rank.
func (sq Square) Rank() int { return int(sq) >> 3 }

// IsValid reports whether sq indexes the 64-cell mailbox.
func (sq Square) IsValid() bool { return sq < NoSquare }

// RelativeRank counts ranks from c's own back rank.
func (sq Square) RelativeRank(c Color) int {
	if c == Black {
		return 7 - sq.Rank()
	}
	return sq.Rank()
}

// Offset walks df files and dr ranks from sq. ok is false when the step
// leaves the board.
func (sq Square) Offset(df, dr int) (Square, bool) {
	f, r := sq.File()+df, sq.Rank()+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// String renders sq as "e4", or "-" for NoSquare as FEN expects.
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return string([]byte{'a' + byte(sq.File()), '1' + byte(sq.Rank())})
}

// ParseSquare reads a coordinate such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) == 2 {
		file, rank := int(s[0])-'a', int(s[1])-'1'
		if file >= 0 && file < 8 && rank >= 0 && rank < 8 {
			return NewSquare(file, rank), nil
		}
	}
	return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
}
