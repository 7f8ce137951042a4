package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// Board is a mailbox chess position: one optional piece per square plus
// the game state needed for legal move generation.
type Board struct {
	squares [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Moves since last pawn move or capture (for 50-move rule)
	FullMoveNumber int    // Full move counter, starts at 1

	// King positions (cached for check detection)
	kings [2]Square
}

// NewBoard creates the starting position.
func NewBoard() *Board {
	b, _ := ParseFEN(StartFEN)
	return b
}

// Empty returns a board with no pieces and White to move.
func Empty() *Board {
	b := &Board{}
	b.Clear()
	return b
}

// Clear resets the board to an empty position.
func (b *Board) Clear() {
	*b = Board{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	b.kings[White] = NoSquare
	b.kings[Black] = NoSquare
}

// Copy creates a deep copy of the board.
func (b *Board) Copy() *Board {
	nb := *b
	return &nb
}

// Equal reports whether two boards hold the same position and game state.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	return *b == *o
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (b *Board) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return b.squares[sq]
}

// IsEmpty returns true if the square is empty.
func (b *Board) IsEmpty(sq Square) bool {
	return b.PieceAt(sq) == NoPiece
}

// Put places a piece on a square, replacing whatever was there.
// Putting NoPiece clears the square.
func (b *Board) Put(sq Square, p Piece) {
	if sq >= NoSquare {
		return
	}
	old := b.squares[sq]
	if old.Type() == King && b.kings[old.Color()] == sq {
		b.kings[old.Color()] = NoSquare
	}
	b.squares[sq] = p
	if p.Type() == King {
		b.kings[p.Color()] = sq
	}
}

// Remove clears a square and returns the piece that stood there.
func (b *Board) Remove(sq Square) Piece {
	p := b.PieceAt(sq)
	b.Put(sq, NoPiece)
	return p
}

// KingSquare returns the king square for a color, or NoSquare.
func (b *Board) KingSquare(c Color) Square {
	if c >= NoColor {
		return NoSquare
	}
	return b.kings[c]
}

// Pieces returns the occupied squares mapped to their pieces.
func (b *Board) Pieces() map[Square]Piece {
	out := make(map[Square]Piece, 32)
	for sq, p := range b.squares {
		if p != NoPiece {
			out[Square(sq)] = p
		}
	}
	return out
}

// PiecesOf returns the squares holding pieces of color c, in square order.
func (b *Board) PiecesOf(c Color) []Square {
	out := make([]Square, 0, 16)
	for sq, p := range b.squares {
		if p != NoPiece && p.Color() == c {
			out = append(out, Square(sq))
		}
	}
	return out
}

// Count returns how many pieces of the given type and color are on the board.
func (b *Board) Count(pt PieceType, c Color) int {
	want := NewPiece(pt, c)
	n := 0
	for _, p := range b.squares {
		if p == want {
			n++
		}
	}
	return n
}

// PieceCount returns the number of pieces on the board.
func (b *Board) PieceCount() int {
	n := 0
	for _, p := range b.squares {
		if p != NoPiece {
			n++
		}
	}
	return n
}

// Material returns the material balance in pawns (positive favors white).
func (b *Board) Material() float64 {
	score := 0.0
	for _, p := range b.squares {
		switch p.Color() {
		case White:
			score += p.Value()
		case Black:
			score -= p.Value()
		}
	}
	return score
}

// String returns a visual representation of the board.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			p := b.squares[NewSquare(file, rank)]
			if p == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(p.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", b.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", b.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", b.EnPassant)
	fmt.Fprintf(&sb, "FEN: %s\n", b.FEN())
	fmt.Fprintf(&sb, "Digest: %016x\n", b.Digest())
	return sb.String()
}

// Validate checks if the position is valid.
func (b *Board) Validate() error {
	if b.Count(King, White) != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if b.Count(King, Black) != 1 {
		return fmt.Errorf("black must have exactly one king")
	}

	for file := 0; file < 8; file++ {
		if b.squares[NewSquare(file, 0)].Type() == Pawn || b.squares[NewSquare(file, 7)].Type() == Pawn {
			return fmt.Errorf("pawns cannot be on rank 1 or 8")
		}
	}

	if b.InCheck(b.SideToMove.Other()) {
		return fmt.Errorf("side not to move is in check")
	}

	return nil
}
