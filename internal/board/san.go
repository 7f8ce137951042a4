package board

import (
	"fmt"
	"strings"
)

// SAN converts a legal move to Standard Algebraic Notation.
func (b *Board) SAN(m Move) string {
	if m.IsNull() {
		return "-"
	}

	piece := b.PieceAt(m.From)
	if piece == NoPiece {
		return m.String()
	}

	var sb strings.Builder

	if m.IsCastling() {
		if m.To > m.From {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	} else {
		pt := piece.Type()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(b.disambiguation(m, piece))
		}

		if b.PieceAt(m.To) != NoPiece || m.IsEnPassant() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(m.To.String())

		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion])
		}
	}

	// Check and mate markers
	undo := b.MakeMove(m)
	them := b.SideToMove
	if b.InCheck(them) {
		if b.HasLegalMoves(them) {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	b.UnmakeMove(m, undo)

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when
// another piece of the same kind can reach the same destination.
func (b *Board) disambiguation(m Move, piece Piece) string {
	sameFile, sameRank, ambiguous := false, false, false
	for _, o := range b.LegalMoves(piece.Color()) {
		if o.To != m.To || o.From == m.From || o.Piece != piece {
			continue
		}
		ambiguous = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// ParseSAN parses a SAN string against the legal moves of the side to move.
func (b *Board) ParseSAN(s string) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")

	us := b.SideToMove
	legal := b.LegalMoves(us)

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		kingSide := len(s) == 3
		for _, m := range legal {
			if m.IsCastling() && (m.To > m.From) == kingSide {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		switch s[idx+1] {
		case 'N':
			promo = Knight
		case 'B':
			promo = Bishop
		case 'R':
			promo = Rook
		case 'Q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: bad promotion in %s", ErrIllegalMove, orig)
		}
		s = s[:idx]
	}

	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && strings.IndexByte("NBRQK", s[0]) >= 0 {
		pt = PieceType(strings.IndexByte("PNBRQK", s[0]))
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}

	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			file = int(c - 'a')
		case c >= '1' && c <= '8':
			rank = int(c - '1')
		}
	}

	for _, m := range legal {
		if m.To != dest || m.Piece.Type() != pt || m.Promotion != promo {
			continue
		}
		if file >= 0 && m.From.File() != file {
			continue
		}
		if rank >= 0 && m.From.Rank() != rank {
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
}

// MovesToSAN converts a sequence of moves played from b to SAN.
// The board is left unchanged.
func (b *Board) MovesToSAN(moves []Move) []string {
	out := make([]string, len(moves))
	p := b.Copy()
	for i, m := range moves {
		out[i] = p.SAN(m)
		p.MakeMove(m)
	}
	return out
}
