package board

// step is a (file, rank) displacement.
type step struct{ df, dr int }

var (
	knightSteps = [8]step{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8]step{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	rookDirs    = [4]step{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	bishopDirs  = [4]step{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
)

// pawnDir returns the rank direction pawns of color c advance in.
func pawnDir(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

// IsSquareAttacked returns true if any piece of color by attacks sq.
func (b *Board) IsSquareAttacked(sq Square, by Color) bool {
	return b.attackers(sq, by, true) > 0
}

// AttackersTo counts the pieces of color by that attack sq.
func (b *Board) AttackersTo(sq Square, by Color) int {
	return b.attackers(sq, by, false)
}

// attackers walks outward from sq looking for pieces of color by that
// reach it. With first set it stops at the first attacker found.
func (b *Board) attackers(sq Square, by Color, first bool) int {
	n := 0

	// Pawns attack from one rank behind their direction of travel.
	pawn := NewPiece(Pawn, by)
	for _, df := range [2]int{-1, 1} {
		if from, ok := sq.Offset(df, -pawnDir(by)); ok && b.squares[from] == pawn {
			n++
			if first {
				return n
			}
		}
	}

	knight := NewPiece(Knight, by)
	for _, s := range knightSteps {
		if from, ok := sq.Offset(s.df, s.dr); ok && b.squares[from] == knight {
			n++
			if first {
				return n
			}
		}
	}

	king := NewPiece(King, by)
	for _, s := range kingSteps {
		if from, ok := sq.Offset(s.df, s.dr); ok && b.squares[from] == king {
			n++
			if first {
				return n
			}
		}
	}

	queen := NewPiece(Queen, by)
	rook := NewPiece(Rook, by)
	for _, d := range rookDirs {
		if p := b.firstPieceAlong(sq, d); p == rook || p == queen {
			n++
			if first {
				return n
			}
		}
	}

	bishop := NewPiece(Bishop, by)
	for _, d := range bishopDirs {
		if p := b.firstPieceAlong(sq, d); p == bishop || p == queen {
			n++
			if first {
				return n
			}
		}
	}

	return n
}

// firstPieceAlong returns the first piece met walking from sq in direction d.
func (b *Board) firstPieceAlong(sq Square, d step) Piece {
	cur := sq
	for {
		next, ok := cur.Offset(d.df, d.dr)
		if !ok {
			return NoPiece
		}
		if p := b.squares[next]; p != NoPiece {
			return p
		}
		cur = next
	}
}

// Attacks returns the squares attacked by the piece on sq. Pawns attack
// diagonally only; an empty square attacks nothing.
func (b *Board) Attacks(sq Square) []Square {
	p := b.PieceAt(sq)
	if p == NoPiece {
		return nil
	}

	var out []Square
	switch p.Type() {
	case Pawn:
		for _, df := range [2]int{-1, 1} {
			if to, ok := sq.Offset(df, pawnDir(p.Color())); ok {
				out = append(out, to)
			}
		}
	case Knight:
		out = b.stepTargets(sq, knightSteps[:], out)
	case King:
		out = b.stepTargets(sq, kingSteps[:], out)
	case Bishop:
		out = b.slideTargets(sq, bishopDirs[:], out)
	case Rook:
		out = b.slideTargets(sq, rookDirs[:], out)
	case Queen:
		out = b.slideTargets(sq, rookDirs[:], out)
		out = b.slideTargets(sq, bishopDirs[:], out)
	}
	return out
}

func (b *Board) stepTargets(sq Square, steps []step, out []Square) []Square {
	for _, s := range steps {
		if to, ok := sq.Offset(s.df, s.dr); ok {
			out = append(out, to)
		}
	}
	return out
}

// slideTargets includes the first blocker in each direction, whatever its color.
func (b *Board) slideTargets(sq Square, dirs []step, out []Square) []Square {
	for _, d := range dirs {
		cur := sq
		for {
			next, ok := cur.Offset(d.df, d.dr)
			if !ok {
				break
			}
			out = append(out, next)
			if b.squares[next] != NoPiece {
				break
			}
			cur = next
		}
	}
	return out
}

// InCheck returns true if the king of color c is attacked.
// A color without a king is never in check.
func (b *Board) InCheck(c Color) bool {
	ksq := b.KingSquare(c)
	if ksq == NoSquare {
		return false
	}
	return b.IsSquareAttacked(ksq, c.Other())
}
