package board

// promotionTypes lists promotion pieces, strongest first.
var promotionTypes = [4]PieceType{Queen, Rook, Bishop, Knight}

// LegalMoves generates all legal moves for color c. En passant is only
// available to the side to move.
func (b *Board) LegalMoves(c Color) []Move {
	moves := make([]Move, 0, 48)
	for sq := A1; sq <= H8; sq++ {
		p := b.squares[sq]
		if p == NoPiece || p.Color() != c {
			continue
		}
		moves = b.pieceMoves(sq, moves)
	}
	return b.filterLegal(c, moves)
}

// MovesFrom generates the legal moves of the piece on sq.
func (b *Board) MovesFrom(sq Square) []Move {
	p := b.PieceAt(sq)
	if p == NoPiece {
		return nil
	}
	return b.filterLegal(p.Color(), b.pieceMoves(sq, nil))
}

// ValidMoves returns the legal destination squares for the piece on sq.
// A promoting pawn lists each destination once.
func (b *Board) ValidMoves(sq Square) []Square {
	var out []Square
	seen := make(map[Square]bool)
	for _, m := range b.MovesFrom(sq) {
		if !seen[m.To] {
			seen[m.To] = true
			out = append(out, m.To)
		}
	}
	return out
}

// HasLegalMoves returns true if color c has any legal move.
func (b *Board) HasLegalMoves(c Color) bool {
	for sq := A1; sq <= H8; sq++ {
		p := b.squares[sq]
		if p == NoPiece || p.Color() != c {
			continue
		}
		for _, m := range b.pieceMoves(sq, nil) {
			if b.isLegal(c, m) {
				return true
			}
		}
	}
	return false
}

// filterLegal drops moves that leave the mover's king attacked.
func (b *Board) filterLegal(c Color, moves []Move) []Move {
	legal := moves[:0]
	for _, m := range moves {
		if b.isLegal(c, m) {
			legal = append(legal, m)
		}
	}
	return legal
}

func (b *Board) isLegal(c Color, m Move) bool {
	undo := b.MakeMove(m)
	ok := !b.InCheck(c)
	b.UnmakeMove(m, undo)
	return ok
}

// pieceMoves appends the pseudo-legal moves of the piece on from.
func (b *Board) pieceMoves(from Square, moves []Move) []Move {
	p := b.squares[from]
	switch p.Type() {
	case Pawn:
		return b.pawnMoves(from, p, moves)
	case Knight:
		return b.stepMoves(from, p, knightSteps[:], moves)
	case Bishop:
		return b.slideMoves(from, p, bishopDirs[:], moves)
	case Rook:
		return b.slideMoves(from, p, rookDirs[:], moves)
	case Queen:
		moves = b.slideMoves(from, p, rookDirs[:], moves)
		return b.slideMoves(from, p, bishopDirs[:], moves)
	case King:
		moves = b.stepMoves(from, p, kingSteps[:], moves)
		return b.castlingMoves(from, p, moves)
	}
	return moves
}

func (b *Board) newMove(from, to Square, p Piece) Move {
	return Move{From: from, To: to, Piece: p, Captured: b.squares[to], Promotion: NoPieceType}
}

func (b *Board) stepMoves(from Square, p Piece, steps []step, moves []Move) []Move {
	us := p.Color()
	for _, s := range steps {
		to, ok := from.Offset(s.df, s.dr)
		if !ok {
			continue
		}
		if t := b.squares[to]; t != NoPiece && t.Color() == us {
			continue
		}
		moves = append(moves, b.newMove(from, to, p))
	}
	return moves
}

func (b *Board) slideMoves(from Square, p Piece, dirs []step, moves []Move) []Move {
	us := p.Color()
	for _, d := range dirs {
		cur := from
		for {
			to, ok := cur.Offset(d.df, d.dr)
			if !ok {
				break
			}
			t := b.squares[to]
			if t != NoPiece && t.Color() == us {
				break
			}
			moves = append(moves, b.newMove(from, to, p))
			if t != NoPiece {
				break
			}
			cur = to
		}
	}
	return moves
}

func (b *Board) pawnMoves(from Square, p Piece, moves []Move) []Move {
	us := p.Color()
	dir := pawnDir(us)
	lastRank := 7
	startRank := 1
	if us == Black {
		lastRank = 0
		startRank = 6
	}

	add := func(m Move) {
		if m.To.Rank() == lastRank {
			for _, pt := range promotionTypes {
				pm := m
				pm.Promotion = pt
				moves = append(moves, pm)
			}
			return
		}
		moves = append(moves, m)
	}

	// Pushes
	if one, ok := from.Offset(0, dir); ok && b.squares[one] == NoPiece {
		add(b.newMove(from, one, p))
		if from.Rank() == startRank {
			if two, ok := from.Offset(0, 2*dir); ok && b.squares[two] == NoPiece {
				moves = append(moves, b.newMove(from, two, p))
			}
		}
	}

	// Captures
	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, dir)
		if !ok {
			continue
		}
		if t := b.squares[to]; t != NoPiece && t.Color() != us {
			add(b.newMove(from, to, p))
			continue
		}
		if to == b.EnPassant && us == b.SideToMove {
			victim, _ := to.Offset(0, -dir)
			if b.squares[victim] == NewPiece(Pawn, us.Other()) {
				moves = append(moves, Move{
					From:      from,
					To:        to,
					Piece:     p,
					Captured:  b.squares[victim],
					Promotion: NoPieceType,
					Flag:      FlagEnPassant,
				})
			}
		}
	}

	return moves
}

// castlingMoves adds castling when the rights, the path and the attack
// state all allow it.
func (b *Board) castlingMoves(from Square, p Piece, moves []Move) []Move {
	us := p.Color()
	home := E1
	if us == Black {
		home = E8
	}
	if from != home || b.InCheck(us) {
		return moves
	}
	rank := home.Rank()
	them := us.Other()
	rook := NewPiece(Rook, us)

	if b.CastlingRights.CanCastle(us, true) &&
		b.squares[NewSquare(7, rank)] == rook &&
		b.squares[NewSquare(5, rank)] == NoPiece &&
		b.squares[NewSquare(6, rank)] == NoPiece &&
		!b.IsSquareAttacked(NewSquare(5, rank), them) &&
		!b.IsSquareAttacked(NewSquare(6, rank), them) {
		moves = append(moves, Move{From: from, To: NewSquare(6, rank), Piece: p, Promotion: NoPieceType, Flag: FlagCastling})
	}

	if b.CastlingRights.CanCastle(us, false) &&
		b.squares[NewSquare(0, rank)] == rook &&
		b.squares[NewSquare(1, rank)] == NoPiece &&
		b.squares[NewSquare(2, rank)] == NoPiece &&
		b.squares[NewSquare(3, rank)] == NoPiece &&
		!b.IsSquareAttacked(NewSquare(3, rank), them) &&
		!b.IsSquareAttacked(NewSquare(2, rank), them) {
		moves = append(moves, Move{From: from, To: NewSquare(2, rank), Piece: p, Promotion: NoPieceType, Flag: FlagCastling})
	}

	return moves
}

// MakeMove applies a move to the board and returns undo information.
// The mover's opponent becomes the side to move.
func (b *Board) MakeMove(m Move) Undo {
	undo := Undo{
		Captured:       NoPiece,
		CapturedSquare: NoSquare,
		CastlingRights: b.CastlingRights,
		EnPassant:      b.EnPassant,
		HalfMoveClock:  b.HalfMoveClock,
		FullMoveNumber: b.FullMoveNumber,
		SideToMove:     b.SideToMove,
	}

	piece := b.squares[m.From]
	if piece == NoPiece {
		return undo
	}
	us := piece.Color()

	// Handle captures
	if m.IsEnPassant() {
		victim, _ := m.To.Offset(0, -pawnDir(us))
		undo.Captured = b.Remove(victim)
		undo.CapturedSquare = victim
	} else if captured := b.squares[m.To]; captured != NoPiece {
		undo.Captured = captured
		undo.CapturedSquare = m.To
	}

	// Move the piece
	b.Put(m.From, NoPiece)
	if m.IsPromotion() {
		b.Put(m.To, NewPiece(m.Promotion, us))
	} else {
		b.Put(m.To, piece)
	}

	// Handle castling
	if m.IsCastling() {
		rank := m.From.Rank()
		rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
		if m.To.File() < m.From.File() {
			rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
		}
		b.Put(rookTo, b.Remove(rookFrom))
	}

	// Update castling rights
	if piece.Type() == King {
		if us == White {
			b.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			b.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}

	// Rook moves or captures affect castling
	if m.From == A1 || m.To == A1 {
		b.CastlingRights &^= WhiteQueenSideCastle
	}
	if m.From == H1 || m.To == H1 {
		b.CastlingRights &^= WhiteKingSideCastle
	}
	if m.From == A8 || m.To == A8 {
		b.CastlingRights &^= BlackQueenSideCastle
	}
	if m.From == H8 || m.To == H8 {
		b.CastlingRights &^= BlackKingSideCastle
	}

	// Set en passant square for double pawn push
	b.EnPassant = NoSquare
	if piece.Type() == Pawn && abs(m.To.Rank()-m.From.Rank()) == 2 {
		b.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}

	// Update half-move clock
	if piece.Type() == Pawn || undo.Captured != NoPiece {
		b.HalfMoveClock = 0
	} else {
		b.HalfMoveClock++
	}

	if us == Black {
		b.FullMoveNumber++
	}

	b.SideToMove = us.Other()
	return undo
}

// UnmakeMove undoes a move using the stored undo information.
func (b *Board) UnmakeMove(m Move, undo Undo) {
	moved := b.squares[m.To]
	if moved == NoPiece {
		return
	}
	us := moved.Color()

	if m.IsPromotion() {
		moved = NewPiece(Pawn, us)
	}
	b.Put(m.To, NoPiece)
	b.Put(m.From, moved)

	if m.IsCastling() {
		rank := m.From.Rank()
		rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
		if m.To.File() < m.From.File() {
			rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
		}
		b.Put(rookFrom, b.Remove(rookTo))
	}

	if undo.Captured != NoPiece {
		b.Put(undo.CapturedSquare, undo.Captured)
	}

	b.CastlingRights = undo.CastlingRights
	b.EnPassant = undo.EnPassant
	b.HalfMoveClock = undo.HalfMoveClock
	b.FullMoveNumber = undo.FullMoveNumber
	b.SideToMove = undo.SideToMove
}

// Status describes whether the game can continue.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	Draw
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// IsCheckmate returns true if color c is checkmated.
func (b *Board) IsCheckmate(c Color) bool {
	return b.InCheck(c) && !b.HasLegalMoves(c)
}

// IsStalemate returns true if color c is not in check but cannot move.
func (b *Board) IsStalemate(c Color) bool {
	return !b.InCheck(c) && !b.HasLegalMoves(c)
}

// Status reports the game state for the side to move.
func (b *Board) Status() Status {
	us := b.SideToMove
	if !b.HasLegalMoves(us) {
		if b.InCheck(us) {
			return Checkmate
		}
		return Stalemate
	}
	if b.HalfMoveClock >= 100 || b.IsInsufficientMaterial() {
		return Draw
	}
	return Ongoing
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (b *Board) IsInsufficientMaterial() bool {
	minors := [2]int{}
	for _, p := range b.squares {
		switch p.Type() {
		case Pawn, Rook, Queen:
			return false
		case Knight, Bishop:
			minors[p.Color()]++
		}
	}

	// K vs K, or K+minor vs K
	return minors[White]+minors[Black] <= 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
