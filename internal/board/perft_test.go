package board

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

// perft counts the leaf nodes at the given depth.
func perft(b *Board, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := b.LegalMoves(b.SideToMove)
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		undo := b.MakeMove(m)
		nodes += perft(b, depth-1)
		b.UnmakeMove(m, undo)
	}
	return nodes
}

// referencePerft counts leaf nodes with an independent bitboard generator.
func referencePerft(b *dragontoothmg.Board, depth int) int64 {
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var nodes int64
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += referencePerft(b, depth-1)
		unapply()
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		expected []int64
	}{
		{"start", StartFEN, []int64{20, 400, 8902, 197281}},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []int64{48, 2039, 97862}},
		{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []int64{14, 191, 2812, 43238}},
		{"promotions", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []int64{6, 264, 9467}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			for i, want := range tc.expected {
				if got := perft(b, i+1); got != want {
					t.Errorf("perft(%d) = %d, want %d", i+1, got, want)
				}
			}
		})
	}
}

func TestPerftMatchesReference(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	}

	for _, fen := range fens {
		b, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		ref := dragontoothmg.ParseFen(fen)
		for depth := 1; depth <= 3; depth++ {
			want := referencePerft(&ref, depth)
			if got := perft(b, depth); got != want {
				t.Errorf("%s depth %d: got %d, reference %d", fen, depth, got, want)
			}
		}
	}
}

func TestEnPassantPin(t *testing.T) {
	// e4xd3 would expose the black king on a4 to the rook on h4.
	b, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	for _, m := range b.LegalMoves(Black) {
		if m.IsEnPassant() {
			t.Errorf("en passant %v should be illegal", m)
		}
	}
	if got := perft(b, 1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
}

func TestEnPassantOnlyForSideToMove(t *testing.T) {
	b, err := ParseFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	found := false
	for _, m := range b.LegalMoves(White) {
		if m.IsEnPassant() && m.To == D6 {
			found = true
			if m.Captured != BlackPawn {
				t.Errorf("en passant captured = %v, want black pawn", m.Captured)
			}
		}
	}
	if !found {
		t.Error("exd6 e.p. missing for the side to move")
	}

	b.SideToMove = Black
	for _, m := range b.LegalMoves(White) {
		if m.IsEnPassant() {
			t.Errorf("en passant %v generated for the side not to move", m)
		}
	}
}

func TestMakeUnmakeRestores(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1",
	}

	for _, fen := range fens {
		b, _ := ParseFEN(fen)
		orig := b.Copy()
		for _, m := range b.LegalMoves(b.SideToMove) {
			undo := b.MakeMove(m)
			if b.SideToMove == orig.SideToMove {
				t.Errorf("%v: side to move not switched", m)
			}
			b.UnmakeMove(m, undo)
			if !b.Equal(orig) {
				t.Fatalf("%s: %v not restored\n got %s\nwant %s", fen, m, b.FEN(), orig.FEN())
			}
		}
	}
}

func TestCastlingThroughCheck(t *testing.T) {
	// The black rook on f8 covers f1, so White may only castle queenside.
	b, err := ParseFEN("4kr2/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	var castles []string
	for _, m := range b.LegalMoves(White) {
		if m.IsCastling() {
			castles = append(castles, m.String())
		}
	}
	if len(castles) != 1 || castles[0] != "e1c1" {
		t.Errorf("castling moves = %v, want [e1c1]", castles)
	}

	m, err := b.ParseMove("e1c1")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	b.MakeMove(m)
	if b.PieceAt(D1) != WhiteRook || b.PieceAt(A1) != NoPiece || b.KingSquare(White) != C1 {
		t.Errorf("castling left board:\n%s", b)
	}
	if b.CastlingRights.CanCastle(White, true) || b.CastlingRights.CanCastle(White, false) {
		t.Errorf("white castling rights remain: %s", b.CastlingRights)
	}
}
