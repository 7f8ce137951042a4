package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/profile"
)

func mustFEN(t *testing.T, fen string) *board.Board {
	t.Helper()
	b, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

func newTestSearcher(t *testing.T, seed uint64) *Searcher {
	t.Helper()
	cache, err := NewPositionCache(10_000, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPositionCache: %v", err)
	}
	eval := NewEvaluator(DefaultWeights(), NewPawnTable(1024))
	return NewSearcher(NewTranspositionTable(50_000), cache, eval, seed)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Depth = 2
	cfg.MoveTime = 0
	cfg.UseBook = false
	cfg.Seed = 1
	cfg.TTCapacity = 50_000
	cfg.CacheCapacity = 10_000
	return cfg
}

func isLegal(b *board.Board, c board.Color, m board.Move) bool {
	for _, lm := range b.LegalMoves(c) {
		if lm.SameAs(m) {
			return true
		}
	}
	return false
}

func TestSearchReturnsLegalMoveAndKeepsBoard(t *testing.T) {
	s := newTestSearcher(t, 1)
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	for _, fen := range fens {
		for _, c := range []board.Color{board.White, board.Black} {
			b := mustFEN(t, fen)
			before := b.Copy()

			r, ok := s.BestMove(context.Background(), b, c, 2)
			if !ok {
				t.Fatalf("%s %v: no move", fen, c)
			}
			if p := before.PieceAt(r.Move.From); p.Color() != c {
				t.Errorf("%s %v: move %v starts on %v", fen, c, r.Move, p)
			}
			probe := before.Copy()
			probe.SideToMove = c
			if !isLegal(probe, c, r.Move) {
				t.Errorf("%s %v: illegal move %v", fen, c, r.Move)
			}
			if !b.Equal(before) {
				t.Errorf("%s: search modified the board", fen)
			}
		}
	}
}

func TestSearchStartPositionDepth2(t *testing.T) {
	s := newTestSearcher(t, 1)
	s.Traits = profile.Traits{Aggression: 0.5, RiskTaking: 0.5, Positional: 0.5}
	b := board.NewBoard()

	r, ok := s.BestMove(context.Background(), b, board.White, 2)
	if !ok {
		t.Fatal("no move from the starting position")
	}
	pt := r.Move.Piece.Type()
	if pt != board.Pawn && pt != board.Knight {
		t.Errorf("opening move %v moves a %v", r.Move, pt)
	}
	if !b.Equal(board.NewBoard()) {
		t.Error("board changed by search")
	}
	if r.Nodes == 0 {
		t.Error("no nodes counted")
	}
}

func TestSearchNoMoves(t *testing.T) {
	s := newTestSearcher(t, 1)
	for _, fen := range []string{
		"R6k/6pp/8/8/8/8/8/K7 b - - 0 1", // checkmate
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", // stalemate
	} {
		r, ok := s.BestMove(context.Background(), mustFEN(t, fen), board.Black, 3)
		if ok || !r.Move.IsNull() {
			t.Errorf("%s: got %v, %v; want no move", fen, r.Move, ok)
		}
	}
	if _, ok := s.BestMove(context.Background(), nil, board.White, 1); ok {
		t.Error("nil board produced a move")
	}
}

func TestSearchFindsMate(t *testing.T) {
	for _, threads := range []int{1, 4} {
		s := newTestSearcher(t, 1)
		s.Threads = threads
		b := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")

		for depth := 1; depth <= 3; depth++ {
			r, ok := s.BestMove(context.Background(), b, board.White, depth)
			if !ok || r.Move.String() != "a1a8" {
				t.Errorf("threads=%d depth=%d: got %v, want a1a8", threads, depth, r.Move)
				continue
			}
			if !r.IsMate() || r.MateIn() != 1 {
				t.Errorf("threads=%d depth=%d: score %v, MateIn %d", threads, depth, r.Score, r.MateIn())
			}
		}
	}
}

func TestSearchAvoidsMate(t *testing.T) {
	// Black must deal with Ra8#; h7h6 or g7g6 gives the king air.
	s := newTestSearcher(t, 1)
	b := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1")
	r, ok := s.BestMove(context.Background(), b, board.Black, 2)
	if !ok {
		t.Fatal("no move")
	}
	if r.Score <= -MateScore {
		t.Errorf("black move %v allows mate (score %v)", r.Move, r.Score)
	}
}

func TestSearchWinsHangingQueen(t *testing.T) {
	s := newTestSearcher(t, 1)
	b := mustFEN(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	r, ok := s.BestMove(context.Background(), b, board.White, 2)
	if !ok || r.Move.String() != "d2d5" {
		t.Errorf("got %v, want d2d5", r.Move)
	}
}

func TestCaptureBonus(t *testing.T) {
	s := newTestSearcher(t, 1)
	s.Traits.Aggression = 0.5
	b := mustFEN(t, "4k3/8/8/3r4/8/8/3R4/4K3 w - - 0 1")

	m, err := b.ParseMove("d2d5")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.captureBonus(m); got != 2.5 {
		t.Errorf("captureBonus(rook) = %v, want 2.5", got)
	}
	quiet, _ := b.ParseMove("d2d3")
	if got := s.captureBonus(quiet); got != 0 {
		t.Errorf("captureBonus(quiet) = %v, want 0", got)
	}
}

func TestRiskShuffleIsSeeded(t *testing.T) {
	b := board.NewBoard()
	var moves []string
	for i := 0; i < 2; i++ {
		s := newTestSearcher(t, 42)
		s.Traits.RiskTaking = 0.9
		r, ok := s.BestMove(context.Background(), b, board.White, 1)
		if !ok || !isLegal(b, board.White, r.Move) {
			t.Fatalf("shuffled search returned %v", r.Move)
		}
		moves = append(moves, r.Move.String())
	}
	if moves[0] != moves[1] {
		t.Errorf("same seed gave %v", moves)
	}
}

func TestSearchCancelled(t *testing.T) {
	s := newTestSearcher(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := board.NewBoard()
	r, ok := s.BestMove(ctx, b, board.White, 6)
	if !ok {
		t.Fatal("cancelled search returned no move")
	}
	if !r.Stopped {
		t.Error("Stopped not set")
	}
	if !isLegal(b, board.White, r.Move) {
		t.Errorf("illegal fallback move %v", r.Move)
	}
}

func TestEvaluatorSymmetry(t *testing.T) {
	e := NewEvaluator(DefaultWeights(), NewPawnTable(64))

	if got := e.Evaluate(board.NewBoard(), board.White); got != 0 {
		t.Errorf("start position = %v, want 0", got)
	}
	if got := e.Evaluate(nil, board.White); got != 0 {
		t.Errorf("nil board = %v, want 0", got)
	}
	if got := e.Evaluate(board.Empty(), board.Black); got != 0 {
		t.Errorf("empty board = %v, want 0", got)
	}

	for _, fen := range []string{
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2",
	} {
		b := mustFEN(t, fen)
		w, bl := e.Evaluate(b, board.White), e.Evaluate(b, board.Black)
		if w != -bl {
			t.Errorf("%s: white %v, black %v", fen, w, bl)
		}
	}
}

func TestEvaluatorTerms(t *testing.T) {
	e := NewEvaluator(DefaultWeights(), nil)

	b := mustFEN(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	if got := e.Evaluate(b, board.White); got < 7 {
		t.Errorf("extra queen scores %v", got)
	}

	start := e.Terms(board.NewBoard())
	if start != (Terms{}) {
		t.Errorf("start terms = %+v, want all zero", start)
	}

	// Doubled isolated white pawns against a single black pawn.
	pawns := mustFEN(t, "4k3/6p1/8/8/8/3P4/3P4/4K3 w - - 0 1")
	if got := e.Terms(pawns).PawnStructure; got >= 0 {
		t.Errorf("doubled isolated pawns score %v, want negative", got)
	}

	// A centralised knight beats one on the rim.
	knights := mustFEN(t, "n3k3/8/8/8/3N4/8/8/4K3 w - - 0 1")
	if got := e.Terms(knights).PieceActivity; got <= 0 {
		t.Errorf("central knight activity %v, want positive", got)
	}
}

func TestPositionalScale(t *testing.T) {
	e := NewEvaluator(DefaultWeights(), nil)
	if e.SetPositional(0.5) {
		t.Error("0.5 should keep the default scale")
	}
	if !e.SetPositional(1) || e.PositionalScale != 1.5 {
		t.Errorf("PositionalScale = %v, want 1.5", e.PositionalScale)
	}

	b := mustFEN(t, "4k3/6p1/8/8/8/3P4/3P4/4K3 w - - 0 1")
	high := e.Evaluate(b, board.White)
	e.SetPositional(0)
	low := e.Evaluate(b, board.White)

	// Scales 1.5 and 0.5 differ by exactly one times the positional terms.
	tm, w := e.Terms(b), e.Weights
	positional := w.KingSafety*tm.KingSafety + w.PawnStructure*tm.PawnStructure +
		w.PieceActivity*tm.PieceActivity + w.CenterControl*tm.CenterControl
	if positional == 0 {
		t.Fatal("test position has no positional terms")
	}
	if diff := high - low; math.Abs(diff-positional) > 1e-9 {
		t.Errorf("scale difference %v, want %v", diff, positional)
	}
}

func TestTranspositionTable(t *testing.T) {
	tt := NewTranspositionTable(100)
	b := board.NewBoard()

	if _, ok := tt.Lookup(b, 0); ok {
		t.Fatal("hit on empty table")
	}

	tt.Store(b, 1.25, 3)
	if e, ok := tt.Lookup(b, 3); !ok || e.Score != 1.25 {
		t.Errorf("Lookup(d) = %+v, %v", e, ok)
	}
	if e, ok := tt.Lookup(b, 2); !ok || e.Score != 1.25 {
		t.Errorf("Lookup(d-1) = %+v, %v", e, ok)
	}
	if _, ok := tt.Lookup(b, 4); ok {
		t.Error("Lookup(d+1) hit a shallower entry")
	}

	tt.Store(b, -0.5, 1)
	if e, ok := tt.Lookup(b, 1); !ok || e.Score != -0.5 {
		t.Errorf("Store did not overwrite: %+v", e)
	}
	if tt.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tt.Len())
	}

	if tt.Hits() != 3 || tt.Misses() != 2 {
		t.Errorf("hits/misses = %d/%d, want 3/2", tt.Hits(), tt.Misses())
	}
	if rate := tt.HitRate(); rate != 60 {
		t.Errorf("HitRate() = %v, want 60", rate)
	}

	tt.Clear()
	if tt.Len() != 0 || tt.Hits() != 0 {
		t.Error("Clear left state behind")
	}
}

func TestTranspositionTablePurgesOldest(t *testing.T) {
	tt := NewTranspositionTable(20)
	for k := uint64(1); k <= 20; k++ {
		tt.Save(k, float64(k), 1, TTExact, board.NoMove)
	}
	if tt.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", tt.Len())
	}

	// Probing key 1 must not protect it: eviction is by insertion order.
	if _, ok := tt.Probe(1, 1); !ok {
		t.Fatal("key 1 missing")
	}

	tt.Save(21, 21, 1, TTExact, board.NoMove)
	if tt.Len() != 19 {
		t.Errorf("Len() after purge = %d, want 19", tt.Len())
	}
	for _, k := range []uint64{1, 2} {
		if _, ok := tt.Probe(k, 0); ok {
			t.Errorf("key %d survived the purge", k)
		}
	}
	for _, k := range []uint64{3, 20, 21} {
		if _, ok := tt.Probe(k, 0); !ok {
			t.Errorf("key %d was purged", k)
		}
	}

	// Overwriting an existing key never purges.
	tt.Save(3, -3, 2, TTLowerBound, board.NoMove)
	if tt.Len() != 19 || tt.Purges() != 1 {
		t.Errorf("Len %d purges %d after overwrite", tt.Len(), tt.Purges())
	}
}

func TestPositionCacheLRU(t *testing.T) {
	pc, err := NewPositionCache(3, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	pc.Put(1, 0.1)
	pc.Put(2, 0.2)
	pc.Put(3, 0.3)

	if v, ok := pc.Get(1); !ok || v != 0.1 {
		t.Fatalf("Get(1) = %v, %v", v, ok)
	}

	pc.Put(4, 0.4)
	if pc.Contains(2) {
		t.Error("least recently used key 2 survived")
	}
	for _, k := range []uint64{1, 3, 4} {
		if !pc.Contains(k) {
			t.Errorf("key %d evicted", k)
		}
	}
	if pc.Len() != 3 || pc.Evictions() != 1 {
		t.Errorf("Len %d evictions %d", pc.Len(), pc.Evictions())
	}
	if _, ok := pc.Get(2); ok {
		t.Error("Get(2) hit after eviction")
	}
	if pc.Hits() != 1 || pc.Misses() != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", pc.Hits(), pc.Misses())
	}
}

func TestPawnTable(t *testing.T) {
	pt := NewPawnTable(1000)
	if pt.Size() != 1024 {
		t.Errorf("Size() = %d, want 1024", pt.Size())
	}

	b := board.NewBoard()
	key := b.PawnDigest()
	if _, found := pt.Probe(key); found {
		t.Error("expected miss on first probe")
	}
	pt.Store(key, -0.75)
	if v, found := pt.Probe(key); !found || v != -0.75 {
		t.Errorf("Probe = %v, %v", v, found)
	}

	m, _ := b.ParseMove("e2e4")
	undo := b.MakeMove(m)
	if b.PawnDigest() == key {
		t.Error("pawn digest unchanged after a pawn move")
	}
	b.UnmakeMove(m, undo)
	if b.PawnDigest() != key {
		t.Error("pawn digest not restored on unmake")
	}

	pt.Clear()
	if _, found := pt.Probe(key); found {
		t.Error("hit after Clear")
	}
}

func TestOrderingPutsCapturesFirst(t *testing.T) {
	b := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	moves := b.LegalMoves(board.White)
	mo := NewMoveOrderer()
	mo.Order(moves, 0, board.NoMove)

	seenQuiet := false
	for _, m := range moves {
		if !m.IsCapture() && !m.IsPromotion() {
			seenQuiet = true
		} else if seenQuiet {
			t.Fatalf("capture %v ordered after a quiet move", m)
		}
	}

	// Killers come straight after captures.
	killer, _ := b.ParseMove("a2a3")
	mo.UpdateKillers(killer, 2)
	mo.Order(moves, 2, board.NoMove)
	for _, m := range moves {
		if !m.IsCapture() {
			if !m.SameAs(killer) {
				t.Errorf("first quiet move = %v, want killer %v", m, killer)
			}
			break
		}
	}
}

func TestEngineBestMove(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var infos []SearchInfo
	e.OnInfo = func(i SearchInfo) { infos = append(infos, i) }

	b := board.NewBoard()
	r, ok := e.BestMove(context.Background(), b, board.White)
	if !ok || !isLegal(b, board.White, r.Move) {
		t.Fatalf("BestMove = %v, %v", r.Move, ok)
	}
	if r.Book {
		t.Error("book move with the book disabled")
	}
	if len(infos) != 2 || infos[1].Depth != 2 {
		t.Errorf("OnInfo calls = %+v", infos)
	}
	if !b.Equal(board.NewBoard()) {
		t.Error("engine modified the board")
	}
	if s := e.Stats(); s.TTEntries == 0 || s.CacheLen == 0 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestEngineBook(t *testing.T) {
	cfg := testConfig()
	cfg.UseBook = true
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b := board.NewBoard()
	r, ok := e.BestMove(context.Background(), b, board.White)
	if !ok || !r.Book {
		t.Fatalf("expected a book move, got %+v", r)
	}
	if !isLegal(b, board.White, r.Move) {
		t.Errorf("illegal book move %v", r.Move)
	}

	e.SetUseBook(false)
	r, _ = e.BestMove(context.Background(), b, board.White)
	if r.Book {
		t.Error("book used after SetUseBook(false)")
	}
}

func TestEngineMoveTime(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")

	start := time.Now()
	r, ok := e.Search(context.Background(), b, board.White, SearchLimits{Depth: 20, MoveTime: 200 * time.Millisecond})
	if !ok || !isLegal(b, board.White, r.Move) {
		t.Fatalf("Search = %v, %v", r.Move, ok)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("search ignored the deadline: %v", elapsed)
	}
}

func TestEngineProfileAndEvaluate(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := e.Evaluate(board.NewBoard(), board.White); got != 0 {
		t.Errorf("Evaluate(start) = %v", got)
	}

	p := profile.New("bold")
	p.Traits = profile.Traits{Aggression: 1, RiskTaking: 0.9, Positional: 0}
	e.SetProfile(p)
	if e.Profile() != p {
		t.Error("Profile() did not return the set profile")
	}

	b := mustFEN(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	r, ok := e.BestMove(context.Background(), b, board.White)
	if !ok || r.Move.String() != "d2d5" {
		t.Errorf("aggressive profile played %v", r.Move)
	}
}

func TestEnginePerft(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := e.Perft(board.NewBoard(), 3); got != 8902 {
		t.Errorf("Perft(3) = %d, want 8902", got)
	}
}

func TestDifficulty(t *testing.T) {
	d, err := ParseDifficulty("Hard")
	if err != nil || d != Hard {
		t.Fatalf("ParseDifficulty(Hard) = %v, %v", d, err)
	}
	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Error("ParseDifficulty accepted an unknown level")
	}
	cfg := DefaultConfig().WithDifficulty(Easy)
	if cfg.Depth != DifficultySettings[Easy].Depth || cfg.MoveTime != DifficultySettings[Easy].MoveTime {
		t.Errorf("WithDifficulty(Easy) = %+v", cfg)
	}
}

func TestAllocate(t *testing.T) {
	if got := Allocate(UCILimits{MoveTime: time.Second}, board.White, 0); got != time.Second {
		t.Errorf("movetime: %v", got)
	}
	if got := Allocate(UCILimits{Infinite: true}, board.White, 0); got != 0 {
		t.Errorf("infinite: %v", got)
	}

	limits := UCILimits{MovesToGo: 30}
	limits.Time[board.Black] = time.Minute
	if got := Allocate(limits, board.Black, 20); got != 2*time.Second-moveOverhead {
		t.Errorf("60s/30 moves: %v", got)
	}

	limits = UCILimits{}
	limits.Time[board.White] = 100 * time.Millisecond
	if got := Allocate(limits, board.White, 30); got > 50*time.Millisecond || got < minMoveTime {
		t.Errorf("low clock: %v", got)
	}

	tm := NewTimeManager()
	tm.Init(UCILimits{MoveTime: time.Hour}, board.White, 0)
	if tm.ShouldStop() || tm.Budget() != time.Hour {
		t.Errorf("fresh budget: %v", tm.Budget())
	}
}

func TestScoreToString(t *testing.T) {
	if got := ScoreToString(Result{Score: 0.5}); got != "+0.50" {
		t.Errorf("got %q", got)
	}
	if got := ScoreToString(Result{Score: MateScore + 1, Depth: 2}); got != "Mate in 1" {
		t.Errorf("got %q", got)
	}
	if got := ScoreToString(Result{Score: -(MateScore + 0), Depth: 2}); got != "Mated in 1" {
		t.Errorf("got %q", got)
	}
}
