package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/book"
	"github.com/hailam/adaptiveplay/internal/profile"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    float64
	Mate     int // moves to mate, 0 when not a mate score
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = engine default)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until the context is cancelled
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, 500ms
	Medium                   // 3 ply, 2s
	Hard                     // 5 ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 3, MoveTime: 2 * time.Second},
	Hard:   {Depth: 5, MoveTime: 5 * time.Second},
}

// String returns the lowercase difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty parses "easy", "medium" or "hard".
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(s) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// Config holds engine settings.
type Config struct {
	Depth         int
	MoveTime      time.Duration
	Threads       int
	TTCapacity    int // transposition table entries
	CacheCapacity int // position cache entries
	PawnCacheSize int // pawn table slots
	UseBook       bool
	Seed          uint64 // 0 seeds from system entropy
	Weights       Weights
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	limits := DifficultySettings[Medium]
	return Config{
		Depth:         limits.Depth,
		MoveTime:      limits.MoveTime,
		Threads:       1,
		TTCapacity:    200_000,
		CacheCapacity: 100_000,
		PawnCacheSize: 1 << 14,
		UseBook:       true,
		Weights:       DefaultWeights(),
	}
}

// WithDifficulty returns c with depth and move time taken from d.
func (c Config) WithDifficulty(d Difficulty) Config {
	if limits, ok := DifficultySettings[d]; ok {
		c.Depth = limits.Depth
		c.MoveTime = limits.MoveTime
	}
	return c
}

// Stats is a snapshot of cache counters.
type Stats struct {
	TTEntries   int
	TTHits      uint64
	TTMisses    uint64
	TTHitRate   float64
	TTPurges    uint64
	CacheLen    int
	CacheHits   uint64
	CacheMisses uint64
	Evictions   uint64
	HashFull    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithBook sets the opening book. A nil book disables book moves.
func WithBook(b *book.Book) Option {
	return func(e *Engine) { e.book = b }
}

// Engine is the chess AI engine. Searches are serialised; other methods
// may be called concurrently.
type Engine struct {
	searchMu sync.Mutex // held for the duration of a search
	mu       sync.Mutex // guards cfg and profile

	cfg     Config
	profile *profile.PlayerProfile

	tt       *TranspositionTable
	cache    *PositionCache
	pawns    *PawnTable
	eval     *Evaluator
	searcher *Searcher
	book     *book.Book

	log zerolog.Logger

	// OnInfo is called after each completed iteration.
	OnInfo func(SearchInfo)
}

// New creates an engine. Unless WithBook is given, the built-in book is used.
func New(cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		profile: profile.New("engine"),
		log:     zerolog.Nop(),
		book:    book.Default(cfg.Seed),
	}
	for _, opt := range opts {
		opt(e)
	}

	cache, err := NewPositionCache(max(cfg.CacheCapacity, 1), e.log)
	if err != nil {
		return nil, err
	}
	e.cache = cache
	e.tt = NewTranspositionTable(cfg.TTCapacity)
	e.tt.SetLogger(e.log)
	e.pawns = NewPawnTable(cfg.PawnCacheSize)
	e.eval = NewEvaluator(cfg.Weights, e.pawns)
	e.searcher = NewSearcher(e.tt, e.cache, e.eval, cfg.Seed)
	e.searcher.SetLogger(e.log)

	return e, nil
}

// Config returns the current settings.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SetProfile sets the profile whose traits steer the search. The engine
// reads the traits at the start of each search.
func (e *Engine) SetProfile(p *profile.PlayerProfile) {
	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()
}

// Profile returns the active profile.
func (e *Engine) Profile() *profile.PlayerProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// SetDifficulty sets depth and move time from a difficulty level.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.mu.Lock()
	e.cfg = e.cfg.WithDifficulty(d)
	e.mu.Unlock()
}

// SetDepth sets the maximum iterative deepening depth.
func (e *Engine) SetDepth(depth int) {
	e.mu.Lock()
	e.cfg.Depth = depth
	e.mu.Unlock()
}

// SetThreads sets the number of root search goroutines.
func (e *Engine) SetThreads(n int) {
	e.mu.Lock()
	e.cfg.Threads = max(n, 1)
	e.mu.Unlock()
}

// SetUseBook enables or disables book moves.
func (e *Engine) SetUseBook(on bool) {
	e.mu.Lock()
	e.cfg.UseBook = on
	e.mu.Unlock()
}

// SetTTCapacity replaces the transposition table with an empty one.
func (e *Engine) SetTTCapacity(n int) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	e.mu.Lock()
	e.cfg.TTCapacity = n
	e.mu.Unlock()

	e.tt = NewTranspositionTable(n)
	e.tt.SetLogger(e.log)
	e.searcher.tt = e.tt
}

// Book returns the opening book, which may be nil.
func (e *Engine) Book() *book.Book {
	return e.book
}

// BestMove searches with the configured depth and move time.
func (e *Engine) BestMove(ctx context.Context, b *board.Board, color board.Color) (Result, bool) {
	cfg := e.Config()
	return e.Search(ctx, b, color, SearchLimits{Depth: cfg.Depth, MoveTime: cfg.MoveTime})
}

// Search plays a book move when one exists, otherwise it deepens
// iteratively until the depth or time limit and returns the last complete
// iteration. The second result is false when color has no legal move.
func (e *Engine) Search(ctx context.Context, b *board.Board, color board.Color, limits SearchLimits) (Result, bool) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	e.mu.Lock()
	cfg := e.cfg
	traits := profile.DefaultTraits()
	if e.profile != nil {
		traits = e.profile.Traits
	}
	e.mu.Unlock()

	if b == nil {
		return Result{Move: board.NoMove}, false
	}

	if cfg.UseBook && e.book != nil && b.SideToMove == color {
		if m, ok := e.book.Probe(b); ok {
			e.log.Debug().Str("move", m.String()).Msg("book move")
			return Result{Move: m, Book: true}, true
		}
	}

	// Cached evaluations depend on the positional scale.
	if e.eval.SetPositional(traits.Positional) {
		e.cache.Purge()
		e.tt.Clear()
	}
	e.searcher.Traits = traits
	e.searcher.Threads = max(cfg.Threads, 1)

	maxDepth := cfg.Depth
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}
	if limits.Infinite {
		maxDepth = MaxPly
	}
	if maxDepth < 1 {
		maxDepth = 1
	}

	if limits.MoveTime > 0 && !limits.Infinite {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.MoveTime)
		defer cancel()
	}

	start := time.Now()
	var best Result
	var nodes uint64
	for depth := 1; depth <= maxDepth; depth++ {
		r, ok := e.searcher.BestMove(ctx, b, color, depth)
		if !ok {
			return r, false
		}
		nodes += r.Nodes

		if r.Stopped {
			// Keep the last complete iteration.
			if best.Move.IsNull() {
				best = r
			}
			break
		}
		best = r

		info := SearchInfo{
			Depth:    depth,
			Score:    r.Score,
			Mate:     r.MateIn(),
			Nodes:    nodes,
			Time:     time.Since(start),
			PV:       []board.Move{r.Move},
			HashFull: e.tt.HashFull(),
		}
		e.log.Debug().
			Int("depth", depth).
			Str("move", r.Move.String()).
			Float64("score", r.Score).
			Uint64("nodes", nodes).
			Dur("elapsed", info.Time).
			Msg("iteration complete")
		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		if r.IsMate() && r.Score > 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	best.Nodes = nodes
	return best, true
}

// Evaluate returns the static evaluation of b from c's side using the
// active profile's positional trait.
func (e *Engine) Evaluate(b *board.Board, c board.Color) float64 {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	if p := e.Profile(); p != nil {
		if e.eval.SetPositional(p.Traits.Positional) {
			e.cache.Purge()
			e.tt.Clear()
		}
	}
	return e.eval.Evaluate(b, c)
}

// Terms returns the unweighted evaluation breakdown of b from White's side.
func (e *Engine) Terms(b *board.Board) Terms {
	return e.eval.Terms(b)
}

// Perft counts leaf nodes of the legal move tree (for debugging move generation).
func (e *Engine) Perft(b *board.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.LegalMoves(b.SideToMove)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		undo := b.MakeMove(m)
		nodes += e.Perft(b, depth-1)
		b.UnmakeMove(m, undo)
	}
	return nodes
}

// Clear empties all caches.
func (e *Engine) Clear() {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	e.tt.Clear()
	e.cache.Purge()
	e.pawns.Clear()
}

// Stats returns cache counters.
func (e *Engine) Stats() Stats {
	return Stats{
		TTEntries:   e.tt.Len(),
		TTHits:      e.tt.Hits(),
		TTMisses:    e.tt.Misses(),
		TTHitRate:   e.tt.HitRate(),
		TTPurges:    e.tt.Purges(),
		CacheLen:    e.cache.Len(),
		CacheHits:   e.cache.Hits(),
		CacheMisses: e.cache.Misses(),
		Evictions:   e.cache.Evictions(),
		HashFull:    e.tt.HashFull(),
	}
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(r Result) string {
	if n := r.MateIn(); n > 0 {
		return fmt.Sprintf("Mate in %d", n)
	} else if n < 0 {
		return fmt.Sprintf("Mated in %d", -n)
	}
	return fmt.Sprintf("%+.2f", r.Score)
}
