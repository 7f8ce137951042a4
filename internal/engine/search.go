package engine

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/profile"
)

// Search constants
const (
	Infinity  = 1e9
	MateScore = 1000.0
	MaxPly    = 64

	// RiskShuffleThreshold is the RiskTaking level above which root moves
	// are searched in random order.
	RiskShuffleThreshold = 0.7

	// nodeCheckInterval is how often, in nodes, the context is polled.
	nodeCheckInterval = 1024
)

// Result is the outcome of a fixed-depth search.
type Result struct {
	Move  board.Move
	Score float64 // search score of Move for the searching side, without capture bonus
	Depth int
	Nodes uint64

	// Stopped is set when the context ended the search early. Move is then
	// the best root move whose subtree was searched completely.
	Stopped bool

	// Book is set when the move came from the opening book.
	Book bool
}

// IsMate reports whether the score is a forced mate for either side.
func (r Result) IsMate() bool {
	return r.Score >= MateScore || r.Score <= -MateScore
}

// MateIn returns the number of moves to mate, negative when being mated,
// or 0 for a normal score.
func (r Result) MateIn() int {
	if !r.IsMate() {
		return 0
	}
	s := r.Score
	sign := 1
	if s < 0 {
		s, sign = -s, -1
	}
	plies := r.Depth - int(s-MateScore)
	if plies < 1 {
		plies = 1
	}
	return sign * (plies + 1) / 2
}

// Searcher runs negamax alpha-beta searches over shared caches.
type Searcher struct {
	tt    *TranspositionTable
	cache *PositionCache
	eval  *Evaluator

	// Traits bias root move order and capture preference.
	Traits profile.Traits

	// Threads > 1 searches root moves in parallel.
	Threads int

	rngMu sync.Mutex
	rng   *frand.RNG

	nodes atomic.Uint64
	log   zerolog.Logger
}

// NewSearcher creates a searcher. A zero seed draws one from the system.
func NewSearcher(tt *TranspositionTable, cache *PositionCache, eval *Evaluator, seed uint64) *Searcher {
	return &Searcher{
		tt:      tt,
		cache:   cache,
		eval:    eval,
		Traits:  profile.DefaultTraits(),
		Threads: 1,
		rng:     newRNG(seed),
		log:     zerolog.Nop(),
	}
}

// newRNG returns a ChaCha RNG seeded from seed, or from system entropy when
// seed is 0.
func newRNG(seed uint64) *frand.RNG {
	var key [32]byte
	if seed == 0 {
		key = frand.Entropy256()
	} else {
		binary.LittleEndian.PutUint64(key[:], seed)
	}
	return frand.NewCustom(key[:], 1024, 12)
}

// SetLogger sets the logger for search events.
func (s *Searcher) SetLogger(l zerolog.Logger) {
	s.log = l
}

// Nodes returns the nodes visited by the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes.Load()
}

// BestMove searches depth plies for color and returns the best move. The
// search runs on a copy, so b is never modified. The second result is false
// when color has no legal move; telling checkmate from stalemate is left to
// the caller.
func (s *Searcher) BestMove(ctx context.Context, b *board.Board, color board.Color, depth int) (Result, bool) {
	s.nodes.Store(0)
	if b == nil {
		return Result{Move: board.NoMove}, false
	}
	if depth < 1 {
		depth = 1
	}

	pos := b.Copy()
	pos.SideToMove = color

	moves := pos.LegalMoves(color)
	if len(moves) == 0 {
		return Result{Move: board.NoMove, Depth: depth}, false
	}

	if s.Traits.RiskTaking > RiskShuffleThreshold {
		s.shuffle(moves)
	}

	scores := make([]float64, len(moves))
	done := make([]bool, len(moves))

	if s.Threads > 1 && len(moves) > 1 {
		s.searchParallel(ctx, pos, moves, depth, scores, done)
	} else {
		s.searchSequential(ctx, pos, moves, depth, scores, done)
	}

	res := Result{Move: board.NoMove, Depth: depth, Nodes: s.nodes.Load()}
	best := -Infinity
	for i, m := range moves {
		if !done[i] {
			res.Stopped = true
			continue
		}
		total := scores[i] + s.captureBonus(m)
		if total > best {
			best = total
			res.Move = m
			res.Score = scores[i]
		}
	}

	if res.Move.IsNull() {
		// Stopped before any root move finished.
		res.Move = moves[0]
		res.Score = s.eval.Evaluate(pos, color)
	}

	s.log.Trace().
		Int("depth", depth).
		Str("move", res.Move.String()).
		Float64("score", res.Score).
		Uint64("nodes", res.Nodes).
		Bool("stopped", res.Stopped).
		Msg("root search")

	return res, true
}

// captureBonus biases the root choice towards captures by aggression.
func (s *Searcher) captureBonus(m board.Move) float64 {
	if !m.IsCapture() {
		return 0
	}
	return m.Captured.Value() * s.Traits.Aggression
}

func (s *Searcher) shuffle(moves []board.Move) {
	s.rngMu.Lock()
	s.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
	s.rngMu.Unlock()
}

// searchSequential searches root moves in order. Each move only needs to
// prove it beats the best total so far, so later moves get a narrowed window.
func (s *Searcher) searchSequential(ctx context.Context, pos *board.Board, moves []board.Move, depth int, scores []float64, done []bool) {
	w := newWorker(s, pos)
	best := -Infinity
	for i, m := range moves {
		if ctx.Err() != nil {
			return
		}
		bonus := s.captureBonus(m)
		alpha := best - bonus
		score, ok := w.rootMove(ctx, m, depth, alpha)
		if !ok {
			return
		}
		scores[i], done[i] = score, true
		if score+bonus > best {
			best = score + bonus
		}
	}
}

// searchParallel spreads root moves over at most Threads goroutines, each
// on its own board copy.
func (s *Searcher) searchParallel(ctx context.Context, pos *board.Board, moves []board.Move, depth int, scores []float64, done []bool) {
	var g errgroup.Group
	g.SetLimit(s.Threads)
	for i, m := range moves {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			w := newWorker(s, pos.Copy())
			score, ok := w.rootMove(ctx, m, depth, -Infinity)
			if ok {
				scores[i], done[i] = score, true
			}
			return nil
		})
	}
	_ = g.Wait()
}

// worker holds per-goroutine search state.
type worker struct {
	s        *Searcher
	pos      *board.Board
	orderer  *MoveOrderer
	nodes    uint64
	reported uint64 // nodes already added to the searcher total
	stopped  bool
}

func newWorker(s *Searcher, pos *board.Board) *worker {
	return &worker{s: s, pos: pos, orderer: NewMoveOrderer()}
}

// rootMove searches one root move and returns its negamax score. Scores at
// or below alpha are upper bounds. ok is false if the search was cancelled.
func (w *worker) rootMove(ctx context.Context, m board.Move, depth int, alpha float64) (float64, bool) {
	w.stopped = false
	undo := w.pos.MakeMove(m)
	score := -w.negamax(ctx, depth-1, 1, -Infinity, -alpha)
	w.pos.UnmakeMove(m, undo)

	w.s.nodes.Add(w.nodes - w.reported)
	w.reported = w.nodes
	return score, !w.stopped
}

func (w *worker) negamax(ctx context.Context, depth, ply int, alpha, beta float64) float64 {
	w.nodes++
	if w.nodes%nodeCheckInterval == 0 && ctx.Err() != nil {
		w.stopped = true
	}
	if w.stopped {
		return 0
	}

	pos := w.pos
	us := pos.SideToMove
	key := pos.Digest()
	alphaOrig := alpha

	ttMove := board.NoMove
	if e, ok := w.s.tt.Probe(key, depth); ok {
		switch e.Flag {
		case TTExact:
			return e.Score
		case TTLowerBound:
			alpha = max(alpha, e.Score)
		case TTUpperBound:
			beta = min(beta, e.Score)
		}
		if alpha >= beta {
			return e.Score
		}
		ttMove = e.BestMove
	}

	moves := pos.LegalMoves(us)
	if len(moves) == 0 {
		if pos.InCheck(us) {
			return -(MateScore + float64(depth))
		}
		return 0
	}
	if pos.HalfMoveClock >= 100 {
		return 0
	}

	if depth <= 0 || ply >= MaxPly {
		return w.evaluate(key, us)
	}

	w.orderer.Order(moves, ply, ttMove)

	best := -Infinity
	bestMove := board.NoMove
	for _, m := range moves {
		undo := pos.MakeMove(m)
		score := -w.negamax(ctx, depth-1, ply+1, -beta, -alpha)
		pos.UnmakeMove(m, undo)

		if w.stopped {
			return 0
		}

		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			w.orderer.UpdateKillers(m, ply)
			break
		}
	}

	flag := TTExact
	switch {
	case best <= alphaOrig:
		flag = TTUpperBound
	case best >= beta:
		flag = TTLowerBound
	}
	w.s.tt.Save(key, best, depth, flag, bestMove)

	return best
}

// evaluate returns the static score for the side to move through the
// position cache, which holds White-perspective values.
func (w *worker) evaluate(key uint64, us board.Color) float64 {
	v, ok := w.s.cache.Get(key)
	if !ok {
		v = w.s.eval.Evaluate(w.pos, board.White)
		w.s.cache.Put(key, v)
	}
	if us == board.Black {
		return -v
	}
	return v
}
