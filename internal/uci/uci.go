// Package uci speaks the Universal Chess Interface over the adaptive engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/engine"
	"github.com/hailam/adaptiveplay/internal/profile"
	"github.com/hailam/adaptiveplay/internal/storage"
)

// Engine identification
const (
	EngineName   = "AdaptivePlay"
	EngineAuthor = "AdaptivePlay Team"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	store  *storage.Storage
	log    zerolog.Logger

	outMu sync.Mutex
	out   io.Writer

	position *board.Board
	// Moves played from the start position, for opening classification.
	// Nil when the position was set up from a FEN.
	history  []board.Move
	startpos bool

	// Time the engine spent on its moves this game
	thinkTime  time.Duration
	thinkMoves int

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// Option configures a UCI handler.
type Option func(*UCI)

// WithStore persists profiles on "result" and "setoption name Profile".
func WithStore(s *storage.Storage) Option {
	return func(u *UCI) { u.store = s }
}

// WithLogger sets the diagnostic logger. Protocol output never goes there.
func WithLogger(l zerolog.Logger) Option {
	return func(u *UCI) { u.log = l }
}

// New creates a UCI handler that writes protocol output to out.
func New(eng *engine.Engine, out io.Writer, opts ...Option) *UCI {
	u := &UCI{
		engine:   eng,
		out:      out,
		log:      zerolog.Nop(),
		position: board.NewBoard(),
		startpos: true,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run reads commands from in until "quit", EOF or ctx is done.
func (u *UCI) Run(ctx context.Context, in io.Reader) error {
	defer u.handleStop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if !u.Handle(ctx, line) {
				return nil
			}
		}
	}
}

// Handle executes one command line. It returns false on "quit".
func (u *UCI) Handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]
	u.log.Debug().Str("cmd", cmd).Strs("args", args).Msg("uci command")

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handleStop()
		u.handlePosition(args)
	case "go":
		u.handleGo(ctx, args)
	case "stop":
		u.handleStop()
	case "quit":
		u.handleStop()
		return false
	case "setoption":
		u.handleStop()
		u.handleSetOption(args)
	case "result":
		u.handleStop()
		u.handleResult(args)
	// Debug commands
	case "d":
		u.println(u.position.String())
		u.printf("Fen: %s\n", u.position.FEN())
	case "eval":
		u.handleStop()
		u.handleEval()
	case "perft":
		u.handleStop()
		u.handlePerft(args)
	default:
		u.printf("info string unknown command: %s\n", cmd)
	}
	return true
}

// Wait blocks until the running search, if any, has printed its bestmove.
func (u *UCI) Wait() {
	if u.searchDone != nil {
		<-u.searchDone
	}
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

func (u *UCI) println(s string) {
	u.printf("%s\n", s)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	cfg := u.engine.Config()
	traits := u.traits()

	u.printf("id name %s\n", EngineName)
	u.printf("id author %s\n", EngineAuthor)
	u.println("")
	u.printf("option name Hash type spin default %d min 1000 max 10000000\n", cfg.TTCapacity)
	u.printf("option name Threads type spin default %d min 1 max 64\n", cfg.Threads)
	u.printf("option name OwnBook type check default %t\n", cfg.UseBook)
	u.printf("option name Aggression type spin default %d min 0 max 100\n", percent(traits.Aggression))
	u.printf("option name RiskTaking type spin default %d min 0 max 100\n", percent(traits.RiskTaking))
	u.printf("option name Positional type spin default %d min 0 max 100\n", percent(traits.Positional))
	u.printf("option name Profile type string default %s\n", u.engine.Profile().Name)
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.NewBoard()
	u.history = nil
	u.startpos = true
	u.thinkTime, u.thinkMoves = 0, 0
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Board
	switch args[0] {
	case "startpos":
		pos = board.NewBoard()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string invalid fen: %v\n", err)
			return
		}
	default:
		return
	}

	var history []board.Move
	for _, s := range args[min(movesAt+1, len(args)):] {
		m, err := pos.ParseMove(s)
		if err != nil {
			u.printf("info string invalid move %s: %v\n", s, err)
			return
		}
		pos.MakeMove(m)
		history = append(history, m)
	}

	u.position = pos
	u.history = history
	u.startpos = args[0] == "startpos"
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	pos := u.position.Copy()
	us := pos.SideToMove
	limits := u.calculateLimits(opts, us)

	u.engine.OnInfo = u.sendInfo

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.cancel = cancel
	u.searchDone = done

	go func() {
		defer close(done)
		defer cancel()

		start := time.Now()
		res, ok := u.engine.Search(ctx, pos, us, limits)
		if !ok {
			u.println("bestmove 0000")
			return
		}
		u.thinkTime += time.Since(start)
		u.thinkMoves++
		if res.Book {
			u.printf("info string book move\n")
		}
		u.printf("bestmove %s\n", res.Move)
	}()
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	ms := func(i int) time.Duration {
		n, _ := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasArg := i+1 < len(args)
		switch args[i] {
		case "depth":
			if hasArg {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if hasArg {
				opts.MoveTime = ms(i + 1)
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if hasArg {
				opts.WTime = ms(i + 1)
				i++
			}
		case "btime":
			if hasArg {
				opts.BTime = ms(i + 1)
				i++
			}
		case "winc":
			if hasArg {
				opts.WInc = ms(i + 1)
				i++
			}
		case "binc":
			if hasArg {
				opts.BInc = ms(i + 1)
				i++
			}
		case "movestogo":
			if hasArg {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits.
func (u *UCI) calculateLimits(opts GoOptions, us board.Color) engine.SearchLimits {
	if opts.Infinite {
		return engine.SearchLimits{Infinite: true}
	}

	limits := engine.SearchLimits{Depth: opts.Depth}
	clock := engine.UCILimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
		MoveTime:  opts.MoveTime,
	}
	ply := (u.position.FullMoveNumber - 1) * 2
	if us == board.Black {
		ply++
	}

	switch {
	case opts.MoveTime > 0 || clock.Time[us] > 0:
		limits.MoveTime = engine.Allocate(clock, us, ply)
		if limits.Depth == 0 {
			limits.Depth = engine.MaxPly
		}
		u.log.Debug().
			Dur("allocated", limits.MoveTime).
			Dur("left", clock.Time[us]).
			Int("ply", ply).
			Msg("time allocated")
	case opts.Depth == 0:
		// No limits given: use the configured difficulty.
		cfg := u.engine.Config()
		limits.Depth = cfg.Depth
		limits.MoveTime = cfg.MoveTime
	}
	return limits
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	if info.Mate != 0 {
		parts = append(parts, fmt.Sprintf("score mate %d", info.Mate))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", int(math.Round(info.Score*100))))
	}
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel == nil {
		return
	}
	u.cancel()
	<-u.searchDone
	u.cancel = nil
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}
	key, val := strings.ToLower(strings.Join(name, " ")), strings.Join(value, " ")

	switch key {
	case "hash":
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			u.engine.SetTTCapacity(n)
		}
	case "threads":
		if n, err := strconv.Atoi(val); err == nil {
			u.engine.SetThreads(n)
		}
	case "ownbook":
		u.engine.SetUseBook(strings.EqualFold(val, "true"))
	case "aggression", "risktaking", "positional":
		n, err := strconv.Atoi(val)
		if err != nil {
			u.printf("info string bad value for %s: %q\n", key, val)
			return
		}
		u.setTrait(key, float64(n)/100)
	case "profile":
		u.loadProfile(val)
	default:
		u.printf("info string unknown option: %s\n", strings.Join(name, " "))
	}
}

func (u *UCI) traits() profile.Traits {
	if p := u.engine.Profile(); p != nil {
		return p.Traits
	}
	return profile.DefaultTraits()
}

func (u *UCI) setTrait(key string, v float64) {
	p := u.engine.Profile()
	t := p.Traits
	switch key {
	case "aggression":
		t.Aggression = v
	case "risktaking":
		t.RiskTaking = v
	case "positional":
		t.Positional = v
	}
	p.SetTraits(t)
	u.engine.SetProfile(p)
}

// loadProfile switches to the named profile, loading it from the store
// when one is attached.
func (u *UCI) loadProfile(name string) {
	if name == "" {
		return
	}
	p := profile.New(name)
	if u.store != nil {
		var err error
		if p, err = u.store.LoadProfile(name); err != nil {
			u.log.Warn().Err(err).Str("profile", name).Msg("load profile")
			u.printf("info string cannot load profile %s: %v\n", name, err)
			return
		}
	}
	u.engine.SetProfile(p)
	u.printf("info string profile %s games %d\n", p.Name, p.Games())
}

// handleResult records the finished game for the active profile. The result
// is from the engine's point of view.
func (u *UCI) handleResult(args []string) {
	if len(args) == 0 {
		u.println("info string usage: result win|loss|draw")
		return
	}
	r, err := profile.ParseResult(strings.Join(args, " "))
	if err != nil {
		u.printf("info string %v\n", err)
		return
	}

	var opening string
	if u.startpos {
		opening = u.engine.Book().Classify(u.history)
	}
	var avg time.Duration
	if u.thinkMoves > 0 {
		avg = u.thinkTime / time.Duration(u.thinkMoves)
	}

	p := u.engine.Profile()
	p.UpdateMetrics(r, avg, opening)
	u.log.Info().
		Str("profile", p.Name).
		Stringer("result", r).
		Str("opening", opening).
		Dur("avg_move_time", avg).
		Msg("game recorded")

	if u.store != nil {
		if err := u.store.SaveProfile(p); err != nil {
			u.log.Error().Err(err).Str("profile", p.Name).Msg("save profile")
			u.printf("info string cannot save profile: %v\n", err)
		}
	}
	u.printf("info string profile %s games %d winrate %.2f opening %q\n",
		p.Name, p.Games(), p.WinRate(), opening)
	u.thinkTime, u.thinkMoves = 0, 0
}

// handleEval prints the evaluation breakdown of the current position.
func (u *UCI) handleEval() {
	t := u.engine.Terms(u.position)
	u.printf("Material:       %+.2f\n", t.Material)
	u.printf("Mobility:       %+.2f\n", t.Mobility)
	u.printf("King safety:    %+.2f\n", t.KingSafety)
	u.printf("Pawn structure: %+.2f\n", t.PawnStructure)
	u.printf("Piece activity: %+.2f\n", t.PieceActivity)
	u.printf("Center control: %+.2f\n", t.CenterControl)
	u.printf("Total (white):  %+.2f\n", u.engine.Evaluate(u.position, board.White))
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 4
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position.Copy(), depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
