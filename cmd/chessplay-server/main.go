package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/engine"
	"github.com/hailam/adaptiveplay/internal/server"
	"github.com/hailam/adaptiveplay/internal/storage"
)

var (
	addr        = flag.String("addr", ":8080", "listen address")
	dataDir     = flag.String("data", "", "profile database directory (default: platform data dir)")
	aiProfile   = flag.String("profile", "ai", "name of the adaptive AI profile")
	difficulty  = flag.String("difficulty", "medium", "easy, medium or hard")
	depth       = flag.Int("depth", 0, "search depth (overrides difficulty)")
	threads     = flag.Int("threads", 1, "root search threads")
	noBook      = flag.Bool("no-book", false, "disable the opening book")
	logLevel    = flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	consoleLogs = flag.Bool("console", true, "human-readable logs instead of JSON")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr)
	if *consoleLogs {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	log = log.Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		stop()
		log.Fatal().Err(err).Msg("chessplay-server")
	}
}

// run serves until ctx ends. The store is closed before it returns.
func run(ctx context.Context, log zerolog.Logger) error {
	var (
		store *storage.Storage
		err   error
	)
	if *dataDir != "" {
		store, err = storage.Open(*dataDir, log)
	} else {
		store, err = storage.NewStorage(log)
	}
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	cfg := engine.DefaultConfig()
	d, err := engine.ParseDifficulty(*difficulty)
	if err != nil {
		return fmt.Errorf("bad -difficulty: %w", err)
	}
	cfg = cfg.WithDifficulty(d)
	if *depth > 0 {
		cfg.Depth = *depth
	}
	cfg.Threads = max(*threads, 1)
	cfg.UseBook = !*noBook

	eng, err := engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	p, err := store.LoadProfile(*aiProfile)
	if err != nil {
		return fmt.Errorf("load ai profile %s: %w", *aiProfile, err)
	}
	eng.SetProfile(p)

	srv := server.New(eng, server.WithStore(store), server.WithLogger(log))
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", *addr).
			Stringer("difficulty", d).
			Int("depth", cfg.Depth).
			Str("profile", p.Name).
			Msg("listening")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
