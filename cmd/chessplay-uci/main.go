package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/engine"
	"github.com/hailam/adaptiveplay/internal/storage"
	"github.com/hailam/adaptiveplay/internal/uci"
)

var (
	dataDir     = flag.String("data", "", "profile database directory (default: platform data dir)")
	noStore     = flag.Bool("no-store", false, "do not persist profiles")
	profileName = flag.String("profile", "", "profile to load at startup (default: from preferences)")
	threads     = flag.Int("threads", 0, "root search threads (default: from preferences)")
	logLevel    = flag.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	// stdout belongs to the protocol
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		stop()
		log.Fatal().Err(err).Msg("chessplay-uci")
	}
}

// run speaks UCI on stdin/stdout until quit or ctx ends. The store is
// closed before it returns.
func run(ctx context.Context, log zerolog.Logger) error {
	store := openStore(log)
	if store != nil {
		defer store.Close()
	}

	prefs := storage.DefaultPreferences()
	if store != nil {
		if p, err := store.LoadPreferences(); err != nil {
			log.Warn().Err(err).Msg("load preferences")
		} else {
			prefs = p
		}
	}

	cfg := engine.DefaultConfig()
	if d, err := engine.ParseDifficulty(prefs.Difficulty); err == nil {
		cfg = cfg.WithDifficulty(d)
	}
	cfg.Threads = max(prefs.Threads, 1)
	if *threads > 0 {
		cfg.Threads = *threads
	}
	cfg.UseBook = prefs.UseBook

	eng, err := engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	name := prefs.Profile
	if *profileName != "" {
		name = *profileName
	}
	if store != nil {
		p, err := store.LoadProfile(name)
		if err != nil {
			log.Warn().Err(err).Str("profile", name).Msg("load profile")
		} else {
			eng.SetProfile(p)
		}
	}

	opts := []uci.Option{uci.WithLogger(log)}
	if store != nil {
		opts = append(opts, uci.WithStore(store))
	}
	protocol := uci.New(eng, os.Stdout, opts...)
	if err := protocol.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("uci loop")
	}

	if store != nil {
		prefs.Profile = eng.Profile().Name
		prefs.Threads = eng.Config().Threads
		prefs.UseBook = eng.Config().UseBook
		if err := store.SavePreferences(prefs); err != nil {
			log.Warn().Err(err).Msg("save preferences")
		}
	}
	return nil
}

// openStore opens the profile database, or returns nil when persistence
// is disabled or unavailable.
func openStore(log zerolog.Logger) *storage.Storage {
	if *noStore {
		return nil
	}
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
		log.Warn().Err(err).Msg("profiles will not be saved")
		return nil
	}
	return store
}
