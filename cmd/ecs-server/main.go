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
	"golang.org/x/sync/errgroup"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/engine"
	"github.com/plus3/kindecs/internal/broadcast"
	"github.com/plus3/kindecs/internal/config"
	"github.com/plus3/kindecs/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file.")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for the demo world.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogOptions(os.Stderr))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *seed, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg config.Config, seed int64, logger zerolog.Logger) error {
	hub := broadcast.NewHub(logging.Component(logger, "broadcast"),
		broadcast.WithAllowedOrigins(cfg.AllowedOrigins...),
	)
	defer hub.Close()

	scheduler := newWorld(cfg.Entities, seed, ecs.WithLogger(logging.Component(logger, "scheduler")))

	var eng *engine.Engine[*ecs.Storage]
	eng, err := engine.ForScheduler(scheduler,
		func(storage *ecs.Storage) { hub.Sink(eng)(storage) },
		engine.WithInterval[*ecs.Storage](cfg.TickInterval()),
		engine.WithLogger[*ecs.Storage](logging.Component(logger, "engine")),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok tick=%d clients=%d\n", eng.Ticks(), hub.Clients())
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Int("entities", cfg.Entities).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
