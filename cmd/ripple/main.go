// Command ripple runs a reactive query engine that checkpoints its
// subscriptions and recovers them after a restart.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/checkpoint"
	"github.com/tarungka/ripple/engine"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/scheduler"
	"github.com/tarungka/ripple/server"
	"github.com/tarungka/ripple/sinks"
	"github.com/tarungka/ripple/sources"
	"github.com/tarungka/ripple/state"
	"golang.org/x/sync/errgroup"
)

var buildString = "unknown"

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, errHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Version {
		fmt.Println(buildString)
		os.Exit(0)
	}

	logger.SetDevelopment(cfg.Dev)
	log := logger.GetLogger("main")
	log.Info().Str("build", buildString).Msg("Starting the application")

	if err := run(cfg, log); err != nil {
		log.Err(err).Msg("exiting with error")
		os.Exit(1)
	}
}

func run(cfg *Config, log zerolog.Logger) error {
	store, err := state.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	sink, err := sinks.New(cfg.Output)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer sink.Close()

	hub := sources.NewHub()
	catalog, err := demoCatalog(hub, cfg.Kafka, sink)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	sched := scheduler.NewRealtime(logger.GetLogger("scheduler"))
	eng, err := engine.New(cfg.Engine, sched, store, catalog)
	if err != nil {
		return err
	}

	// the scheduler outlives the other goroutines so shutdown can still
	// checkpoint through it
	schedCtx, stopSched := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(schedCtx)
	}()
	defer func() {
		stopSched()
		<-schedDone
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := start(gctx, eng, log); err != nil {
			return err
		}
		return engine.NewCheckpointCoordinator(eng, cfg.Engine.CheckpointInterval).Start(gctx)
	})
	g.Go(func() error {
		return server.New(cfg.Server, eng, hub).Run(gctx)
	})
	runErr := g.Wait()

	log.Info().Msg("received interrupt signal; shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := eng.Checkpoint(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("final checkpoint failed")
	}
	if err := eng.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to close engine")
	}
	return runErr
}

// start recovers the engine from its latest checkpoint, or subscribes every
// catalog query when there is none.
func start(ctx context.Context, eng *engine.Engine, log zerolog.Logger) error {
	report, err := eng.Recover(ctx)
	switch {
	case errors.Is(err, checkpoint.ErrNoCheckpoint):
		log.Info().Msg("no checkpoint found; subscribing every query")
		for _, uri := range eng.Catalog().URIs() {
			if err := eng.Subscribe(ctx, uri); err != nil {
				return err
			}
		}
		return nil
	case report == nil:
		return err
	case err != nil:
		// recovered trees keep running; failed ones stay down
		log.Warn().Err(err).Int("failed", len(report.Failed)).Msg("partial recovery")
	}
	log.Info().
		Str("checkpoint", report.CheckpointID).
		Uint64("sequence", report.Sequence).
		Strs("recovered", report.Recovered).
		Msg("recovered from checkpoint")
	return nil
}
