// Package main is the entry point for the policyhub background worker.
// It purges expired idempotency keys and reports pool usage.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"policyhub/internal/bootstrap"
	"policyhub/internal/config"
	"policyhub/internal/infrastructure/storage/postgres"
	"policyhub/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("POLICYHUB_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.LogFormat(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Store.Backend != config.BackendPostgres {
		log.Fatalw("worker needs the postgres backend", "store", cfg.Store.Backend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting policyhub worker")

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Fatalw("failed to initialize", "error", err)
	}
	defer app.Close()

	worker := NewWorker(app, cfg.Idempotency.CleanupInterval, log)
	if err := worker.Run(ctx); err != nil {
		log.Errorw("worker failed", "error", err)
	}
	log.Info("worker stopped")
}

// Worker runs periodic maintenance jobs against the shared database.
type Worker struct {
	pool        *postgres.Pool
	idempotency *postgres.IdempotencyStore
	interval    time.Duration
	log         *logger.Logger
}

// NewWorker creates a worker. A store without idempotency only logs pool stats.
func NewWorker(app *bootstrap.App, interval time.Duration, log *logger.Logger) *Worker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	store := app.Idempotency
	if store == nil {
		// Keys may exist from a server run with idempotency enabled.
		store = postgres.NewIdempotencyStore(app.TxManager, 0)
	}
	return &Worker{
		pool:        app.Pool,
		idempotency: store,
		interval:    interval,
		log:         log.WithComponent("worker"),
	}
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.every(ctx, w.interval, w.cleanupIdempotency)
		return nil
	})
	g.Go(func() error {
		w.every(ctx, time.Minute, func(ctx context.Context) {
			postgres.LogPoolStats(ctx, w.pool)
		})
		return nil
	})
	return g.Wait()
}

func (w *Worker) every(ctx context.Context, interval time.Duration, job func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	count, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		}
		return
	}
	if count > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", count)
	}
}
