// Package bootstrap assembles the numbering service from configuration.
// cmd/server, cmd/worker and cmd/policyctl share it so that every entry
// point talks to the same stores the same way.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"policyhub/internal/config"
	"policyhub/internal/core/tx"
	"policyhub/internal/domain/auth"
	"policyhub/internal/domain/numbering"
	v1 "policyhub/internal/infrastructure/http/v1"
	"policyhub/internal/infrastructure/http/v1/handlers"
	"policyhub/internal/infrastructure/metrics"
	"policyhub/internal/infrastructure/storage/memory"
	"policyhub/internal/infrastructure/storage/postgres"
	"policyhub/internal/infrastructure/storage/postgres/numbering_repo"
	redisstore "policyhub/internal/infrastructure/storage/redis"
	"policyhub/pkg/logger"
)

// Version is reported by /health/info. Overridden at build time.
var Version = "dev"

// Options tune what New builds.
type Options struct {
	// Migrate applies embedded schema migrations before wiring the service.
	Migrate bool
	// Registry receives numbering metrics; nil creates a private one.
	Registry *prometheus.Registry
}

// App holds the wired service and the resources it owns.
type App struct {
	Config      *config.Config
	Log         *logger.Logger
	Numbering   *numbering.Service
	Pool        *postgres.Pool             // nil unless Store.Backend is postgres
	TxManager   *postgres.TxManager        // nil unless Store.Backend is postgres
	Redis       *redisstore.Client         // nil unless counters live in redis
	Idempotency *postgres.IdempotencyStore // nil unless enabled
	JWT         *auth.JWTService           // nil without a JWT secret
	Metrics     *prometheus.Registry
}

// New connects to the configured stores and builds the numbering service.
// On error every resource opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (_ *App, err error) {
	if log == nil {
		log = logger.Default()
	}
	app := &App{Config: cfg, Log: log, Metrics: opts.Registry}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if app.Metrics == nil {
		app.Metrics = prometheus.NewRegistry()
		app.Metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	var (
		repo      numbering.Repository
		counters  numbering.CounterStore
		revisions numbering.RevisionLog
		txm       tx.Manager = tx.Direct
	)

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		if cfg.Database.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Database.MaxConns
		}
		if cfg.Database.MinConns > 0 {
			poolCfg.MinConns = cfg.Database.MinConns
		}
		if app.Pool, err = postgres.NewPool(ctx, poolCfg); err != nil {
			return nil, err
		}
		if opts.Migrate {
			applied, err := postgres.Migrate(ctx, app.Pool)
			if err != nil {
				return nil, err
			}
			if len(applied) > 0 {
				log.Infow("schema migrated", "applied", applied)
			}
		}

		app.TxManager = postgres.NewTxManager(app.Pool)
		txm = app.TxManager
		repo = numbering_repo.NewGeneratorRepo(app.TxManager)
		counters = numbering_repo.NewCounterStore(app.TxManager)
		if revisions, err = numbering_repo.NewRevisionLog(app.TxManager, cfg.Numbering.RevisionCompressThreshold); err != nil {
			return nil, err
		}
		if cfg.Idempotency.Enabled {
			app.Idempotency = postgres.NewIdempotencyStore(app.TxManager, cfg.Idempotency.TTL)
		}

	case config.BackendMemory:
		repo = memory.NewGeneratorRepo()
		counters = memory.NewCounterStore()
		revisions = memory.NewRevisionLog()

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.Counters == config.BackendRedis {
		app.Redis, err = redisstore.New(ctx, redisstore.Config{
			URL:      cfg.Redis.URL,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, err
		}
		if app.Redis == nil {
			return nil, fmt.Errorf("redis counters require REDIS_URL")
		}
		counters = redisstore.NewCounterStore(app.Redis.Client, cfg.Redis.KeyPrefix)
	}

	if cfg.Auth.JWTSecret != "" {
		app.JWT = auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret))
	}

	clock := numbering.SystemClock{Location: cfg.Location()}
	registry := numbering.NewRegistry(numbering.RegistryConfig{
		Repo:      repo,
		Counters:  counters,
		TxManager: txm,
		Revisions: revisions,
		Clock:     clock,
	})

	var recorder numbering.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New(app.Metrics)
	}
	app.Numbering = numbering.NewService(numbering.ServiceConfig{
		Registry: registry,
		Counters: counters,
		Clock:    clock,
		Recorder: recorder,
	})

	log.Infow("numbering service ready",
		"store", cfg.Store.Backend,
		"counters", cfg.Store.Counters,
		"timezone", clock.Location.String(),
		"auth_required", cfg.Auth.Required,
		"idempotency", app.Idempotency != nil,
	)
	return app, nil
}

// HealthChecks returns the readiness probes of the stores in use.
func (a *App) HealthChecks() map[string]handlers.HealthChecker {
	checks := make(map[string]handlers.HealthChecker)
	if a.Pool != nil {
		checks["postgres"] = a.Pool
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis
	}
	return checks
}

// Router builds the HTTP API for the app.
func (a *App) Router() *gin.Engine {
	cfg := v1.RouterConfig{
		Numbering:    a.Numbering,
		Logger:       a.Log,
		AuthRequired: a.Config.Auth.Required,
		HealthChecks: a.HealthChecks(),
		Backend:      a.Config.Store.Backend,
		Version:      Version,
	}
	// Assigning typed nil pointers to the interfaces would make them non-nil.
	if a.JWT != nil {
		cfg.JWTValidator = a.JWT
	}
	if a.Idempotency != nil {
		cfg.Idempotency = a.Idempotency
	}
	if a.Config.Metrics.Enabled {
		cfg.Gatherer = a.Metrics
	}
	return v1.NewRouter(cfg)
}

// Close releases connections. Safe to call more than once.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warnw("close redis", "error", err)
		}
		a.Redis = nil
	}
	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
}
