package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voyagen/drtvfeed/internal/cache"
	"github.com/voyagen/drtvfeed/internal/fetcher"
	"github.com/voyagen/drtvfeed/internal/metrics"
	"github.com/voyagen/drtvfeed/internal/service"
	"github.com/voyagen/drtvfeed/internal/store"
)

// app bundles the components shared by the subcommands.
type app struct {
	metrics  *metrics.Metrics
	store    store.StateStore
	redis    *cache.Redis // nil when REDIS_URL is not set
	pipeline *service.Pipeline
	updater  *service.Updater
	closers  []func()
}

// newApp connects the configured backends. Callers must call close.
func newApp(ctx context.Context) (*app, error) {
	a := &app{metrics: metrics.New()}

	var st store.StateStore
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		st = pg
		log.Info("postgres state store enabled")
	} else {
		st = store.NewMemory()
		log.Info("in-memory state store (DATABASE_URL not set)")
	}

	if cfg.RedisURL != "" {
		rds, err := cache.New(cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		if err := rds.Ping(ctx); err != nil {
			_ = rds.Close()
			a.close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rds.Close() })
		a.redis = rds
		st = store.NewCachedStore(st, rds, log)
		log.Info("redis connected (state cache, refresh queue and scheduler lock enabled)")
	} else {
		log.Info("redis disabled (REDIS_URL not set)")
	}
	a.store = st

	client := fetcher.NewClient(cfg.Provider, nil)
	provider := fetcher.NewProvider(client, cfg.Provider, cfg.Schedule, log)
	a.pipeline = service.NewPipeline(provider, a.metrics, log)
	a.updater = service.NewUpdater(a.pipeline, a.store, cfg.Provider.ChannelIDs, cfg.Publish, a.metrics, log)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// migrationsDir resolves ./migrations, falling back to the directory next to the executable.
func migrationsDir() string {
	dir, err := filepath.Abs("migrations")
	if err != nil {
		dir = "migrations"
	}
	if _, err := os.Stat(dir); err != nil {
		if exe, e := os.Executable(); e == nil {
			dir = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return dir
}
