// ABOUTME: Shared wiring for CLI subcommands
// ABOUTME: Opens the database, query cache and aggregation service from config
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harperreed/crmactivity/activity"
	"github.com/harperreed/crmactivity/cache"
	"github.com/harperreed/crmactivity/config"
	"github.com/harperreed/crmactivity/db"
	"github.com/harperreed/crmactivity/naming"
	"github.com/harperreed/crmactivity/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// App carries everything a subcommand needs.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *sql.DB
	Cache    *cache.QueryCache
	Service  *activity.Service
	Namer    *naming.Generator
	Registry *prometheus.Registry
	Version  string

	Out io.Writer
}

// NewApp opens the database and cache described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger, version string) (*App, error) {
	database, err := db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	qc, err := openCache(ctx, cfg, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	return newApp(cfg, logger, database, qc, version), nil
}

func newApp(cfg *config.Config, logger *logrus.Logger, database *sql.DB, qc *cache.QueryCache, version string) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	opts := []activity.Option{
		activity.WithLogger(logger),
		activity.WithMetrics(activity.NewMetrics(reg)),
		activity.WithSlowQueryThreshold(cfg.SlowQueryThreshold.Std()),
	}
	if qc != nil {
		opts = append(opts, activity.WithCache(qc))
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		Cache:    qc,
		Service:  activity.NewService(db.NewSource(database), opts...),
		Namer:    naming.New(),
		Registry: reg,
		Version:  version,
		Out:      os.Stdout,
	}
}

// openCache builds the configured cache backend, or nil for "none".
func openCache(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*cache.QueryCache, error) {
	var backend cache.Backend
	switch cfg.CacheBackend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		backend = cache.NewMemoryBackend(time.Minute)
	case config.CacheBadger:
		b, err := cache.NewBadgerBackend(filepath.Join(cfg.CacheDir, "badger"))
		if err != nil {
			return nil, fmt.Errorf("failed to open badger cache: %w", err)
		}
		backend = b
	case config.CacheRedis:
		b, err := cache.NewRedisBackend(ctx, cfg.RedisAddr, config.AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		backend = b
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	return cache.New(backend,
		cache.WithTTL(cfg.CacheTTL.Std()),
		cache.WithLogger(logger),
	), nil
}

// NewStore creates an activity store over the app's service.
func (a *App) NewStore() *store.Store {
	return store.New(a.Service, store.Options{
		PageSize:        a.Config.PageSize,
		MaxSelections:   a.Config.MaxSelections,
		FenceRequests:   a.Config.FenceRequests,
		RefreshInterval: a.Config.RefreshInterval.Std(),
		StaleAfter:      a.Config.CacheTTL.Std(),
		Logger:          a.Logger,
	})
}

// Seed inserts the demo dataset and empties the query cache so earlier
// pages are not served.
func (a *App) Seed(ctx context.Context, seed int64) (int, error) {
	n, err := db.Seed(ctx, a.DB, seed)
	if err != nil {
		return 0, err
	}
	if a.Cache != nil {
		if err := a.Cache.InvalidateAll(ctx); err != nil {
			a.Logger.WithError(err).Warn("failed to invalidate query cache")
		}
	}
	return n, nil
}

// Close releases the cache and database.
func (a *App) Close() error {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.WithError(err).Warn("failed to close query cache")
		}
	}
	return a.DB.Close()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
