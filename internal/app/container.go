package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-search/internal/config"
	"travel-search/internal/database"
	"travel-search/internal/database/migration"
	dbpostgres "travel-search/internal/database/postgres"
	"travel-search/internal/domain/catalog"
	"travel-search/internal/domain/search"
	"travel-search/internal/infrastructure/cache"
	"travel-search/internal/infrastructure/provider"
	"travel-search/internal/infrastructure/pubsub"
	"travel-search/internal/metrics"
	"travel-search/internal/pkg/jwt"
	"travel-search/internal/registry"
	"travel-search/internal/repository"
	"travel-search/internal/scheduler"
	"travel-search/internal/usecase"
	"travel-search/internal/ws"
	"travel-search/migrations"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

type Container struct {
	Config  config.Config
	Logger  zerolog.Logger
	Prom    *prometheus.Registry
	Metrics *metrics.Metrics

	Cache *cache.Redis
	DB    database.DB

	Hub      *ws.Hub
	Relay    *pubsub.RedisRelay
	Searches *registry.Registry

	Executor  *usecase.SearchExecutor
	Scheduler *scheduler.Scheduler

	SearchUC     *usecase.Search
	CatalogUC    *usecase.Catalog
	TrackerUC    *usecase.Tracker
	CacheAdminUC *usecase.CacheAdmin

	JWT jwt.Service
}

func NewContainer(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	c.Prom = prometheus.NewRegistry()
	c.Prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Prom)

	c.Cache = cache.NewRedis(cfg.Redis, logger)

	var repo catalog.Repository
	if cfg.Database.Enabled() {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := dbpostgres.Connect(connCtx, cfg.Database)
		cancel()
		if err != nil {
			_ = c.Cache.Close()
			return nil, fmt.Errorf("connect catalog db: %w", err)
		}
		c.DB = db

		if err := (migration.Runner{FS: migrations.FS, Logger: logger}).Run(ctx, db.SQLDB()); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("migrate catalog db: %w", err)
		}
		repo = repository.NewPostgresCatalogRepository(db)
	} else {
		logger.Warn().Msg("[App] DB_HOST not set, catalog disabled")
	}

	c.Executor = usecase.NewSearchExecutor(providers(cfg.Provider, logger), logger, c.Metrics)
	c.Searches = registry.New(registry.WithIdleTimeout(cfg.Refresh.IdleTimeout))
	c.Hub = ws.NewHub(logger, c.Metrics)

	var publisher ws.Publisher = c.Hub
	if cfg.PubSub.Mode == config.PubSubModeRedis {
		if c.Cache.Client() == nil {
			_ = c.Close()
			return nil, errors.New("PUBSUB_MODE=redis requires a reachable Redis")
		}
		c.Relay = pubsub.NewRedisRelay(c.Cache.Client(), c.Hub, logger)
		publisher = c.Relay
	}
	notifier := ws.NewNotifier(publisher)

	c.Scheduler = scheduler.New(
		c.Searches,
		c.Executor,
		c.Cache,
		notifier,
		c.Hub,
		scheduler.Options{
			Interval:    cfg.Refresh.Interval,
			Concurrency: cfg.Refresh.Concurrency,
			CacheTTL:    cfg.Search.CacheTTL,
		},
		logger,
		c.Metrics,
	)

	c.SearchUC = usecase.NewSearchUsecase(c.Cache, c.Executor, repo, c.Searches, usecase.SearchOptions{
		CacheTTL:        cfg.Search.CacheTTL,
		CatalogCacheTTL: cfg.Search.CatalogCacheTTL,
		AutoTrack:       cfg.Search.AutoTrack,
	}, logger, c.Metrics)
	c.CatalogUC = usecase.NewCatalogUsecase(repo, c.Cache, cfg.Search.CatalogCacheTTL, logger, c.Metrics)
	c.TrackerUC = usecase.NewTrackerUsecase(c.Cache, c.Executor, c.Searches, notifier, c.Scheduler, cfg.Search.CacheTTL, logger, c.Metrics)
	c.CacheAdminUC = usecase.NewCacheAdminUsecase(c.Cache, logger)

	if cfg.Admin.JWTSecret != "" {
		c.JWT = jwt.NewHMACService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	} else {
		logger.Warn().Msg("[App] ADMIN_JWT_SECRET not set, admin routes disabled")
	}

	return c, nil
}

func providers(cfg config.ProviderConfig, logger zerolog.Logger) map[search.Type]usecase.Provider {
	if cfg.BaseURL == "" {
		return map[search.Type]usecase.Provider{
			search.TypeFlights: provider.NewMockFlights(),
			search.TypeHotels:  provider.NewMockHotels(),
			search.TypeBuses:   provider.NewMockBuses(),
		}
	}
	out := make(map[search.Type]usecase.Provider, 3)
	for _, t := range []search.Type{search.TypeFlights, search.TypeHotels, search.TypeBuses} {
		out[t] = provider.NewHTTPProvider(cfg.BaseURL, t, cfg.Timeout, logger)
	}
	return out
}

// Start brings up the cross-instance relay (if any) and the refresh loop.
func (c *Container) Start(ctx context.Context) error {
	if c.Relay != nil {
		if err := c.Relay.Start(ctx); err != nil {
			return fmt.Errorf("start pubsub relay: %w", err)
		}
	}
	c.Scheduler.Start(ctx)
	return nil
}

// Close stops background work before releasing the store and the pool.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}

	var errs []error
	if c.Relay != nil {
		errs = append(errs, c.Relay.Stop())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
