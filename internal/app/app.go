// Package app wires the pipeline's components from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/cache"
	"github.com/cypherlabdev/odds-pipeline-service/internal/collector"
	"github.com/cypherlabdev/odds-pipeline-service/internal/config"
	"github.com/cypherlabdev/odds-pipeline-service/internal/featured"
	"github.com/cypherlabdev/odds-pipeline-service/internal/ledger"
	"github.com/cypherlabdev/odds-pipeline-service/internal/messaging"
	"github.com/cypherlabdev/odds-pipeline-service/internal/metrics"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/orchestrator"
	"github.com/cypherlabdev/odds-pipeline-service/internal/repository"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
	"github.com/cypherlabdev/odds-pipeline-service/internal/upstream"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/analyzer"
)

// App holds the wired components shared by the server and the CLI
type App struct {
	Config    *config.Config
	Location  *time.Location
	Metrics   *metrics.Metrics
	Repo      service.Repository
	Cache     *cache.RedisCache
	Publisher service.EventPublisher
	Runner    *ledger.Runner
	Featured  *featured.Selector
	Analysis  *service.AnalysisService

	closers []func() error
	logger  zerolog.Logger
}

// New connects to storage and Redis and builds every component. The caller
// owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger zerolog.Logger) (*App, error) {
	location, err := cfg.Ledger.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid ledger timezone: %w", err)
	}
	sports, err := cfg.Collection.ParsedSports()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Location: location,
		Metrics:  metrics.New(reg),
		logger:   logger,
	}

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Cache = cache.NewRedisCache(cache.RedisCacheConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	}, logger)
	a.closers = append(a.closers, a.Cache.Close)

	if err := a.Cache.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	a.Publisher = service.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher := messaging.NewKafkaPublisher(messaging.KafkaPublisherConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		}, logger)
		a.Publisher = publisher
		a.closers = append(a.closers, publisher.Close)
	}

	// memory storage runs as a single process, so the lock stays in process too
	var locker service.RunLocker = a.Cache
	if cfg.Storage.Driver == repository.DriverMemory {
		locker = cache.NewMemoryLocker()
	}

	feed := upstream.NewClient(upstream.ClientConfig{
		BaseURL:        cfg.Upstream.BaseURL,
		APIKey:         cfg.Upstream.APIKey,
		RequestTimeout: cfg.Upstream.RequestTimeout,
		RequestsPerSec: cfg.Upstream.RequestsPerSec,
		MaxRetries:     cfg.Upstream.MaxRetries,
		MaxRetryWait:   cfg.Upstream.MaxRetryWait,
	}, a.Metrics, logger)

	edge := analyzer.NewAnalyzer(cfg.Analysis.ToAnalysisParams(), logger)

	a.Featured = featured.NewSelector(a.Repo, edge, a.Cache, a.Publisher, featured.Config{
		TopN:           cfg.Featured.TopN,
		LookaheadHours: cfg.Featured.LookaheadHours,
		Location:       location,
	}, logger)

	options := make(map[models.Sport]collector.Options, len(sports))
	for _, sport := range sports {
		options[sport] = collector.Options{
			Sport:            sport,
			StartOffsetHours: cfg.Collection.StartOffsetHours,
			WindowHours:      cfg.Collection.WindowHours,
			Books:            cfg.Collection.Books,
			GameMarkets:      cfg.Collection.GameMarkets,
			PropMarkets:      cfg.Collection.PropMarketsFor(sport),
			SkipProps:        cfg.Collection.SkipProps,
			SkipAlternates:   cfg.Collection.SkipAlternates,
			Concurrency:      cfg.Collection.Concurrency,
		}
	}

	pipeline := orchestrator.NewOrchestrator(
		collector.NewCollector(feed, a.Repo, a.Metrics, logger),
		a.Featured,
		a.Metrics,
		orchestrator.Config{Sports: sports, Options: options, Timeout: cfg.Orchestrator.Timeout},
		logger,
	)

	a.Runner = ledger.NewRunner(a.Repo, locker, pipeline, a.Publisher, a.Metrics, ledger.Config{
		MaxRunsPerDay:  cfg.Ledger.MaxRunsPerDay,
		Location:       location,
		LockTTL:        cfg.Ledger.LockTTL,
		PersistRetries: cfg.Ledger.PersistRetries,
	}, logger)

	a.Analysis = service.NewAnalysisService(a.Repo, edge, a.Cache, a.Cache, logger)

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Bool("kafka", cfg.Kafka.Enabled).
		Int("sports", len(sports)).
		Msg("pipeline initialized")

	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	switch a.Config.Storage.Driver {
	case repository.DriverMemory:
		a.Repo = repository.NewMemoryRepository()
		a.logger.Warn().Msg("using in-memory storage; data is lost on exit")
	default:
		repo, err := repository.NewPostgresRepository(ctx, repository.PostgresConfig{
			DSN:          a.Config.Postgres.DSN,
			MaxOpenConns: a.Config.Postgres.MaxOpenConns,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		a.Repo = repo
		a.logger.Info().Msg("connected to Postgres")
	}
	a.closers = append(a.closers, a.Repo.Close)
	return nil
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}
