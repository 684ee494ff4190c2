package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"bmrengine/internal/app/features"
	estimateapp "bmrengine/internal/app/handlers/estimate"
	"bmrengine/internal/app/middleware"
	appoutbox "bmrengine/internal/app/outbox"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/bmr"
	"bmrengine/internal/domain/estimates"
	"bmrengine/internal/infra/broker/kafka"
	rediscache "bmrengine/internal/infra/cache/redis"
	"bmrengine/internal/infra/config"
	mongodb "bmrengine/internal/infra/db/mongo"
	"bmrengine/internal/infra/obs"
	"bmrengine/internal/infra/outbox"
	"bmrengine/internal/infra/storage/memory"
)

// App is the assembled engine with its collaborators, shared by both binaries.
type App struct {
	Queries  queries.Bus
	Registry *bmr.Registry
	Metrics  *obs.Metrics
	Stats    *obs.Stats
	Worker   *outbox.Worker
	Ready    func() error

	closers []func(context.Context) error
}

// Build selects storage, cache and broker backends from cfg and wires the
// query pipeline around the engine.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	app := &App{
		Registry: bmr.NewRegistry(),
		Stats:    obs.NewStats(),
		Ready:    func() error { return nil },
	}
	if cfg.MetricsEnabled {
		app.Metrics = obs.NewMetrics(prometheus.NewRegistry())
	}

	var (
		history estimates.Repository
		box     interface {
			appoutbox.Outbox
			outbox.Store
		}
	)
	if cfg.UseMongo() {
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.Ready = func() error { return client.Ping(context.Background()) }
		history = mongodb.NewHistoryRepository(client.DB)
		box = mongodb.NewOutboxStore(client.DB)
		logger.Info("mongo storage enabled", "db", cfg.MongoDB)
	} else {
		history = memory.NewHistoryRepository()
		box = memory.NewOutbox(cfg.OutboxLimit)
	}

	cacheMW, err := app.cacheMiddleware(ctx, cfg, logger)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	producer, err := app.producer(cfg, logger)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Worker = &outbox.Worker{
		Store:       box,
		Producer:    producer,
		ID:          "bmrengine-" + uuid.NewString(),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	if app.Metrics != nil {
		app.Worker.Observer = app.Metrics
	}

	bus := queries.NewInMemoryBus()
	estimateapp.Register(bus, app.Registry, cfg.DefaultMethod, history)

	recorders := []middleware.EstimateRecorder{app.Stats}
	if app.Metrics != nil {
		recorders = append(recorders, app.Metrics)
	}
	mws := []middleware.QueryMiddleware{
		middleware.Logging(logger),
		middleware.Metrics(recorders...),
		middleware.Events(box, appoutbox.JSONEventEncoder{}, logger),
		middleware.History(history, logger),
		middleware.MethodSelection(features.NewExperiments(cfg.Experiments...), cfg.DefaultMethod),
		middleware.FeatureGate(features.NewFlags(cfg.Flags...)),
	}
	if cacheMW != nil {
		mws = append(mws, cacheMW)
	}
	app.Queries = middleware.ChainQueries(bus, mws...)
	return app, nil
}

func (a *App) cacheMiddleware(ctx context.Context, cfg config.Config, logger *slog.Logger) (middleware.QueryMiddleware, error) {
	var store middleware.CacheStore
	switch cfg.CacheMode {
	case config.CacheOff:
		return nil, nil
	case config.CacheRedis:
		client := rediscache.NewClient(rediscache.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rediscache.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		store = rediscache.NewEstimateCache(client, cfg.Redis.KeyPrefix)
		logger.Info("redis cache enabled", "addr", cfg.Redis.Address)
	default:
		store = memory.NewEstimateCache()
	}
	cacheCfg := middleware.CacheConfig{Store: store, TTL: cfg.CacheTTL, Logger: logger}
	if a.Metrics != nil {
		cacheCfg.Observer = a.Metrics
	}
	return middleware.Cache(cacheCfg), nil
}

func (a *App) producer(cfg config.Config, logger *slog.Logger) (outbox.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return outbox.LogProducer{Logger: logger}, nil
	}
	p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return p.Close() })
	logger.Info("kafka producer enabled", "brokers", cfg.KafkaBrokers)
	return p, nil
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
