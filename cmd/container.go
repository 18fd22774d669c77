package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/precedent/internal/cache/redis"
	"github.com/davidbz/precedent/internal/cache/valkey"
	"github.com/davidbz/precedent/internal/casestore/postgres"
	"github.com/davidbz/precedent/internal/config"
	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/embedding"
	"github.com/davidbz/precedent/internal/embedding/endpoint"
	"github.com/davidbz/precedent/internal/embedding/hashing"
	"github.com/davidbz/precedent/internal/embedding/openai"
	"github.com/davidbz/precedent/internal/embedding/registry"
	"github.com/davidbz/precedent/internal/http"
	"github.com/davidbz/precedent/internal/http/middleware"
	"github.com/davidbz/precedent/internal/metrics"
	"github.com/davidbz/precedent/internal/observability"
)

// ErrProviderNotConfigured indicates that an embedding backend is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

// buildContainer provides everything shared by the serve and ingest commands.
func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor any
		opts        []dig.ProvideOption
	}{
		// Configuration
		{name: "config", constructor: config.Load},
		{name: "config dependencies", constructor: config.ParseDependenciesConfig},

		// Observability
		{name: "logger", constructor: observability.InitLogger},

		// Storage
		{name: "resources", constructor: newResources},
		{name: "redis client", constructor: newRedisClient},
		{name: "vector search", constructor: newVectorSearch, opts: []dig.ProvideOption{
			dig.As(new(domain.SimilaritySearch)),
		}},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor, p.opts...); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	if err := container.Invoke(func(logger *zap.Logger) {
		observability.SetLogger(logger)
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return container, nil
}

// provideServer adds the retrieval pipeline and the HTTP layer.
func provideServer(container *dig.Container) error {
	providers := []struct {
		name        string
		constructor any
		opts        []dig.ProvideOption
	}{
		// Cache
		{name: "result cache", constructor: newResultCache},

		// Embedding backends
		{name: "embedding registry", constructor: newEmbeddingRegistry},
		{name: "embedding provider", constructor: newEmbeddingProvider},

		// Metrics
		{name: "metrics recorder", constructor: metrics.NewRecorder, opts: []dig.ProvideOption{
			dig.As(new(domain.MetricsRecorder)),
		}},

		// Domain Services
		{name: "retrieval service", constructor: domain.NewRetrievalService},

		// HTTP Layer
		{name: "HTTP handler", constructor: http.NewHandler},
		{name: "middleware chain", constructor: middleware.BuildMiddlewareChain},
		{name: "HTTP server", constructor: http.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor, p.opts...); err != nil {
			return fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return nil
}

// provideIngest adds the Postgres case source and the ingestion service.
func provideIngest(container *dig.Container) error {
	if err := container.Provide(func(cfg *postgres.Config, res *resources) (*pgxpool.Pool, error) {
		pool, err := postgres.NewPool(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		res.add(pool.Close)
		return pool, nil
	}); err != nil {
		return fmt.Errorf("failed to provide postgres pool: %w", err)
	}

	if err := container.Provide(func(pool *pgxpool.Pool) domain.CaseSource {
		return postgres.NewSource(pool)
	}); err != nil {
		return fmt.Errorf("failed to provide case source: %w", err)
	}

	if err := container.Provide(func(
		source domain.CaseSource,
		index domain.SimilaritySearch,
		cfg *config.IngestConfig,
	) *domain.IngestService {
		return domain.NewIngestService(source, index, cfg.BatchSize)
	}); err != nil {
		return fmt.Errorf("failed to provide ingest service: %w", err)
	}

	return nil
}

func newRedisClient(cfg *redis.Config, res *resources) *goredis.Client {
	client := redis.NewClient(cfg)
	res.add(func() {
		_ = client.Close()
	})
	return client
}

func newVectorSearch(client *goredis.Client, cfg *redis.IndexConfig) (*redis.VectorSearch, error) {
	return redis.NewVectorSearch(context.Background(), client, cfg)
}

// newResultCache returns a nil cache when caching is disabled.
func newResultCache(
	cfg *config.CacheConfig,
	redisCfg *redis.Config,
	client *goredis.Client,
	res *resources,
) (domain.ResultCache, error) {
	if !cfg.Enabled {
		observability.FromContext(context.Background()).Info("retrieval cache disabled")
		return nil, nil
	}

	var store domain.KeyValueStore
	switch cfg.Driver {
	case config.CacheDriverValkey:
		valkeyStore, err := valkey.NewStore([]string{redisCfg.Addr}, redisCfg.Username, redisCfg.Password, redisCfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to create valkey store: %w", err)
		}
		if pingErr := valkeyStore.Ping(context.Background()); pingErr != nil {
			valkeyStore.Close()
			return nil, fmt.Errorf("failed to reach valkey: %w", pingErr)
		}
		res.add(valkeyStore.Close)
		store = valkeyStore
	default:
		store = redis.NewKeyValueStore(client)
	}

	return domain.NewCacheService(store, cfg.KeyPrefix), nil
}

// newEmbeddingRegistry registers every configured backend. Unconfigured backends are skipped.
func newEmbeddingRegistry(
	openaiCfg *openai.Config,
	endpointCfg *endpoint.Config,
	hashingCfg *hashing.Config,
) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	logger := observability.FromContext(context.Background())

	backends := []struct {
		name  string
		build func() (domain.EmbeddingProvider, error)
	}{
		{name: openai.ProviderName, build: func() (domain.EmbeddingProvider, error) {
			if openaiCfg.APIKey == "" {
				return nil, ErrProviderNotConfigured
			}
			return openai.NewGenerator(*openaiCfg)
		}},
		{name: endpoint.ProviderName, build: func() (domain.EmbeddingProvider, error) {
			if endpointCfg.BaseURL == "" {
				return nil, ErrProviderNotConfigured
			}
			return endpoint.NewEmbedder(*endpointCfg)
		}},
		{name: hashing.ProviderName, build: func() (domain.EmbeddingProvider, error) {
			return hashing.NewEmbedder(*hashingCfg)
		}},
	}

	for _, backend := range backends {
		provider, err := backend.build()
		if errors.Is(err, ErrProviderNotConfigured) {
			logger.Debug("embedding backend not configured", observability.String("provider", backend.name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s embedding backend: %w", backend.name, err)
		}

		if err := reg.Register(provider); err != nil {
			return nil, fmt.Errorf("failed to register %s embedding backend: %w", backend.name, err)
		}
	}

	return reg, nil
}

// newEmbeddingProvider selects the configured backend and applies the input budget.
func newEmbeddingProvider(
	reg *registry.Registry,
	cfg *embedding.Config,
	index *redis.IndexConfig,
) (domain.EmbeddingProvider, error) {
	provider, err := reg.Select(cfg.Provider, index.Dimension)
	if err != nil {
		return nil, err
	}

	return embedding.NewBudgetedProvider(provider, cfg.MaxChars), nil
}
