package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/precedent/internal/cache/redis"
	"github.com/davidbz/precedent/internal/casestore/postgres"
	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/embedding"
	"github.com/davidbz/precedent/internal/embedding/endpoint"
	"github.com/davidbz/precedent/internal/embedding/hashing"
	"github.com/davidbz/precedent/internal/embedding/openai"
	"github.com/davidbz/precedent/internal/observability"
)

// Cache drivers accepted by CACHE_DRIVER.
const (
	CacheDriverRedis  = "redis"
	CacheDriverValkey = "valkey"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Log       observability.LogConfig
	Redis     redis.Config
	Cache     CacheConfig
	Index     redis.IndexConfig
	Retrieval domain.RetrievalConfig
	Embedding embedding.Config
	OpenAI    openai.Config
	Endpoint  endpoint.Config
	Hashing   hashing.Config
	Postgres  postgres.Config
	Ingest    IngestConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int `env:"SERVER_PORT"             envDefault:"8080"`
	ReadTimeout     int `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int `env:"SERVER_WRITE_TIMEOUT"    envDefault:"30"`
	ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// CacheConfig selects the retrieval cache backend.
type CacheConfig struct {
	Enabled   bool   `env:"CACHE_ENABLED"    envDefault:"true"`
	Driver    string `env:"CACHE_DRIVER"     envDefault:"redis"`
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"retrieval:cache:"`
}

// IngestConfig contains corpus ingestion settings.
type IngestConfig struct {
	BatchSize int `env:"INGEST_BATCH_SIZE" envDefault:"500"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server    *ServerConfig
	CORS      *CORSConfig
	Log       *observability.LogConfig
	Redis     *redis.Config
	Cache     *CacheConfig
	Index     *redis.IndexConfig
	Retrieval *domain.RetrievalConfig
	Embedding *embedding.Config
	OpenAI    *openai.Config
	Endpoint  *endpoint.Config
	Hashing   *hashing.Config
	Postgres  *postgres.Config
	Ingest    *IngestConfig
}

// Load loads environment files and parses configuration.
func Load() (*Config, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.Cache.Driver != CacheDriverRedis && cfg.Cache.Driver != CacheDriverValkey {
		return nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.Cache.Driver)
	}

	return &cfg, nil
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Out:       dig.Out{},
		Server:    &cfg.Server,
		CORS:      &cfg.CORS,
		Log:       &cfg.Log,
		Redis:     &cfg.Redis,
		Cache:     &cfg.Cache,
		Index:     &cfg.Index,
		Retrieval: &cfg.Retrieval,
		Embedding: &cfg.Embedding,
		OpenAI:    &cfg.OpenAI,
		Endpoint:  &cfg.Endpoint,
		Hashing:   &cfg.Hashing,
		Postgres:  &cfg.Postgres,
		Ingest:    &cfg.Ingest,
	}
}
