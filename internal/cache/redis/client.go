package redis

import (
	"github.com/redis/go-redis/v9"
)

// Config contains Redis connection settings shared by the cache and the vector index.
type Config struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Username string `env:"REDIS_USERNAME"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// NewClient creates a go-redis client. RESP2 is forced because FT.SEARCH
// replies are parsed in their array form.
func NewClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})
}
