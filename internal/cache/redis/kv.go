package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/precedent/internal/domain"
)

// KeyValueStore implements domain.KeyValueStore with plain Redis strings.
type KeyValueStore struct {
	client *redis.Client
}

// NewKeyValueStore creates a new Redis key-value store.
func NewKeyValueStore(client *redis.Client) *KeyValueStore {
	return &KeyValueStore{client: client}
}

// Get returns the value stored under key or domain.ErrCacheMiss.
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("GET %s: %w", key, err)
	}

	return data, nil
}

// SetWithTTL stores value under key with a millisecond expiry.
func (s *KeyValueStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("SET %s: %w", key, err)
	}

	return nil
}
