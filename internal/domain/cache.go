package domain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/precedent/internal/observability"
)

// DefaultCacheKeyPrefix namespaces retrieval cache entries in the key-value store.
const DefaultCacheKeyPrefix = "retrieval:cache:"

// CacheService implements a content-addressed cache on top of a KeyValueStore.
// Entries are wrapped in a CacheEntry envelope so expiry is enforced on read
// even when the backend has not evicted the key yet.
type CacheService struct {
	store  KeyValueStore
	prefix string
	now    func() time.Time
}

// NewCacheService creates a new cache service.
func NewCacheService(store KeyValueStore, prefix string) *CacheService {
	if prefix == "" {
		prefix = DefaultCacheKeyPrefix
	}

	return &CacheService{
		store:  store,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for createdAt/expiresAt.
func (c *CacheService) WithClock(now func() time.Time) *CacheService {
	c.now = now
	return c
}

// Key derives sha256(operation, canonical JSON of params).
func (c *CacheService) Key(operation string, params any) (string, error) {
	canonical, err := CanonicalJSON(params)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize cache params: %w", err)
	}

	hash := sha256.New()
	hash.Write([]byte(operation))
	hash.Write([]byte{0})
	hash.Write(canonical)

	return c.prefix + hex.EncodeToString(hash.Sum(nil)), nil
}

// Get returns the live entry stored under key.
func (c *CacheService) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %w", ErrCacheDegraded, err)
	}

	var entry CacheEntry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal cache entry: %w", ErrCacheDegraded, unmarshalErr)
	}

	if entry.Key != key {
		observability.FromContext(ctx).Warn("cache entry key mismatch, ignoring",
			observability.String("key", key),
			observability.String("stored_key", entry.Key))
		return nil, ErrCacheMiss
	}

	if entry.Expired(c.now()) {
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Set stores value under key with expiresAt = now + ttl.
func (c *CacheService) Set(
	ctx context.Context,
	key, operation string,
	params any,
	value any,
	ttl time.Duration,
) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}

	canonical, err := CanonicalJSON(params)
	if err != nil {
		return fmt.Errorf("failed to canonicalize cache params: %w", err)
	}
	digest := sha256.Sum256(canonical)

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	now := c.now()
	entry := CacheEntry{
		Key:          key,
		Operation:    operation,
		ParamsDigest: hex.EncodeToString(digest[:]),
		Value:        payload,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if setErr := c.store.SetWithTTL(ctx, key, data, ttl); setErr != nil {
		return fmt.Errorf("%w: %w", ErrCacheDegraded, setErr)
	}

	return nil
}

// CanonicalJSON encodes v with object keys sorted at every level and numbers
// kept as their literal text.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var generic any
	if decodeErr := decoder.Decode(&generic); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode: %w", decodeErr)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to re-marshal: %w", err)
	}

	return canonical, nil
}
