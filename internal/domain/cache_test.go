package domain_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/mocks"
)

// memoryStore keeps raw bytes and ignores ttl so expiry is enforced only by CacheService.
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

func (m *memoryStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func TestCacheService_Key_IgnoresMapOrdering(t *testing.T) {
	service := domain.NewCacheService(newMemoryStore(), "")

	k1, err := service.Key("op", map[string]any{"b": 2, "a": map[string]any{"y": 1, "x": "v"}})
	require.NoError(t, err)
	k2, err := service.Key("op", map[string]any{"a": map[string]any{"x": "v", "y": 1}, "b": 2})
	require.NoError(t, err)
	k3, err := service.Key("other", map[string]any{"a": map[string]any{"x": "v", "y": 1}, "b": 2})
	require.NoError(t, err)

	require.Equal(t, k1, k2)
	require.NotEqual(t, k1, k3)
	require.Contains(t, k1, domain.DefaultCacheKeyPrefix)
}

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	raw, err := domain.CanonicalJSON(map[string]any{"z": 1.5, "a": []any{3, "x"}, "m": nil})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":[3,"x"],"m":null,"z":1.5}`, string(raw))
	require.Equal(t, `{"a":[3,"x"],"m":null,"z":1.5}`, string(raw))
}

func TestCacheService_SetThenGet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	service := domain.NewCacheService(newMemoryStore(), "").WithClock(func() time.Time { return now })

	params := map[string]any{"note": "chest pain"}
	key, err := service.Key("similar_cases", params)
	require.NoError(t, err)

	value := []domain.SearchResult{{CaseID: "c1", Similarity: 0.9}}
	require.NoError(t, service.Set(ctx, key, "similar_cases", params, value, time.Hour))

	entry, err := service.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, key, entry.Key)
	require.Equal(t, "similar_cases", entry.Operation)
	require.NotEmpty(t, entry.ParamsDigest)
	require.True(t, entry.ExpiresAt.After(entry.CreatedAt))

	var got []domain.SearchResult
	require.NoError(t, json.Unmarshal(entry.Value, &got))
	require.Equal(t, value, got)
}

func TestCacheService_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	service := domain.NewCacheService(store, "").WithClock(func() time.Time { return now })

	key, err := service.Key("op", "params")
	require.NoError(t, err)
	require.NoError(t, service.Set(ctx, key, "op", "params", "value", time.Minute))

	now = now.Add(time.Minute)

	_, err = service.Get(ctx, key)
	require.ErrorIs(t, err, domain.ErrCacheMiss)
	require.Contains(t, store.data, key, "entry is still physically present")
}

func TestCacheService_OverwriteReplacesValue(t *testing.T) {
	ctx := context.Background()
	service := domain.NewCacheService(newMemoryStore(), "")

	require.NoError(t, service.Set(ctx, "k", "op", "p", "first", time.Hour))
	require.NoError(t, service.Set(ctx, "k", "op", "p", "second", time.Hour))

	entry, err := service.Get(ctx, "k")
	require.NoError(t, err)
	require.JSONEq(t, `"second"`, string(entry.Value))
}

func TestCacheService_Get_NeverWritten(t *testing.T) {
	service := domain.NewCacheService(newMemoryStore(), "")

	_, err := service.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestCacheService_StoreFailuresAreDegraded(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockKeyValueStore(t)
	service := domain.NewCacheService(store, "")

	store.EXPECT().Get(mock.Anything, "k").Return(nil, errors.New("connection refused"))
	store.EXPECT().SetWithTTL(mock.Anything, "k", mock.Anything, time.Hour).Return(errors.New("read only replica"))

	_, err := service.Get(ctx, "k")
	require.ErrorIs(t, err, domain.ErrCacheDegraded)

	err = service.Set(ctx, "k", "op", "p", "v", time.Hour)
	require.ErrorIs(t, err, domain.ErrCacheDegraded)
}

func TestCacheService_CorruptEntryIsDegraded(t *testing.T) {
	store := newMemoryStore()
	store.data["k"] = []byte("not json")
	service := domain.NewCacheService(store, "")

	_, err := service.Get(context.Background(), "k")
	require.ErrorIs(t, err, domain.ErrCacheDegraded)
}

func TestCacheService_RejectsNonPositiveTTL(t *testing.T) {
	service := domain.NewCacheService(newMemoryStore(), "")

	err := service.Set(context.Background(), "k", "op", "p", "v", 0)
	require.Error(t, err)
}
