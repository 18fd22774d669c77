package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/mocks"
)

const testDimension = 4

func testRetrievalConfig() *domain.RetrievalConfig {
	return &domain.RetrievalConfig{
		NumCandidates:        150,
		Limit:                10,
		IndexTimeout:         time.Second,
		EmbeddingTimeout:     time.Second,
		CacheTTL:             time.Hour,
		CacheTimeout:         time.Second,
		RetryMaxAttempts:     3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     2 * time.Millisecond,
	}
}

func newTestMocks(t *testing.T) (*mocks.MockEmbeddingProvider, *mocks.MockSimilaritySearch) {
	t.Helper()

	embedder := mocks.NewMockEmbeddingProvider(t)
	embedder.EXPECT().Dimension().Return(testDimension).Maybe()
	embedder.EXPECT().Name().Return("fake").Maybe()

	index := mocks.NewMockSimilaritySearch(t)
	index.EXPECT().Dimension().Return(testDimension).Maybe()

	return embedder, index
}

func chestPainRequest() *domain.RetrievalRequest {
	return &domain.RetrievalRequest{
		Query: domain.Query{
			NoteText: "65yo male, chest pain, BP 160/95, HR 110",
			Age:      intPtr(65),
			Sex:      "male",
			Vitals:   &domain.Vitals{BP: "160/95", HR: "110"},
		},
	}
}

func TestRetrievalService_CachesComputedResults(t *testing.T) {
	ctx := context.Background()
	embedder, index := newTestMocks(t)
	metrics := mocks.NewMockMetricsRecorder(t)
	cache := domain.NewCacheService(newMemoryStore(), "")

	vector := []float64{0.1, 0.2, 0.3, 0.4}
	found := []domain.SearchResult{
		{CaseID: "case-2", Similarity: 0.82, Age: 70, Sex: "M", ICDCodes: []string{"I21.4"}},
		{CaseID: "case-1", Similarity: 0.91, Age: 62, Sex: "M", ICDCodes: []string{"I20.0"}},
	}

	embedder.EXPECT().
		Embed(mock.Anything, []string{"65yo male, chest pain, BP 160/95, HR 110 (A:65 S:M Vitals[BP:160/95,HR:110])"}).
		Return([][]float64{vector}, nil).
		Once()
	index.EXPECT().Search(mock.Anything, vector, 150, 10).Return(found, nil).Once()

	metrics.EXPECT().CacheLookup(domain.OutcomeMiss).Once()
	metrics.EXPECT().CacheLookup(domain.OutcomeHit).Once()
	metrics.EXPECT().Retrieval(domain.OutcomeMiss, mock.Anything).Once()
	metrics.EXPECT().Retrieval(domain.OutcomeHit, mock.Anything).Once()

	service, err := domain.NewRetrievalService(cache, embedder, index, metrics, testRetrievalConfig())
	require.NoError(t, err)

	first, err := service.FindSimilar(ctx, chestPainRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"case-1", "case-2"}, caseIDs(first))

	second, err := service.FindSimilar(ctx, chestPainRequest())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRetrievalService_CacheFailureIsTreatedAsMiss(t *testing.T) {
	ctx := context.Background()
	embedder, index := newTestMocks(t)
	cache := mocks.NewMockResultCache(t)

	cache.EXPECT().Key(domain.SimilarCasesOperation, mock.Anything).Return("retrieval:cache:abc", nil)
	cache.EXPECT().Get(mock.Anything, "retrieval:cache:abc").Return(nil, domain.ErrCacheDegraded).Once()
	cache.EXPECT().
		Set(mock.Anything, "retrieval:cache:abc", domain.SimilarCasesOperation, mock.Anything, mock.Anything, time.Hour).
		Return(errors.New("redis: connection refused")).
		Once()

	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{1, 0, 0, 0}}, nil).Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 150, 10).
		Return([]domain.SearchResult{{CaseID: "case-1", Similarity: 0.9}}, nil).
		Once()

	service, err := domain.NewRetrievalService(cache, embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	results, err := service.FindSimilar(ctx, chestPainRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"case-1"}, caseIDs(results))
}

func TestRetrievalService_EmbeddingFailure(t *testing.T) {
	embedder, index := newTestMocks(t)
	embedder.EXPECT().Embed(mock.Anything, mock.Anything).
		Return(nil, domain.ErrProviderUnavailable).
		Times(3)

	service, err := domain.NewRetrievalService(
		domain.NewCacheService(newMemoryStore(), ""), embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	results, err := service.FindSimilar(context.Background(), chestPainRequest())
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	require.Nil(t, results)
	index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrievalService_EmbeddingReturnsNoVector(t *testing.T) {
	embedder, index := newTestMocks(t)
	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{}, nil).Once()

	service, err := domain.NewRetrievalService(nil, embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	_, err = service.FindSimilar(context.Background(), chestPainRequest())
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrievalService_IndexFailure(t *testing.T) {
	embedder, index := newTestMocks(t)
	store := newMemoryStore()

	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{1, 0, 0, 0}}, nil).Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 150, 10).
		Return(nil, errors.New("dial tcp: connection refused")).
		Times(3)

	service, err := domain.NewRetrievalService(
		domain.NewCacheService(store, ""), embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	_, err = service.FindSimilar(context.Background(), chestPainRequest())
	require.ErrorIs(t, err, domain.ErrIndexUnavailable)
	require.Empty(t, store.data, "failures must not be cached")
}

func TestRetrievalService_InvalidInput(t *testing.T) {
	embedder, index := newTestMocks(t)
	metrics := mocks.NewMockMetricsRecorder(t)
	metrics.EXPECT().Retrieval(domain.OutcomeInvalid, mock.Anything).Once()

	service, err := domain.NewRetrievalService(
		domain.NewCacheService(newMemoryStore(), ""), embedder, index, metrics, testRetrievalConfig())
	require.NoError(t, err)

	_, err = service.FindSimilar(context.Background(), &domain.RetrievalRequest{
		Query: domain.Query{NoteText: "   "},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestRetrievalService_NoNeighbors(t *testing.T) {
	embedder, index := newTestMocks(t)

	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{0, 1, 0, 0}}, nil).Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 150, 10).Return(nil, nil).Once()

	service, err := domain.NewRetrievalService(nil, embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	results, err := service.FindSimilar(context.Background(), chestPainRequest())
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestRetrievalService_AppliesFilters(t *testing.T) {
	embedder, index := newTestMocks(t)

	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{0, 0, 1, 0}}, nil).Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 150, 10).Return([]domain.SearchResult{
		{CaseID: "f-old", Age: 80, Sex: "F", Similarity: 0.7},
		{CaseID: "m", Age: 50, Sex: "M", Similarity: 0.95},
		{CaseID: "f-young", Age: 40, Sex: "F", Similarity: 0.8},
	}, nil).Once()

	service, err := domain.NewRetrievalService(nil, embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	req := chestPainRequest()
	req.Filters = domain.FilterSortParams{Sex: "female", SortBy: domain.SortByAge, SortOrder: domain.SortAsc}

	results, err := service.FindSimilar(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"f-young", "f-old"}, caseIDs(results))
}

func TestNewRetrievalService_DimensionMismatch(t *testing.T) {
	embedder := mocks.NewMockEmbeddingProvider(t)
	embedder.EXPECT().Dimension().Return(1536)
	embedder.EXPECT().Name().Return("openai")

	index := mocks.NewMockSimilaritySearch(t)
	index.EXPECT().Dimension().Return(768)

	_, err := domain.NewRetrievalService(nil, embedder, index, nil, nil)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestNewRetrievalService_RequiresDependencies(t *testing.T) {
	embedder, index := newTestMocks(t)

	_, err := domain.NewRetrievalService(nil, nil, index, nil, nil)
	require.Error(t, err)

	_, err = domain.NewRetrievalService(nil, embedder, nil, nil, nil)
	require.Error(t, err)
}

func TestRetrievalService_DefaultsUnsetConfig(t *testing.T) {
	embedder, index := newTestMocks(t)

	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{1, 0, 0, 0}}, nil).Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 150, 10).
		Return([]domain.SearchResult{{CaseID: "case-1", Similarity: 0.9}}, nil).
		Once()

	service, err := domain.NewRetrievalService(nil, embedder, index, nil, nil)
	require.NoError(t, err)

	results, err := service.FindSimilar(context.Background(), chestPainRequest())
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestRetrievalService_RaisesCandidatesToLimit(t *testing.T) {
	embedder, index := newTestMocks(t)

	embedder.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{1, 0, 0, 0}}, nil).Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 25, 25).Return([]domain.SearchResult{}, nil).Once()

	service, err := domain.NewRetrievalService(nil, embedder, index, nil, &domain.RetrievalConfig{
		NumCandidates: 5,
		Limit:         25,
	})
	require.NoError(t, err)

	results, err := service.FindSimilar(context.Background(), chestPainRequest())
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestRetrievalService_CallerDeadlineStopsWaiting(t *testing.T) {
	embedder, index := newTestMocks(t)

	cfg := testRetrievalConfig()
	cfg.EmbeddingTimeout = 2 * time.Second
	cfg.RetryMaxAttempts = 1

	released := make(chan struct{})
	embedder.EXPECT().Embed(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ []string) ([][]float64, error) {
			defer close(released)
			<-ctx.Done()
			return nil, ctx.Err()
		}).
		Once()

	service, err := domain.NewRetrievalService(
		domain.NewCacheService(newMemoryStore(), ""), embedder, index, nil, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = service.FindSimilar(ctx, chestPainRequest())
	elapsed := time.Since(start)

	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, elapsed, time.Second)

	// The detached computation keeps running until its own embedding timeout.
	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("detached embedding call never finished")
	}
}

func TestRetrievalService_CoalescesConcurrentMisses(t *testing.T) {
	embedder, index := newTestMocks(t)

	release := make(chan struct{})
	embedder.EXPECT().Embed(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ []string) ([][]float64, error) {
			<-release
			return [][]float64{{1, 0, 0, 0}}, nil
		}).
		Once()
	index.EXPECT().Search(mock.Anything, mock.Anything, 150, 10).Return([]domain.SearchResult{
		{CaseID: "case-1", Similarity: 0.9},
		{CaseID: "case-2", Similarity: 0.8},
	}, nil).Once()

	service, err := domain.NewRetrievalService(
		domain.NewCacheService(newMemoryStore(), ""), embedder, index, nil, testRetrievalConfig())
	require.NoError(t, err)

	const callers = 8
	results := make([][]domain.SearchResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = service.FindSimilar(context.Background(), chestPainRequest())
		}()
	}

	// Give every caller time to miss the cache and join the shared computation.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 2)
	}

	results[0][0].CaseID = "mutated"
	for i := 1; i < callers; i++ {
		require.Equal(t, "case-1", results[i][0].CaseID)
	}
}
