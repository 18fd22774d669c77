package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/davidbz/precedent/internal/observability"
)

// SimilarCasesOperation names the cached operation for similar-case lookups.
const SimilarCasesOperation = "similar_cases"

// Defaults for fields left zero in RetrievalConfig. They match the envDefault tags.
const (
	defaultNumCandidates        = 150
	defaultLimit                = 10
	defaultIndexTimeout         = 3 * time.Second
	defaultEmbeddingTimeout     = 10 * time.Second
	defaultCacheTTL             = 24 * time.Hour
	defaultCacheTimeout         = 500 * time.Millisecond
	defaultRetryAttempts        = 3
	defaultRetryInitialInterval = 200 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
)

// Retrieval outcomes reported to the MetricsRecorder.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// RetrievalConfig holds the search sizes, timeouts and retry policy of the orchestrator.
type RetrievalConfig struct {
	NumCandidates        int           `env:"INDEX_NUM_CANDIDATES"   envDefault:"150"`
	Limit                int           `env:"INDEX_LIMIT"            envDefault:"10"`
	IndexTimeout         time.Duration `env:"INDEX_TIMEOUT"          envDefault:"3s"`
	EmbeddingTimeout     time.Duration `env:"EMBEDDING_TIMEOUT"      envDefault:"10s"`
	CacheTTL             time.Duration `env:"CACHE_TTL"              envDefault:"24h"`
	CacheTimeout         time.Duration `env:"CACHE_TIMEOUT"          envDefault:"500ms"`
	RetryMaxAttempts     int           `env:"RETRY_MAX_ATTEMPTS"     envDefault:"3"`
	RetryInitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"200ms"`
	RetryMaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL"     envDefault:"2s"`
}

// RetrievalService finds previously recorded cases similar to a clinical note.
//
// Pipeline: cache lookup, then on miss canonicalize, embed, search, filter/sort,
// and a best-effort cache write. Cache failures never fail a request.
type RetrievalService struct {
	cache    ResultCache
	embedder EmbeddingProvider
	index    SimilaritySearch
	metrics  MetricsRecorder
	cfg      RetrievalConfig
	inflight singleflight.Group
}

// NewRetrievalService creates a new retrieval service (DI constructor).
// A nil cache disables caching. The embedder and index must agree on dimension.
func NewRetrievalService(
	cache ResultCache,
	embedder EmbeddingProvider,
	index SimilaritySearch,
	metrics MetricsRecorder,
	cfg *RetrievalConfig,
) (*RetrievalService, error) {
	if embedder == nil {
		return nil, errors.New("embedding provider cannot be nil")
	}

	if index == nil {
		return nil, errors.New("similarity search cannot be nil")
	}

	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedding provider %s produces %d dimensions, index expects %d",
			ErrDimensionMismatch, embedder.Name(), embedder.Dimension(), index.Dimension())
	}

	if metrics == nil {
		metrics = nopRecorder{}
	}

	var settings RetrievalConfig
	if cfg != nil {
		settings = *cfg
	}

	return &RetrievalService{
		cache:    cache,
		embedder: embedder,
		index:    index,
		metrics:  metrics,
		cfg:      settings.withDefaults(),
	}, nil
}

// withDefaults fills every non-positive field and keeps the candidate pool at least as large as the limit.
func (c RetrievalConfig) withDefaults() RetrievalConfig {
	if c.Limit <= 0 {
		c.Limit = defaultLimit
	}
	if c.NumCandidates <= 0 {
		c.NumCandidates = defaultNumCandidates
	}
	c.NumCandidates = max(c.NumCandidates, c.Limit)

	if c.IndexTimeout <= 0 {
		c.IndexTimeout = defaultIndexTimeout
	}
	if c.EmbeddingTimeout <= 0 {
		c.EmbeddingTimeout = defaultEmbeddingTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.CacheTimeout <= 0 {
		c.CacheTimeout = defaultCacheTimeout
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = defaultRetryAttempts
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = defaultRetryInitialInterval
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = defaultRetryMaxInterval
	}

	return c
}

// FindSimilar returns the cases most similar to the request's query, filtered and sorted.
// An empty slice means no similar cases were found.
func (s *RetrievalService) FindSimilar(ctx context.Context, req *RetrievalRequest) ([]SearchResult, error) {
	start := time.Now()
	results, outcome, err := s.findSimilar(ctx, req)
	s.metrics.Retrieval(outcome, time.Since(start))

	return results, err
}

func (s *RetrievalService) findSimilar(
	ctx context.Context,
	req *RetrievalRequest,
) ([]SearchResult, string, error) {
	if err := req.Validate(); err != nil {
		return nil, OutcomeInvalid, err
	}

	normalized := req.normalized()

	if s.cache == nil {
		observability.FromContext(ctx).Debug("retrieval cache is disabled")
		results, err := s.compute(ctx, &normalized, "")
		if err != nil {
			return nil, outcomeFor(err), err
		}
		return results, OutcomeMiss, nil
	}

	key, err := s.cache.Key(SimilarCasesOperation, normalized)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	ctx = observability.WithCacheKey(ctx, key)
	logger := observability.FromContext(ctx)

	if cached, ok := s.lookup(ctx, key); ok {
		logger.Info("cache HIT - returning cached similar cases",
			observability.Int("results", len(cached)))
		return cached, OutcomeHit, nil
	}
	logger.Info("cache MISS - computing similar cases")

	// Concurrent identical misses share one computation. The shared call is
	// detached from any single caller's cancellation so other waiters and the
	// cache write still complete; each caller stops waiting when its own context ends.
	resultCh := s.inflight.DoChan(key, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx), &normalized, key)
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return nil, outcomeFor(res.Err), res.Err
		}
		results, _ := res.Val.([]SearchResult)
		return slices.Clone(results), OutcomeMiss, nil
	case <-ctx.Done():
		logger.Warn("caller gave up waiting for similar cases", observability.Error(ctx.Err()))
		return nil, OutcomeError, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, ctx.Err())
	}
}

func (s *RetrievalService) compute(
	ctx context.Context,
	req *RetrievalRequest,
	key string,
) ([]SearchResult, error) {
	logger := observability.FromContext(ctx)

	text, err := Canonicalize(req.Query)
	if err != nil {
		return nil, err
	}

	vector, err := s.embed(ctx, text)
	if err != nil {
		logger.Error("failed to embed query", observability.Error(err))
		return nil, err
	}

	found, err := s.search(ctx, vector)
	if err != nil {
		logger.Error("similarity search failed", observability.Error(err))
		return nil, err
	}

	results := ApplyFilters(found, req.Filters)
	logger.Info("similar cases computed",
		observability.Int("candidates", len(found)),
		observability.Int("results", len(results)))

	if key != "" {
		s.store(ctx, key, req, results)
	}

	return results, nil
}

func (s *RetrievalService) embed(ctx context.Context, text string) ([]float64, error) {
	ctx = observability.WithEmbeddingProvider(ctx, s.embedder.Name())

	var vectors [][]float64
	err := s.retry(ctx, s.cfg.EmbeddingTimeout, func(callCtx context.Context) error {
		out, embedErr := s.embedder.Embed(callCtx, []string{text})
		if embedErr != nil {
			observability.FromContext(callCtx).Warn("embedding attempt failed",
				observability.Error(embedErr))
			return embedErr
		}
		vectors = out
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: provider %s returned %d vectors for 1 text",
			ErrEmbeddingUnavailable, s.embedder.Name(), len(vectors))
	}

	return vectors[0], nil
}

func (s *RetrievalService) search(ctx context.Context, vector []float64) ([]SearchResult, error) {
	var results []SearchResult
	err := s.retry(ctx, s.cfg.IndexTimeout, func(callCtx context.Context) error {
		out, searchErr := s.index.Search(callCtx, vector, s.cfg.NumCandidates, s.cfg.Limit)
		if searchErr != nil {
			observability.FromContext(callCtx).Warn("search attempt failed",
				observability.Error(searchErr))
			return searchErr
		}
		results = out
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrIndexUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	if results == nil {
		results = []SearchResult{}
	}

	return results, nil
}

// lookup reads a cached result list. Any failure is treated as a miss.
func (s *RetrievalService) lookup(ctx context.Context, key string) ([]SearchResult, bool) {
	logger := observability.FromContext(ctx)

	cacheCtx, cancel := withTimeout(ctx, s.cfg.CacheTimeout)
	defer cancel()

	entry, err := s.cache.Get(cacheCtx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			s.metrics.CacheLookup(OutcomeMiss)
			return nil, false
		}
		logger.Warn("cache get failed, continuing without cache", observability.Error(err))
		s.metrics.CacheLookup(OutcomeError)
		return nil, false
	}

	var results []SearchResult
	if unmarshalErr := json.Unmarshal(entry.Value, &results); unmarshalErr != nil {
		logger.Warn("failed to unmarshal cached similar cases", observability.Error(unmarshalErr))
		s.metrics.CacheLookup(OutcomeError)
		return nil, false
	}

	if results == nil {
		results = []SearchResult{}
	}

	s.metrics.CacheLookup(OutcomeHit)
	return results, true
}

// store writes the result list to the cache. Failures are logged and swallowed.
func (s *RetrievalService) store(ctx context.Context, key string, req *RetrievalRequest, results []SearchResult) {
	cacheCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.cfg.CacheTimeout)
	defer cancel()

	if err := s.cache.Set(cacheCtx, key, SimilarCasesOperation, req, results, s.cfg.CacheTTL); err != nil {
		observability.FromContext(ctx).Warn("failed to store similar cases in cache",
			observability.Error(err))
		return
	}

	observability.FromContext(ctx).Debug("similar cases stored in cache",
		observability.Duration("ttl", s.cfg.CacheTTL))
}

// retry runs op with bounded exponential backoff, each attempt under its own timeout.
// Caller errors and configuration errors are not retried.
func (s *RetrievalService) retry(
	ctx context.Context,
	timeout time.Duration,
	op func(ctx context.Context) error,
) error {
	policy := backoff.NewExponentialBackOff()
	if s.cfg.RetryInitialInterval > 0 {
		policy.InitialInterval = s.cfg.RetryInitialInterval
	}
	if s.cfg.RetryMaxInterval > 0 {
		policy.MaxInterval = s.cfg.RetryMaxInterval
	}
	policy.MaxElapsedTime = 0

	attempts := backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(s.cfg.RetryMaxAttempts-1)),
		ctx,
	)

	return backoff.Retry(func() error {
		callCtx, cancel := withTimeout(ctx, timeout)
		defer cancel()

		err := op(callCtx)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, attempts)
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrEmptyQueryVector)
}

func outcomeFor(err error) string {
	if errors.Is(err, ErrInvalidInput) {
		return OutcomeInvalid
	}
	return OutcomeError
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
