package domain

import (
	"context"
	"time"
)

// EmbeddingProvider turns text into fixed-dimension vectors.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, in input order.
	// An empty input returns an empty result without calling the backend.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Name returns the backend identifier.
	Name() string

	// Dimension returns the vector dimension.
	Dimension() int
}

// KeyValueStore is a byte store with per-key expiry.
type KeyValueStore interface {
	// Get returns the stored bytes or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key, replacing any previous value.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ResultCache is the content-addressed cache consumed by the orchestrator.
type ResultCache interface {
	// Key derives the stable cache key of an operation and its parameters.
	Key(operation string, params any) (string, error)

	// Get returns the live entry stored under key or ErrCacheMiss.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key, operation string, params any, value any, ttl time.Duration) error
}

// SimilaritySearch performs nearest-neighbor search over case vectors.
type SimilaritySearch interface {
	// Search returns up to limit results after exploring numCandidates neighbors.
	Search(ctx context.Context, vector []float64, numCandidates, limit int) ([]SearchResult, error)

	// Index stores one reference case.
	Index(ctx context.Context, record *CaseRecord) error

	// Dimension returns the configured vector dimension.
	Dimension() int
}

// CaseSource reads the reference corpus in id order.
type CaseSource interface {
	// List returns up to limit records with id greater than afterID.
	List(ctx context.Context, afterID string, limit int) ([]CaseRecord, error)
}

// MetricsRecorder receives retrieval observability signals.
type MetricsRecorder interface {
	// CacheLookup records a lookup outcome: hit, miss or error.
	CacheLookup(outcome string)

	// Retrieval records the outcome and duration of one FindSimilar call.
	Retrieval(outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string) {}

func (nopRecorder) Retrieval(string, time.Duration) {}
