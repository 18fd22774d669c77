package domain

import "errors"

// Error kinds surfaced by the retrieval pipeline. Callers classify with errors.Is.
var (
	// ErrInvalidInput marks caller errors: empty note, malformed filters, bad vitals.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable is returned by embedding backends on network, auth or upstream failure.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrEmbeddingUnavailable is returned by the orchestrator once embedding retries are exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrIndexUnavailable covers vector index transport failures and index misconfiguration.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmptyQueryVector is returned when a search is attempted with a zero-length vector.
	ErrEmptyQueryVector = errors.New("empty query vector")

	// ErrDimensionMismatch indicates a vector whose length differs from the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCacheMiss indicates no live cached entry was found.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheDegraded marks cache store failures. It is never returned to callers of FindSimilar.
	ErrCacheDegraded = errors.New("cache degraded")

	// ErrInternal marks unexpected failures; transports surface it without detail.
	ErrInternal = errors.New("internal error")
)
