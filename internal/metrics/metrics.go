package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "precedent"

// Retrieval and cache metrics.
var (
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Retrieval cache lookups by outcome",
		},
		[]string{"outcome"}, // "hit" / "miss" / "error"
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Similar-case retrieval duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)
)

// Embedding metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	EmbeddingTruncationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_truncations_total",
			Help:      "Texts cut to the embedding character budget",
		},
		[]string{"provider"},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default Prometheus registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CacheLookupsTotal,
			RetrievalDuration,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTruncationsTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}

// Recorder reports retrieval signals to Prometheus.
type Recorder struct{}

// NewRecorder registers the collectors and returns a recorder.
func NewRecorder() *Recorder {
	Register()
	return &Recorder{}
}

// CacheLookup counts one cache lookup.
func (r *Recorder) CacheLookup(outcome string) {
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// Retrieval observes one retrieval call.
func (r *Recorder) Retrieval(outcome string, duration time.Duration) {
	RetrievalDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
