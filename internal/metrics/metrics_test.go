package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Post("/v1/similar-cases", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/similar-cases", "503"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/similar-cases", http.NoBody))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/similar-cases", "503"))
	require.InDelta(t, 1, after-before, 0)
}

func TestMiddleware_WithoutRouterContext(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "200"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anything", http.NoBody))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "200"))
	require.InDelta(t, 1, after-before, 0)
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	NewRecorder()

	before := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("hit"))
	recorder.CacheLookup("hit")
	require.InDelta(t, 1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("hit"))-before, 0)

	recorder.Retrieval("miss", 25*time.Millisecond)
	require.Positive(t, testutil.CollectAndCount(RetrievalDuration))
}
