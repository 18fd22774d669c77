package middleware

import (
	"net/http"
	"time"

	"github.com/davidbz/precedent/internal/observability"
)

const requestIDHeader = "X-Request-Id"

// Trace injects trace, span and request ids into every request context.
// An incoming X-Request-Id is kept so callers can correlate logs.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			traceID := observability.GenerateTraceID()
			ctx = observability.WithTraceID(ctx, traceID)
			ctx = observability.WithSpanID(ctx, observability.GenerateSpanID())

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = observability.GenerateRequestID()
			}
			ctx = observability.WithRequestID(ctx, requestID)

			w.Header().Set("X-Trace-Id", traceID)
			w.Header().Set(requestIDHeader, requestID)

			logger := observability.FromContext(ctx)
			logger.Info("request started",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("remote_addr", r.RemoteAddr),
			)

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))

			logger.Info("request completed",
				observability.Duration("duration", time.Since(start)))
		})
	}
}
