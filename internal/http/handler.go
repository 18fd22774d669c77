package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/observability"
)

const maxRequestBytes = 1 << 20

// Error codes returned in the "error" field of failed responses.
const (
	codeInvalidInput         = "invalid_input"
	codeEmbeddingUnavailable = "embedding_unavailable"
	codeIndexUnavailable     = "index_unavailable"
	codeInternal             = "internal_error"
)

// similarCasesRequest is the flat wire form: query attributes at the top level, filters nested.
type similarCasesRequest struct {
	domain.Query
	Filters domain.FilterSortParams `json:"filters"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler handles HTTP requests.
type Handler struct {
	retrieval *domain.RetrievalService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(retrieval *domain.RetrievalService) *Handler {
	return &Handler{
		retrieval: retrieval,
	}
}

// HandleSimilarCases answers POST /v1/similar-cases.
func (h *Handler) HandleSimilarCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	var body similarCasesRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&body); err != nil {
		logger.Info("rejected malformed request body", observability.Error(err))
		writeError(w, http.StatusBadRequest, codeInvalidInput, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req := &domain.RetrievalRequest{
		Query:   body.Query,
		Filters: body.Filters,
	}

	results, err := h.retrieval.FindSimilar(ctx, req)
	if err != nil {
		status, code, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("similar cases lookup failed",
				observability.String("code", code),
				observability.Error(err),
			)
		}
		writeError(w, status, code, message)
		return
	}

	logger.Info("similar cases lookup succeeded", observability.Int("results", len(results)))

	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput, err.Error()
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable, codeEmbeddingUnavailable, "embedding service unavailable"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, codeIndexUnavailable, "vector index unavailable"
	default:
		return http.StatusInternalServerError, codeInternal, "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(context.Background()).Warn("failed to encode response", observability.Error(err))
	}
}
