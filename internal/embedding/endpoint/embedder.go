package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/davidbz/precedent/internal/domain"
)

// ProviderName identifies this backend in configuration and logs.
const ProviderName = "endpoint"

// Embedder calls a deployed feature-extraction model over the OpenAI embeddings API.
type Embedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	user      string
}

// NewEmbedder creates an endpoint embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding endpoint base URL is required")
	}

	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding endpoint dimension must be positive, got %d", cfg.Dimension)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Embedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     openai.EmbeddingModel(cfg.Model),
		dimension: cfg.Dimension,
		user:      cfg.User,
	}, nil
}

// Embed sends all texts in one request and converts the float32 response.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrProviderUnavailable, len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range",
				domain.ErrProviderUnavailable, item.Index)
		}
		if len(item.Embedding) != e.dimension {
			return nil, fmt.Errorf("%w: endpoint returned %d dimensions, expected %d",
				domain.ErrDimensionMismatch, len(item.Embedding), e.dimension)
		}

		vector := make([]float64, len(item.Embedding))
		for i, v := range item.Embedding {
			vector[i] = float64(v)
		}
		vectors[item.Index] = vector
	}

	for i, vector := range vectors {
		if vector == nil {
			return nil, fmt.Errorf("%w: no embedding returned for input %d",
				domain.ErrProviderUnavailable, i)
		}
	}

	return vectors, nil
}

// Name returns the backend identifier.
func (e *Embedder) Name() string {
	return ProviderName
}

// Dimension returns the configured vector dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// parseAPIError wraps transport failures as unavailable and 4xx input rejections as invalid input.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusBadRequest || apiErr.HTTPStatusCode == http.StatusRequestEntityTooLarge {
			return fmt.Errorf("%w: endpoint rejected input: %s", domain.ErrInvalidInput, apiErr.Message)
		}
		return fmt.Errorf("%w: endpoint error %d: %s",
			domain.ErrProviderUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		if reqErr.HTTPStatusCode == http.StatusRequestEntityTooLarge {
			return fmt.Errorf("%w: endpoint rejected input: %s", domain.ErrInvalidInput, detail)
		}
		return fmt.Errorf("%w: endpoint error %d: %s",
			domain.ErrProviderUnavailable, reqErr.HTTPStatusCode, detail)
	}

	return fmt.Errorf("%w: embedding request failed: %w", domain.ErrProviderUnavailable, err)
}

// extractDetail reads the "error" or "detail" field that TEI-style servers put in error bodies.
func extractDetail(body []byte) string {
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error
}
