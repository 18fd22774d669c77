package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/precedent/internal/domain"
)

// ProviderName identifies this backend in configuration and logs.
const ProviderName = "openai"

const (
	// Native embedding dimensions for OpenAI models.
	embeddingDimensionStandard = 1536 // Ada v2 and Small v3
	embeddingDimensionLarge    = 3072 // Large v3
)

// Generator generates embeddings using the hosted OpenAI API.
type Generator struct {
	client    openai.Client
	model     string
	dimension int
	shorten   bool
}

// NewGenerator creates a new OpenAI embedding generator.
// SDK retries are disabled; the retrieval service owns the retry policy.
func NewGenerator(config Config) (*Generator, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	if config.Model == "" {
		config.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	native := nativeDimension(config.Model)
	dimension := native
	shorten := false
	if config.Dimensions > 0 && config.Dimensions != native {
		if config.Model == string(openai.EmbeddingModelTextEmbeddingAda002) {
			return nil, fmt.Errorf("model %s does not support %d dimensions", config.Model, config.Dimensions)
		}
		dimension = config.Dimensions
		shorten = true
	}

	return &Generator{
		client:    openai.NewClient(opts...),
		model:     config.Model,
		dimension: dimension,
		shorten:   shorten,
	}, nil
}

// Embed creates one vector per text in a single request.
func (g *Generator) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	//nolint:exhaustruct // OpenAI SDK struct has many optional fields
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          openai.EmbeddingModel(g.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if g.shorten {
		params.Dimensions = openai.Int(int64(g.dimension))
	}

	resp, err := g.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrProviderUnavailable, len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range",
				domain.ErrProviderUnavailable, item.Index)
		}
		if len(item.Embedding) != g.dimension {
			return nil, fmt.Errorf("%w: model %s returned %d dimensions, expected %d",
				domain.ErrDimensionMismatch, g.model, len(item.Embedding), g.dimension)
		}
		vectors[item.Index] = item.Embedding
	}

	for i, vector := range vectors {
		if vector == nil {
			return nil, fmt.Errorf("%w: no embedding returned for input %d",
				domain.ErrProviderUnavailable, i)
		}
	}

	return vectors, nil
}

// Name returns the generator identifier.
func (g *Generator) Name() string {
	return ProviderName
}

// Dimension returns the vector dimension.
func (g *Generator) Dimension() int {
	return g.dimension
}

func nativeDimension(model string) int {
	switch model {
	case string(openai.EmbeddingModelTextEmbeddingAda002),
		string(openai.EmbeddingModelTextEmbedding3Small):
		return embeddingDimensionStandard
	case string(openai.EmbeddingModelTextEmbedding3Large):
		return embeddingDimensionLarge
	default:
		return embeddingDimensionStandard
	}
}

// mapError classifies SDK errors. Everything is unavailable unless the API
// rejected the input itself.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 400 {
			return fmt.Errorf("%w: embeddings API rejected input: %w", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("%w: embeddings API returned status %d: %w",
			domain.ErrProviderUnavailable, apiErr.StatusCode, err)
	}

	return fmt.Errorf("%w: failed to create embeddings: %w", domain.ErrProviderUnavailable, err)
}
