// Package hashing provides an embedding backend that runs entirely in-process.
// Vectors come from signed feature hashing of word and bigram tokens, so equal
// texts always produce equal vectors and overlapping texts score as similar.
// It needs no credentials and is meant for development, demos and tests.
package hashing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/observability"
)

// ProviderName identifies this backend in configuration and logs.
const ProviderName = "hashing"

// Config contains hashing backend settings.
type Config struct {
	Dimension int `env:"HASHING_DIMENSION" envDefault:"768"`
}

// Embedder implements domain.EmbeddingProvider without external calls.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a new hashing embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("hashing dimension must be positive, got %d", cfg.Dimension)
	}

	return &Embedder{dimension: cfg.Dimension}, nil
}

// Embed returns one L2-normalized vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := e.embed(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		vectors[i] = vector
	}

	observability.FromContext(ctx).Debug("hashed texts into vectors",
		observability.Int("count", len(texts)))

	return vectors, nil
}

// Name returns the provider identifier.
func (e *Embedder) Name() string {
	return ProviderName
}

// Dimension returns the vector dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

func (e *Embedder) embed(text string) ([]float64, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: text has no word characters", domain.ErrInvalidInput)
	}

	vector := make([]float64, e.dimension)
	for i, token := range tokens {
		e.add(vector, token, 1)
		if i > 0 {
			e.add(vector, tokens[i-1]+" "+token, 0.5)
		}
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		// Every feature cancelled out; fall back to a fixed unit vector.
		vector[0] = 1
		return vector, nil
	}

	for i := range vector {
		vector[i] /= norm
	}
	return vector, nil
}

// add folds one feature into its bucket. The top hash bit chooses the sign.
func (e *Embedder) add(vector []float64, feature string, weight float64) {
	sum := xxhash.Sum64String(feature)
	bucket := sum % uint64(e.dimension)
	if sum>>63 == 1 {
		weight = -weight
	}
	vector[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
