package embedding

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/metrics"
	"github.com/davidbz/precedent/internal/observability"
)

// BudgetedProvider wraps an EmbeddingProvider with an input length budget and
// transport metrics. Texts longer than maxChars runes keep their first maxChars runes.
type BudgetedProvider struct {
	inner    domain.EmbeddingProvider
	maxChars int
}

// NewBudgetedProvider wraps inner. A non-positive maxChars disables truncation.
func NewBudgetedProvider(inner domain.EmbeddingProvider, maxChars int) *BudgetedProvider {
	metrics.Register()

	return &BudgetedProvider{
		inner:    inner,
		maxChars: maxChars,
	}
}

// Embed truncates over-budget texts and delegates to the wrapped backend.
func (p *BudgetedProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	provider := p.inner.Name()
	budgeted := make([]string, len(texts))
	for i, text := range texts {
		budgeted[i] = p.truncate(ctx, provider, text)
	}

	start := time.Now()
	vectors, err := p.inner.Embed(ctx, budgeted)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		return nil, fmt.Errorf("embed with %s: %w", provider, err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts",
			domain.ErrProviderUnavailable, provider, len(vectors), len(texts))
	}

	observability.FromContext(ctx).Debug("embedding request completed",
		observability.String("provider", provider),
		observability.Int("texts", len(texts)),
		observability.Duration("duration", duration))

	return vectors, nil
}

// Name returns the wrapped backend name.
func (p *BudgetedProvider) Name() string {
	return p.inner.Name()
}

// Dimension returns the wrapped backend dimension.
func (p *BudgetedProvider) Dimension() int {
	return p.inner.Dimension()
}

func (p *BudgetedProvider) truncate(ctx context.Context, provider, text string) string {
	if p.maxChars <= 0 {
		return text
	}

	length := utf8.RuneCountInString(text)
	if length <= p.maxChars {
		return text
	}

	kept := []rune(text)[:p.maxChars]

	observability.FromContext(ctx).Warn("embedding input truncated",
		observability.String("provider", provider),
		observability.Int("original_chars", length),
		observability.Int("kept_chars", p.maxChars))
	metrics.EmbeddingTruncationsTotal.WithLabelValues(provider).Inc()

	return string(kept)
}
