package embedding_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/precedent/internal/domain"
	"github.com/davidbz/precedent/internal/embedding"
	"github.com/davidbz/precedent/internal/metrics"
	"github.com/davidbz/precedent/internal/mocks"
)

func TestBudgetedProvider_Embed(t *testing.T) {
	t.Run("should truncate texts over the budget", func(t *testing.T) {
		inner := mocks.NewMockEmbeddingProvider(t)
		inner.EXPECT().Name().Return("budget-truncate")

		long := strings.Repeat("a", 300)
		inner.EXPECT().Embed(mock.Anything, []string{strings.Repeat("a", 286), "short"}).
			Return([][]float64{{1, 0}, {0, 1}}, nil).
			Once()

		provider := embedding.NewBudgetedProvider(inner, 286)
		before := testutil.ToFloat64(metrics.EmbeddingTruncationsTotal.WithLabelValues("budget-truncate"))

		vectors, err := provider.Embed(context.Background(), []string{long, "short"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)

		after := testutil.ToFloat64(metrics.EmbeddingTruncationsTotal.WithLabelValues("budget-truncate"))
		require.InDelta(t, 1, after-before, 0)
	})

	t.Run("should count runes not bytes", func(t *testing.T) {
		inner := mocks.NewMockEmbeddingProvider(t)
		inner.EXPECT().Name().Return("budget-runes")
		inner.EXPECT().Embed(mock.Anything, []string{"ééé"}).Return([][]float64{{1}}, nil).Once()

		provider := embedding.NewBudgetedProvider(inner, 3)

		_, err := provider.Embed(context.Background(), []string{"ééé"})
		require.NoError(t, err)

		inner2 := mocks.NewMockEmbeddingProvider(t)
		inner2.EXPECT().Name().Return("budget-runes")
		inner2.EXPECT().Embed(mock.Anything, []string{"éé"}).Return([][]float64{{1}}, nil).Once()

		_, err = embedding.NewBudgetedProvider(inner2, 2).Embed(context.Background(), []string{"ééé"})
		require.NoError(t, err)
	})

	t.Run("should return empty result without calling backend", func(t *testing.T) {
		inner := mocks.NewMockEmbeddingProvider(t)
		provider := embedding.NewBudgetedProvider(inner, 286)

		vectors, err := provider.Embed(context.Background(), nil)
		require.NoError(t, err)
		require.NotNil(t, vectors)
		require.Empty(t, vectors)
		inner.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	})

	t.Run("should keep backend error kind", func(t *testing.T) {
		inner := mocks.NewMockEmbeddingProvider(t)
		inner.EXPECT().Name().Return("budget-error")
		inner.EXPECT().Embed(mock.Anything, mock.Anything).
			Return(nil, errors.Join(domain.ErrProviderUnavailable, errors.New("401 unauthorized"))).
			Once()

		_, err := embedding.NewBudgetedProvider(inner, 0).Embed(context.Background(), []string{"note"})
		require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("should reject vector count mismatch", func(t *testing.T) {
		inner := mocks.NewMockEmbeddingProvider(t)
		inner.EXPECT().Name().Return("budget-count")
		inner.EXPECT().Embed(mock.Anything, mock.Anything).Return([][]float64{{1}}, nil).Once()

		_, err := embedding.NewBudgetedProvider(inner, 0).Embed(context.Background(), []string{"a", "b"})
		require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})
}

func TestBudgetedProvider_Delegates(t *testing.T) {
	inner := mocks.NewMockEmbeddingProvider(t)
	inner.EXPECT().Name().Return("openai")
	inner.EXPECT().Dimension().Return(768)

	provider := embedding.NewBudgetedProvider(inner, 286)
	require.Equal(t, "openai", provider.Name())
	require.Equal(t, 768, provider.Dimension())
}
