package shopping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/providers"
)

func TestMockProvider_Deterministic(t *testing.T) {
	provider := NewMockProvider()

	first, err := provider.Search(context.Background(), "running shoes", providers.SearchOptions{})
	require.NoError(t, err)
	second, err := provider.Search(context.Background(), "running shoes", providers.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, len(first), 8)
	assert.LessOrEqual(t, len(first), 15)

	for _, result := range first {
		assert.Equal(t, "mock_provider", result.Source)
		assert.Equal(t, "example.com", result.MerchantDomain)
		require.NotNil(t, result.Price)
		assert.Greater(t, *result.Price, 0.0)
		require.NotNil(t, result.Rating)
		assert.GreaterOrEqual(t, *result.Rating, 3.5)
		assert.LessOrEqual(t, *result.Rating, 5.0)
	}
}

func TestMockProvider_VariesByQuery(t *testing.T) {
	provider := NewMockProvider()

	shoes, err := provider.Search(context.Background(), "running shoes", providers.SearchOptions{})
	require.NoError(t, err)
	laptops, err := provider.Search(context.Background(), "gaming laptop", providers.SearchOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, shoes[0].Title, laptops[0].Title)
}
