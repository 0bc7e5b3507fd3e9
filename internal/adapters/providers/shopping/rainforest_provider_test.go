package shopping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/providers"
)

func TestRainforestProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "search", r.URL.Query().Get("type"))
		assert.Equal(t, "amazon.com", r.URL.Query().Get("amazon_domain"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		json.NewEncoder(w).Encode(map[string]any{
			"search_results": []map[string]any{
				{
					"title":         "Trail Runner 5",
					"link":          "https://www.amazon.com/dp/B0TEST?tag=x&utm_source=feed",
					"image":         "https://img.example.com/1.jpg",
					"price":         map[string]any{"value": 89.99, "raw": "$89.99"},
					"rating":        4.5,
					"ratings_total": 1200,
					"delivery":      map[string]any{"tagline": "FREE delivery"},
				},
				{
					"title": "Priced As String",
					"link":  "https://www.amazon.com/dp/B0STR",
					"price": map[string]any{"raw": "$1,299.99"},
				},
				{
					"title": "No Price Item",
					"link":  "https://www.amazon.com/dp/B0FREE",
				},
			},
		})
	}))
	defer server.Close()

	provider := NewRainforestProviderWithOptions("test-key", "", server.URL, server.Client())
	results, err := provider.Search(context.Background(), "trail running shoes", providers.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "Trail Runner 5", first.Title)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 89.99, *first.Price, 0.001)
	assert.Equal(t, "Amazon", first.Merchant)
	assert.Equal(t, "amazon.com", first.MerchantDomain)
	assert.Equal(t, "rainforest_amazon", first.Source)
	assert.Equal(t, "FREE delivery", first.ShippingInfo)
	assert.NotContains(t, first.URL, "utm_source")

	second := results[1]
	require.NotNil(t, second.Price)
	assert.InDelta(t, 1299.99, *second.Price, 0.001)
}

func TestRainforestProvider_EnforcesPriceBounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"search_results": []map[string]any{
				{"title": "Cheap", "link": "https://www.amazon.com/dp/A", "price": map[string]any{"value": 10.0}},
				{"title": "Right", "link": "https://www.amazon.com/dp/B", "price": map[string]any{"value": 50.0}},
				{"title": "Expensive", "link": "https://www.amazon.com/dp/C", "price": map[string]any{"value": 500.0}},
			},
		})
	}))
	defer server.Close()

	minPrice := 25.0
	maxPrice := 100.0
	provider := NewRainforestProviderWithOptions("test-key", "", server.URL, server.Client())
	results, err := provider.Search(context.Background(), "widget", providers.SearchOptions{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Right", results[0].Title)
}

func TestRainforestProvider_AppliesAffiliateTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"search_results": []map[string]any{
				{"title": "Tagged", "link": "https://www.amazon.com/dp/B0TAG?tag=someone-else-20", "price": map[string]any{"value": 20.0}},
				{"title": "Untagged", "link": "https://www.amazon.com/dp/B0PLAIN", "price": map[string]any{"value": 30.0}},
			},
		})
	}))
	defer server.Close()

	provider := NewRainforestProviderWithOptions("test-key", "dealsource-20", server.URL, server.Client())
	results, err := provider.Search(context.Background(), "widget", providers.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Existing tags are replaced, missing ones appended
	assert.Contains(t, results[0].URL, "tag=dealsource-20")
	assert.NotContains(t, results[0].URL, "someone-else-20")
	assert.Contains(t, results[1].URL, "tag=dealsource-20")
}

func TestRainforestProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	provider := NewRainforestProviderWithOptions("test-key", "", server.URL, server.Client())
	_, err := provider.Search(context.Background(), "widget", providers.SearchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}
