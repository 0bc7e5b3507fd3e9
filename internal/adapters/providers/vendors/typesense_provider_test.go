package vendors

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/providers"
	tsclient "github.com/kyrelabs/dealsource/internal/infrastructure/clients/typesense"
)

// Pins the constructor to the infrastructure wrapper so callers wire the
// same client type SearchByVector unwraps.
func TestNewTypesenseVendorSearcher_TakesInfrastructureClient(t *testing.T) {
	var wrapper *tsclient.Client
	searcher := NewTypesenseVendorSearcher(wrapper)
	require.NotNil(t, searcher)

	var _ VendorSearcher = searcher
}

type fakeEmbedder struct {
	calls     int
	lastTexts []string
	vectors   [][]float64
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls++
	f.lastTexts = texts
	return f.vectors[:len(texts)], nil
}

type fakeSearcher struct {
	lastVector []float64
	lastLimit  int
	hits       []VendorHit
}

func (f *fakeSearcher) SearchByVector(ctx context.Context, vector []float64, limit int) ([]VendorHit, error) {
	f.lastVector = vector
	f.lastLimit = limit
	return f.hits, nil
}

func TestDirectoryProvider_Search(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float64{{1, 0, 0}, {0, 1, 0}}}
	searcher := &fakeSearcher{hits: []VendorHit{
		{
			Name:     "Peak Charter Co",
			Website:  "https://peakcharter.example.com/home",
			Category: "Aviation",
			Distance: 0.20,
		},
		{
			Name:     "Listing Page Vendor",
			Website:  "https://www.yelp.com/biz/some-vendor",
			Distance: 0.30,
		},
		{
			Name:     "Too Far Vendor",
			Website:  "https://far.example.com",
			Distance: 0.80,
		},
		{
			Name:     "Email Only Vendor",
			Email:    "hello@vendor.example.com",
			Distance: 0.10,
		},
	}}

	provider := NewDirectoryProvider(embedder, searcher, nil)
	results, err := provider.Search(context.Background(), "private jet charter", providers.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	first := results[0]
	assert.Equal(t, "Peak Charter Co", first.Title)
	assert.Equal(t, "Peak Charter Co", first.Merchant)
	assert.Equal(t, "peakcharter.example.com", first.MerchantDomain)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=peakcharter.example.com&sz=128", first.ImageURL)
	assert.Equal(t, "Category: Aviation", first.ShippingInfo)
	assert.Nil(t, first.Price)
	assert.InDelta(t, 0.80, first.MatchScore, 0.0001)
	assert.Equal(t, "vendor_directory", first.Source)

	// Aggregator URLs never count as the vendor's own domain
	assert.Equal(t, "", results[1].MerchantDomain)

	assert.Equal(t, "mailto:hello@vendor.example.com", results[2].URL)
	assert.Equal(t, defaultVendorLimit, searcher.lastLimit)
}

func TestDirectoryProvider_BlendsContextQuery(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float64{{1, 0}, {0, 1}}}
	searcher := &fakeSearcher{}

	provider := NewDirectoryProvider(embedder, searcher, nil)
	_, err := provider.Search(context.Background(), "private jet charter", providers.SearchOptions{
		ContextQuery: "private jet charter san diego nashville",
	})
	require.NoError(t, err)

	require.Len(t, embedder.lastTexts, 2)
	require.Len(t, searcher.lastVector, 2)

	// 0.7*(1,0) + 0.3*(0,1), L2-normalized
	norm := math.Sqrt(0.7*0.7 + 0.3*0.3)
	assert.InDelta(t, 0.7/norm, searcher.lastVector[0], 0.0001)
	assert.InDelta(t, 0.3/norm, searcher.lastVector[1], 0.0001)
}

func TestDirectoryProvider_SkipsBlendWhenContextMatchesQuery(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float64{{1, 0}}}
	searcher := &fakeSearcher{}

	provider := NewDirectoryProvider(embedder, searcher, nil)
	_, err := provider.Search(context.Background(), "Private Jet Charter", providers.SearchOptions{
		ContextQuery: "private jet charter",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Private Jet Charter"}, embedder.lastTexts)
}

func TestWeightedBlend_Normalizes(t *testing.T) {
	blended := weightedBlend([][]float64{{3, 0}, {0, 4}}, []float64{1, 1})

	var norm float64
	for _, v := range blended {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 0.0001)
}
