package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/pkg/config"
)

type recordingProvider struct {
	mu      sync.Mutex
	results []entities.SearchResult
	err     error
	delay   time.Duration

	lastQuery string
	lastOpts  providers.SearchOptions
}

func (p *recordingProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	p.mu.Lock()
	p.lastQuery = query
	p.lastOpts = opts
	p.mu.Unlock()
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.results, p.err
}

func newTestSourcingService(timeoutSeconds float64) *SourcingService {
	cfg := &config.SourcingConfig{
		ProviderTimeoutSeconds: timeoutSeconds,
		DefaultLinkHost:        "www.google.com",
	}
	taxonomy := NewTaxonomyService()
	return NewSourcingService(
		cfg,
		NewQueryBuilderService(taxonomy),
		NewResultNormalizerService(),
		NewResultFilterService(),
		NewSearchRankingService(DefaultScoringWeights()),
		nil,
		nil,
	)
}

func searchResult(title, url string, price float64) entities.SearchResult {
	return entities.SearchResult{
		Title:    title,
		URL:      url,
		Price:    &price,
		Currency: "USD",
		Merchant: "Shop",
	}
}

func TestSearchAllWithStatus_AggregatesAcrossProviders(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{results: []entities.SearchResult{
		searchResult("Trail Running Shoes", "https://shop-a.com/shoes", 80),
	}})
	service.RegisterProvider("beta", &recordingProvider{results: []entities.SearchResult{
		searchResult("Road Running Shoes", "https://shop-b.com/shoes", 90),
	}})

	intent := &entities.SearchIntent{RawInput: "running shoes"}
	response, err := service.SearchAllWithStatus(context.Background(), intent, SearchAllOptions{})
	require.NoError(t, err)

	assert.Len(t, response.Results, 2)
	assert.Len(t, response.ProviderStatuses, 2)
	for _, status := range response.ProviderStatuses {
		assert.Equal(t, entities.ProviderStatusOK, status.Status)
		assert.Equal(t, 1, status.ResultCount)
	}
	assert.Nil(t, response.UserMessage)
	assert.NotEqual(t, "", response.SearchID.String())
	assert.False(t, response.GeneratedAt.IsZero())
}

func TestSearchAllWithStatus_SlowProviderDoesNotBlockFastOne(t *testing.T) {
	service := newTestSourcingService(0.1)
	service.RegisterProvider("fast", &recordingProvider{results: []entities.SearchResult{
		searchResult("Laptop Stand", "https://shop.com/stand", 40),
	}})
	service.RegisterProvider("slow", &recordingProvider{
		delay:   500 * time.Millisecond,
		results: []entities.SearchResult{searchResult("Never Seen", "https://slow.com/item", 10)},
	})

	started := time.Now()
	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "laptop stand"}, SearchAllOptions{})
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 400*time.Millisecond)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "Laptop Stand", response.Results[0].Title)

	summary := response.ProviderSummary()
	assert.Equal(t, entities.ProviderStatusOK, summary["fast"].Status)
	assert.Equal(t, entities.ProviderStatusTimeout, summary["slow"].Status)
	assert.Equal(t, "Search timed out", summary["slow"].Message)
}

func TestSearchAllWithStatus_QuotaExhaustionClassified(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{
		err: errors.New("rainforest API error: 402 Payment Required"),
	})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "camera"}, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.ProviderStatuses, 1)
	assert.Equal(t, entities.ProviderStatusExhausted, response.ProviderStatuses[0].Status)
	assert.Equal(t, "API quota exhausted", response.ProviderStatuses[0].Message)

	require.NotNil(t, response.UserMessage)
	assert.Equal(t, "Search providers have exhausted their quota. Please try again later or contact support.", *response.UserMessage)
}

func TestSearchAllWithStatus_RateLimitClassified(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{
		err: errors.New("upstream said 429 Too Many Requests"),
	})
	service.RegisterProvider("beta", &recordingProvider{})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "camera"}, SearchAllOptions{})
	require.NoError(t, err)

	summary := response.ProviderSummary()
	assert.Equal(t, entities.ProviderStatusRateLimited, summary["alpha"].Status)
	assert.Equal(t, "Rate limit exceeded", summary["alpha"].Message)

	require.NotNil(t, response.UserMessage)
	assert.Equal(t, "Search is temporarily rate-limited. Please wait a moment and try again.", *response.UserMessage)
}

func TestSearchAllWithStatus_GenericErrorsAreSanitized(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{
		err: errors.New("request to https://api.example.com?api_key=sk-verysecret failed"),
	})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "camera"}, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.ProviderStatuses, 1)
	assert.Equal(t, entities.ProviderStatusError, response.ProviderStatuses[0].Status)
	assert.Equal(t, "Search failed", response.ProviderStatuses[0].Message)
}

func TestSearchAllWithStatus_EmptyButHealthyHasNoMessage(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "obscure thing"}, SearchAllOptions{})
	require.NoError(t, err)

	assert.Empty(t, response.Results)
	assert.Nil(t, response.UserMessage)
}

func TestSearchAllWithStatus_DeduplicatesByURL(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{results: []entities.SearchResult{
		searchResult("First Copy", "https://shop.com/item/", 50),
	}})
	service.RegisterProvider("beta", &recordingProvider{results: []entities.SearchResult{
		searchResult("Second Copy", "https://SHOP.com/item", 55),
	}})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "item"}, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "First Copy", response.Results[0].Title)
}

func TestSearchAllWithStatus_DropsNonWebURLs(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{results: []entities.SearchResult{
		searchResult("Good", "https://shop.com/good", 30),
		searchResult("No URL", "", 30),
		searchResult("FTP Link", "ftp://files.example.com/listing", 30),
	}})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "good"}, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "Good", response.Results[0].Title)
}

func TestSearchAllWithStatus_BackfillsMerchantDomain(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{results: []entities.SearchResult{
		searchResult("Widget", "https://www.merchant.com/widget", 20),
	}})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "widget"}, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "merchant.com", response.Results[0].MerchantDomain)
}

func TestSearchAllWithStatus_ProviderFilterSelectsSubset(t *testing.T) {
	alpha := &recordingProvider{results: []entities.SearchResult{searchResult("A", "https://a.com/1", 10)}}
	beta := &recordingProvider{results: []entities.SearchResult{searchResult("B", "https://b.com/1", 10)}}
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", alpha)
	service.RegisterProvider("beta", beta)

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "x"}, SearchAllOptions{
		Providers: []string{"beta", "  ", "does_not_exist"},
	})
	require.NoError(t, err)

	require.Len(t, response.ProviderStatuses, 1)
	assert.Equal(t, "beta", response.ProviderStatuses[0].ProviderID)
	assert.Equal(t, "", alpha.lastQuery)
}

func TestNormalizeProviderFilter(t *testing.T) {
	normalized := NormalizeProviderFilter([]string{"Amazon", " ebay ", "google", "", "custom_thing"})
	assert.Equal(t, []string{"rainforest", "ebay_browse", "google_cse", "custom_thing"}, normalized)
}

func TestSearchAllWithStatus_AliasSelectsProvider(t *testing.T) {
	rainforest := &recordingProvider{results: []entities.SearchResult{searchResult("A", "https://a.com/1", 10)}}
	service := newTestSourcingService(2)
	service.RegisterProvider("rainforest", rainforest)
	service.RegisterProvider("serpapi", &recordingProvider{})

	response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "x"}, SearchAllOptions{
		Providers: []string{"amazon"},
	})
	require.NoError(t, err)

	require.Len(t, response.ProviderStatuses, 1)
	assert.Equal(t, "rainforest", response.ProviderStatuses[0].ProviderID)
}

func TestSearchAllWithStatus_DesireTierNeverGatesProviders(t *testing.T) {
	alpha := &recordingProvider{results: []entities.SearchResult{searchResult("A", "https://a.com/1", 10)}}
	vendor := &recordingProvider{}
	service := newTestSourcingService(2)
	service.RegisterProvider("rainforest", alpha)
	service.RegisterProvider("vendor_directory", vendor)

	for _, tier := range []string{"", "commodity", "specialized", "luxury", "nonsense"} {
		response, err := service.SearchAllWithStatus(context.Background(), &entities.SearchIntent{RawInput: "catering equipment"}, SearchAllOptions{
			DesireTier: tier,
		})
		require.NoError(t, err)

		summary := response.ProviderSummary()
		require.Len(t, summary, 2, "tier %q must not remove providers from dispatch", tier)
		assert.Contains(t, summary, "rainforest")
		assert.Contains(t, summary, "vendor_directory")
	}
}

func TestSearchAllWithStatus_VendorDirectoryGetsVendorQuery(t *testing.T) {
	vendor := &recordingProvider{}
	service := newTestSourcingService(2)
	service.RegisterProvider("vendor_directory", vendor)

	intent := &entities.SearchIntent{
		Brand:    "Herman Miller",
		RawInput: "herman miller aeron chair under $900",
	}
	_, err := service.SearchAllWithStatus(context.Background(), intent, SearchAllOptions{
		VendorQuery: "office chair",
	})
	require.NoError(t, err)

	vendor.mu.Lock()
	defer vendor.mu.Unlock()
	assert.Equal(t, "office chair", vendor.lastQuery)
	assert.NotEmpty(t, vendor.lastOpts.ContextQuery)
	assert.NotEqual(t, vendor.lastQuery, vendor.lastOpts.ContextQuery)
}

func TestSearchAllWithStatus_PriceBoundsFilterResults(t *testing.T) {
	maxPrice := 50.0
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{results: []entities.SearchResult{
		searchResult("Cheap", "https://shop.com/cheap", 30),
		searchResult("Pricey", "https://shop.com/pricey", 120),
	}})

	intent := &entities.SearchIntent{RawInput: "thing", MaxPrice: &maxPrice}
	response, err := service.SearchAllWithStatus(context.Background(), intent, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "Cheap", response.Results[0].Title)
}

func TestSearchAllWithStatus_NonPricedSourcesBypassPriceFilter(t *testing.T) {
	maxPrice := 50.0
	zero := 0.0
	service := newTestSourcingService(2)
	service.RegisterProvider("google_cse", &recordingProvider{results: []entities.SearchResult{
		{Title: "Buying Guide", URL: "https://guide.com/article", Price: &zero, Merchant: "Web"},
	}})

	intent := &entities.SearchIntent{RawInput: "thing", MaxPrice: &maxPrice}
	response, err := service.SearchAllWithStatus(context.Background(), intent, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "Buying Guide", response.Results[0].Title)
}

func TestSearchAllWithStatus_ExclusionsApply(t *testing.T) {
	service := newTestSourcingService(2)
	service.RegisterProvider("alpha", &recordingProvider{results: []entities.SearchResult{
		searchResult("Leather Wallet", "https://shop.com/wallet", 40),
		{Title: "Leather Wallet", URL: "https://banned.com/wallet", Price: floatAddr(35), Currency: "USD", Merchant: "Banned Store"},
	}})

	intent := &entities.SearchIntent{
		RawInput:         "leather wallet",
		ExcludeMerchants: []string{"banned"},
	}
	response, err := service.SearchAllWithStatus(context.Background(), intent, SearchAllOptions{})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	assert.Equal(t, "shop.com", response.Results[0].MerchantDomain)
}

func floatAddr(v float64) *float64 { return &v }

func TestComputeMatchScore(t *testing.T) {
	rating := 4.5
	reviews := 200
	price := 99.0
	full := entities.SearchResult{
		Title:        "Nike Air Zoom running shoes",
		ImageURL:     "https://img.example.com/1.jpg",
		Rating:       &rating,
		ReviewsCount: &reviews,
		Price:        &price,
	}
	score := computeMatchScore(&full, "nike running shoes")
	assert.InDelta(t, 1.0, score, 0.0001)

	bare := entities.SearchResult{Title: "garden hose"}
	assert.InDelta(t, 0.0, computeMatchScore(&bare, "nike running shoes"), 0.0001)

	half := entities.SearchResult{Title: "running shoes"}
	assert.InDelta(t, 0.4*2.0/3.0, computeMatchScore(&half, "nike running shoes"), 0.0001)
}
