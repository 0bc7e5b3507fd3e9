package shopping

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
)

const serpAPIBaseURL = "https://serpapi.com/search"

// SerpAPIProvider sources offers from SerpAPI's Google Shopping engine.
type SerpAPIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSerpAPIProvider creates a new SerpAPI provider.
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey:  apiKey,
		baseURL: serpAPIBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// NewSerpAPIProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewSerpAPIProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) *SerpAPIProvider {
	p := NewSerpAPIProvider(apiKey)
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if httpClient != nil {
		p.httpClient = httpClient
	}
	return p
}

// Search implements the SourcingProvider interface.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	gl, hl := countryLanguage(opts)
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("api_key", p.apiKey)
	params.Set("gl", gl)
	params.Set("hl", hl)
	if tbs := buildShoppingTBS(opts.MinPrice, opts.MaxPrice); tbs != "" {
		params.Set("tbs", tbs)
	}

	data, err := fetchGoogleShopping(ctx, p.httpClient, p.baseURL, params)
	if err != nil {
		return nil, err
	}

	results := make([]entities.SearchResult, 0, len(data.ShoppingResults))
	for _, item := range data.ShoppingResults {
		merchant := item.Source
		if merchant == "" {
			merchant = "Unknown"
		}
		results = append(results, shoppingResult(item, merchant, "serpapi_google_shopping"))
	}
	return results, nil
}
