package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

const searchAPIBaseURL = "https://www.searchapi.io/api/v1/search"

// SearchAPIProvider sources offers from SearchApi.io's Google Shopping engine.
type SearchAPIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSearchAPIProvider creates a new SearchApi.io provider.
func NewSearchAPIProvider(apiKey string) *SearchAPIProvider {
	return &SearchAPIProvider{
		apiKey:  apiKey,
		baseURL: searchAPIBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// NewSearchAPIProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewSearchAPIProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) *SearchAPIProvider {
	p := NewSearchAPIProvider(apiKey)
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if httpClient != nil {
		p.httpClient = httpClient
	}
	return p
}

type googleShoppingItem struct {
	Title       string   `json:"title"`
	Price       any      `json:"price"`
	Seller      string   `json:"seller"`
	Source      string   `json:"source"`
	ProductLink string   `json:"product_link"`
	OffersLink  string   `json:"offers_link"`
	Link        string   `json:"link"`
	Thumbnail   string   `json:"thumbnail"`
	Rating      *float64 `json:"rating"`
	Reviews     *int     `json:"reviews"`
	Delivery    string   `json:"delivery"`
}

type googleShoppingResponse struct {
	ShoppingResults []googleShoppingItem `json:"shopping_results"`
}

// Search implements the SourcingProvider interface.
func (p *SearchAPIProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
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
		merchant := item.Seller
		if merchant == "" {
			merchant = item.Source
		}
		if merchant == "" {
			merchant = "Unknown"
		}
		results = append(results, shoppingResult(item, merchant, "searchapi_google_shopping"))
	}
	return results, nil
}

// fetchGoogleShopping performs one GET against a Google Shopping style SERP API.
func fetchGoogleShopping(ctx context.Context, client *http.Client, baseURL string, params url.Values) (*googleShoppingResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("shopping search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("shopping search returned status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	var data googleShoppingResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.NewExternalError("failed to decode shopping response", err)
	}
	return &data, nil
}

// shoppingResult converts a shopping item to the provider-neutral shape.
func shoppingResult(item googleShoppingItem, merchant, source string) entities.SearchResult {
	title := item.Title
	if title == "" {
		title = "Unknown"
	}

	link := item.ProductLink
	if link == "" {
		link = item.OffersLink
	}
	if link == "" {
		link = item.Link
	}
	canonical := utils.CanonicalizeURL(link)

	return entities.SearchResult{
		Title:          title,
		Price:          floatPtr(asFloat(item.Price)),
		Currency:       "USD",
		Merchant:       merchant,
		URL:            canonical,
		MerchantDomain: utils.MerchantDomain(canonical),
		ImageURL:       item.Thumbnail,
		Rating:         item.Rating,
		ReviewsCount:   item.Reviews,
		ShippingInfo:   item.Delivery,
		Source:         source,
	}
}
