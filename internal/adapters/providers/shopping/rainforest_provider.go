package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

const (
	rainforestBaseURL    = "https://api.rainforestapi.com/request"
	rainforestMaxResults = 20
)

// Keys checked in the "prices" object when the top-level price is missing,
// in priority order.
var rainforestPriceKeys = []string{
	"current_price",
	"buybox_price",
	"price",
	"current",
	"main_price",
	"list_price",
}

// RainforestProvider sources Amazon offers through the Rainforest API.
type RainforestProvider struct {
	apiKey       string
	affiliateTag string
	baseURL      string
	httpClient   *http.Client
}

// NewRainforestProvider creates a new Rainforest provider. A non-empty
// affiliateTag is stamped onto every returned Amazon URL.
func NewRainforestProvider(apiKey, affiliateTag string) *RainforestProvider {
	return &RainforestProvider{
		apiKey:       apiKey,
		affiliateTag: affiliateTag,
		baseURL:      rainforestBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewRainforestProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewRainforestProviderWithOptions(apiKey, affiliateTag, baseURL string, httpClient *http.Client) *RainforestProvider {
	p := NewRainforestProvider(apiKey, affiliateTag)
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if httpClient != nil {
		p.httpClient = httpClient
	}
	return p
}

type rainforestItem struct {
	Title        string         `json:"title"`
	Link         string         `json:"link"`
	Image        string         `json:"image"`
	Price        any            `json:"price"`
	Prices       map[string]any `json:"prices"`
	Rating       *float64       `json:"rating"`
	RatingsTotal *int           `json:"ratings_total"`
	Delivery     struct {
		Tagline string `json:"tagline"`
	} `json:"delivery"`
}

type rainforestResponse struct {
	SearchResults []rainforestItem `json:"search_results"`
}

// Search implements the SourcingProvider interface.
func (p *RainforestProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	data, err := p.fetch(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	// Amazon search sometimes returns nothing for long queries. Retry once
	// with a simplified query before giving up.
	if len(data.SearchResults) == 0 {
		words := strings.Fields(query)
		if len(words) > 4 {
			simplified := strings.Join(words[:4], " ")
			if !strings.EqualFold(simplified, query) {
				observability.GetLogger().Debug().
					Str("query", query).
					Str("simplified", simplified).
					Msg("Rainforest returned no results, retrying with simplified query")
				data, err = p.fetch(ctx, simplified, opts)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	items := data.SearchResults
	if len(items) > rainforestMaxResults {
		items = items[:rainforestMaxResults]
	}

	results := make([]entities.SearchResult, 0, len(items))
	for _, item := range items {
		price := rainforestPrice(item)
		// Zero-priced items render as $0.00 and dodge the min price bound
		if price <= 0 {
			continue
		}
		// Price bounds are enforced locally regardless of upstream support
		if opts.MinPrice != nil && price < *opts.MinPrice {
			continue
		}
		if opts.MaxPrice != nil && price > *opts.MaxPrice {
			continue
		}

		title := item.Title
		if title == "" {
			title = "Unknown"
		}
		canonical := withAffiliateTag(utils.CanonicalizeURL(item.Link), p.affiliateTag)

		results = append(results, entities.SearchResult{
			Title:          title,
			Price:          floatPtr(price),
			Currency:       "USD",
			Merchant:       "Amazon",
			URL:            canonical,
			MerchantDomain: utils.MerchantDomain(canonical),
			ImageURL:       item.Image,
			Rating:         item.Rating,
			ReviewsCount:   item.RatingsTotal,
			ShippingInfo:   item.Delivery.Tagline,
			Source:         "rainforest_amazon",
		})
	}
	return results, nil
}

func (p *RainforestProvider) fetch(ctx context.Context, query string, opts providers.SearchOptions) (*rainforestResponse, error) {
	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("type", "search")
	params.Set("amazon_domain", "amazon.com")
	params.Set("search_term", query)
	if opts.MinPrice != nil {
		params.Set("min_price", fmt.Sprintf("%g", *opts.MinPrice))
	}
	if opts.MaxPrice != nil {
		params.Set("max_price", fmt.Sprintf("%g", *opts.MaxPrice))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("rainforest request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("rainforest returned status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	var data rainforestResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.NewExternalError("failed to decode rainforest response", err)
	}
	return &data, nil
}

// withAffiliateTag sets or replaces the Amazon affiliate tag query param.
func withAffiliateTag(rawURL, tag string) string {
	if tag == "" || rawURL == "" {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	query.Set("tag", tag)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// rainforestPrice resolves a usable price from the item's price fields.
// Handles numeric values and strings like "$1,299.99" or "$500 - $800".
func rainforestPrice(item rainforestItem) float64 {
	priceInfo := item.Price
	if priceInfo == nil && item.Prices != nil {
		for _, key := range rainforestPriceKeys {
			if v, ok := item.Prices[key]; ok {
				priceInfo = v
				break
			}
		}
	}
	if priceInfo == nil {
		return 0
	}

	if obj, ok := priceInfo.(map[string]any); ok {
		if v := asFloat(obj["value"]); v > 0 {
			return v
		}
		return asFloat(obj["raw"])
	}
	return asFloat(priceInfo)
}
