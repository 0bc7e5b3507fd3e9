package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

const googleCSEBaseURL = "https://www.googleapis.com/customsearch/v1"

// GoogleCSEProvider sources web results from Google Custom Search. Results
// carry no reliable price, so price bounds are folded into the query text as
// a hint instead.
type GoogleCSEProvider struct {
	apiKey     string
	cx         string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleCSEProvider creates a new Google Custom Search provider.
func NewGoogleCSEProvider(apiKey, cx string) *GoogleCSEProvider {
	return &GoogleCSEProvider{
		apiKey:  apiKey,
		cx:      cx,
		baseURL: googleCSEBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewGoogleCSEProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleCSEProviderWithOptions(apiKey, cx, baseURL string, httpClient *http.Client) *GoogleCSEProvider {
	p := NewGoogleCSEProvider(apiKey, cx)
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if httpClient != nil {
		p.httpClient = httpClient
	}
	return p
}

type googleCSEImage struct {
	Src string `json:"src"`
}

type googleCSEItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Pagemap struct {
		CSEImage     []googleCSEImage `json:"cse_image"`
		CSEThumbnail []googleCSEImage `json:"cse_thumbnail"`
	} `json:"pagemap"`
}

type googleCSEResponse struct {
	Items []googleCSEItem `json:"items"`
}

// Search implements the SourcingProvider interface. Upstream failures are
// logged and swallowed since CSE is a best-effort supplemental source.
func (p *GoogleCSEProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	searchQuery := query + " buy price" + priceHint(opts.MinPrice, opts.MaxPrice)

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.cx)
	params.Set("q", searchQuery)
	params.Set("num", "10")

	logger := observability.GetLogger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("Google CSE request failed")
		return []entities.SearchResult{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn().Int("status", resp.StatusCode).Msg("Google CSE returned error status")
		return []entities.SearchResult{}, nil
	}

	var data googleCSEResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode Google CSE response")
		return []entities.SearchResult{}, nil
	}

	results := make([]entities.SearchResult, 0, len(data.Items))
	for _, item := range data.Items {
		title := item.Title
		if title == "" {
			title = "Unknown"
		}
		canonical := utils.CanonicalizeURL(item.Link)

		imageURL := ""
		if len(item.Pagemap.CSEImage) > 0 {
			imageURL = item.Pagemap.CSEImage[0].Src
		} else if len(item.Pagemap.CSEThumbnail) > 0 {
			imageURL = item.Pagemap.CSEThumbnail[0].Src
		}

		merchant := utils.MerchantDomain(canonical)
		if merchant == "" || merchant == "unknown" {
			merchant = "Web"
		}

		results = append(results, entities.SearchResult{
			Title:          title,
			Price:          floatPtr(0),
			Currency:       "USD",
			Merchant:       merchant,
			URL:            canonical,
			MerchantDomain: utils.MerchantDomain(canonical),
			ImageURL:       imageURL,
			Source:         "google_cse",
		})
	}
	return results, nil
}

func priceHint(minPrice, maxPrice *float64) string {
	switch {
	case minPrice != nil && maxPrice != nil:
		return fmt.Sprintf(" $%d-$%d", int(*minPrice), int(*maxPrice))
	case minPrice != nil:
		return fmt.Sprintf(" over $%d", int(*minPrice))
	case maxPrice != nil:
		return fmt.Sprintf(" under $%d", int(*maxPrice))
	default:
		return ""
	}
}
