package shopping

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

const (
	ebayAuthURL       = "https://api.ebay.com/identity/v1/oauth2/token"
	ebayBrowseURL     = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	ebayOAuthScope    = "https://api.ebay.com/oauth/api_scope"
	ebayDefaultLimit  = 20
	ebayTokenEarlyRef = 60 * time.Second
)

// EbayProvider sources offers from the official eBay Browse API using
// client-credentials OAuth.
type EbayProvider struct {
	clientID      string
	clientSecret  string
	marketplaceID string
	authURL       string
	baseURL       string
	httpClient    *http.Client

	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time
}

// NewEbayProvider creates a new eBay Browse provider.
func NewEbayProvider(clientID, clientSecret, marketplaceID string) *EbayProvider {
	if marketplaceID == "" {
		marketplaceID = "EBAY-US"
	}
	return &EbayProvider{
		clientID:      clientID,
		clientSecret:  clientSecret,
		marketplaceID: marketplaceID,
		authURL:       ebayAuthURL,
		baseURL:       ebayBrowseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewEbayProviderWithOptions allows overriding endpoints and HTTP client (used for tests).
func NewEbayProviderWithOptions(clientID, clientSecret, marketplaceID, authURL, baseURL string, httpClient *http.Client) *EbayProvider {
	p := NewEbayProvider(clientID, clientSecret, marketplaceID)
	if authURL != "" {
		p.authURL = authURL
	}
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if httpClient != nil {
		p.httpClient = httpClient
	}
	return p
}

type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type ebaySearchResponse struct {
	ItemSummaries []map[string]any `json:"itemSummaries"`
}

// accessToken returns a cached OAuth token, refreshing it shortly before expiry.
func (p *EbayProvider) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExpiresAt.Add(-ebayTokenEarlyRef)) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", ebayOAuthScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(p.clientID + ":" + p.clientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewExternalError("ebay token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewExternalError(
			fmt.Sprintf("ebay token request returned status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	var payload ebayTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperrors.NewExternalError("failed to decode ebay token response", err)
	}
	if payload.AccessToken == "" {
		return "", apperrors.NewExternalError("ebay token response missing access_token", nil)
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 7200
	}

	p.token = payload.AccessToken
	p.tokenExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return p.token, nil
}

// Search implements the SourcingProvider interface.
func (p *EbayProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = ebayDefaultLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", p.marketplaceID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("ebay search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("ebay search returned status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	var data ebaySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.NewExternalError("failed to decode ebay search response", err)
	}

	results := make([]entities.SearchResult, 0, len(data.ItemSummaries))
	for _, item := range data.ItemSummaries {
		results = append(results, ebayResult(item))
	}
	return results, nil
}

// ebayResult flattens an item summary, keeping the raw payload for the
// bespoke normalizer.
func ebayResult(item map[string]any) entities.SearchResult {
	title := asString(item["title"])
	if title == "" {
		title = "Unknown"
	}

	var price float64
	currency := "USD"
	if priceObj, ok := item["price"].(map[string]any); ok {
		price = asFloat(priceObj["value"])
		if c := asString(priceObj["currency"]); c != "" {
			currency = c
		}
	}

	merchant := "eBay"
	if seller, ok := item["seller"].(map[string]any); ok {
		if username := asString(seller["username"]); username != "" {
			merchant = username
		}
	}

	imageURL := ""
	if image, ok := item["image"].(map[string]any); ok {
		imageURL = asString(image["imageUrl"])
	}

	shippingInfo := ""
	if options, ok := item["shippingOptions"].([]any); ok && len(options) > 0 {
		if first, ok := options[0].(map[string]any); ok {
			if strings.EqualFold(asString(first["shippingCostType"]), "free") {
				shippingInfo = "Free shipping"
			} else if cost, ok := first["shippingCost"].(map[string]any); ok {
				if value := asFloat(cost["value"]); value > 0 {
					costCurrency := asString(cost["currency"])
					if costCurrency == "" {
						costCurrency = currency
					}
					shippingInfo = fmt.Sprintf("Shipping %s %.2f", costCurrency, value)
				}
			}
		}
	}

	canonical := utils.CanonicalizeURL(asString(item["itemWebUrl"]))

	return entities.SearchResult{
		Title:          title,
		Price:          floatPtr(price),
		Currency:       currency,
		Merchant:       merchant,
		URL:            canonical,
		MerchantDomain: utils.MerchantDomain(canonical),
		ImageURL:       imageURL,
		ShippingInfo:   shippingInfo,
		Source:         "ebay_browse",
		RawData:        item,
	}
}
