package services

import (
	"fmt"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

// Normalizer converts provider-native results into the canonical shape.
type Normalizer func(results []entities.SearchResult, providerID string) []entities.NormalizedResult

// ResultNormalizerService routes results through per-provider normalizers,
// falling back to the generic one.
type ResultNormalizerService struct {
	registry map[string]Normalizer
}

// NewResultNormalizerService creates a normalizer service with the bespoke
// eBay normalizer registered.
func NewResultNormalizerService() *ResultNormalizerService {
	return &ResultNormalizerService{
		registry: map[string]Normalizer{
			"ebay_browse": NormalizeEbayResults,
		},
	}
}

// NormalizeForProvider normalizes results using the provider's registered
// normalizer, or the generic path when none is registered.
func (s *ResultNormalizerService) NormalizeForProvider(providerID string, results []entities.SearchResult) []entities.NormalizedResult {
	if normalizer, ok := s.registry[providerID]; ok {
		return normalizer(results, providerID)
	}
	return NormalizeGenericResults(results, providerID)
}

// NormalizeGenericResults applies the provider-agnostic normalization:
// canonical URL, merchant domain fallback, USD conversion with the original
// price preserved, and provenance assembly.
func NormalizeGenericResults(results []entities.SearchResult, providerID string) []entities.NormalizedResult {
	normalized := make([]entities.NormalizedResult, 0, len(results))
	for _, result := range results {
		normalized = append(normalized, normalizeGenericResult(result, providerID))
	}
	return normalized
}

func normalizeGenericResult(result entities.SearchResult, providerID string) entities.NormalizedResult {
	canonicalURL := utils.CanonicalizeURL(result.URL)

	merchantDomain := result.MerchantDomain
	if merchantDomain == "" {
		merchantDomain = utils.MerchantDomain(result.URL)
	}

	price := result.Price
	currency := result.Currency
	if currency == "" {
		currency = "USD"
	}
	var priceOriginal *float64
	currencyOriginal := result.Currency
	if result.Price != nil {
		v := *result.Price
		priceOriginal = &v
		if converted, ok := utils.ConvertCurrency(v, result.Currency, "USD"); ok {
			price = &converted
			currency = "USD"
		}
	}

	return entities.NormalizedResult{
		Title:            result.Title,
		URL:              result.URL,
		Source:           providerID,
		Price:            price,
		Currency:         currency,
		PriceOriginal:    priceOriginal,
		CurrencyOriginal: currencyOriginal,
		CanonicalURL:     canonicalURL,
		MerchantName:     result.Merchant,
		MerchantDomain:   merchantDomain,
		ImageURL:         result.ImageURL,
		Rating:           result.Rating,
		ReviewsCount:     result.ReviewsCount,
		ShippingInfo:     result.ShippingInfo,
		RawData:          map[string]any{"provider_id": providerID},
		Provenance:       buildProvenance(result, providerID),
	}
}

// buildProvenance derives user-facing match explanations from result fields.
func buildProvenance(result entities.SearchResult, providerID string) entities.Provenance {
	var matchedFeatures []string
	if result.Rating != nil && *result.Rating > 4.0 {
		matchedFeatures = append(matchedFeatures, fmt.Sprintf("Highly rated (%.1f★)", *result.Rating))
	}
	if result.ShippingInfo != "" {
		matchedFeatures = append(matchedFeatures, result.ShippingInfo)
	}
	if result.ReviewsCount != nil && *result.ReviewsCount > 100 {
		matchedFeatures = append(matchedFeatures, fmt.Sprintf("Popular (%d reviews)", *result.ReviewsCount))
	}
	if result.MatchScore > 0.7 {
		matchedFeatures = append(matchedFeatures, "Strong match for your search")
	}

	provenance := entities.Provenance{
		SourceProvider:  providerID,
		MatchedFeatures: matchedFeatures,
	}

	// The scorer uses vector similarity for vendor directory results
	if result.MatchScore > 0 {
		similarity := result.MatchScore
		provenance.VectorSimilarity = &similarity
	}
	return provenance
}

// NormalizeEbayResults builds normalized results straight from the eBay
// Browse item summaries kept in RawData. Items without a title are dropped.
func NormalizeEbayResults(results []entities.SearchResult, providerID string) []entities.NormalizedResult {
	normalized := make([]entities.NormalizedResult, 0, len(results))
	for _, result := range results {
		if item := normalizeEbayItem(result.RawData); item != nil {
			normalized = append(normalized, *item)
		}
	}
	return normalized
}

func normalizeEbayItem(item map[string]any) *entities.NormalizedResult {
	if item == nil {
		return nil
	}
	title, _ := item["title"].(string)
	if title == "" {
		return nil
	}

	var price *float64
	currency := "USD"
	if priceObj, ok := item["price"].(map[string]any); ok {
		if v := anyToFloat(priceObj["value"]); v != nil {
			price = v
		}
		if c, ok := priceObj["currency"].(string); ok && c != "" {
			currency = c
		}
	}

	imageURL := ""
	if image, ok := item["image"].(map[string]any); ok {
		imageURL, _ = image["imageUrl"].(string)
	}

	itemURL, _ := item["itemWebUrl"].(string)
	if itemURL == "" {
		itemURL, _ = item["itemHref"].(string)
	}

	sellerName := "eBay Seller"
	if seller, ok := item["seller"].(map[string]any); ok {
		if username, ok := seller["username"].(string); ok && username != "" {
			sellerName = username
		}
	}

	condition, _ := item["condition"].(string)

	shippingInfo := ""
	if options, ok := item["shippingOptions"].([]any); ok && len(options) > 0 {
		if first, ok := options[0].(map[string]any); ok {
			if cost, ok := first["shippingCost"].(map[string]any); ok && cost["value"] == "0.00" {
				shippingInfo = "Free shipping"
			} else if shipType, ok := first["type"].(string); ok && shipType != "" {
				shippingInfo = shipType
			} else {
				shippingInfo = "Standard"
			}
		}
	}

	itemID, _ := item["itemId"].(string)
	canonicalURL := itemURL
	if itemID != "" {
		canonicalURL = "https://www.ebay.com/itm/" + itemID
	}

	return &entities.NormalizedResult{
		Title:          title,
		URL:            itemURL,
		Source:         "ebay_browse",
		Price:          price,
		Currency:       currency,
		CanonicalURL:   canonicalURL,
		MerchantName:   sellerName,
		MerchantDomain: "ebay.com",
		ImageURL:       imageURL,
		ShippingInfo:   shippingInfo,
		RawData:        item,
		Provenance: entities.Provenance{
			SourceProvider: "ebay_browse",
			Condition:      condition,
			ItemID:         itemID,
		},
	}
}

func anyToFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err == nil {
			return &f
		}
	}
	return nil
}
