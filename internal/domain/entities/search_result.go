package entities

// SearchResult is a provider-native offer before normalization.
//
// RawData keeps the provider's original payload so bespoke normalizers can
// reach nested fields the flat shape loses.
type SearchResult struct {
	Title          string         `json:"title"`
	Price          *float64       `json:"price,omitempty"`
	Currency       string         `json:"currency"`
	Merchant       string         `json:"merchant"`
	URL            string         `json:"url"`
	MerchantDomain string         `json:"merchant_domain,omitempty"`
	MatchScore     float64        `json:"match_score"`
	ImageURL       string         `json:"image_url,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	ReviewsCount   *int           `json:"reviews_count,omitempty"`
	ShippingInfo   string         `json:"shipping_info,omitempty"`
	Source         string         `json:"source"`
	RawData        map[string]any `json:"raw_data,omitempty"`
}

// ScoreBreakdown is the per-dimension decomposition of a ranking score.
type ScoreBreakdown struct {
	Combined            float64 `json:"combined"`
	Relevance           float64 `json:"relevance"`
	SourceFit           float64 `json:"source_fit"`
	Price               float64 `json:"price"`
	Quality             float64 `json:"quality"`
	Diversity           float64 `json:"diversity"`
	Preference          float64 `json:"preference"`
	AffiliateMultiplier float64 `json:"affiliate_multiplier"`
}

// Provenance explains where a normalized result came from and why it matched.
type Provenance struct {
	SourceProvider   string          `json:"source_provider"`
	MatchedFeatures  []string        `json:"matched_features,omitempty"`
	VectorSimilarity *float64        `json:"vector_similarity,omitempty"`
	Condition        string          `json:"condition,omitempty"`
	ItemID           string          `json:"item_id,omitempty"`
	Score            *ScoreBreakdown `json:"score,omitempty"`
	Extra            map[string]any  `json:"extra,omitempty"`
}

// NormalizedResult is the canonical offer representation used downstream.
type NormalizedResult struct {
	Title            string         `json:"title"`
	URL              string         `json:"url"`
	Source           string         `json:"source"`
	Price            *float64       `json:"price,omitempty"`
	Currency         string         `json:"currency"`
	PriceOriginal    *float64       `json:"price_original,omitempty"`
	CurrencyOriginal string         `json:"currency_original,omitempty"`
	CanonicalURL     string         `json:"canonical_url,omitempty"`
	MerchantName     string         `json:"merchant_name"`
	MerchantDomain   string         `json:"merchant_domain"`
	ImageURL         string         `json:"image_url,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
	ReviewsCount     *int           `json:"reviews_count,omitempty"`
	ShippingInfo     string         `json:"shipping_info,omitempty"`
	RawData          map[string]any `json:"raw_data,omitempty"`
	Provenance       Provenance     `json:"provenance"`
}
