package entities

import "strings"

// ConditionType constrains the acceptable product condition.
type ConditionType string

const (
	ConditionNew         ConditionType = "new"
	ConditionUsed        ConditionType = "used"
	ConditionRefurbished ConditionType = "refurbished"
	ConditionAny         ConditionType = "any"
)

// PriceFlexibility signals how strictly price bounds should be applied.
type PriceFlexibility string

const (
	PriceStrict   PriceFlexibility = "strict"
	PriceFlexible PriceFlexibility = "flexible"
)

// IntentSource records which extraction path produced the intent.
type IntentSource string

const (
	IntentSourceHeuristic IntentSource = "heuristic"
	IntentSourceLLM       IntentSource = "llm"
)

// SearchIntent is the structured representation of an end-user purchasing request.
type SearchIntent struct {
	ProductCategory  string              `json:"product_category"`
	TaxonomyVersion  string              `json:"taxonomy_version,omitempty"`
	CategoryPath     []string            `json:"category_path,omitempty"`
	ProductName      string              `json:"product_name,omitempty"`
	Brand            string              `json:"brand,omitempty"`
	Model            string              `json:"model,omitempty"`
	MinPrice         *float64            `json:"min_price,omitempty"`
	MaxPrice         *float64            `json:"max_price,omitempty"`
	PriceFlexibility PriceFlexibility    `json:"price_flexibility,omitempty"`
	Condition        ConditionType       `json:"condition,omitempty"`
	Features         map[string][]string `json:"features,omitempty"`
	Keywords         []string            `json:"keywords,omitempty"`
	ExcludeKeywords  []string            `json:"exclude_keywords,omitempty"`
	ExcludeMerchants []string            `json:"exclude_merchants,omitempty"`
	Confidence       float64             `json:"confidence"`
	RawInput         string              `json:"raw_input"`
	Source           IntentSource        `json:"source,omitempty"`
}

// NormalizeKeywords trims, drops empties, and removes case-insensitive
// duplicates while preserving the first occurrence's casing and position.
func NormalizeKeywords(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

// Normalize applies field-level normalization in place: keyword dedupe,
// empty category path entries removed, nil feature map initialized.
func (i *SearchIntent) Normalize() {
	i.Keywords = NormalizeKeywords(i.Keywords)
	i.ExcludeKeywords = NormalizeKeywords(i.ExcludeKeywords)
	i.ExcludeMerchants = NormalizeKeywords(i.ExcludeMerchants)
	if i.Features == nil {
		i.Features = map[string][]string{}
	}
	if len(i.CategoryPath) > 0 {
		path := i.CategoryPath[:0]
		for _, segment := range i.CategoryPath {
			if segment != "" {
				path = append(path, segment)
			}
		}
		i.CategoryPath = path
	}
}
