package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Keys that describe product attributes and may be matched against titles.
var productAttributeKeys = map[string]struct{}{
	"material": {}, "color": {}, "colour": {}, "size": {}, "style": {}, "brand": {},
	"type": {}, "finish": {}, "pattern": {}, "shape": {}, "flavor": {},
	"weight": {}, "length": {}, "width": {}, "height": {},
}

// Keys that describe buyer context and must never exclude results by title.
var choiceSkipKeys = map[string]struct{}{
	"min_price": {}, "max_price": {}, "price": {}, "budget": {},
	"recipient": {}, "occasion": {}, "purpose": {}, "use_case": {}, "reason": {},
	"timeline": {}, "urgency": {}, "delivery": {}, "shipping": {},
	"format": {},
	"notes":  {}, "comments": {}, "description": {}, "safety_status": {}, "safety_reason": {},
	"quantity": {}, "count": {},
}

// Splits compound constraint values: "gold or platinum", "red, blue", "cotton/linen".
var compoundValuePattern = regexp.MustCompile(`\s+or\s+|\s+and\s+|,\s*|/\s*`)

// ResultFilterService holds the price, choice-constraint and exclusion
// filters applied after normalization.
type ResultFilterService struct{}

// NewResultFilterService creates a new filter service.
func NewResultFilterService() *ResultFilterService {
	return &ResultFilterService{}
}

// ShouldIncludeResult is the single source of truth for price filtering.
// Results without a price (quote-based vendors) always pass, as does
// everything when no bound is set.
func (s *ResultFilterService) ShouldIncludeResult(price, minPrice, maxPrice *float64) bool {
	if price == nil {
		return true
	}
	if minPrice == nil && maxPrice == nil {
		return true
	}
	if minPrice != nil && *price < *minPrice {
		return false
	}
	if maxPrice != nil && *price > *maxPrice {
		return false
	}
	return true
}

// ShouldExcludeByChoices reports whether a title fails one of the user's
// product-attribute constraints. Context keys (recipient, occasion, budget)
// never exclude anything.
func (s *ResultFilterService) ShouldExcludeByChoices(title string, choiceAnswers map[string]any) bool {
	if title == "" || len(choiceAnswers) == 0 {
		return false
	}

	for key, value := range choiceAnswers {
		if value == nil || value == "" || value == false {
			continue
		}

		keyLower := strings.ToLower(key)
		if _, skip := choiceSkipKeys[keyLower]; skip {
			continue
		}
		if _, attribute := productAttributeKeys[keyLower]; !attribute {
			continue
		}

		if !MatchesChoiceConstraint(title, key, value) {
			return true
		}
	}
	return false
}

// MatchesChoiceConstraint checks one constraint against a title. Compound
// values split on or/and/comma/slash and match if ANY part appears.
func MatchesChoiceConstraint(title, constraintKey string, constraintValue any) bool {
	if title == "" || constraintValue == nil {
		return true
	}

	valueStr := strings.ToLower(strings.TrimSpace(constraintString(constraintValue)))
	if constraintValue == false || valueStr == "no" || valueStr == "not answered" || valueStr == "false" || valueStr == "" {
		return true
	}

	if constraintKey == "min_price" || constraintKey == "max_price" {
		return true
	}

	normalizedTitle := strings.ToLower(strings.TrimSpace(title))

	// Boolean yes means "the title should mention the key itself"
	if constraintValue == true {
		return strings.Contains(normalizedTitle, strings.ToLower(constraintKey))
	}

	parts := compoundValuePattern.Split(valueStr, -1)
	matchedAny := false
	hasPart := false
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hasPart = true
		if titleContainsTerm(normalizedTitle, part) {
			matchedAny = true
			break
		}
	}
	if !hasPart {
		return true
	}
	return matchedAny
}

// titleContainsTerm matches a term against the title; short terms (3 chars
// or fewer) require word boundaries so "red" does not match "bordered".
func titleContainsTerm(normalizedTitle, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	if len(term) <= 3 {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		return pattern.MatchString(normalizedTitle)
	}
	return strings.Contains(normalizedTitle, term)
}

func constraintString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ShouldExcludeByExclusions applies negative keyword and merchant lists
// after search. Upstream shopping APIs have no negative keyword support, so
// exclusions from statements like "no digital" or "NOT Amazon" are enforced
// here. Returns true when the result should be dropped.
func (s *ResultFilterService) ShouldExcludeByExclusions(
	title, merchant, merchantDomain string,
	excludeKeywords, excludeMerchants []string,
) bool {
	if len(excludeKeywords) == 0 && len(excludeMerchants) == 0 {
		return false
	}

	titleLower := strings.ToLower(title)
	merchantLower := strings.ToLower(merchant)
	domainLower := strings.ToLower(merchantDomain)

	for _, excluded := range excludeMerchants {
		ex := strings.ToLower(excluded)
		if ex == "" {
			continue
		}
		if strings.Contains(merchantLower, ex) || strings.Contains(domainLower, ex) {
			return true
		}
	}

	for _, excluded := range excludeKeywords {
		ex := strings.ToLower(excluded)
		if ex == "" {
			continue
		}
		if strings.Contains(titleLower, ex) {
			return true
		}
	}
	return false
}
