// Package shopping contains SourcingProvider implementations backed by
// commercial shopping and SERP APIs.
package shopping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kyrelabs/dealsource/internal/domain/providers"
)

var priceNumberPattern = regexp.MustCompile(`(\d[\d,]*\.?\d*)`)

// parsePriceString extracts a numeric price from strings like "$1,299.99",
// "USD 1299" or "$500 - $800" (first number wins). Returns 0 when nothing
// numeric is found.
func parsePriceString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	m := priceNumberPattern.FindString(s)
	if m == "" {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return value
}

// buildShoppingTBS encodes price bounds in the Google Shopping tbs format.
// Bounds are sent in cents. Returns "" when no bound is set.
func buildShoppingTBS(minPrice, maxPrice *float64) string {
	if minPrice == nil && maxPrice == nil {
		return ""
	}
	parts := []string{"mr:1", "price:1"}
	if minPrice != nil {
		parts = append(parts, fmt.Sprintf("ppr_min:%d", int(*minPrice*100)))
	}
	if maxPrice != nil {
		parts = append(parts, fmt.Sprintf("ppr_max:%d", int(*maxPrice*100)))
	}
	return strings.Join(parts, ",")
}

func countryLanguage(opts providers.SearchOptions) (string, string) {
	gl := opts.GL
	if gl == "" {
		gl = "us"
	}
	hl := opts.HL
	if hl == "" {
		hl = "en"
	}
	return gl, hl
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		return parsePriceString(t)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
