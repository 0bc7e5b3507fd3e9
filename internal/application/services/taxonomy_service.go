package services

import (
	"regexp"
	"strings"
)

// DefaultTaxonomyVersion tags provider queries with the taxonomy revision
// they were built against.
const DefaultTaxonomyVersion = "shopping_v1"

var categoryNormalizePattern = regexp.MustCompile(`[^a-z0-9]+`)

var categoryLabels = map[string]string{
	"running_shoes": "running shoes",
	"laptop":        "laptop",
	"headphones":    "headphones",
	"office_chair":  "office chair",
}

var categoryPaths = map[string][]string{
	"running_shoes": {"shoes", "running shoes"},
	"laptop":        {"electronics", "computers", "laptop"},
	"headphones":    {"electronics", "audio", "headphones"},
	"office_chair":  {"furniture", "office", "chair"},
}

// TaxonomyService resolves free-form category strings to canonical ids,
// display labels and hierarchy paths.
type TaxonomyService struct{}

// NewTaxonomyService creates a new taxonomy service.
func NewTaxonomyService() *TaxonomyService {
	return &TaxonomyService{}
}

// NormalizeCategory collapses a category string to its canonical id:
// lowercase, with runs of non-alphanumerics folded to underscores.
func (s *TaxonomyService) NormalizeCategory(category string) string {
	normalized := categoryNormalizePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(category)), "_")
	return strings.Trim(normalized, "_")
}

// ResolveCategoryLabel returns a human-readable label for a category.
// Unknown categories fall back to the normalized id with spaces.
func (s *TaxonomyService) ResolveCategoryLabel(category string) string {
	normalized := s.NormalizeCategory(category)
	if label, ok := categoryLabels[normalized]; ok {
		return strings.TrimSpace(label)
	}
	return strings.TrimSpace(strings.ReplaceAll(normalized, "_", " "))
}

// ResolveCategoryPath returns the category hierarchy from root to leaf.
// Unknown categories get a single-level path from their label words.
func (s *TaxonomyService) ResolveCategoryPath(category string) []string {
	normalized := s.NormalizeCategory(category)
	if path, ok := categoryPaths[normalized]; ok {
		return path
	}
	label := s.ResolveCategoryLabel(normalized)
	var segments []string
	for _, segment := range strings.Split(label, " ") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
