package services

import (
	"sort"
	"strings"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
)

// QueryAdapter builds a provider-specific query from a search intent.
type QueryAdapter interface {
	ProviderID() string
	BuildQuery(intent *entities.SearchIntent) entities.ProviderQuery
}

// QueryBuilderService derives the shared query string and fans it out
// through per-provider adapters.
type QueryBuilderService struct {
	taxonomy *TaxonomyService
	adapters map[string]QueryAdapter
}

// NewQueryBuilderService creates a query builder with the default adapters.
func NewQueryBuilderService(taxonomy *TaxonomyService) *QueryBuilderService {
	s := &QueryBuilderService{
		taxonomy: taxonomy,
		adapters: map[string]QueryAdapter{},
	}
	s.Register(&RainforestQueryAdapter{builder: s})
	s.Register(&GoogleCSEQueryAdapter{builder: s})
	return s
}

// Register adds or replaces an adapter.
func (s *QueryBuilderService) Register(adapter QueryAdapter) {
	s.adapters[adapter.ProviderID()] = adapter
}

// BuildQueryTerms assembles the ordered, deduplicated term list for an
// intent. Order is fixed: brand, model, product name, category label,
// keywords, feature values, raw input. Duplicate terms are removed
// case-insensitively keeping the first occurrence.
func (s *QueryBuilderService) BuildQueryTerms(intent *entities.SearchIntent) []string {
	var terms []string
	if intent.Brand != "" {
		terms = append(terms, intent.Brand)
	}
	if intent.Model != "" {
		terms = append(terms, intent.Model)
	}
	if intent.ProductName != "" {
		terms = append(terms, intent.ProductName)
	}
	if intent.ProductCategory != "" {
		terms = append(terms, s.taxonomy.ResolveCategoryLabel(intent.ProductCategory))
	}
	terms = append(terms, intent.Keywords...)

	// Feature keys are sorted so repeated builds give identical queries
	featureKeys := make([]string, 0, len(intent.Features))
	for key := range intent.Features {
		featureKeys = append(featureKeys, key)
	}
	sort.Strings(featureKeys)
	for _, key := range featureKeys {
		terms = append(terms, intent.Features[key]...)
	}

	if intent.RawInput != "" {
		terms = append(terms, intent.RawInput)
	}
	return entities.NormalizeKeywords(terms)
}

// BuildQueryString joins the query terms with spaces. Falls back to the raw
// input, then the category label, when no terms survive.
func (s *QueryBuilderService) BuildQueryString(intent *entities.SearchIntent) string {
	terms := s.BuildQueryTerms(intent)
	if len(terms) == 0 {
		if intent.RawInput != "" {
			return intent.RawInput
		}
		return s.taxonomy.ResolveCategoryLabel(intent.ProductCategory)
	}
	return strings.Join(terms, " ")
}

// BuildCategoryPath renders the category hierarchy as "root > ... > leaf".
func (s *QueryBuilderService) BuildCategoryPath(intent *entities.SearchIntent) string {
	if len(intent.CategoryPath) > 0 {
		return strings.Join(intent.CategoryPath, " > ")
	}
	return strings.Join(s.taxonomy.ResolveCategoryPath(intent.ProductCategory), " > ")
}

// BuildProviderQueryMap builds queries for the requested provider ids.
// Providers without a registered adapter are skipped.
func (s *QueryBuilderService) BuildProviderQueryMap(intent *entities.SearchIntent, providerIDs []string) entities.ProviderQueryMap {
	queryMap := entities.NewProviderQueryMap()
	for _, providerID := range providerIDs {
		adapter, ok := s.adapters[providerID]
		if !ok {
			continue
		}
		queryMap.Add(adapter.BuildQuery(intent))
	}
	return queryMap
}

func taxonomyVersion(intent *entities.SearchIntent) string {
	if intent.TaxonomyVersion != "" {
		return intent.TaxonomyVersion
	}
	return DefaultTaxonomyVersion
}

// RainforestQueryAdapter builds Amazon search queries with explicit price
// and condition filters.
type RainforestQueryAdapter struct {
	builder *QueryBuilderService
}

func (a *RainforestQueryAdapter) ProviderID() string { return "rainforest" }

func (a *RainforestQueryAdapter) BuildQuery(intent *entities.SearchIntent) entities.ProviderQuery {
	filters := map[string]any{}
	if intent.MinPrice != nil {
		filters["min_price"] = *intent.MinPrice
	}
	if intent.MaxPrice != nil {
		filters["max_price"] = *intent.MaxPrice
	}
	if intent.Condition != "" && intent.Condition != entities.ConditionAny {
		filters["condition"] = string(intent.Condition)
	}

	return entities.ProviderQuery{
		ProviderID: a.ProviderID(),
		Query:      a.builder.BuildQueryString(intent),
		Filters:    filters,
		Metadata: map[string]string{
			"taxonomy_version": taxonomyVersion(intent),
			"category":         intent.ProductCategory,
		},
	}
}

// GoogleCSEQueryAdapter builds web search queries carrying the category
// path as metadata.
type GoogleCSEQueryAdapter struct {
	builder *QueryBuilderService
}

func (a *GoogleCSEQueryAdapter) ProviderID() string { return "google_cse" }

func (a *GoogleCSEQueryAdapter) BuildQuery(intent *entities.SearchIntent) entities.ProviderQuery {
	return entities.ProviderQuery{
		ProviderID: a.ProviderID(),
		Query:      a.builder.BuildQueryString(intent),
		Metadata: map[string]string{
			"taxonomy_version": taxonomyVersion(intent),
			"category_path":    a.builder.BuildCategoryPath(intent),
		},
	}
}
