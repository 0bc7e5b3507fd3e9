package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
)

func newQueryBuilder() *QueryBuilderService {
	return NewQueryBuilderService(NewTaxonomyService())
}

func TestBuildQueryTerms_OrderAndDedupe(t *testing.T) {
	builder := newQueryBuilder()

	intent := &entities.SearchIntent{
		Brand:    "Nike",
		Keywords: []string{"Running", "running"},
		RawInput: "shoes",
	}
	assert.Equal(t, []string{"Nike", "Running", "shoes"}, builder.BuildQueryTerms(intent))
}

func TestBuildQueryTerms_FullPriorityOrder(t *testing.T) {
	builder := newQueryBuilder()

	intent := &entities.SearchIntent{
		Brand:           "Sony",
		Model:           "WH-1000XM5",
		ProductName:     "noise cancelling headphones",
		ProductCategory: "Headphones",
		Keywords:        []string{"wireless"},
		Features:        map[string][]string{"color": {"black"}},
		RawInput:        "sony headphones",
	}
	assert.Equal(t, []string{
		"Sony", "WH-1000XM5", "noise cancelling headphones", "headphones",
		"wireless", "black", "sony headphones",
	}, builder.BuildQueryTerms(intent))
}

func TestBuildQueryTerms_FeatureKeysDeterministic(t *testing.T) {
	builder := newQueryBuilder()

	intent := &entities.SearchIntent{
		Features: map[string][]string{
			"size":     {"large"},
			"color":    {"red"},
			"material": {"cotton"},
		},
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"red", "cotton", "large"}, builder.BuildQueryTerms(intent))
	}
}

func TestBuildQueryString_Fallbacks(t *testing.T) {
	builder := newQueryBuilder()

	assert.Equal(t, "chairs", builder.BuildQueryString(&entities.SearchIntent{RawInput: "chairs"}))
	assert.Equal(t, "laptop", builder.BuildQueryString(&entities.SearchIntent{ProductCategory: "Laptop"}))
}

func TestRainforestQueryAdapter_Filters(t *testing.T) {
	builder := newQueryBuilder()
	minPrice := 50.0
	maxPrice := 200.0

	intent := &entities.SearchIntent{
		ProductCategory: "laptop",
		MinPrice:        &minPrice,
		MaxPrice:        &maxPrice,
		Condition:       entities.ConditionUsed,
		RawInput:        "refurbished laptop",
	}
	queryMap := builder.BuildProviderQueryMap(intent, []string{"rainforest"})
	pq, ok := queryMap.Get("rainforest")
	require.True(t, ok)

	assert.Equal(t, 50.0, pq.Filters["min_price"])
	assert.Equal(t, 200.0, pq.Filters["max_price"])
	assert.Equal(t, "used", pq.Filters["condition"])
	assert.Equal(t, DefaultTaxonomyVersion, pq.Metadata["taxonomy_version"])
}

func TestRainforestQueryAdapter_AnyConditionOmitted(t *testing.T) {
	builder := newQueryBuilder()

	intent := &entities.SearchIntent{RawInput: "laptop", Condition: entities.ConditionAny}
	queryMap := builder.BuildProviderQueryMap(intent, []string{"rainforest"})
	pq, ok := queryMap.Get("rainforest")
	require.True(t, ok)

	_, hasCondition := pq.Filters["condition"]
	assert.False(t, hasCondition)
}

func TestGoogleCSEQueryAdapter_CategoryPathMetadata(t *testing.T) {
	builder := newQueryBuilder()

	intent := &entities.SearchIntent{ProductCategory: "headphones", RawInput: "headphones"}
	queryMap := builder.BuildProviderQueryMap(intent, []string{"google_cse"})
	pq, ok := queryMap.Get("google_cse")
	require.True(t, ok)

	assert.Equal(t, "electronics > audio > headphones", pq.Metadata["category_path"])
}

func TestBuildProviderQueryMap_SkipsUnknownProviders(t *testing.T) {
	builder := newQueryBuilder()

	intent := &entities.SearchIntent{RawInput: "thing"}
	queryMap := builder.BuildProviderQueryMap(intent, []string{"rainforest", "not_a_provider"})

	assert.Len(t, queryMap.Queries, 1)
	_, ok := queryMap.Get("not_a_provider")
	assert.False(t, ok)
}
