package providers

import (
	"context"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
)

// SearchOptions carries per-call knobs that providers may honor.
type SearchOptions struct {
	MinPrice *float64
	MaxPrice *float64
	// Condition constrains acceptable product condition where supported
	Condition entities.ConditionType
	// GL and HL are country/language hints for SERP-style providers
	GL string
	HL string
	// ContextQuery is the full user query used for embedding blending by
	// the vendor directory; other providers ignore it
	ContextQuery string
	// Limit caps the number of results where the upstream API supports it
	Limit int
}

// SourcingProvider is one upstream source of offers.
//
// Implementations must be safe for concurrent use: the orchestrator calls
// Search from one goroutine per provider.
type SourcingProvider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]entities.SearchResult, error)
}
