package entities

import (
	"time"

	"github.com/google/uuid"
)

// AggregatedSearchResponse is the full search payload returned to callers.
type AggregatedSearchResponse struct {
	SearchID         uuid.UUID                `json:"search_id"`
	SearchIntent     SearchIntent             `json:"search_intent"`
	ProviderQueries  ProviderQueryMap         `json:"provider_queries"`
	Results          []NormalizedResult       `json:"results"`
	ProviderStatuses []ProviderStatusSnapshot `json:"provider_statuses"`
	UserMessage      *string                  `json:"user_message,omitempty"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// ProviderSummary indexes the status snapshots by provider id.
func (r *AggregatedSearchResponse) ProviderSummary() map[string]ProviderStatusSnapshot {
	summary := make(map[string]ProviderStatusSnapshot, len(r.ProviderStatuses))
	for _, status := range r.ProviderStatuses {
		summary[status.ProviderID] = status
	}
	return summary
}
