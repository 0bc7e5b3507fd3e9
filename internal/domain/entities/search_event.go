package entities

import (
	"time"

	"github.com/google/uuid"
)

// SearchEventType labels analytics events published after a fan-out completes.
type SearchEventType string

const (
	SearchEventCompleted SearchEventType = "search_completed"
	SearchEventBlocked   SearchEventType = "search_blocked"
)

// SearchEvent is the analytics payload published on the event bus.
type SearchEvent struct {
	ID            uuid.UUID                `json:"id"`
	Type          SearchEventType          `json:"type"`
	SearchID      uuid.UUID                `json:"search_id"`
	Query         string                   `json:"query"`
	ResultCount   int                      `json:"result_count"`
	ProviderStats []ProviderStatusSnapshot `json:"provider_stats,omitempty"`
	UserMessage   string                   `json:"user_message,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}
