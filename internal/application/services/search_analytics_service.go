package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
)

// SearchEventsChannel is where search analytics events are published.
const SearchEventsChannel = "search.events"

// SearchAnalyticsService publishes search lifecycle events on the event
// bus. Publishing is fire-and-forget: analytics must never slow down or
// fail a search.
type SearchAnalyticsService struct {
	bus providers.EventBus
}

// NewSearchAnalyticsService creates an analytics service. A nil bus
// disables publishing.
func NewSearchAnalyticsService(bus providers.EventBus) *SearchAnalyticsService {
	return &SearchAnalyticsService{bus: bus}
}

// PublishSearchCompleted emits a search_completed event asynchronously.
func (s *SearchAnalyticsService) PublishSearchCompleted(ctx context.Context, response *entities.AggregatedSearchResponse) {
	if s.bus == nil {
		return
	}

	userMessage := ""
	if response.UserMessage != nil {
		userMessage = *response.UserMessage
	}
	event := &entities.SearchEvent{
		ID:            uuid.New(),
		Type:          entities.SearchEventCompleted,
		SearchID:      response.SearchID,
		Query:         response.SearchIntent.RawInput,
		ResultCount:   len(response.Results),
		ProviderStats: response.ProviderStatuses,
		UserMessage:   userMessage,
		OccurredAt:    time.Now().UTC(),
	}
	s.publish(event)
}

// PublishSearchBlocked emits a search_blocked event for queries rejected
// by the safety gate.
func (s *SearchAnalyticsService) PublishSearchBlocked(ctx context.Context, searchID uuid.UUID, query, reason string) {
	if s.bus == nil {
		return
	}

	event := &entities.SearchEvent{
		ID:          uuid.New(),
		Type:        entities.SearchEventBlocked,
		SearchID:    searchID,
		Query:       query,
		UserMessage: reason,
		OccurredAt:  time.Now().UTC(),
	}
	s.publish(event)
}

func (s *SearchAnalyticsService) publish(event *entities.SearchEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.bus.Publish(ctx, SearchEventsChannel, event); err != nil {
			observability.GetLogger().Warn().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Failed to publish search event")
		}
	}()
}
