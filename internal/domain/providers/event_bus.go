package providers

import (
	"context"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
)

// EventBus publishes and delivers search analytics events.
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.SearchEvent) error
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SearchEvent, error)
	Unsubscribe(ctx context.Context, channel string) error
	Close() error
}
