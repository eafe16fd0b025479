package ports

import (
	"context"

	events "landing-analytics/internal/events/core/domain"
)

// EventSource reads the raw collections and stores the cached aggregate.
type EventSource interface {
	Clicks(ctx context.Context) []events.ClickEvent
	Sessions(ctx context.Context) []events.SessionData
	Aggregate(ctx context.Context, dst any) bool
	SaveAggregate(ctx context.Context, v any) error
}
