package ports

import (
	"context"

	events "landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/sync/core/domain"
)

// RecordStore is the remote collection API. Every call is independent; there
// are no transactions.
type RecordStore interface {
	List(ctx context.Context, collection string, q domain.ListQuery) (*domain.RecordPage, error)
	Create(ctx context.Context, collection string, r domain.Record) error
	Delete(ctx context.Context, collection string, id string) error
}

// RecordUpserter is implemented by stores that can insert-or-replace by id.
// Sync prefers it over delete-all-then-rewrite.
type RecordUpserter interface {
	Upsert(ctx context.Context, collection string, r domain.Record) error
}

// LocalCollections is the device-local side of a sync.
type LocalCollections interface {
	Clicks(ctx context.Context) []events.ClickEvent
	Sessions(ctx context.Context) []events.SessionData
	SaveClicks(ctx context.Context, clicks []events.ClickEvent) error
	SaveSessions(ctx context.Context, sessions []events.SessionData) error
	DeviceID(ctx context.Context) string
	Do(fn func() error) error
}

// SyncRecorder receives sync outcome counters.
type SyncRecorder interface {
	SyncCompleted(fetched bool, failedWrites int)
}
