package ports

import "context"

// KVStore is the device-local persistent key-value storage.
type KVStore interface {
	// Get:
	//   value, true,  nil -> key present
	//   "",    false, nil -> key absent
	//   "",    false, err -> storage failure
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// AggregateRefresher recomputes and caches the aggregate view after raw
// collections change.
type AggregateRefresher interface {
	Refresh(ctx context.Context) error
}

// Recorder receives tracking counters. Implementations must be safe for
// concurrent use.
type Recorder interface {
	SessionStarted()
	SessionEnded(durationMillis int64)
	ClickTracked()
	ClicksPruned(n int)
}
