package usecase

import (
	"sort"

	events "landing-analytics/internal/events/core/domain"
)

// Merge concatenates primary then secondary, keeps the first record for each
// id and sorts the result by key, ascending and stable. Records from primary
// win every id collision.
func Merge[T any](primary, secondary []T, id func(T) string, key func(T) int64) []T {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	merged := make([]T, 0, len(primary)+len(secondary))

	for _, list := range [][]T{primary, secondary} {
		for _, v := range list {
			k := id(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, v)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return key(merged[i]) < key(merged[j])
	})
	return merged
}

// MergeClicks merges remote and local clicks; remote wins on collision.
func MergeClicks(remote, local []events.ClickEvent) []events.ClickEvent {
	return Merge(remote, local,
		func(c events.ClickEvent) string { return c.ID },
		func(c events.ClickEvent) int64 { return c.Timestamp },
	)
}

// MergeSessions merges remote and local sessions; remote wins on collision.
func MergeSessions(remote, local []events.SessionData) []events.SessionData {
	return Merge(remote, local,
		func(s events.SessionData) string { return s.ID },
		func(s events.SessionData) int64 { return s.StartTime },
	)
}
