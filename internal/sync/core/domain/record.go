package domain

import (
	"encoding/json"
	"errors"
)

// Remote collections.
const (
	CollectionClicks   = "analytics_clicks"
	CollectionSessions = "analytics_sessions"
	CollectionData     = "analytics_data"
)

var (
	// ErrNetworkFailure wraps transport errors and non-success responses of
	// the remote record store.
	ErrNetworkFailure = errors.New("remote record store unavailable")
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")
)

// Record is one remote row: a JSON payload plus the scalar fields the store
// indexes for filtering and sorting.
type Record struct {
	ID        string
	Timestamp int64
	Data      json.RawMessage
}

type ListQuery struct {
	Page    int // 1-based
	PerPage int
	// Sort is "timestamp" or "-timestamp"; empty means store order.
	Sort string
	// ID restricts the listing to a single record id.
	ID string
}

type RecordPage struct {
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
	Items      []Record
}
