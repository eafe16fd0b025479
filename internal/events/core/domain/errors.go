package domain

import "errors"

var (
	// ErrStorageUnavailable wraps failures of the local key-value store.
	ErrStorageUnavailable = errors.New("local storage unavailable")
	// ErrMalformedRecord is returned when a persisted value cannot be decoded.
	ErrMalformedRecord = errors.New("malformed persisted record")

	// ErrInvalidClick is returned for clicks without a target URL.
	ErrInvalidClick = errors.New("invalid click")
)
