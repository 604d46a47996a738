package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrItemNotFound indicates that queue item was not found
	ErrItemNotFound = errors.New("queue item not found")

	// ErrEntityNotFound indicates that entity is not in the local cache
	ErrEntityNotFound = errors.New("entity not found in local cache")

	// ErrUpdateNotFound indicates that optimistic update record was not found
	ErrUpdateNotFound = errors.New("optimistic update not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
