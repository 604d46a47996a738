package storage

import "errors"

// Common storage errors
var (
	// ErrCoordinatorNotFound indicates that coordinator was not found in storage
	ErrCoordinatorNotFound = errors.New("coordinator not found")

	// ErrCoordinatorExists indicates that coordinator with this ID is already provisioned
	ErrCoordinatorExists = errors.New("coordinator already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrEntityNotFound indicates that entity was not found
	ErrEntityNotFound = errors.New("entity not found")

	// ErrVersionConflict indicates that the mutation targets a stale entity version
	ErrVersionConflict = errors.New("entity version conflict")

	// ErrEntityExists indicates a CREATE for an already existing entity id
	ErrEntityExists = errors.New("entity already exists")

	// ErrRuleNotFound indicates that priority rule was not found
	ErrRuleNotFound = errors.New("priority rule not found")

	// ErrItemNotFound indicates that mirrored queue item was not found
	ErrItemNotFound = errors.New("queue item not found")
)
