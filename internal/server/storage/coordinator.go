package storage

import (
	"context"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
)

// CoordinatorStorage defines interface for coordinator account persistence
type CoordinatorStorage interface {
	// CreateCoordinator provisions a new coordinator account
	// Returns ErrCoordinatorExists if coordinator_id is already taken
	CreateCoordinator(ctx context.Context, coordinator *models.Coordinator) error

	// GetCoordinator retrieves coordinator by its external coordinator_id
	// Returns ErrCoordinatorNotFound if coordinator doesn't exist
	GetCoordinator(ctx context.Context, coordinatorID string) (*models.Coordinator, error)

	// GetCoordinatorByID retrieves coordinator by internal ID
	// Returns ErrCoordinatorNotFound if coordinator doesn't exist
	GetCoordinatorByID(ctx context.Context, id string) (*models.Coordinator, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, id string, lastLogin time.Time) error
}

// TokenStorage defines interface for refresh token persistence
type TokenStorage interface {
	// SaveRefreshToken stores a new refresh token
	// If token with same token value exists, it will be replaced
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken retrieves refresh token by token value
	// Returns ErrTokenNotFound if token doesn't exist
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteRefreshToken deletes refresh token by token value
	// Returns ErrTokenNotFound if token doesn't exist
	DeleteRefreshToken(ctx context.Context, token string) error

	// DeleteCoordinatorTokens deletes all refresh tokens for a coordinator
	// Returns number of deleted tokens
	DeleteCoordinatorTokens(ctx context.Context, coordinatorID string) (int, error)

	// DeleteExpiredTokens removes all expired tokens
	// Returns number of deleted tokens
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
