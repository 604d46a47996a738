package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
)

// CreateCoordinator provisions a new coordinator account
func (s *Storage) CreateCoordinator(ctx context.Context, coordinator *models.Coordinator) error {
	query := `
		INSERT INTO coordinators (id, coordinator_id, access_key_hash, storage_salt, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		coordinator.ID,
		coordinator.CoordinatorID,
		coordinator.AccessKeyHash,
		coordinator.StorageSalt,
		coordinator.CreatedAt,
		coordinator.LastLoginAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrCoordinatorExists
		}
		return fmt.Errorf("failed to insert coordinator: %w", err)
	}

	return nil
}

// GetCoordinator retrieves coordinator by its external coordinator_id
func (s *Storage) GetCoordinator(ctx context.Context, coordinatorID string) (*models.Coordinator, error) {
	query := `
		SELECT id, coordinator_id, access_key_hash, storage_salt, created_at, last_login
		FROM coordinators
		WHERE coordinator_id = ?
	`
	return s.scanCoordinator(s.db.QueryRowContext(ctx, query, coordinatorID))
}

// GetCoordinatorByID retrieves coordinator by internal ID
func (s *Storage) GetCoordinatorByID(ctx context.Context, id string) (*models.Coordinator, error) {
	query := `
		SELECT id, coordinator_id, access_key_hash, storage_salt, created_at, last_login
		FROM coordinators
		WHERE id = ?
	`
	return s.scanCoordinator(s.db.QueryRowContext(ctx, query, id))
}

func (s *Storage) scanCoordinator(row *sql.Row) (*models.Coordinator, error) {
	coordinator := &models.Coordinator{}
	var lastLogin sql.NullTime

	err := row.Scan(
		&coordinator.ID,
		&coordinator.CoordinatorID,
		&coordinator.AccessKeyHash,
		&coordinator.StorageSalt,
		&coordinator.CreatedAt,
		&lastLogin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCoordinatorNotFound
		}
		return nil, fmt.Errorf("failed to get coordinator: %w", err)
	}

	if lastLogin.Valid {
		coordinator.LastLoginAt = &lastLogin.Time
	}

	return coordinator, nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, id string, lastLogin time.Time) error {
	query := `UPDATE coordinators SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrCoordinatorNotFound
	}

	return nil
}
