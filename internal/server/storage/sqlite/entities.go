package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
)

// CreateEntity stores a new entity with version 1
func (s *Storage) CreateEntity(ctx context.Context, entityType models.EntityType, id string, state json.RawMessage) (*models.EntityRecord, error) {
	now := time.Now().UTC()
	record := &models.EntityRecord{
		ID:        id,
		Type:      entityType,
		State:     state,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO entities (type, id, state, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(record.Type),
		record.ID,
		string(record.State),
		record.Version,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, storage.ErrEntityExists
		}
		return nil, fmt.Errorf("failed to insert entity: %w", err)
	}

	return record, nil
}

// UpdateEntity replaces entity state and bumps version.
// expectedVersion == 0 пропускает проверку версии.
func (s *Storage) UpdateEntity(ctx context.Context, entityType models.EntityType, id string, state json.RawMessage, expectedVersion int64) (*models.EntityRecord, error) {
	current, err := s.GetEntity(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	if expectedVersion != 0 && expectedVersion != current.Version {
		return nil, fmt.Errorf("%w: expected %d, have %d", storage.ErrVersionConflict, expectedVersion, current.Version)
	}

	current.State = state
	current.Version++
	current.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE entities SET state = ?, version = ?, updated_at = ?
		WHERE type = ? AND id = ?
	`

	if _, err := s.db.ExecContext(ctx, query,
		string(current.State),
		current.Version,
		current.UpdatedAt,
		string(entityType),
		id,
	); err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	return current, nil
}

// DeleteEntity removes the entity
func (s *Storage) DeleteEntity(ctx context.Context, entityType models.EntityType, id string, expectedVersion int64) error {
	current, err := s.GetEntity(ctx, entityType, id)
	if err != nil {
		return err
	}

	if expectedVersion != 0 && expectedVersion != current.Version {
		return fmt.Errorf("%w: expected %d, have %d", storage.ErrVersionConflict, expectedVersion, current.Version)
	}

	query := `DELETE FROM entities WHERE type = ? AND id = ?`

	if _, err := s.db.ExecContext(ctx, query, string(entityType), id); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	return nil
}

// GetEntity retrieves entity by type and id
func (s *Storage) GetEntity(ctx context.Context, entityType models.EntityType, id string) (*models.EntityRecord, error) {
	query := `
		SELECT type, id, state, version, created_at, updated_at
		FROM entities
		WHERE type = ? AND id = ?
	`

	record := &models.EntityRecord{}
	var state string

	err := s.db.QueryRowContext(ctx, query, string(entityType), id).Scan(
		&record.Type,
		&record.ID,
		&state,
		&record.Version,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	record.State = json.RawMessage(state)
	return record, nil
}

// ListEntities retrieves all entities of a type
func (s *Storage) ListEntities(ctx context.Context, entityType models.EntityType) ([]*models.EntityRecord, error) {
	query := `
		SELECT type, id, state, version, created_at, updated_at
		FROM entities
		WHERE type = ?
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*models.EntityRecord

	for rows.Next() {
		record := &models.EntityRecord{}
		var state string
		if err := rows.Scan(
			&record.Type,
			&record.ID,
			&state,
			&record.Version,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		record.State = json.RawMessage(state)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
