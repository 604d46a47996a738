package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
)

// ReplaceDeviceItems replaces the mirrored queue of one device with the
// reported snapshot. Снимок — авторитетное состояние очереди устройства:
// отсутствующие в нем элементы удаляются из зеркала.
func (s *Storage) ReplaceDeviceItems(ctx context.Context, deviceID string, items []*models.QueueItem) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM queue_mirror WHERE device_id = ?`, deviceID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear device items: %w", err)
	}
	removedBefore, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	now := time.Now().UTC()
	for _, item := range items {
		override, err := marshalOverride(item.ManualOverride)
		if err != nil {
			return 0, 0, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO queue_mirror (
				item_id, device_id, entity_type, entity_id, operation, priority, state,
				priority_score, priority_reason, retry_count, payload, manual_override,
				created_at, estimated_sync_time, reported_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			item.ID,
			deviceID,
			string(item.EntityType),
			item.EntityID,
			string(item.Operation),
			string(item.Priority),
			string(item.State),
			item.PriorityScore,
			item.PriorityReason,
			item.RetryCount,
			string(item.Payload),
			override,
			item.CreatedAt,
			item.EstimatedSyncTime,
			now,
		); err != nil {
			return 0, 0, fmt.Errorf("failed to insert mirrored item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	removed := int(removedBefore) - len(items)
	if removed < 0 {
		removed = 0
	}
	return len(items), removed, nil
}

// ListItems retrieves all mirrored items across devices
func (s *Storage) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, mirrorSelect+` ORDER BY priority_score DESC, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirrored items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []*models.QueueItem

	for rows.Next() {
		item, err := scanMirrorItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mirrored item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// GetItem retrieves a mirrored item by id
func (s *Storage) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	item, err := scanMirrorItem(s.db.QueryRowContext(ctx, mirrorSelect+` WHERE item_id = ?`, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get mirrored item: %w", err)
	}
	return item, nil
}

// UpdateItem overwrites a mirrored item (score changes, overrides)
func (s *Storage) UpdateItem(ctx context.Context, item *models.QueueItem) error {
	override, err := marshalOverride(item.ManualOverride)
	if err != nil {
		return err
	}

	query := `
		UPDATE queue_mirror SET
			priority_score = ?, priority_reason = ?, state = ?, retry_count = ?,
			manual_override = ?, estimated_sync_time = ?
		WHERE item_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		item.PriorityScore,
		item.PriorityReason,
		string(item.State),
		item.RetryCount,
		override,
		item.EstimatedSyncTime,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update mirrored item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrItemNotFound
	}

	return nil
}

const mirrorSelect = `
	SELECT item_id, entity_type, entity_id, operation, priority, state,
		priority_score, priority_reason, retry_count, payload, manual_override,
		created_at, estimated_sync_time
	FROM queue_mirror`

func scanMirrorItem(scan func(dest ...any) error) (*models.QueueItem, error) {
	item := &models.QueueItem{}
	var payload, override sql.NullString

	if err := scan(
		&item.ID,
		&item.EntityType,
		&item.EntityID,
		&item.Operation,
		&item.Priority,
		&item.State,
		&item.PriorityScore,
		&item.PriorityReason,
		&item.RetryCount,
		&payload,
		&override,
		&item.CreatedAt,
		&item.EstimatedSyncTime,
	); err != nil {
		return nil, err
	}

	if payload.Valid && payload.String != "" {
		item.Payload = json.RawMessage(payload.String)
	}
	if override.Valid && override.String != "" {
		var mo models.ManualOverride
		if err := json.Unmarshal([]byte(override.String), &mo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manual override: %w", err)
		}
		item.ManualOverride = &mo
	}

	return item, nil
}

func marshalOverride(override *models.ManualOverride) (sql.NullString, error) {
	if override == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(override)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal manual override: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
