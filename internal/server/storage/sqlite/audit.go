package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/fieldsync/internal/models"
)

// RecordOverride appends an override audit entry
func (s *Storage) RecordOverride(ctx context.Context, entry *models.OverrideAudit) error {
	query := `
		INSERT INTO override_audit (id, item_id, coordinator_id, justification, old_score, new_score, elevated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ItemID,
		entry.CoordinatorID,
		entry.Justification,
		entry.OldScore,
		entry.NewScore,
		entry.Elevated,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// ListOverrides retrieves audit entries, newest first, up to limit
func (s *Storage) ListOverrides(ctx context.Context, limit int) ([]*models.OverrideAudit, error) {
	query := `
		SELECT id, item_id, coordinator_id, justification, old_score, new_score, elevated, created_at
		FROM override_audit
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.OverrideAudit

	for rows.Next() {
		entry := &models.OverrideAudit{}
		if err := rows.Scan(
			&entry.ID,
			&entry.ItemID,
			&entry.CoordinatorID,
			&entry.Justification,
			&entry.OldScore,
			&entry.NewScore,
			&entry.Elevated,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}
