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

// SaveRule creates or updates a priority rule.
// Conditions хранятся как JSON в текстовой колонке.
func (s *Storage) SaveRule(ctx context.Context, rule *models.PriorityRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal rule conditions: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO priority_rules (id, name, entity_type, conditions, priority_modifier, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			entity_type = excluded.entity_type,
			conditions = excluded.conditions,
			priority_modifier = excluded.priority_modifier,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		string(rule.EntityType),
		string(conditions),
		rule.PriorityModifier,
		rule.IsActive,
		now,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// GetRule retrieves rule by id
func (s *Storage) GetRule(ctx context.Context, id string) (*models.PriorityRule, error) {
	query := `
		SELECT id, name, entity_type, conditions, priority_modifier, is_active
		FROM priority_rules
		WHERE id = ?
	`

	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// ListRules retrieves all rules, active and inactive
func (s *Storage) ListRules(ctx context.Context) ([]models.PriorityRule, error) {
	query := `
		SELECT id, name, entity_type, conditions, priority_modifier, is_active
		FROM priority_rules
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var rules []models.PriorityRule

	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}

// DeleteRule deletes rule by id
func (s *Storage) DeleteRule(ctx context.Context, id string) error {
	query := `DELETE FROM priority_rules WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrRuleNotFound
	}

	return nil
}

// scanRule читает правило из строки результата; условия декодируются из JSON
// через models.Condition.UnmarshalJSON, который отклоняет неизвестные операторы
func scanRule(scan func(dest ...any) error) (*models.PriorityRule, error) {
	rule := &models.PriorityRule{}
	var conditions string

	if err := scan(
		&rule.ID,
		&rule.Name,
		&rule.EntityType,
		&conditions,
		&rule.PriorityModifier,
		&rule.IsActive,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule conditions: %w", err)
	}

	return rule, nil
}
