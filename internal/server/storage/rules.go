package storage

import (
	"context"

	"github.com/iudanet/fieldsync/internal/models"
)

// RuleStorage defines interface for priority rule persistence
type RuleStorage interface {
	// SaveRule creates or updates a priority rule
	SaveRule(ctx context.Context, rule *models.PriorityRule) error

	// GetRule retrieves rule by id
	// Returns ErrRuleNotFound if rule doesn't exist
	GetRule(ctx context.Context, id string) (*models.PriorityRule, error)

	// ListRules retrieves all rules, active and inactive
	ListRules(ctx context.Context) ([]models.PriorityRule, error)

	// DeleteRule deletes rule by id
	// Returns ErrRuleNotFound if rule doesn't exist
	DeleteRule(ctx context.Context, id string) error
}

// MirrorStorage defines interface for the server-side mirror of client queues.
// Зеркало питает recalculate/override эндпоинты и консоль координатора.
type MirrorStorage interface {
	// ReplaceDeviceItems replaces the mirrored queue of one device with the
	// reported snapshot. Returns (accepted, removed) counts.
	ReplaceDeviceItems(ctx context.Context, deviceID string, items []*models.QueueItem) (int, int, error)

	// ListItems retrieves all mirrored items across devices
	ListItems(ctx context.Context) ([]*models.QueueItem, error)

	// GetItem retrieves a mirrored item by id
	// Returns ErrItemNotFound if item doesn't exist
	GetItem(ctx context.Context, id string) (*models.QueueItem, error)

	// UpdateItem overwrites a mirrored item (score changes, overrides)
	// Returns ErrItemNotFound if item doesn't exist
	UpdateItem(ctx context.Context, item *models.QueueItem) error
}

// AuditStorage defines interface for the manual override audit trail
type AuditStorage interface {
	// RecordOverride appends an override audit entry
	RecordOverride(ctx context.Context, entry *models.OverrideAudit) error

	// ListOverrides retrieves audit entries, newest first, up to limit
	ListOverrides(ctx context.Context, limit int) ([]*models.OverrideAudit, error)
}
