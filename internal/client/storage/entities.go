package storage

import (
	"context"
	"encoding/json"

	"github.com/iudanet/fieldsync/internal/models"
)

// EntityCache defines interface for the local view state: последние известные
// состояния доменных сущностей (assessments, responses, media, incidents).
// Именно этот кеш мутирует optimistic manager до подтверждения сервером.
type EntityCache interface {
	// SaveEntity stores or replaces the cached state of an entity
	SaveEntity(ctx context.Context, entityType models.EntityType, entityID string, state json.RawMessage) error

	// GetEntity retrieves the cached state of an entity
	// Returns ErrEntityNotFound if entity is not cached
	GetEntity(ctx context.Context, entityType models.EntityType, entityID string) (json.RawMessage, error)

	// DeleteEntity removes an entity from the cache; absent entity is a no-op
	DeleteEntity(ctx context.Context, entityType models.EntityType, entityID string) error

	// ListEntities returns all cached entities of the given type, keyed by entity id
	ListEntities(ctx context.Context, entityType models.EntityType) (map[string]json.RawMessage, error)
}

// UpdateStorage defines interface for persisting optimistic update records.
// Записи индексируются по update id; pre-image хранится внутри записи
// (snapshot-based rollback, без опоры на мутацию по ссылке).
type UpdateStorage interface {
	// SaveUpdate stores or updates an optimistic update record
	SaveUpdate(ctx context.Context, update *models.OptimisticUpdate) error

	// GetUpdate retrieves an update record by ID
	// Returns ErrUpdateNotFound if record doesn't exist
	GetUpdate(ctx context.Context, updateID string) (*models.OptimisticUpdate, error)

	// ListUpdates returns all outstanding update records
	ListUpdates(ctx context.Context) ([]*models.OptimisticUpdate, error)

	// ListUpdatesByEntity returns outstanding updates for a specific entity
	ListUpdatesByEntity(ctx context.Context, entityID string) ([]*models.OptimisticUpdate, error)

	// DeleteUpdate removes an update record; absent id is a no-op
	DeleteUpdate(ctx context.Context, updateID string) error
}
