package storage

import (
	"context"
	"encoding/json"

	"github.com/iudanet/fieldsync/internal/models"
)

// EntityStorage defines interface for dispatched entity state persistence.
// Мутации версионированы: UPDATE/DELETE с expectedVersion != текущей версии
// отклоняются с ErrVersionConflict. expectedVersion == 0 пропускает проверку
// (клиент не знает серверной версии, офлайн-очередь может быть сколь угодно
// старой — проверка включается только когда клиент версию прислал).
type EntityStorage interface {
	// CreateEntity stores a new entity with version 1
	// Returns ErrEntityExists if entity id is already present
	CreateEntity(ctx context.Context, entityType models.EntityType, id string, state json.RawMessage) (*models.EntityRecord, error)

	// UpdateEntity replaces entity state and bumps version
	// Returns ErrEntityNotFound or ErrVersionConflict
	UpdateEntity(ctx context.Context, entityType models.EntityType, id string, state json.RawMessage, expectedVersion int64) (*models.EntityRecord, error)

	// DeleteEntity removes the entity
	// Returns ErrEntityNotFound or ErrVersionConflict
	DeleteEntity(ctx context.Context, entityType models.EntityType, id string, expectedVersion int64) error

	// GetEntity retrieves entity by type and id
	// Returns ErrEntityNotFound if entity doesn't exist
	GetEntity(ctx context.Context, entityType models.EntityType, id string) (*models.EntityRecord, error)

	// ListEntities retrieves all entities of a type
	ListEntities(ctx context.Context, entityType models.EntityType) ([]*models.EntityRecord, error)
}
