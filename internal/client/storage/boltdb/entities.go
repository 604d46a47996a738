package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
)

// entityKey строит ключ вида "<entity_type>/<entity_id>".
// Префикс по типу позволяет перечислять сущности одного типа курсором.
func entityKey(entityType models.EntityType, entityID string) []byte {
	return []byte(string(entityType) + "/" + entityID)
}

// SaveEntity stores or replaces the cached state of an entity
func (s *Storage) SaveEntity(ctx context.Context, entityType models.EntityType, entityID string, state json.RawMessage) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntities)
		if bucket == nil {
			return fmt.Errorf("entities bucket not found")
		}

		if err := bucket.Put(entityKey(entityType, entityID), state); err != nil {
			return fmt.Errorf("failed to save entity: %w", err)
		}

		return nil
	})
}

// GetEntity retrieves the cached state of an entity
func (s *Storage) GetEntity(ctx context.Context, entityType models.EntityType, entityID string) (json.RawMessage, error) {
	var state json.RawMessage

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntities)
		if bucket == nil {
			return fmt.Errorf("entities bucket not found")
		}

		data := bucket.Get(entityKey(entityType, entityID))
		if data == nil {
			return storage.ErrEntityNotFound
		}

		// Копируем: данные bbolt валидны только внутри транзакции
		state = make(json.RawMessage, len(data))
		copy(state, data)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return state, nil
}

// DeleteEntity removes an entity from the cache; absent entity is a no-op
func (s *Storage) DeleteEntity(ctx context.Context, entityType models.EntityType, entityID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntities)
		if bucket == nil {
			return fmt.Errorf("entities bucket not found")
		}
		return bucket.Delete(entityKey(entityType, entityID))
	})
}

// ListEntities returns all cached entities of the given type, keyed by entity id
func (s *Storage) ListEntities(ctx context.Context, entityType models.EntityType) (map[string]json.RawMessage, error) {
	entities := make(map[string]json.RawMessage)
	prefix := []byte(string(entityType) + "/")

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntities)
		if bucket == nil {
			return fmt.Errorf("entities bucket not found")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = cursor.Next() {
			id := strings.TrimPrefix(string(k), string(prefix))
			state := make(json.RawMessage, len(v))
			copy(state, v)
			entities[id] = state
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return entities, nil
}

// SaveUpdate stores or updates an optimistic update record
func (s *Storage) SaveUpdate(ctx context.Context, update *models.OptimisticUpdate) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUpdates)
		if bucket == nil {
			return fmt.Errorf("updates bucket not found")
		}

		data, err := json.Marshal(update)
		if err != nil {
			return fmt.Errorf("failed to marshal optimistic update: %w", err)
		}

		if err := bucket.Put([]byte(update.UpdateID), data); err != nil {
			return fmt.Errorf("failed to save optimistic update: %w", err)
		}

		return nil
	})
}

// GetUpdate retrieves an update record by ID
func (s *Storage) GetUpdate(ctx context.Context, updateID string) (*models.OptimisticUpdate, error) {
	var update *models.OptimisticUpdate

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUpdates)
		if bucket == nil {
			return fmt.Errorf("updates bucket not found")
		}

		data := bucket.Get([]byte(updateID))
		if data == nil {
			return storage.ErrUpdateNotFound
		}

		update = &models.OptimisticUpdate{}
		if err := json.Unmarshal(data, update); err != nil {
			return fmt.Errorf("failed to unmarshal optimistic update: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return update, nil
}

// ListUpdates returns all outstanding update records
func (s *Storage) ListUpdates(ctx context.Context) ([]*models.OptimisticUpdate, error) {
	var updates []*models.OptimisticUpdate

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUpdates)
		if bucket == nil {
			return fmt.Errorf("updates bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			update := &models.OptimisticUpdate{}
			if err := json.Unmarshal(v, update); err != nil {
				return fmt.Errorf("failed to unmarshal optimistic update: %w", err)
			}
			updates = append(updates, update)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return updates, nil
}

// ListUpdatesByEntity returns outstanding updates for a specific entity
func (s *Storage) ListUpdatesByEntity(ctx context.Context, entityID string) ([]*models.OptimisticUpdate, error) {
	all, err := s.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}

	var updates []*models.OptimisticUpdate
	for _, update := range all {
		if update.EntityID == entityID {
			updates = append(updates, update)
		}
	}

	return updates, nil
}

// DeleteUpdate removes an update record; absent id is a no-op
func (s *Storage) DeleteUpdate(ctx context.Context, updateID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUpdates)
		if bucket == nil {
			return fmt.Errorf("updates bucket not found")
		}
		return bucket.Delete([]byte(updateID))
	})
}
