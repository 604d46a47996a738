package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
)

// SaveItem stores or updates a queue item
func (s *Storage) SaveItem(ctx context.Context, item *models.QueueItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}

		if err := bucket.Put([]byte(item.ID), data); err != nil {
			return fmt.Errorf("failed to save queue item: %w", err)
		}

		return nil
	})
}

// GetItem retrieves a queue item by ID
func (s *Storage) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	var item *models.QueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrItemNotFound
		}

		item = &models.QueueItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal queue item: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListItems returns all queue items in unspecified order
func (s *Storage) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	var items []*models.QueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			item := &models.QueueItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item: %w", err)
			}
			items = append(items, item)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return items, nil
}

// DeleteItem removes an item; deleting an absent id is a no-op
func (s *Storage) DeleteItem(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}
		// bbolt Delete не возвращает ошибку для отсутствующего ключа
		return bucket.Delete([]byte(id))
	})
}

// Clear removes all items from storage
func (s *Storage) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketQueue); err != nil {
			return fmt.Errorf("failed to delete queue bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketQueue); err != nil {
			return fmt.Errorf("failed to recreate queue bucket: %w", err)
		}
		return nil
	})
}

// SaveRules replaces the cached rule set
func (s *Storage) SaveRules(ctx context.Context, rules []models.PriorityRule) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRules)
		if bucket == nil {
			return fmt.Errorf("rules bucket not found")
		}

		data, err := json.Marshal(rules)
		if err != nil {
			return fmt.Errorf("failed to marshal rules: %w", err)
		}

		if err := bucket.Put([]byte("ruleset"), data); err != nil {
			return fmt.Errorf("failed to save rules: %w", err)
		}

		return nil
	})
}

// GetRules returns the cached rule set (empty slice if none cached)
func (s *Storage) GetRules(ctx context.Context) ([]models.PriorityRule, error) {
	var rules []models.PriorityRule

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRules)
		if bucket == nil {
			return fmt.Errorf("rules bucket not found")
		}

		data := bucket.Get([]byte("ruleset"))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, &rules); err != nil {
			return fmt.Errorf("failed to unmarshal rules: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return rules, nil
}
