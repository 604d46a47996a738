package storage

import (
	"context"

	"github.com/iudanet/fieldsync/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage defines interface for persisting the offline queue on client.
// Это нижний слой хранения: упорядочивание и пересчет приоритетов
// делает queue.Store, хранилище только сохраняет и отдает элементы.
type QueueStorage interface {
	// SaveItem stores or updates a queue item
	SaveItem(ctx context.Context, item *models.QueueItem) error

	// GetItem retrieves a queue item by ID
	// Returns ErrItemNotFound if item doesn't exist
	GetItem(ctx context.Context, id string) (*models.QueueItem, error)

	// ListItems returns all queue items in unspecified order
	ListItems(ctx context.Context) ([]*models.QueueItem, error)

	// DeleteItem removes an item; deleting an absent id is a no-op
	DeleteItem(ctx context.Context, id string) error

	// Clear removes all items from storage
	// Used for testing and full reset
	Clear(ctx context.Context) error
}

// RulesStorage defines interface for the locally cached priority rule set.
// Клиент обновляет кеш с сервера при выходе в онлайн и пересчитывает
// очередь по кешированным правилам, когда сеть недоступна.
type RulesStorage interface {
	// SaveRules replaces the cached rule set
	SaveRules(ctx context.Context, rules []models.PriorityRule) error

	// GetRules returns the cached rule set (empty slice if none cached)
	GetRules(ctx context.Context) ([]models.PriorityRule, error)
}
