// Package optimistic реализует спекулятивное применение локальных мутаций:
// UI видит изменение сразу, подтверждение или откат приходят позже от движка
// синхронизации. Каждый update несет снимок прежнего состояния (pre-image),
// поэтому откат не зависит от текущего содержимого кеша.
package optimistic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
)

// Ошибки разрешения update: confirm и rollback взаимоисключающие, первый
// выигравший фиксирует исход, второй получает ошибку.
var (
	ErrAlreadyConfirmed  = errors.New("update already confirmed")
	ErrAlreadyRolledBack = errors.New("update already rolled back")
	ErrNotNewestUpdate   = errors.New("update is not the newest for its entity")
)

// Dequeuer отменяет связанный элемент очереди при откате.
// Реализуется queue.Store.
type Dequeuer interface {
	Dequeue(ctx context.Context, id string) error
}

// Manager управляет жизненным циклом optimistic updates поверх кеша сущностей
type Manager struct {
	logger   *slog.Logger
	entities storage.EntityCache
	updates  storage.UpdateStorage
	queue    Dequeuer
	mu       sync.Mutex
	nowFn    func() time.Time
}

// NewManager creates a new optimistic update manager
func NewManager(entities storage.EntityCache, updates storage.UpdateStorage, queue Dequeuer, logger *slog.Logger) *Manager {
	return &Manager{
		entities: entities,
		updates:  updates,
		queue:    queue,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// ApplyParams параметры спекулятивной мутации
type ApplyParams struct {
	EntityType  models.EntityType
	EntityID    string
	Operation   models.Operation
	QueueItemID string
	NewState    json.RawMessage // nil для DELETE
}

// Apply снимает pre-image текущего состояния, применяет мутацию к локальному
// кешу и сохраняет запись update. Для CREATE pre-image пустой: откат удалит
// сущность. Возвращает запись с назначенным update id.
func (m *Manager) Apply(ctx context.Context, params ApplyParams) (*models.OptimisticUpdate, error) {
	if !models.ValidEntityType(params.EntityType) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown entity type: %q", params.EntityType))
	}
	if !models.ValidOperation(params.Operation) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown operation: %q", params.Operation))
	}
	if params.EntityID == "" {
		return nil, models.NewValidationError("entity id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var rollbackData json.RawMessage
	if params.Operation != models.OperationCreate {
		prev, err := m.entities.GetEntity(ctx, params.EntityType, params.EntityID)
		if err != nil {
			if !errors.Is(err, storage.ErrEntityNotFound) {
				return nil, fmt.Errorf("failed to snapshot entity state: %w", err)
			}
			// UPDATE/DELETE по незакешированной сущности: откат вернет
			// кеш в то же отсутствующее состояние.
		} else {
			rollbackData = prev
		}
	}

	switch params.Operation {
	case models.OperationDelete:
		if err := m.entities.DeleteEntity(ctx, params.EntityType, params.EntityID); err != nil {
			return nil, fmt.Errorf("failed to apply speculative delete: %w", err)
		}
	default:
		if err := m.entities.SaveEntity(ctx, params.EntityType, params.EntityID, params.NewState); err != nil {
			return nil, fmt.Errorf("failed to apply speculative state: %w", err)
		}
	}

	update := &models.OptimisticUpdate{
		UpdateID:     uuid.New().String(),
		EntityID:     params.EntityID,
		EntityType:   params.EntityType,
		Operation:    params.Operation,
		Status:       models.UpdateStatusPending,
		QueueItemID:  params.QueueItemID,
		RollbackData: rollbackData,
		Timestamp:    m.nowFn(),
	}

	if err := m.updates.SaveUpdate(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to persist optimistic update: %w", err)
	}

	m.logger.Info("Applied optimistic update",
		"update_id", update.UpdateID,
		"entity_type", update.EntityType,
		"entity_id", update.EntityID,
		"operation", update.Operation)

	return update, nil
}

// LinkQueueItem привязывает элемент очереди к ранее примененному update.
// Update применяется до постановки в очередь, поэтому id элемента становится
// известен только после Enqueue.
func (m *Manager) LinkQueueItem(ctx context.Context, updateID, queueItemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	update, err := m.updates.GetUpdate(ctx, updateID)
	if err != nil {
		return err
	}

	update.QueueItemID = queueItemID
	if err := m.updates.SaveUpdate(ctx, update); err != nil {
		return fmt.Errorf("failed to link queue item: %w", err)
	}
	return nil
}

// Confirm фиксирует успешную синхронизацию update. Идемпотентна: повторный
// confirm — no-op, как и confirm уже удаленной записи. Confirm после rollback
// возвращает ErrAlreadyRolledBack.
func (m *Manager) Confirm(ctx context.Context, updateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	update, err := m.updates.GetUpdate(ctx, updateID)
	if err != nil {
		if errors.Is(err, storage.ErrUpdateNotFound) {
			m.logger.Debug("Confirm for unknown update ignored", "update_id", updateID)
			return nil
		}
		return err
	}

	switch update.Status {
	case models.UpdateStatusConfirmed:
		return nil
	case models.UpdateStatusRolledBack:
		return ErrAlreadyRolledBack
	}

	update.Status = models.UpdateStatusConfirmed
	if err := m.updates.SaveUpdate(ctx, update); err != nil {
		return fmt.Errorf("failed to persist confirmation: %w", err)
	}

	m.logger.Info("Confirmed optimistic update", "update_id", updateID)
	return nil
}

// RequestRollback строит дескриптор отката для показа пользователю.
// Состояние не мутирует: реальный откат выполняет PerformRollback.
func (m *Manager) RequestRollback(ctx context.Context, updateID string, reason models.RollbackReason) (*models.RollbackOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	update, err := m.updates.GetUpdate(ctx, updateID)
	if err != nil {
		return nil, err
	}

	switch update.Status {
	case models.UpdateStatusConfirmed:
		return nil, ErrAlreadyConfirmed
	case models.UpdateStatusRolledBack:
		return nil, ErrAlreadyRolledBack
	}

	return &models.RollbackOperation{
		UpdateID:   update.UpdateID,
		EntityID:   update.EntityID,
		EntityType: update.EntityType,
		Reason:     reason,
		// Подтверждение нужно всегда, кроме терминального сбоя
		// синхронизации: там допускается автоматический откат.
		RequiresConfirmation: reason != models.RollbackSyncFailed,
		ConfirmationMessage:  models.BuildConfirmationMessage(reason, update.EntityType, update.EntityID),
	}, nil
}

// PerformRollback восстанавливает pre-image сущности и снимает связанный
// элемент очереди. Откатывать можно только самый свежий PENDING update
// сущности: промежуточный откат оставил бы более поздние снимки висящими
// над чужим состоянием. Повторный rollback того же update — no-op.
func (m *Manager) PerformRollback(ctx context.Context, updateID string, reason models.RollbackReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.performRollbackLocked(ctx, updateID, reason)
}

// RollbackEntity откатывает все незавершенные updates сущности в обратном
// хронологическом порядке, возвращая кеш к последнему подтвержденному состоянию.
func (m *Manager) RollbackEntity(ctx context.Context, entityID string, reason models.RollbackReason) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, err := m.pendingByEntityLocked(ctx, entityID)
	if err != nil {
		return 0, err
	}

	// Новейшие первыми: каждый шаг откатывает именно самый свежий update
	rolled := 0
	for i := len(pending) - 1; i >= 0; i-- {
		if err := m.performRollbackLocked(ctx, pending[i].UpdateID, reason); err != nil {
			return rolled, fmt.Errorf("failed to roll back update %s: %w", pending[i].UpdateID, err)
		}
		rolled++
	}
	return rolled, nil
}

// PendingUpdates возвращает все неразрешенные updates, старейшие первыми
func (m *Manager) PendingUpdates(ctx context.Context) ([]*models.OptimisticUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.updates.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]*models.OptimisticUpdate, 0, len(all))
	for _, u := range all {
		if u.Status == models.UpdateStatusPending {
			pending = append(pending, u)
		}
	}
	sortByTimestamp(pending)
	return pending, nil
}

// PruneResolved удаляет tombstone-записи разрешенных updates.
// Вызывается периодически движком синхронизации.
func (m *Manager) PruneResolved(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.updates.ListUpdates(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, u := range all {
		if u.Status == models.UpdateStatusPending {
			continue
		}
		if err := m.updates.DeleteUpdate(ctx, u.UpdateID); err != nil {
			return pruned, fmt.Errorf("failed to prune update %s: %w", u.UpdateID, err)
		}
		pruned++
	}
	return pruned, nil
}

// performRollbackLocked выполняет откат. Вызывающий должен держать m.mu.
func (m *Manager) performRollbackLocked(ctx context.Context, updateID string, reason models.RollbackReason) error {
	update, err := m.updates.GetUpdate(ctx, updateID)
	if err != nil {
		if errors.Is(err, storage.ErrUpdateNotFound) {
			m.logger.Debug("Rollback for unknown update ignored", "update_id", updateID)
			return nil
		}
		return err
	}

	switch update.Status {
	case models.UpdateStatusConfirmed:
		return ErrAlreadyConfirmed
	case models.UpdateStatusRolledBack:
		return nil
	}

	pending, err := m.pendingByEntityLocked(ctx, update.EntityID)
	if err != nil {
		return err
	}
	if len(pending) > 0 && pending[len(pending)-1].UpdateID != updateID {
		return fmt.Errorf("%w: %s", ErrNotNewestUpdate, updateID)
	}

	if len(update.RollbackData) > 0 {
		if err := m.entities.SaveEntity(ctx, update.EntityType, update.EntityID, update.RollbackData); err != nil {
			return fmt.Errorf("failed to restore entity snapshot: %w", err)
		}
	} else {
		// Пустой pre-image: до update сущности в кеше не было
		if err := m.entities.DeleteEntity(ctx, update.EntityType, update.EntityID); err != nil {
			return fmt.Errorf("failed to remove speculative entity: %w", err)
		}
	}

	// Снимаем связанную отложенную мутацию, чтобы откатанное изменение
	// не уехало на сервер следующим drain
	if update.QueueItemID != "" {
		if err := m.queue.Dequeue(ctx, update.QueueItemID); err != nil {
			return fmt.Errorf("failed to cancel queued operation: %w", err)
		}
	}

	update.Status = models.UpdateStatusRolledBack
	if err := m.updates.SaveUpdate(ctx, update); err != nil {
		return fmt.Errorf("failed to persist rollback: %w", err)
	}

	m.logger.Info("Rolled back optimistic update",
		"update_id", updateID,
		"entity_type", update.EntityType,
		"entity_id", update.EntityID,
		"reason", reason)

	return nil
}

// pendingByEntityLocked возвращает PENDING updates сущности, старейшие первыми
func (m *Manager) pendingByEntityLocked(ctx context.Context, entityID string) ([]*models.OptimisticUpdate, error) {
	all, err := m.updates.ListUpdatesByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity updates: %w", err)
	}

	pending := make([]*models.OptimisticUpdate, 0, len(all))
	for _, u := range all {
		if u.Status == models.UpdateStatusPending {
			pending = append(pending, u)
		}
	}
	sortByTimestamp(pending)
	return pending, nil
}

func sortByTimestamp(updates []*models.OptimisticUpdate) {
	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Timestamp.Before(updates[j].Timestamp)
	})
}
