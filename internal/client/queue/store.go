// Package queue реализует офлайн-очередь отложенных мутаций: единственный
// источник истины о изменениях, ожидающих синхронизации с сервером.
// Все мутирующие операции атомарны относительно друг друга (один мьютекс),
// поэтому пересчет приоритетов не может потерять параллельный enqueue.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/scoring"
	"github.com/iudanet/fieldsync/internal/validation"
)

// StepUpDelta порог |новый score - старый score|, после которого override
// помечается как требующий step-up подтверждения. Сама очередь только
// выставляет флаг; усиленную проверку выполняет сервер.
const StepUpDelta = 30

// Store управляет офлайн-очередью поверх персистентного хранилища
type Store struct {
	logger  *slog.Logger
	storage storage.QueueStorage
	rules   storage.RulesStorage
	mu      sync.Mutex
	nowFn   func() time.Time
}

// NewStore creates a new offline queue store
func NewStore(queueStorage storage.QueueStorage, rulesStorage storage.RulesStorage, logger *slog.Logger) *Store {
	return &Store{
		storage: queueStorage,
		rules:   rulesStorage,
		logger:  logger,
		nowFn:   time.Now,
	}
}

// EnqueueParams параметры новой отложенной мутации
type EnqueueParams struct {
	EntityType models.EntityType
	EntityID   string
	Operation  models.Operation
	Priority   models.Priority
	UpdateID   string // связанный optimistic update (опционально)
	Payload    []byte
}

// Enqueue добавляет операцию в очередь: назначает id и timestamps, считает
// начальный score по кешированному набору правил, сохраняет элемент.
// Никогда не ходит в сеть и не блокируется на ней.
func (s *Store) Enqueue(ctx context.Context, params EnqueueParams) (*models.QueueItem, error) {
	if !models.ValidEntityType(params.EntityType) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown entity type: %q", params.EntityType))
	}
	if !models.ValidOperation(params.Operation) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown operation: %q", params.Operation))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()

	item := &models.QueueItem{
		ID:            uuid.New().String(),
		EntityType:    params.EntityType,
		EntityID:      params.EntityID,
		Operation:     params.Operation,
		Priority:      params.Priority,
		UpdateID:      params.UpdateID,
		Payload:       params.Payload,
		State:         models.SyncStatePending,
		CreatedAt:     now,
		NextAttemptAt: now,
	}
	if item.Priority == "" {
		item.Priority = models.PriorityNormal
	}

	// Начальный score по кешированным правилам. Отсутствие кеша не
	// блокирует enqueue: score считается без правил.
	rules, err := s.rules.GetRules(ctx)
	if err != nil {
		s.logger.Warn("Failed to load cached rules, scoring without rules", "error", err)
		rules = nil
	}

	result := scoring.Score(item, rules, now)
	item.PriorityScore = result.Score
	item.PriorityReason = result.Reason
	item.EstimatedSyncTime = scoring.EstimatedSyncTime(result.Score, now)

	if err := s.storage.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist queue item: %w", err)
	}

	s.logger.Info("Enqueued operation",
		"item_id", item.ID,
		"entity_type", item.EntityType,
		"operation", item.Operation,
		"priority_score", item.PriorityScore)

	return item.Clone(), nil
}

// Dequeue удаляет элемент безусловно (после подтвержденной синхронизации
// или по явной отмене пользователем). Идемпотентна: отсутствующий id — no-op.
func (s *Store) Dequeue(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("failed to dequeue item: %w", err)
	}

	s.logger.Debug("Dequeued item", "item_id", id)
	return nil
}

// Get возвращает копию элемента по id
func (s *Store) Get(ctx context.Context, id string) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.storage.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// List возвращает все элементы в порядке выдачи: priorityScore по убыванию,
// при равных score — FIFO по createdAt.
func (s *Store) List(ctx context.Context) ([]*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listOrdered(ctx)
}

// Eligible возвращает элементы, готовые к диспатчу в момент now
// (PENDING с истекшим backoff-окном), в порядке выдачи.
func (s *Store) Eligible(ctx context.Context, now time.Time) ([]*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.listOrdered(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]*models.QueueItem, 0, len(items))
	for _, item := range items {
		if item.Eligible(now) {
			eligible = append(eligible, item)
		}
	}
	return eligible, nil
}

// RecalcResult итог пересчета приоритетов очереди
type RecalcResult struct {
	Log     []RecalcLogEntry
	Updated int
	Skipped int // элементы с manual override
	Total   int
}

// RecalcLogEntry одна запись журнала пересчета
type RecalcLogEntry struct {
	ItemID   string
	Reason   string
	OldScore int
	NewScore int
	Skipped  bool
}

// RecalculateAll пересчитывает score/reason/ETA каждого элемента без manual
// override по переданному набору правил. Элементы с override пропускаются
// и логируются. Порядок выдачи (List/Eligible) отражает новые score.
func (s *Store) RecalculateAll(ctx context.Context, rules []models.PriorityRule) (*RecalcResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.storage.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	now := s.nowFn()
	result := &RecalcResult{Total: len(items)}

	for _, item := range items {
		if item.ManualOverride != nil {
			s.logger.Info("Skipping manually overridden item",
				"item_id", item.ID,
				"override_score", item.ManualOverride.OverrideScore,
				"coordinator_id", item.ManualOverride.CoordinatorID)
			result.Skipped++
			result.Log = append(result.Log, RecalcLogEntry{
				ItemID:   item.ID,
				OldScore: item.PriorityScore,
				NewScore: item.PriorityScore,
				Skipped:  true,
			})
			continue
		}

		scored := scoring.Score(item, rules, now)
		entry := RecalcLogEntry{
			ItemID:   item.ID,
			OldScore: item.PriorityScore,
			NewScore: scored.Score,
			Reason:   scored.Reason,
		}

		item.PriorityScore = scored.Score
		item.PriorityReason = scored.Reason
		item.EstimatedSyncTime = scoring.EstimatedSyncTime(scored.Score, now)

		if err := s.storage.SaveItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to persist rescored item %s: %w", item.ID, err)
		}

		result.Updated++
		result.Log = append(result.Log, entry)
	}

	s.logger.Info("Queue recalculated",
		"total", result.Total,
		"updated", result.Updated,
		"skipped", result.Skipped)

	return result, nil
}

// ApplyManualOverride применяет ручное переопределение приоритета.
// Требует нетривиального обоснования (≥10 символов), иначе validation error.
// Возвращает обновленный элемент и флаг stepUpRequired: true, если
// |delta| превышает StepUpDelta и внешняя сторона обязана провести
// усиленное подтверждение.
func (s *Store) ApplyManualOverride(ctx context.Context, id string, newScore int, justification, coordinatorID string) (*models.QueueItem, bool, error) {
	if err := validation.ValidateScore(newScore); err != nil {
		return nil, false, err
	}
	if err := validation.ValidateJustification(justification); err != nil {
		return nil, false, err
	}
	if err := validation.ValidateCoordinatorID(coordinatorID); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.storage.GetItem(ctx, id)
	if err != nil {
		return nil, false, err
	}

	now := s.nowFn()
	originalScore := item.PriorityScore
	delta := newScore - originalScore
	if delta < 0 {
		delta = -delta
	}
	stepUpRequired := delta > StepUpDelta

	item.ManualOverride = &models.ManualOverride{
		CoordinatorID: coordinatorID,
		OriginalScore: originalScore,
		OverrideScore: newScore,
		Justification: justification,
		Timestamp:     now,
	}
	item.PriorityScore = newScore
	item.PriorityReason = fmt.Sprintf("Manual override by %s", coordinatorID)
	item.EstimatedSyncTime = scoring.EstimatedSyncTime(newScore, now)

	if err := s.storage.SaveItem(ctx, item); err != nil {
		return nil, false, fmt.Errorf("failed to persist override: %w", err)
	}

	s.logger.Info("Manual override applied",
		"item_id", id,
		"coordinator_id", coordinatorID,
		"original_score", originalScore,
		"override_score", newScore,
		"step_up_required", stepUpRequired)

	return item.Clone(), stepUpRequired, nil
}

// MarkSyncing переводит элемент PENDING -> SYNCING перед диспатчем.
// Возвращает false, если элемент уже снят с очереди (например, отменен
// между выборкой и диспатчем): такой элемент отправлять нельзя.
func (s *Store) MarkSyncing(ctx context.Context, id string) (bool, error) {
	return s.transition(ctx, id, func(item *models.QueueItem) {
		item.State = models.SyncStateSyncing
	})
}

// RequeueWithBackoff возвращает элемент в PENDING после транзиентного сбоя:
// инкрементирует retryCount и откладывает следующую попытку до nextAttempt.
func (s *Store) RequeueWithBackoff(ctx context.Context, id, errMsg string, nextAttempt time.Time) error {
	_, err := s.transition(ctx, id, func(item *models.QueueItem) {
		item.State = models.SyncStatePending
		item.RetryCount++
		item.LastError = errMsg
		item.NextAttemptAt = nextAttempt
	})
	return err
}

// MarkFailed переводит элемент в терминальное FAILED.
// Элемент остается видимым в очереди, пока пользователь не выберет
// повтор или откат: терминальный сбой никогда не исчезает молча.
// Возвращает false для уже снятого с очереди элемента: rollback-уведомление
// по нему поднимать не нужно.
func (s *Store) MarkFailed(ctx context.Context, id, errMsg string) (bool, error) {
	return s.transition(ctx, id, func(item *models.QueueItem) {
		item.State = models.SyncStateFailed
		item.LastError = errMsg
	})
}

// ResetForRetry возвращает терминально упавший элемент в PENDING
// по явному действию пользователя ("Retry"), сбрасывая счетчик попыток.
func (s *Store) ResetForRetry(ctx context.Context, id string) error {
	_, err := s.transition(ctx, id, func(item *models.QueueItem) {
		item.State = models.SyncStatePending
		item.RetryCount = 0
		item.LastError = ""
		item.NextAttemptAt = s.nowFn()
	})
	return err
}

// Stats счетчики очереди по состояниям
type Stats struct {
	Total   int
	Pending int
	Syncing int
	Failed  int
}

// Stats возвращает счетчики очереди для status-команды и отчетов
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.storage.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	stats := &Stats{Total: len(items)}
	for _, item := range items {
		switch item.State {
		case models.SyncStatePending:
			stats.Pending++
		case models.SyncStateSyncing:
			stats.Syncing++
		case models.SyncStateFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// listOrdered читает все элементы и сортирует их в порядке выдачи.
// Вызывающий должен держать s.mu.
func (s *Store) listOrdered(ctx context.Context) ([]*models.QueueItem, error) {
	items, err := s.storage.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Before(items[j])
	})

	clones := make([]*models.QueueItem, 0, len(items))
	for _, item := range items {
		clones = append(clones, item.Clone())
	}
	return clones, nil
}

// transition применяет переход состояния к элементу под общим мьютексом.
// Отсутствующий элемент — не ошибка, а сигнал вызывающему: переходы могут
// приходить от устаревших событий движка после dequeue, и вызывающий
// должен пропустить зависящие от перехода действия (диспатч, уведомление).
func (s *Store) transition(ctx context.Context, id string, mutate func(*models.QueueItem)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.storage.GetItem(ctx, id)
	if err != nil {
		if err == storage.ErrItemNotFound {
			s.logger.Debug("State transition for absent item ignored", "item_id", id)
			return false, nil
		}
		return false, err
	}

	mutate(item)

	if err := s.storage.SaveItem(ctx, item); err != nil {
		return false, fmt.Errorf("failed to persist state transition: %w", err)
	}
	return true, nil
}
