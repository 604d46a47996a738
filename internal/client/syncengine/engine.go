// Package syncengine реализует фоновую доставку офлайн-очереди: при наличии
// связи выбирает готовые элементы в порядке приоритета, диспатчит их на сервер
// с ограниченным параллелизмом и ведет конечный автомат элемента
// PENDING -> SYNCING -> {SYNCED | повтор с backoff | терминальное FAILED}.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/fieldsync/internal/client/api"
	"github.com/iudanet/fieldsync/internal/client/queue"
	"github.com/iudanet/fieldsync/internal/client/storage"
	"github.com/iudanet/fieldsync/internal/models"
	pkgapi "github.com/iudanet/fieldsync/pkg/api"
)

//go:generate moq -out dispatcher_mock.go . Dispatcher

// Dispatcher определяет серверные операции, нужные движку.
// Реализуется api.Client.
type Dispatcher interface {
	// Dispatch отправляет одну мутацию; ошибки, которые повтор не исправит,
	// оборачиваются в api.ErrPermanent
	Dispatch(ctx context.Context, token string, item *models.QueueItem) error

	// FetchRules загружает актуальные правила приоритизации
	FetchRules(ctx context.Context, token string) ([]models.PriorityRule, error)

	// ReportQueue отправляет снимок очереди в серверное зеркало
	ReportQueue(ctx context.Context, token string, req pkgapi.QueueReportRequest) (*pkgapi.QueueReportResponse, error)
}

// TokenProvider выдает действующий access token.
// Реализуется auth-сервисом; обновление протухшего токена — его забота.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Confirmer разрешает optimistic updates по исходу синхронизации.
// Реализуется optimistic.Manager.
type Confirmer interface {
	Confirm(ctx context.Context, updateID string) error
	RequestRollback(ctx context.Context, updateID string, reason models.RollbackReason) (*models.RollbackOperation, error)
}

// Config параметры движка. Zero value дополняется значениями по умолчанию.
type Config struct {
	MaxConcurrent   int           // одновременных диспатчей (по разным entity types)
	MaxRetries      int           // попыток до терминального FAILED
	BaseBackoff     time.Duration // backoff = base * 2^retryCount
	MaxBackoff      time.Duration // потолок backoff
	DispatchTimeout time.Duration // таймаут одной попытки
	DrainInterval   time.Duration // период фонового прохода по очереди
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 3
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 2 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 30 * time.Second
	}
	if c.DrainInterval <= 0 {
		c.DrainInterval = 15 * time.Second
	}
}

// Engine фоновый движок синхронизации
type Engine struct {
	logger     *slog.Logger
	queue      *queue.Store
	optimistic Confirmer
	client     Dispatcher
	tokens     TokenProvider
	rules      storage.RulesStorage
	device     storage.DeviceStorage
	cfg        Config
	nowFn      func() time.Time

	// onFailure вызывается при терминальном сбое элемента со связанным
	// optimistic update; UI показывает rollback-подтверждение
	onFailure func(op *models.RollbackOperation)

	mu       sync.Mutex
	online   bool
	inFlight map[models.EntityType]bool

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewEngine creates a new sync engine
func NewEngine(
	queueStore *queue.Store,
	confirmer Confirmer,
	client Dispatcher,
	tokens TokenProvider,
	rulesStorage storage.RulesStorage,
	deviceStorage storage.DeviceStorage,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	cfg.applyDefaults()
	return &Engine{
		queue:      queueStore,
		optimistic: confirmer,
		client:     client,
		tokens:     tokens,
		rules:      rulesStorage,
		device:     deviceStorage,
		cfg:        cfg,
		logger:     logger,
		nowFn:      time.Now,
		inFlight:   make(map[models.EntityType]bool),
		kick:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetFailureHandler регистрирует обработчик терминальных сбоев.
// Вызывать до Run.
func (e *Engine) SetFailureHandler(fn func(op *models.RollbackOperation)) {
	e.onFailure = fn
}

// Run запускает фоновый цикл и блокируется до отмены контекста или Stop.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.DrainInterval)
	defer ticker.Stop()

	e.logger.Info("Sync engine started",
		"max_concurrent", e.cfg.MaxConcurrent,
		"max_retries", e.cfg.MaxRetries,
		"drain_interval", e.cfg.DrainInterval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Sync engine stopped", "reason", "context canceled")
			return
		case <-e.stop:
			e.logger.Info("Sync engine stopped", "reason", "stop requested")
			return
		case <-ticker.C:
			e.drain(ctx)
		case <-e.kick:
			e.drain(ctx)
		}
	}
}

// Stop останавливает цикл и дожидается его завершения
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

// Online сообщает текущий режим связи
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

// SetOnline переключает режим связи. Переход offline -> online запускает
// обновление правил, полный пересчет приоритетов и немедленный drain.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	e.mu.Lock()
	wasOnline := e.online
	e.online = online
	e.mu.Unlock()

	if online == wasOnline {
		return
	}

	if !online {
		e.logger.Info("Connectivity lost, queueing mode")
		return
	}

	e.logger.Info("Connectivity restored")
	e.refreshRulesAndRecalculate(ctx)

	// Немедленный drain вместо ожидания тика
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Drain выполняет один проход по очереди вне фонового цикла (CLI "sync now")
func (e *Engine) Drain(ctx context.Context) {
	e.drain(ctx)
}

// refreshRulesAndRecalculate тянет свежие правила и пересчитывает очередь.
// Ошибки сети не фатальны: пересчет идет по кешированным правилам.
func (e *Engine) refreshRulesAndRecalculate(ctx context.Context) {
	rules, err := e.fetchRules(ctx)
	if err != nil {
		e.logger.Warn("Failed to refresh priority rules, using cached", "error", err)
		cached, cacheErr := e.rules.GetRules(ctx)
		if cacheErr != nil {
			e.logger.Warn("No cached rules available", "error", cacheErr)
		}
		rules = cached
	}

	result, err := e.queue.RecalculateAll(ctx, rules)
	if err != nil {
		e.logger.Error("Priority recalculation failed", "error", err)
		return
	}
	e.logger.Info("Priorities recalculated on reconnect",
		"total", result.Total,
		"updated", result.Updated,
		"skipped", result.Skipped)
}

// fetchRules загружает правила с сервера и обновляет локальный кеш
func (e *Engine) fetchRules(ctx context.Context) ([]models.PriorityRule, error) {
	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	rules, err := e.client.FetchRules(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := e.rules.SaveRules(ctx, rules); err != nil {
		e.logger.Warn("Failed to cache priority rules", "error", err)
	}
	return rules, nil
}

// drain выбирает готовые элементы и диспатчит их с ограниченным параллелизмом.
// На каждый entity type берется только головной элемент: внутри типа доставка
// строго последовательная, между типами — параллельная.
func (e *Engine) drain(ctx context.Context) {
	if !e.Online() {
		return
	}

	eligible, err := e.queue.Eligible(ctx, e.nowFn())
	if err != nil {
		e.logger.Error("Failed to list eligible items", "error", err)
		return
	}
	if len(eligible) == 0 {
		return
	}

	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		e.logger.Error("Failed to get access token for drain", "error", err)
		return
	}

	// Головной элемент каждого типа, не занятого текущим диспатчем.
	// eligible уже отсортирован по приоритету, первый встреченный — головной.
	e.mu.Lock()
	batch := make([]*models.QueueItem, 0, len(e.inFlight)+1)
	claimed := make(map[models.EntityType]bool)
	for _, item := range eligible {
		if e.inFlight[item.EntityType] || claimed[item.EntityType] {
			continue
		}
		claimed[item.EntityType] = true
		e.inFlight[item.EntityType] = true
		batch = append(batch, item)
	}
	e.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrent)
	for _, item := range batch {
		g.Go(func() error {
			defer e.release(item.EntityType)
			e.dispatchOne(gctx, token, item)
			return nil
		})
	}
	_ = g.Wait()

	e.reportQueue(ctx, token)

	// Очередь могла пополниться за время прохода
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) release(entityType models.EntityType) {
	e.mu.Lock()
	delete(e.inFlight, entityType)
	e.mu.Unlock()
}

// dispatchOne выполняет одну попытку доставки и применяет исход к очереди
func (e *Engine) dispatchOne(ctx context.Context, token string, item *models.QueueItem) {
	ok, err := e.queue.MarkSyncing(ctx, item.ID)
	if err != nil {
		e.logger.Error("Failed to mark item syncing", "item_id", item.ID, "error", err)
		return
	}
	if !ok {
		// Элемент отменили между выборкой и диспатчем; отправлять нечего
		e.logger.Debug("Item removed before dispatch, skipping", "item_id", item.ID)
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.DispatchTimeout)
	defer cancel()

	err = e.client.Dispatch(attemptCtx, token, item)
	if err == nil {
		e.onSuccess(ctx, item)
		return
	}

	if errors.Is(err, api.ErrPermanent) {
		e.logger.Warn("Dispatch rejected permanently",
			"item_id", item.ID,
			"entity_type", item.EntityType,
			"error", err)
		e.fail(ctx, item, err.Error())
		return
	}

	// Транзиентный сбой: сеть, 5xx или таймаут попытки
	retryCount := item.RetryCount + 1
	if retryCount >= e.cfg.MaxRetries {
		e.logger.Warn("Dispatch retries exhausted",
			"item_id", item.ID,
			"retry_count", retryCount,
			"error", err)
		e.fail(ctx, item, fmt.Sprintf("retries exhausted: %v", err))
		return
	}

	delay := e.backoff(item.RetryCount)
	nextAttempt := e.nowFn().Add(delay)
	e.logger.Info("Dispatch failed, scheduling retry",
		"item_id", item.ID,
		"retry_count", retryCount,
		"backoff", delay,
		"error", err)

	if err := e.queue.RequeueWithBackoff(ctx, item.ID, err.Error(), nextAttempt); err != nil {
		e.logger.Error("Failed to requeue item", "item_id", item.ID, "error", err)
	}
}

// onSuccess снимает элемент с очереди и подтверждает связанный optimistic update
func (e *Engine) onSuccess(ctx context.Context, item *models.QueueItem) {
	if err := e.queue.Dequeue(ctx, item.ID); err != nil {
		e.logger.Error("Failed to dequeue synced item", "item_id", item.ID, "error", err)
		return
	}

	e.logger.Info("Item synced",
		"item_id", item.ID,
		"entity_type", item.EntityType,
		"operation", item.Operation)

	if item.UpdateID == "" {
		return
	}
	if err := e.optimistic.Confirm(ctx, item.UpdateID); err != nil {
		e.logger.Error("Failed to confirm optimistic update",
			"update_id", item.UpdateID,
			"error", err)
	}
}

// fail переводит элемент в терминальное FAILED и поднимает
// rollback-уведомление для связанного optimistic update
func (e *Engine) fail(ctx context.Context, item *models.QueueItem, errMsg string) {
	ok, err := e.queue.MarkFailed(ctx, item.ID, errMsg)
	if err != nil {
		e.logger.Error("Failed to mark item failed", "item_id", item.ID, "error", err)
		return
	}
	if !ok {
		// Элемент уже снят с очереди; откатывать нечего
		e.logger.Debug("Item removed before failure handling, skipping", "item_id", item.ID)
		return
	}

	if item.UpdateID == "" || e.onFailure == nil {
		return
	}

	op, err := e.optimistic.RequestRollback(ctx, item.UpdateID, models.RollbackSyncFailed)
	if err != nil {
		e.logger.Error("Failed to build rollback descriptor",
			"update_id", item.UpdateID,
			"error", err)
		return
	}
	e.onFailure(op)
}

// backoff считает задержку перед следующей попыткой: base * 2^retryCount
// с потолком MaxBackoff
func (e *Engine) backoff(retryCount int) time.Duration {
	delay := e.cfg.BaseBackoff
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= e.cfg.MaxBackoff {
			return e.cfg.MaxBackoff
		}
	}
	if delay > e.cfg.MaxBackoff {
		return e.cfg.MaxBackoff
	}
	return delay
}

// reportQueue отправляет снимок очереди в серверное зеркало (best effort)
func (e *Engine) reportQueue(ctx context.Context, token string) {
	deviceID, err := e.device.GetDeviceID(ctx)
	if err != nil {
		e.logger.Warn("Failed to resolve device id, skipping queue report", "error", err)
		return
	}

	items, err := e.queue.List(ctx)
	if err != nil {
		e.logger.Warn("Failed to list queue for report", "error", err)
		return
	}

	req := pkgapi.QueueReportRequest{
		DeviceID: deviceID,
		Items:    make([]pkgapi.QueueItemReport, 0, len(items)),
	}
	for _, item := range items {
		var override *pkgapi.OverrideReport
		if item.ManualOverride != nil {
			override = &pkgapi.OverrideReport{
				Timestamp:     item.ManualOverride.Timestamp,
				CoordinatorID: item.ManualOverride.CoordinatorID,
				Justification: item.ManualOverride.Justification,
				OriginalScore: item.ManualOverride.OriginalScore,
				OverrideScore: item.ManualOverride.OverrideScore,
			}
		}
		req.Items = append(req.Items, pkgapi.QueueItemReport{
			ManualOverride:    override,
			ID:                item.ID,
			EntityType:        string(item.EntityType),
			EntityID:          item.EntityID,
			Operation:         string(item.Operation),
			Priority:          string(item.Priority),
			PriorityScore:     item.PriorityScore,
			PriorityReason:    item.PriorityReason,
			State:             string(item.State),
			RetryCount:        item.RetryCount,
			Payload:           item.Payload,
			CreatedAt:         item.CreatedAt,
			EstimatedSyncTime: item.EstimatedSyncTime,
		})
	}

	resp, err := e.client.ReportQueue(ctx, token, req)
	if err != nil {
		e.logger.Warn("Queue report failed", "error", err)
		return
	}
	e.logger.Debug("Queue report accepted",
		"accepted", resp.Accepted,
		"removed", resp.Removed)
}
