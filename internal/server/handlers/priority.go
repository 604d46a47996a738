package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/scoring"
	"github.com/iudanet/fieldsync/internal/server/storage"
	"github.com/iudanet/fieldsync/internal/validation"
	"github.com/iudanet/fieldsync/pkg/api"
)

// stepUpDelta порог |новый score - старый score|, после которого override
// требует elevated токена. Должен совпадать с клиентским порогом,
// иначе клиент и сервер будут расходиться в том, когда нужен step-up.
const stepUpDelta = 30

// PriorityHandler обрабатывает пересчет приоритетов и ручные overrides
// над серверным зеркалом клиентских очередей
type PriorityHandler struct {
	logger   *slog.Logger
	mirror   storage.MirrorStorage
	rules    storage.RuleStorage
	audit    storage.AuditStorage
	validate *validator.Validate
	notify   func(event string, payload any)
}

// NewPriorityHandler создает handler приоритетов.
// notify опционален: вызывается после успешного recalculate/override
// для трансляции события в monitor feed.
func NewPriorityHandler(
	logger *slog.Logger,
	mirror storage.MirrorStorage,
	rules storage.RuleStorage,
	audit storage.AuditStorage,
	notify func(event string, payload any),
) *PriorityHandler {
	if notify == nil {
		notify = func(string, any) {}
	}
	return &PriorityHandler{
		logger:   logger,
		mirror:   mirror,
		rules:    rules,
		audit:    audit,
		validate: validator.New(),
		notify:   notify,
	}
}

// Recalculate обрабатывает POST /api/v1/sync/priority/recalculate.
// Пересчитывает score всех элементов зеркала по активным правилам.
// Элементы с manual override пропускаются и попадают в журнал с Skipped=true.
func (h *PriorityHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.mirror.ListItems(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list mirrored items", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	rules, err := h.rules.ListRules(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list rules", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	resp := api.RecalculateResponse{
		UpdateLog:  make([]api.UpdateLogEntry, 0, len(items)),
		TotalItems: len(items),
	}

	for _, item := range items {
		if item.ManualOverride != nil {
			resp.UpdateLog = append(resp.UpdateLog, api.UpdateLogEntry{
				ItemID:   item.ID,
				OldScore: item.PriorityScore,
				NewScore: item.PriorityScore,
				Reason:   item.PriorityReason,
				Skipped:  true,
			})
			continue
		}

		oldScore := item.PriorityScore
		result := scoring.Score(item, rules, now)

		item.PriorityScore = result.Score
		item.PriorityReason = result.Reason
		item.EstimatedSyncTime = scoring.EstimatedSyncTime(result.Score, now)

		if err := h.mirror.UpdateItem(ctx, item); err != nil {
			h.logger.ErrorContext(ctx, "failed to update mirrored item",
				slog.String("item_id", item.ID), slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}

		if result.Score != oldScore {
			resp.UpdatedCount++
		}
		resp.UpdateLog = append(resp.UpdateLog, api.UpdateLogEntry{
			ItemID:   item.ID,
			OldScore: oldScore,
			NewScore: result.Score,
			Reason:   result.Reason,
		})
	}

	h.logger.InfoContext(ctx, "priorities recalculated",
		slog.Int("total", resp.TotalItems),
		slog.Int("updated", resp.UpdatedCount))

	h.notify("priority.recalculated", resp)
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Override обрабатывает POST /api/v1/sync/priority/override.
// Применяет ручной score к элементу зеркала. Если |delta| превышает порог,
// требуется elevated токен (см. AuthHandler.StepUp). Каждое применение
// пишется в audit trail.
func (h *PriorityHandler) Override(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.WarnContext(ctx, "invalid override request", slog.Any("error", err))
		sendError(h.logger, w, "invalid override request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateJustification(req.Justification); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateScore(req.NewPriority); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.mirror.GetItem(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			sendError(h.logger, w, "queue item not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get mirrored item", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	elevated := IsElevated(ctx)
	delta := req.NewPriority - item.PriorityScore
	if delta < 0 {
		delta = -delta
	}
	if delta > stepUpDelta && !elevated {
		h.logger.WarnContext(ctx, "override requires step-up",
			slog.String("item_id", item.ID),
			slog.Int("delta", delta))
		sendError(h.logger, w, "override delta exceeds threshold, step-up authentication required", http.StatusForbidden)
		return
	}

	now := time.Now()
	originalScore := item.PriorityScore
	item.ManualOverride = &models.ManualOverride{
		Timestamp:     now,
		CoordinatorID: req.CoordinatorID,
		Justification: req.Justification,
		OriginalScore: originalScore,
		OverrideScore: req.NewPriority,
	}
	item.PriorityScore = req.NewPriority
	item.PriorityReason = "Manual override by " + req.CoordinatorID
	item.EstimatedSyncTime = scoring.EstimatedSyncTime(req.NewPriority, now)

	if err := h.mirror.UpdateItem(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "failed to update mirrored item", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	entry := &models.OverrideAudit{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		CoordinatorID: req.CoordinatorID,
		Justification: req.Justification,
		OldScore:      originalScore,
		NewScore:      req.NewPriority,
		Elevated:      elevated,
		CreatedAt:     now,
	}
	if err := h.audit.RecordOverride(ctx, entry); err != nil {
		// Override уже применен; ошибка аудита не откатывает его
		h.logger.ErrorContext(ctx, "failed to record override audit", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "manual override applied",
		slog.String("item_id", item.ID),
		slog.String("coordinator_id", req.CoordinatorID),
		slog.Int("old_score", originalScore),
		slog.Int("new_score", req.NewPriority),
		slog.Bool("elevated", elevated))

	resp := api.OverrideResponse{
		Item:          reportFromItem(item),
		StepUpApplied: elevated,
	}
	h.notify("priority.override", resp)
	sendJSON(h.logger, w, resp, http.StatusOK)
}
