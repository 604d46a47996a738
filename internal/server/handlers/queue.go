package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
	"github.com/iudanet/fieldsync/pkg/api"
)

// QueueHandler принимает снимки клиентских очередей и отдает зеркало
// для консоли координатора
type QueueHandler struct {
	logger *slog.Logger
	mirror storage.MirrorStorage
	audit  storage.AuditStorage
	notify func(event string, payload any)
}

// NewQueueHandler создает handler зеркала очереди
func NewQueueHandler(logger *slog.Logger, mirror storage.MirrorStorage, audit storage.AuditStorage, notify func(event string, payload any)) *QueueHandler {
	if notify == nil {
		notify = func(string, any) {}
	}
	return &QueueHandler{
		logger: logger,
		mirror: mirror,
		audit:  audit,
		notify: notify,
	}
}

// Report обрабатывает POST /api/v1/sync/queue/report.
// Снимок полностью замещает зеркало очереди устройства: элементы,
// отсутствующие в снимке, считаются завершенными и удаляются.
func (h *QueueHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.QueueReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DeviceID == "" {
		sendError(h.logger, w, "device_id is required", http.StatusBadRequest)
		return
	}

	items := make([]*models.QueueItem, 0, len(req.Items))
	for i := range req.Items {
		report := &req.Items[i]
		if report.ID == "" {
			sendError(h.logger, w, "queue item id is required", http.StatusBadRequest)
			return
		}
		if !models.ValidEntityType(models.EntityType(report.EntityType)) {
			sendError(h.logger, w, "unknown entity type: "+report.EntityType, http.StatusBadRequest)
			return
		}
		if !models.ValidOperation(models.Operation(report.Operation)) {
			sendError(h.logger, w, "unknown operation: "+report.Operation, http.StatusBadRequest)
			return
		}
		items = append(items, itemFromReport(report))
	}

	accepted, removed, err := h.mirror.ReplaceDeviceItems(ctx, req.DeviceID, items)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to replace device items",
			slog.String("device_id", req.DeviceID), slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "queue snapshot accepted",
		slog.String("device_id", req.DeviceID),
		slog.Int("accepted", accepted),
		slog.Int("removed", removed))

	resp := api.QueueReportResponse{Accepted: accepted, Removed: removed}
	h.notify("queue.reported", map[string]any{
		"device_id": req.DeviceID,
		"accepted":  accepted,
		"removed":   removed,
	})
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// List обрабатывает GET /api/v1/sync/queue.
// Отдает все элементы зеркала, отсортированные по score
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.mirror.ListItems(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list mirrored items", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	reports := make([]api.QueueItemReport, 0, len(items))
	for _, item := range items {
		reports = append(reports, reportFromItem(item))
	}

	sendJSON(h.logger, w, map[string]any{"items": reports}, http.StatusOK)
}

// Overrides обрабатывает GET /api/v1/sync/priority/overrides.
// Отдает журнал ручных переопределений, новые записи первыми
func (h *QueueHandler) Overrides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	const auditLimit = 100
	entries, err := h.audit.ListOverrides(ctx, auditLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list override audit", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, map[string]any{"overrides": entries}, http.StatusOK)
}
