package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
)

// EntityHandler принимает диспатч отложенных мутаций с клиентов.
// Каждая коллекция (assessments, responses, media, incidents) маппится
// на свой EntityType; ответы заворачиваются в конверт, и клиент считает
// операцию успешной только при success=true.
type EntityHandler struct {
	logger     *slog.Logger
	entities   storage.EntityStorage
	entityType models.EntityType
	notify     func(event string, payload any)
}

// NewEntityHandler создает handler одной коллекции сущностей
func NewEntityHandler(logger *slog.Logger, entities storage.EntityStorage, entityType models.EntityType, notify func(event string, payload any)) *EntityHandler {
	if notify == nil {
		notify = func(string, any) {}
	}
	return &EntityHandler{
		logger:     logger,
		entities:   entities,
		entityType: entityType,
		notify:     notify,
	}
}

// entityPayload служебные поля, которые сервер вычитывает из payload мутации.
// Остальное тело хранится как есть.
type entityPayload struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

// Create обрабатывает POST /коллекция.
// Если payload содержит id (клиент сгенерировал его офлайн), он сохраняется;
// иначе назначается серверный uuid.
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, meta, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	id := meta.ID
	if id == "" {
		id = uuid.New().String()
	}

	record, err := h.entities.CreateEntity(ctx, h.entityType, id, body)
	if err != nil {
		if errors.Is(err, storage.ErrEntityExists) {
			sendEnvelopeError(h.logger, w, http.StatusConflict, "entity already exists: "+id)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create entity",
			slog.String("entity_type", string(h.entityType)),
			slog.Any("error", err))
		sendEnvelopeError(h.logger, w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "entity created",
		slog.String("entity_type", string(h.entityType)),
		slog.String("entity_id", record.ID),
		slog.Int64("version", record.Version))

	h.notify("entity.created", record)
	sendEnvelope(h.logger, w, record, http.StatusCreated)
}

// Update обрабатывает PUT /коллекция/{id}.
// Если payload содержит version, она сверяется с серверной; расхождение — 409,
// и клиент переводит элемент очереди в терминальное FAILED.
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		sendEnvelopeError(h.logger, w, http.StatusBadRequest, "entity id is required")
		return
	}

	body, meta, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	record, err := h.entities.UpdateEntity(ctx, h.entityType, id, body, meta.Version)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotFound):
			sendEnvelopeError(h.logger, w, http.StatusNotFound, "entity not found: "+id)
		case errors.Is(err, storage.ErrVersionConflict):
			h.logger.WarnContext(ctx, "entity version conflict",
				slog.String("entity_type", string(h.entityType)),
				slog.String("entity_id", id),
				slog.Int64("expected_version", meta.Version))
			sendEnvelopeError(h.logger, w, http.StatusConflict, err.Error())
		default:
			h.logger.ErrorContext(ctx, "failed to update entity", slog.Any("error", err))
			sendEnvelopeError(h.logger, w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.InfoContext(ctx, "entity updated",
		slog.String("entity_type", string(h.entityType)),
		slog.String("entity_id", id),
		slog.Int64("version", record.Version))

	h.notify("entity.updated", record)
	sendEnvelope(h.logger, w, record, http.StatusOK)
}

// Delete обрабатывает DELETE /коллекция/{id}.
// Тела у DELETE нет, так что проверка версии не выполняется.
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		sendEnvelopeError(h.logger, w, http.StatusBadRequest, "entity id is required")
		return
	}

	if err := h.entities.DeleteEntity(ctx, h.entityType, id, 0); err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotFound):
			sendEnvelopeError(h.logger, w, http.StatusNotFound, "entity not found: "+id)
		case errors.Is(err, storage.ErrVersionConflict):
			sendEnvelopeError(h.logger, w, http.StatusConflict, err.Error())
		default:
			h.logger.ErrorContext(ctx, "failed to delete entity", slog.Any("error", err))
			sendEnvelopeError(h.logger, w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.InfoContext(ctx, "entity deleted",
		slog.String("entity_type", string(h.entityType)),
		slog.String("entity_id", id))

	h.notify("entity.deleted", map[string]string{
		"entity_type": string(h.entityType),
		"entity_id":   id,
	})
	sendEnvelope(h.logger, w, map[string]string{"id": id}, http.StatusOK)
}

// Get обрабатывает GET /коллекция/{id}
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		sendEnvelopeError(h.logger, w, http.StatusBadRequest, "entity id is required")
		return
	}

	record, err := h.entities.GetEntity(ctx, h.entityType, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			sendEnvelopeError(h.logger, w, http.StatusNotFound, "entity not found: "+id)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get entity", slog.Any("error", err))
		sendEnvelopeError(h.logger, w, http.StatusInternalServerError, "internal server error")
		return
	}

	sendEnvelope(h.logger, w, record, http.StatusOK)
}

// List обрабатывает GET /коллекция
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.entities.ListEntities(ctx, h.entityType)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list entities", slog.Any("error", err))
		sendEnvelopeError(h.logger, w, http.StatusInternalServerError, "internal server error")
		return
	}

	sendEnvelope(h.logger, w, records, http.StatusOK)
}

// readPayload читает и разбирает тело мутации: полное тело сохраняется как есть,
// служебные поля id/version вычитываются отдельно.
// Возвращает false, если ответ уже отправлен.
func (h *EntityHandler) readPayload(w http.ResponseWriter, r *http.Request) (json.RawMessage, entityPayload, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		sendEnvelopeError(h.logger, w, http.StatusBadRequest, "failed to read request body")
		return nil, entityPayload{}, false
	}
	if len(body) == 0 {
		sendEnvelopeError(h.logger, w, http.StatusBadRequest, "request body is required")
		return nil, entityPayload{}, false
	}

	var meta entityPayload
	if err := json.Unmarshal(body, &meta); err != nil {
		sendEnvelopeError(h.logger, w, http.StatusBadRequest, "request body must be a JSON object")
		return nil, entityPayload{}, false
	}

	return body, meta, true
}
