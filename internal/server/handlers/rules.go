package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/storage"
	"github.com/iudanet/fieldsync/pkg/api"
)

// RulesHandler обрабатывает CRUD правил приоритизации
type RulesHandler struct {
	logger   *slog.Logger
	rules    storage.RuleStorage
	validate *validator.Validate
	notify   func(event string, payload any)
}

// NewRulesHandler создает handler правил
func NewRulesHandler(logger *slog.Logger, rules storage.RuleStorage, notify func(event string, payload any)) *RulesHandler {
	if notify == nil {
		notify = func(string, any) {}
	}
	return &RulesHandler{
		logger:   logger,
		rules:    rules,
		validate: validator.New(),
		notify:   notify,
	}
}

// List обрабатывает GET /api/v1/sync/priority/rules
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rules, err := h.rules.ListRules(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list rules", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.RulesListResponse{Rules: make([]api.RuleResponse, 0, len(rules))}
	for i := range rules {
		resp.Rules = append(resp.Rules, ruleResponse(&rules[i]))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Create обрабатывает POST /api/v1/sync/priority/rules
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rule, ok := h.decodeRule(w, r)
	if !ok {
		return
	}
	rule.ID = uuid.New().String()

	if err := h.rules.SaveRule(ctx, rule); err != nil {
		h.logger.ErrorContext(ctx, "failed to save rule", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "priority rule created",
		slog.String("rule_id", rule.ID),
		slog.String("name", rule.Name))

	resp := ruleResponse(rule)
	h.notify("rule.created", resp)
	sendJSON(h.logger, w, resp, http.StatusCreated)
}

// Update обрабатывает PUT /api/v1/sync/priority/rules/{id}
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		sendError(h.logger, w, "rule id is required", http.StatusBadRequest)
		return
	}

	// Существование проверяем до декодирования, чтобы на неизвестный id
	// стабильно отвечать 404 независимо от качества тела запроса
	if _, err := h.rules.GetRule(ctx, id); err != nil {
		if errors.Is(err, storage.ErrRuleNotFound) {
			sendError(h.logger, w, "rule not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get rule", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	rule, ok := h.decodeRule(w, r)
	if !ok {
		return
	}
	rule.ID = id

	if err := h.rules.SaveRule(ctx, rule); err != nil {
		h.logger.ErrorContext(ctx, "failed to save rule", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "priority rule updated", slog.String("rule_id", id))

	resp := ruleResponse(rule)
	h.notify("rule.updated", resp)
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/sync/priority/rules/{id}
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		sendError(h.logger, w, "rule id is required", http.StatusBadRequest)
		return
	}

	if err := h.rules.DeleteRule(ctx, id); err != nil {
		if errors.Is(err, storage.ErrRuleNotFound) {
			sendError(h.logger, w, "rule not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete rule", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "priority rule deleted", slog.String("rule_id", id))

	h.notify("rule.deleted", map[string]string{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// decodeRule читает и валидирует тело запроса правила.
// Возвращает false, если ответ уже отправлен.
func (h *RulesHandler) decodeRule(w http.ResponseWriter, r *http.Request) (*models.PriorityRule, bool) {
	var req api.RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid rule request", slog.Any("error", err))
		sendError(h.logger, w, "invalid rule request: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	rule := ruleFromRequest(&req)
	if err := rule.Validate(); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return rule, true
}
