package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/fieldsync/pkg/api"
)

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// sendEnvelope отправляет ответ entity-эндпоинта в стандартном конверте
func sendEnvelope(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to marshal envelope data", slog.Any("error", err))
		sendJSON(logger, w, api.Envelope{Success: false, Errors: []string{"internal server error"}}, http.StatusInternalServerError)
		return
	}
	sendJSON(logger, w, api.Envelope{Success: true, Data: raw}, statusCode)
}

// sendEnvelopeError отправляет конверт с ошибками; клиент трактует его
// как окончательное отклонение операции
func sendEnvelopeError(logger *slog.Logger, w http.ResponseWriter, statusCode int, errs ...string) {
	sendJSON(logger, w, api.Envelope{Success: false, Errors: errs}, statusCode)
}
