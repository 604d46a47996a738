// Package server собирает HTTP маршруты сервера полевой синхронизации
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server/config"
	"github.com/iudanet/fieldsync/internal/server/handlers"
	"github.com/iudanet/fieldsync/internal/server/jwt"
	"github.com/iudanet/fieldsync/internal/server/middleware"
	"github.com/iudanet/fieldsync/internal/server/storage/sqlite"
	"github.com/iudanet/fieldsync/internal/server/ws"
)

// entityRoutes маршруты entity-эндпоинтов по коллекциям.
// Должны совпадать с клиентской таблицей диспатча.
var entityRoutes = map[string]models.EntityType{
	"assessments": models.EntityAssessment,
	"responses":   models.EntityResponse,
	"media":       models.EntityMedia,
	"incidents":   models.EntityIncident,
}

// NewRouter собирает все маршруты и middleware сервера.
// Публичные: /health, /api/v1/auth/login, /api/v1/auth/refresh.
// Остальные за AuthMiddleware; auth контекст содержит elevated флаг
// step-up токенов, который проверяет override handler.
func NewRouter(
	logger *slog.Logger,
	cfg *config.Config,
	store *sqlite.Storage,
	jwtService *jwt.Service,
	hub *ws.Hub,
	version string,
) http.Handler {
	authHandler := handlers.NewAuthHandler(logger, store, store, jwtService)
	priorityHandler := handlers.NewPriorityHandler(logger, store, store, store, hub.Notify)
	rulesHandler := handlers.NewRulesHandler(logger, store, hub.Notify)
	queueHandler := handlers.NewQueueHandler(logger, store, store, hub.Notify)
	healthHandler := handlers.NewHealthHandler(logger, store, version)
	wsHandler := ws.NewHandler(logger, hub)

	authMw := middleware.AuthMiddleware(logger, jwtService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)

	// StepUp и Logout сами валидируют Bearer токен, без middleware:
	// им нужны claims даже из почти истекшего токена
	mux.HandleFunc("POST /api/v1/auth/stepup", authHandler.StepUp)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMw(h))
	}

	protected("POST /api/v1/sync/priority/recalculate", priorityHandler.Recalculate)
	protected("POST /api/v1/sync/priority/override", priorityHandler.Override)
	protected("GET /api/v1/sync/priority/overrides", queueHandler.Overrides)

	protected("GET /api/v1/sync/priority/rules", rulesHandler.List)
	protected("POST /api/v1/sync/priority/rules", rulesHandler.Create)
	protected("PUT /api/v1/sync/priority/rules/{id}", rulesHandler.Update)
	protected("DELETE /api/v1/sync/priority/rules/{id}", rulesHandler.Delete)

	protected("POST /api/v1/sync/queue/report", queueHandler.Report)
	protected("GET /api/v1/sync/queue", queueHandler.List)

	for path, entityType := range entityRoutes {
		h := handlers.NewEntityHandler(logger, store, entityType, hub.Notify)
		protected("POST /api/v1/"+path, h.Create)
		protected("GET /api/v1/"+path, h.List)
		protected("GET /api/v1/"+path+"/{id}", h.Get)
		protected("PUT /api/v1/"+path+"/{id}", h.Update)
		protected("DELETE /api/v1/"+path+"/{id}", h.Delete)
	}

	protected("GET /api/v1/monitor/ws", wsHandler.Monitor)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, "/health")(handler)
	if cfg.RateLimit.Enabled {
		handler = middleware.RateLimitMiddleware(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, logger)(handler)
	}
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}
