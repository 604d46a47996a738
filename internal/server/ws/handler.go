package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler апгрейдит HTTP соединение до websocket и подключает его к hub.
// Аутентификация выполняется middleware до апгрейда.
type Handler struct {
	logger   *slog.Logger
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler создает websocket handler monitor-фида
func NewHandler(logger *slog.Logger, hub *Hub) *Handler {
	return &Handler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Консоль координатора может открываться с другого origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Monitor обрабатывает GET /api/v1/monitor/ws
func (h *Handler) Monitor(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту при ошибке
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		hub:  h.hub,
		conn: conn,
		send: make(chan Event, sendBuffer),
		done: make(chan struct{}),
	}

	h.hub.register <- c
	go c.writePump()
	go c.readPump()
}
