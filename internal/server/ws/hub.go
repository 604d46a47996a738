// Package ws реализует live-фид для консоли координатора: события
// зеркала очереди, пересчетов, overrides и правил транслируются всем
// подключенным websocket клиентам.
package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event одно событие monitor-фида
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
}

// Hub раздает события всем подключенным monitor клиентам.
// Все мутации множества клиентов проходят через горутину Run,
// поэтому доступ к clients не требует блокировок.
type Hub struct {
	logger     *slog.Logger
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Event
}

// NewHub создает hub monitor-фида
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
	}
}

// Run обслуживает hub до отмены контекста.
// При выходе закрывает все клиентские соединения.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Info("monitor client connected",
				slog.String("remote", c.conn.RemoteAddr().String()),
				slog.Int("clients", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.logger.Info("monitor client disconnected",
					slog.Int("clients", len(h.clients)))
			}

		case event := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Клиент не успевает читать: отключаем, чтобы
					// не копить неограниченный бэклог
					delete(h.clients, c)
					c.close()
					h.logger.Warn("monitor client dropped: send buffer full")
				}
			}
		}
	}
}

// Notify ставит событие в очередь на рассылку.
// Не блокирует: при переполненном буфере событие отбрасывается.
func (h *Hub) Notify(eventType string, payload any) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("monitor event dropped: broadcast buffer full",
			slog.String("type", eventType))
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 16
)

// client одно websocket соединение monitor-фида
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Event
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
	_ = c.conn.Close()
}

// deregister уведомляет hub о завершении pump.
// Если hub уже остановлен, done закрыт и блокировки не происходит.
func (c *client) deregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.done:
	}
}

// writePump пишет события и пинги в соединение
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.deregister()
	}()

	for {
		select {
		case <-c.done:
			return

		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump читает соединение только ради pong и close фреймов
func (c *client) readPump() {
	defer c.deregister()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
