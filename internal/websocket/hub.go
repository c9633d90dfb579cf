// Package websocket pushes toasts and navigation hints to the browser tabs
// connected on /ws/notifications.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/notify"
	"eduplatform-web/internal/observability"
	"eduplatform-web/internal/routes"
)

// Message types sent to the browser
const (
	TypeNotification = "notification"
	TypeRedirect     = "redirect"
)

// Message is one frame pushed to every connected tab
type Message struct {
	Type         string               `json:"type"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Location     string               `json:"location,omitempty"`
}

// Hub maintains the connected tabs and fans messages out to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	active atomic.Int64
	logger *slog.Logger
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     observability.Logger(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true
			h.active.Add(1)
			observability.WebSocketConnectionsActive.Inc()
			h.logger.Debug("client registered", slog.String("client_id", client.id))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// A tab that stopped reading loses its connection
					h.logger.Warn("client send buffer full, dropping client", slog.String("client_id", client.id))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.active.Add(-1)
	observability.WebSocketConnectionsActive.Dec()
	h.logger.Debug("client unregistered", slog.String("client_id", client.id))
}

// shutdown closes every client's send channel so the write pumps hang up
func (h *Hub) shutdown() {
	close(h.done)
	for client := range h.clients {
		h.remove(client)
	}
	h.logger.Info("hub shutdown complete")
}

// Register adds a client. After shutdown the client is closed right away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected tabs
func (h *Hub) ClientCount() int {
	return int(h.active.Load())
}

// Broadcast queues data for every client. It never blocks; when the queue
// is full the message is dropped and false is returned.
func (h *Hub) Broadcast(data []byte) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- data:
		return true
	default:
		h.logger.Warn("broadcast queue full, dropping message")
		return false
	}
}

func (h *Hub) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal hub message", slog.String("type", msg.Type), slog.String("error", err.Error()))
		return
	}
	h.Broadcast(data)
}

// Notify pushes a toast to every tab
func (h *Hub) Notify(_ context.Context, n notify.Notification) {
	h.send(Message{Type: TypeNotification, Notification: &n})
}

// Redirect tells every tab to navigate to location
func (h *Hub) Redirect(location string) {
	h.send(Message{Type: TypeRedirect, Location: location})
}

// OnSessionChange sends the tabs to the login page when the session ends.
// It is meant to be passed to session.Store.Subscribe.
func (h *Hub) OnSessionChange(prev, next domain.SessionState) {
	if prev.IsAuthenticated && !next.IsAuthenticated {
		h.Redirect(routes.Login)
	}
}
