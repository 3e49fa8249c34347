package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/openarcade/roomhost/internal/model"
)

// Hub fans out messages to the websocket clients attached to one room.
// Broadcast never blocks the caller: slow clients drop frames rather than
// stalling the room's tick.
type Hub struct {
	roomID  model.RoomID
	clients map[*Client]bool
	byConn  map[model.ConnID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger

	closed bool
}

// NewHub creates a hub for one room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:  roomID,
		clients: make(map[*Client]bool),
		byConn:  make(map[model.ConnID]*Client),
		logger:  logger.With(slog.String("room", string(roomID))),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(client.send)
		return
	}
	h.clients[client] = true
	h.byConn[client.connID] = client
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client attached",
		slog.String("conn", string(client.connID)),
		slog.Int("total_clients", count))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	delete(h.byConn, client.connID)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client detached",
		slog.String("conn", string(client.connID)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// Broadcast sends a message to all attached clients, dropping frames for
// clients whose buffers are full
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped frames - client buffers full",
			slog.Int("dropped", dropped))
	}
}

// SendTo delivers a message to a single connection if it is attached
func (h *Hub) SendTo(connID model.ConnID, message []byte) {
	h.mu.RLock()
	client, ok := h.byConn[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	client.Send(message)
}

// ClientCount returns the number of attached clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close detaches every client and rejects future registrations
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.byConn = make(map[model.ConnID]*Client)
	h.logger.Info("hub closed")
}
