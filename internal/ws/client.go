package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openarcade/roomhost/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Time between keepalive pings; must be under pongWait
	pingPeriod = 30 * time.Second

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one connected websocket peer attached to a room hub
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	connID model.ConnID
	send   chan []byte

	connectedAt time.Time
}

// NewClient wraps an upgraded websocket connection
func NewClient(hub *Hub, conn *websocket.Conn, connID model.ConnID) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		connID:      connID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ConnID returns the connection identifier
func (c *Client) ConnID() model.ConnID {
	return c.connID
}

// Send queues a message for this client, dropping it if the buffer is full
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	default:
	}
}

// ReadPump reads inbound frames and hands them to the handler until the
// connection drops. Runs on the connection's goroutine.
func (c *Client) ReadPump(handler func(data []byte)) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error",
					slog.String("conn", string(c.connID)),
					slog.String("error", err.Error()))
			}
			return
		}
		handler(data)
	}
}

// WritePump pumps queued messages to the peer and keeps the connection
// alive with pings. Runs on its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
