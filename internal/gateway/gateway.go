package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/room"
	"github.com/openarcade/roomhost/internal/ws"
)

const rejectWriteWait = 5 * time.Second

// Gateway upgrades HTTP requests into room websocket connections and
// routes inbound frames to the room manager. Each accepted connection
// gets a fresh connection id; for players that id doubles as their
// participant id, so reconnecting with a new socket means a new slot.
type Gateway struct {
	manager  *room.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// New creates a gateway over the room manager
func New(manager *room.Manager, logger *slog.Logger) *Gateway {
	return &Gateway{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from arbitrary origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "gateway")),
	}
}

// Attach handles GET /rooms/{id}/ws. Query parameters: name (display
// name), password, wallet (external wallet reference), spectate.
func (g *Gateway) Attach(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])
	q := r.URL.Query()
	name := q.Get("name")
	password := q.Get("password")
	wallet := q.Get("wallet")
	spectate := q.Get("spectate") == "true" || q.Get("spectate") == "1"

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug("upgrade failed", slog.String("error", err.Error()))
		return
	}

	connID := model.ConnID(uuid.NewString())
	if name == "" {
		name = "player-" + string(connID)[:8]
	}

	if spectate {
		g.attachSpectator(conn, roomID, connID, password)
		return
	}
	g.attachParticipant(conn, roomID, connID, name, password, wallet)
}

func (g *Gateway) attachParticipant(conn *websocket.Conn, roomID model.RoomID, connID model.ConnID, name, password, wallet string) {
	view, err := g.manager.JoinRoom(roomID, connID, name, password, wallet)
	if err != nil {
		g.reject(conn, roomID, err)
		return
	}

	rm, err := g.manager.Room(roomID)
	if err != nil {
		g.manager.LeaveRoom(connID)
		g.reject(conn, roomID, err)
		return
	}

	client := ws.NewClient(rm.Hub(), conn, connID)
	rm.Hub().Register(client)
	go client.WritePump()

	g.sendEnvelope(client, model.Envelope{
		Type:        model.MsgJoined,
		Room:        roomID,
		Participant: &view,
	})

	g.logger.Info("participant attached",
		slog.String("room", string(roomID)),
		slog.String("conn", string(connID)))

	client.ReadPump(func(data []byte) {
		g.handleFrame(conn, connID, data)
	})
	g.manager.LeaveRoom(connID)
}

func (g *Gateway) attachSpectator(conn *websocket.Conn, roomID model.RoomID, connID model.ConnID, password string) {
	rm, err := g.manager.SpectateRoom(roomID, connID, password)
	if err != nil {
		g.reject(conn, roomID, err)
		return
	}

	client := ws.NewClient(rm.Hub(), conn, connID)
	rm.Hub().Register(client)
	go client.WritePump()

	g.sendEnvelope(client, model.Envelope{
		Type: model.MsgJoined,
		Room: roomID,
	})

	g.logger.Info("spectator attached",
		slog.String("room", string(roomID)),
		slog.String("conn", string(connID)))

	// spectators send no inputs; anything but leave is ignored
	client.ReadPump(func(data []byte) {
		var msg model.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		if msg.Type == model.MsgLeave {
			_ = conn.Close()
		}
	})
	g.manager.LeaveRoom(connID)
}

// handleFrame routes one inbound frame from a participant connection.
// Inputs are applied to the simulation immediately rather than queued for
// the next tick.
func (g *Gateway) handleFrame(conn *websocket.Conn, connID model.ConnID, data []byte) {
	var msg model.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		g.logger.Debug("malformed frame",
			slog.String("conn", string(connID)),
			slog.String("error", err.Error()))
		return
	}
	switch msg.Type {
	case model.MsgInput:
		g.manager.ApplyInput(connID, msg.Payload)
	case model.MsgLeave:
		_ = conn.Close()
	}
}

// reject writes an error envelope on a not-yet-registered connection and
// closes it
func (g *Gateway) reject(conn *websocket.Conn, roomID model.RoomID, err error) {
	env := model.Envelope{
		Type:    model.MsgError,
		Room:    roomID,
		Code:    rejectionCode(err),
		Message: err.Error(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(rejectWriteWait))
	_ = conn.WriteJSON(env)
	_ = conn.Close()
}

func rejectionCode(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return model.CodeRoomNotFound
	case errors.Is(err, model.ErrRoomFull):
		return model.CodeRoomFull
	case errors.Is(err, model.ErrInvalidPassword):
		return model.CodeInvalidPassword
	case errors.Is(err, model.ErrUnknownGameType):
		return model.CodeUnknownGameType
	default:
		return model.CodeInternalError
	}
}

func (g *Gateway) sendEnvelope(client *ws.Client, env model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		g.logger.Error("marshal envelope", slog.String("error", err.Error()))
		return
	}
	client.Send(data)
}
