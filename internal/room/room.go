package room

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/report"
	"github.com/openarcade/roomhost/internal/sim"
	"github.com/openarcade/roomhost/internal/ws"
)

// Room pairs one simulation instance with the connections attached to it.
// All access to the simulation goes through the room's mutex, so inputs,
// ticks, joins, and leaves are serialised per room; rooms never share
// state with each other.
type Room struct {
	ID        model.RoomID
	Name      string
	GameType  model.GameType
	CreatedAt time.Time

	capacity     int
	passwordHash []byte
	hostRef      string

	hub        *ws.Hub
	dispatcher *report.Dispatcher
	logger     *slog.Logger

	mu             sync.Mutex
	sim            sim.Simulation
	conns          map[model.ConnID]bool // value: true when the conn is a participant
	lastTick       time.Time
	tick           uint64
	closed         bool
	sessionStarted bool
	reported       bool
	sessionID      model.SessionID
	walletByConn   map[model.ConnID]string
	attestRefs     map[model.ConnID]string
}

func newRoom(id model.RoomID, name string, gameType model.GameType, capacity int, passwordHash []byte, hostRef string, s sim.Simulation, dispatcher *report.Dispatcher, createdAt time.Time, logger *slog.Logger) *Room {
	return &Room{
		ID:           id,
		Name:         name,
		GameType:     gameType,
		CreatedAt:    createdAt,
		capacity:     capacity,
		passwordHash: passwordHash,
		hostRef:      hostRef,
		hub:          ws.NewHub(id, logger),
		dispatcher:   dispatcher,
		logger:       logger.With(slog.String("room", string(id))),
		sim:          s,
		conns:        make(map[model.ConnID]bool),
		walletByConn: make(map[model.ConnID]string),
		attestRefs:   make(map[model.ConnID]string),
	}
}

// Hub exposes the room's broadcast hub for connection registration
func (r *Room) Hub() *ws.Hub {
	return r.hub
}

// HasPassword reports whether the room requires a password to join
func (r *Room) HasPassword() bool {
	return len(r.passwordHash) > 0
}

// Join adds a connection as a playing participant. A connection id that
// already holds a participant slot rejoins it: if that participant was
// eliminated the slot is reset to a fresh one, otherwise the existing
// slot is reused as-is.
func (r *Room) Join(connID model.ConnID, displayName, walletRef string) (model.ParticipantView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return model.ParticipantView{}, model.ErrRoomNotFound
	}

	pid := model.ParticipantID(connID)
	if view, ok := r.sim.Participant(pid); ok {
		if view.GameOver {
			// eliminated players come back as a fresh participant
			r.sim.RemoveParticipant(pid)
			fresh, err := r.sim.AddParticipant(pid, displayName, walletRef)
			if err != nil {
				return model.ParticipantView{}, err
			}
			r.conns[connID] = true
			r.walletByConn[connID] = walletRef
			delete(r.attestRefs, connID)
			return fresh, nil
		}
		r.conns[connID] = true
		return view, nil
	}

	if r.sim.ParticipantCount() >= r.capacity {
		return model.ParticipantView{}, model.ErrRoomFull
	}
	view, err := r.sim.AddParticipant(pid, displayName, walletRef)
	if err != nil {
		return model.ParticipantView{}, err
	}
	r.conns[connID] = true
	r.walletByConn[connID] = walletRef
	return view, nil
}

// Attach adds a spectating connection. Spectators receive every broadcast
// but hold no participant slot and count against no capacity limit.
func (r *Room) Attach(connID model.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return model.ErrRoomNotFound
	}
	r.conns[connID] = false
	return nil
}

// Leave detaches a connection, removing its participant slot if it held
// one. A participant whose game has concluded keeps its slot in read-only
// form so a later reconnect can reattach; it is discarded with the room.
// Idempotent. Returns true when no connections remain and the room should
// be torn down.
func (r *Room) Leave(connID model.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	participant, present := r.conns[connID]
	if present {
		delete(r.conns, connID)
		delete(r.walletByConn, connID)
		if participant {
			pid := model.ParticipantID(connID)
			if view, ok := r.sim.Participant(pid); !ok || !view.GameOver {
				r.sim.RemoveParticipant(pid)
			}
		}
	}
	return len(r.conns) == 0
}

// ApplyInput forwards a raw input payload to the simulation immediately,
// outside the tick cadence. Unknown connection ids and spectators are
// ignored.
func (r *Room) ApplyInput(connID model.ConnID, payload json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if participant, ok := r.conns[connID]; !ok || !participant {
		return
	}
	r.sim.ApplyInput(model.ParticipantID(connID), payload)
}

// Tick advances the simulation by the elapsed wall time since the last
// tick, drains events, reports lifecycle transitions, and broadcasts a
// snapshot envelope to every attached connection.
func (r *Room) Tick(now time.Time) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	var delta time.Duration
	if !r.lastTick.IsZero() {
		delta = now.Sub(r.lastTick)
	}
	r.lastTick = now
	if delta < 0 {
		delta = 0
	}

	before := r.sim.Status()
	r.sim.Advance(delta)
	after := r.sim.Status()
	r.tick++

	events := r.sim.DrainEvents()
	snapshot := r.sim.Snapshot()
	tick := r.tick
	conns := make([]model.ConnID, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	personal := r.personalViews()

	if before == model.RoomStatusWaiting && after != model.RoomStatusWaiting && !r.sessionStarted {
		r.sessionStarted = true
		r.dispatcher.StartSession(r.ID, r.GameType, r.hostRef, func(id model.SessionID) {
			r.mu.Lock()
			r.sessionID = id
			r.mu.Unlock()
		})
	}

	var finished bool
	for _, ev := range events {
		if ev.Type == model.EventGameOver && !r.reported {
			r.reported = true
			finished = true
		}
	}
	var results []model.ResultEntry
	var wallets map[model.ConnID]string
	var sessionID model.SessionID
	if finished {
		results = r.sim.Results()
		sessionID = r.sessionID
		wallets = make(map[model.ConnID]string, len(r.walletByConn))
		for c, w := range r.walletByConn {
			wallets[c] = w
		}
	}
	r.mu.Unlock()

	if finished {
		r.completeSession(sessionID, results, snapshot, wallets)
	}

	r.sendSnapshot(model.Envelope{
		Type:  model.MsgSnapshot,
		Room:  r.ID,
		Tick:  tick,
		State: snapshot,
	}, conns, personal)
	for _, ev := range events {
		e := ev
		r.broadcast(model.Envelope{
			Type:  model.MsgEvent,
			Room:  r.ID,
			Tick:  tick,
			Event: &e,
		})
	}
}

// personalViews builds the per-connection participant views that carry an
// attestation reference, so the ref stays visible in every later snapshot
// even when the one-shot attestation event frame was dropped. Called with
// the room lock held.
func (r *Room) personalViews() map[model.ConnID]model.ParticipantView {
	if len(r.attestRefs) == 0 {
		return nil
	}
	personal := make(map[model.ConnID]model.ParticipantView, len(r.attestRefs))
	for connID, ref := range r.attestRefs {
		if _, attached := r.conns[connID]; !attached {
			continue
		}
		if view, ok := r.sim.Participant(model.ParticipantID(connID)); ok {
			view.AttestationRef = ref
			personal[connID] = view
		}
	}
	return personal
}

// sendSnapshot delivers the tick snapshot: one broadcast when no view is
// personalized, otherwise per-connection sends with the owner's view
// attached
func (r *Room) sendSnapshot(env model.Envelope, conns []model.ConnID, personal map[model.ConnID]model.ParticipantView) {
	if len(personal) == 0 {
		r.broadcast(env)
		return
	}
	base, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("marshal envelope", slog.Any("error", err))
		return
	}
	for _, connID := range conns {
		view, ok := personal[connID]
		if !ok {
			r.hub.SendTo(connID, base)
			continue
		}
		env.Participant = &view
		data, err := json.Marshal(env)
		if err != nil {
			continue
		}
		r.hub.SendTo(connID, data)
	}
}

// completeSession records the finished session and requests an attestation
// for every result that carries a wallet reference. Attestation outcomes
// are pushed back to the owning connection when it is still attached.
func (r *Room) completeSession(sessionID model.SessionID, results []model.ResultEntry, snapshot any, wallets map[model.ConnID]string) {
	r.dispatcher.CompleteSession(sessionID, results, snapshot)

	for _, res := range results {
		if res.WalletRef == "" {
			continue
		}
		res := res
		connID := model.ConnID(res.ParticipantRef)
		if w, ok := wallets[connID]; !ok || w != res.WalletRef {
			continue
		}
		r.dispatcher.Attest(report.AttestRequest{
			WalletRef: res.WalletRef,
			Score:     res.Score,
			Metrics:   res.Metrics,
			GameType:  r.GameType,
		}, func(txRef string) {
			r.mu.Lock()
			closed := r.closed
			if !closed {
				r.attestRefs[connID] = txRef
			}
			r.mu.Unlock()
			if closed {
				return
			}
			data, _ := json.Marshal(map[string]string{"txRef": txRef, "walletRef": res.WalletRef})
			ev := model.Event{
				Type:        model.EventAttestation,
				Participant: model.ParticipantID(res.ParticipantRef),
				Data:        data,
			}
			env, err := json.Marshal(model.Envelope{
				Type:  model.MsgEvent,
				Room:  r.ID,
				Event: &ev,
			})
			if err != nil {
				return
			}
			r.hub.SendTo(connID, env)
		})
	}
}

func (r *Room) broadcast(env model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("marshal envelope", slog.Any("error", err))
		return
	}
	r.hub.Broadcast(data)
}

// Close marks the room dead and disconnects everyone. Further joins,
// inputs, and ticks become no-ops.
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.hub.Close()
}

// closeIfEmpty marks the room closed only when no connections remain,
// so a join that lands between the emptying leave and teardown keeps the
// room alive. Returns whether the room is closed.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return true
	}
	if len(r.conns) > 0 {
		return false
	}
	r.closed = true
	return true
}

// Info returns the room's public listing entry
func (r *Room) Info() model.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.RoomInfo{
		ID:           r.ID,
		Name:         r.Name,
		GameType:     r.GameType,
		Status:       r.sim.Status(),
		Participants: r.sim.ParticipantCount(),
		Capacity:     r.capacity,
		HasPassword:  len(r.passwordHash) > 0,
		CreatedAt:    r.CreatedAt,
	}
}

// Status returns the simulation's current lifecycle status
func (r *Room) Status() model.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Status()
}
