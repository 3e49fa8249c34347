package room

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/openarcade/roomhost/internal/dependencies/clock"
	"github.com/openarcade/roomhost/internal/dependencies/random"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/report"
	"github.com/openarcade/roomhost/internal/scheduler"
	"github.com/openarcade/roomhost/internal/sim"
)

// Manager owns the full set of live rooms. It is the single entry point
// for room lifecycle: creation, joining, leaving, listing, and teardown.
// A Manager is safe for concurrent use; per-room game state is guarded by
// each Room's own lock.
type Manager struct {
	registry   *sim.Registry
	scheduler  *scheduler.Scheduler
	dispatcher *report.Dispatcher
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger

	mu     sync.RWMutex
	rooms  map[model.RoomID]*Room
	byConn map[model.ConnID]model.RoomID
}

// NewManager creates a manager over the given collaborators
func NewManager(registry *sim.Registry, sched *scheduler.Scheduler, dispatcher *report.Dispatcher, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		registry:   registry,
		scheduler:  sched,
		dispatcher: dispatcher,
		clock:      clk,
		random:     rnd,
		logger:     logger.With(slog.String("component", "rooms")),
		rooms:      make(map[model.RoomID]*Room),
		byConn:     make(map[model.ConnID]model.RoomID),
	}
}

// CreateRoom builds a room running the named game type, starts its tick
// timer, and makes it joinable. Room ids are caller-chosen; an id already
// in use is rejected.
func (m *Manager) CreateRoom(id model.RoomID, gameType model.GameType, cfg model.RoomConfig) (model.RoomInfo, error) {
	if id == "" {
		return model.RoomInfo{}, model.ErrInvalidRoomID
	}

	simulation, err := m.registry.New(gameType, sim.Config{
		Tuning: cfg.Tuning,
		Clock:  m.clock,
		Random: m.random,
		Logger: m.logger.With(slog.String("room", string(id))),
	})
	if err != nil {
		return model.RoomInfo{}, err
	}

	var hash []byte
	if cfg.Password != "" {
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return model.RoomInfo{}, err
		}
	}

	name := cfg.Name
	if name == "" {
		name = string(id)
	}

	r := newRoom(id, name, gameType, cfg.MaxParticipants, hash, cfg.HostRef, simulation, m.dispatcher, m.clock.Now(), m.logger)

	m.mu.Lock()
	if _, exists := m.rooms[id]; exists {
		m.mu.Unlock()
		return model.RoomInfo{}, model.ErrDuplicateRoom
	}
	m.rooms[id] = r
	m.mu.Unlock()

	m.scheduler.Start(id, r.Tick)
	m.logger.Info("room created",
		slog.String("room", string(id)),
		slog.String("gameType", string(gameType)))
	return r.Info(), nil
}

// Room looks up a live room by id
func (m *Manager) Room(id model.RoomID) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return r, nil
}

// ValidatePassword checks a join attempt's password against the room's
// hash. Rooms without a password accept any value.
func (m *Manager) ValidatePassword(id model.RoomID, password string) error {
	r, err := m.Room(id)
	if err != nil {
		return err
	}
	if !r.HasPassword() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(r.passwordHash, []byte(password)); err != nil {
		return model.ErrInvalidPassword
	}
	return nil
}

// JoinRoom attaches a connection to a room as a participant
func (m *Manager) JoinRoom(id model.RoomID, connID model.ConnID, displayName, password, walletRef string) (model.ParticipantView, error) {
	if err := m.ValidatePassword(id, password); err != nil {
		return model.ParticipantView{}, err
	}
	r, err := m.Room(id)
	if err != nil {
		return model.ParticipantView{}, err
	}
	view, err := r.Join(connID, displayName, walletRef)
	if err != nil {
		return model.ParticipantView{}, err
	}

	m.mu.Lock()
	m.byConn[connID] = id
	m.mu.Unlock()
	return view, nil
}

// SpectateRoom attaches a connection as a spectator
func (m *Manager) SpectateRoom(id model.RoomID, connID model.ConnID, password string) (*Room, error) {
	if err := m.ValidatePassword(id, password); err != nil {
		return nil, err
	}
	r, err := m.Room(id)
	if err != nil {
		return nil, err
	}
	if err := r.Attach(connID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.byConn[connID] = id
	m.mu.Unlock()
	return r, nil
}

// LeaveRoom detaches a connection from whatever room it is in. Idempotent:
// unknown connections are a no-op. When the last participant and last
// connection are gone the room is torn down.
func (m *Manager) LeaveRoom(connID model.ConnID) {
	m.mu.Lock()
	id, ok := m.byConn[connID]
	if ok {
		delete(m.byConn, connID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	r, err := m.Room(id)
	if err != nil {
		return
	}
	if r.Leave(connID) {
		m.removeRoomIfEmpty(id)
	}
}

// ApplyInput routes a raw input payload to the connection's room
func (m *Manager) ApplyInput(connID model.ConnID, payload json.RawMessage) {
	m.mu.RLock()
	id, ok := m.byConn[connID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	if r, err := m.Room(id); err == nil {
		r.ApplyInput(connID, payload)
	}
}

// removeRoomIfEmpty tears a room down unless a connection attached after
// the emptying leave: the closed mark is taken under the room's lock while
// the manager lock pins the map entry, so a racing join either lands first
// and keeps the room, or finds it closed and is rejected.
func (m *Manager) removeRoomIfEmpty(id model.RoomID) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if !r.closeIfEmpty() {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, id)
	m.mu.Unlock()
	m.scheduler.Stop(id)
	r.Close()
	m.logger.Info("room removed", slog.String("room", string(id)))
}

// removeRoom tears a room down unconditionally, used on shutdown
func (m *Manager) removeRoom(id model.RoomID) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	m.scheduler.Stop(id)
	r.Close()
	m.logger.Info("room removed", slog.String("room", string(id)))
}

// ListActiveRooms returns the public listing of every live room, newest
// first
func (m *Manager) ListActiveRooms() []model.RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	infos := make([]model.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Shutdown stops every room's timer and closes every room
func (m *Manager) Shutdown() {
	m.mu.Lock()
	ids := make([]model.RoomID, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.removeRoom(id)
	}
}
