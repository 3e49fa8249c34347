package sim

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/openarcade/roomhost/internal/dependencies/clock"
	"github.com/openarcade/roomhost/internal/dependencies/random"
	"github.com/openarcade/roomhost/internal/model"
)

// Simulation is the authoritative, tick-advanced game state for one room.
// A simulation is exclusively owned by its room: the room's tick loop and
// input delivery are the only callers, and they are serialized by the room.
type Simulation interface {
	// GameType identifies the variant
	GameType() model.GameType

	// AddParticipant places a new participant and returns its public view.
	// Fails only when the variant cannot accept more participants for
	// reasons of its own (capacity is enforced by the room manager).
	AddParticipant(id model.ParticipantID, displayName, walletRef string) (model.ParticipantView, error)

	// RemoveParticipant drops a participant's bookkeeping.
	// Absent ids are a no-op; bots are never removed this way.
	RemoveParticipant(id model.ParticipantID)

	// Participant reports the current view of a tracked participant,
	// used by the room manager for reconnect handling
	Participant(id model.ParticipantID) (model.ParticipantView, bool)

	// ParticipantCount counts live-tracked player participants (not bots)
	ParticipantCount() int

	// ApplyInput validates, clamps and applies an input payload.
	// Never blocks and never fails: malformed payloads are clamped or
	// defaulted, unknown/dead participants and unstarted games are no-ops.
	ApplyInput(id model.ParticipantID, raw json.RawMessage)

	// Advance progresses physics, AI and timers by the elapsed delta.
	// This is the only place simulation state moves forward.
	Advance(delta time.Duration)

	// Snapshot projects current state to the wire shape. Pure; no
	// server-only secrets leave here.
	Snapshot() any

	// DrainEvents returns lifecycle events accumulated since the last
	// drain and clears the buffer
	DrainEvents() []model.Event

	// Status reports the room-level phase derived from simulation state
	Status() model.RoomStatus

	// Results returns final standings ordered by score, best first.
	// Meaningful once Status is finished.
	Results() []model.ResultEntry
}

// Config carries the shared dependencies handed to every variant constructor
type Config struct {
	// Tuning is the game-type specific slice of the room creation options
	Tuning json.RawMessage
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger
}

// Constructor builds a variant simulation from its config
type Constructor func(cfg Config) (Simulation, error)

// EventBuffer accumulates lifecycle events between tick drains.
// Variants embed one and push into it from Advance.
type EventBuffer struct {
	events []model.Event
}

// Push appends an event
func (b *EventBuffer) Push(e model.Event) {
	b.events = append(b.events, e)
}

// Drain returns all buffered events and clears the buffer
func (b *EventBuffer) Drain() []model.Event {
	out := b.events
	b.events = nil
	return out
}
