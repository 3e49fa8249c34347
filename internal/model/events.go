package model

// EventType identifies a lifecycle event produced by a simulation or the
// room manager and fanned out to attached connections
type EventType string

const (
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventGameStarted       EventType = "game_started"
	EventGameOver          EventType = "game_over"
	EventParticipantOut    EventType = "participant_out"
	EventAttestation       EventType = "attestation"
)

// Event is a lifecycle notification. Simulations accumulate events during
// Advance and the scheduler drains them once per tick.
type Event struct {
	Type        EventType     `json:"type"`
	Participant ParticipantID `json:"participant,omitempty"`
	// Data carries event-specific details (final standings on game_over,
	// transaction refs on attestation)
	Data any `json:"data,omitempty"`
}
