package model

import "encoding/json"

// Wire message types exchanged over a room connection
const (
	MsgJoined   = "joined"
	MsgSnapshot = "snapshot"
	MsgEvent    = "event"
	MsgError    = "error"
	MsgInput    = "input"
	MsgLeave    = "leave"
)

// Stable rejection codes returned to the originating connection
const (
	CodeDuplicateRoom   = "DUPLICATE_ROOM"
	CodeRoomNotFound    = "ROOM_NOT_FOUND"
	CodeRoomFull        = "ROOM_FULL"
	CodeUnknownGameType = "UNKNOWN_GAME_TYPE"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Envelope is the outbound wire frame for a room connection
type Envelope struct {
	Type string `json:"type"`
	Room RoomID `json:"room,omitempty"`
	Tick uint64 `json:"tick,omitempty"`

	// Joined ack fields
	Participant *ParticipantView `json:"participant,omitempty"`

	// Snapshot payload (game-type specific shape)
	State any `json:"state,omitempty"`

	// Lifecycle event payload
	Event *Event `json:"event,omitempty"`

	// Rejection fields
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// InboundMessage is the inbound wire frame from a room connection
type InboundMessage struct {
	Type string `json:"type"`
	// Payload is the game-type shaped input for MsgInput frames
	Payload json.RawMessage `json:"payload,omitempty"`
}
