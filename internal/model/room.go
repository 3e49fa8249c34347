package model

import (
	"encoding/json"
	"time"
)

// RoomID uniquely identifies a room
type RoomID string

// ConnID identifies a transport connection, distinct from any participant
type ConnID string

// GameType selects which simulation variant a room runs
type GameType string

const (
	GameTypeShooter      GameType = "shooter"
	GameTypeRacer        GameType = "racer"
	GameTypeTowerDefence GameType = "towerdefence"
	GameTypeQuiz         GameType = "quiz"
)

// RoomStatus represents the lifecycle phase of a room
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// RoomConfig holds recognized room creation options.
// Unrecognized keys in the inbound config payload are ignored, not rejected.
type RoomConfig struct {
	Name            string          `json:"name"`
	MaxParticipants int             `json:"maxParticipants"`
	Password        string          `json:"password"`
	HostRef         string          `json:"hostRef"`
	Tuning          json.RawMessage `json:"tuning"`
}

// DefaultRoomConfig returns the config applied when options are absent
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MaxParticipants: 8,
	}
}

// ParseRoomConfig decodes creation options from a loose JSON payload.
// Unknown keys and malformed values fall back to defaults.
func ParseRoomConfig(raw json.RawMessage) RoomConfig {
	cfg := DefaultRoomConfig()
	if len(raw) == 0 {
		return cfg
	}
	var in RoomConfig
	if err := json.Unmarshal(raw, &in); err != nil {
		return cfg
	}
	if in.Name != "" {
		cfg.Name = in.Name
	}
	if in.MaxParticipants > 0 {
		cfg.MaxParticipants = in.MaxParticipants
	}
	cfg.Password = in.Password
	cfg.HostRef = in.HostRef
	cfg.Tuning = in.Tuning
	return cfg
}

// RoomInfo is the public listing view of a room. It carries no password material.
type RoomInfo struct {
	ID           RoomID     `json:"id"`
	Name         string     `json:"name"`
	GameType     GameType   `json:"gameType"`
	Status       RoomStatus `json:"status"`
	Participants int        `json:"participants"`
	Capacity     int        `json:"capacity"`
	HasPassword  bool       `json:"hasPassword"`
	CreatedAt    time.Time  `json:"createdAt"`
}
