package response

import (
	"time"

	"github.com/openarcade/roomhost/internal/model"
)

// Room is the public view of a room
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	GameType     string    `json:"gameType"`
	Status       string    `json:"status"`
	Participants int       `json:"participants"`
	Capacity     int       `json:"capacity"`
	HasPassword  bool      `json:"hasPassword"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromRoomInfo converts a room listing entry to its response form
func FromRoomInfo(info model.RoomInfo) Room {
	return Room{
		ID:           string(info.ID),
		Name:         info.Name,
		GameType:     string(info.GameType),
		Status:       string(info.Status),
		Participants: info.Participants,
		Capacity:     info.Capacity,
		HasPassword:  info.HasPassword,
		CreatedAt:    info.CreatedAt,
	}
}

// RoomList wraps the room listing
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Session is the recorded history of one finished or in-flight game session
type Session struct {
	ID            string              `json:"id"`
	RoomID        string              `json:"roomId"`
	GameType      string              `json:"gameType"`
	StartedAt     time.Time           `json:"startedAt"`
	CompletedAt   *time.Time          `json:"completedAt,omitempty"`
	Results       []model.ResultEntry `json:"results,omitempty"`
	FinalSnapshot any                 `json:"finalSnapshot,omitempty"`
}

// SessionList wraps a room's session history
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
