package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openarcade/roomhost/internal/model"
)

// SessionRecord is the durable trace of one room's play session
type SessionRecord struct {
	ID            model.SessionID     `json:"id"`
	RoomID        model.RoomID        `json:"roomId"`
	GameType      model.GameType      `json:"gameType"`
	HostRef       string              `json:"hostRef,omitempty"`
	StartedAt     time.Time           `json:"startedAt"`
	CompletedAt   time.Time           `json:"completedAt,omitempty"`
	Results       []model.ResultEntry `json:"results,omitempty"`
	FinalSnapshot json.RawMessage     `json:"finalSnapshot,omitempty"`
}

// Completed reports whether the session has finished
func (r *SessionRecord) Completed() bool {
	return !r.CompletedAt.IsZero()
}

// Storage defines the interface for session-history persistence
type Storage interface {
	// SaveSession upserts a session record
	SaveSession(ctx context.Context, rec *SessionRecord) error

	// GetSession fetches one session by id
	GetSession(ctx context.Context, id model.SessionID) (*SessionRecord, error)

	// ListSessions returns the recorded sessions for a room, most recent
	// first
	ListSessions(ctx context.Context, roomID model.RoomID) ([]*SessionRecord, error)
}
