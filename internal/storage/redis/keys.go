package redis

import (
	"fmt"

	"github.com/openarcade/roomhost/internal/model"
)

// Key prefix for all session-history data
const keyPrefix = "roomhost"

// sessionKey returns the Redis key for a SessionRecord
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// roomSessionsKey returns the Redis key for the LIST of a room's sessions,
// most recent first
func roomSessionsKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:idx:room_sessions:%s", keyPrefix, roomID)
}
