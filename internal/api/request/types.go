package request

import "encoding/json"

// CreateRoom is the payload for room creation. Config is passed through
// loosely: unrecognized keys are ignored.
type CreateRoom struct {
	ID       string          `json:"id"`
	GameType string          `json:"gameType"`
	Config   json.RawMessage `json:"config,omitempty"`
}
