package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openarcade/roomhost/internal/api/apierr"
	"github.com/openarcade/roomhost/internal/api/response"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/storage"
)

// SessionHandler serves recorded session history
type SessionHandler struct {
	storage storage.Storage
}

// NewSessionHandler creates a session handler
func NewSessionHandler(store storage.Storage) *SessionHandler {
	return &SessionHandler{storage: store}
}

// Get handles GET /sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])
	rec, err := h.storage.GetSession(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, toSessionResponse(rec))
}

// ListByRoom handles GET /rooms/{id}/sessions
func (h *SessionHandler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])
	recs, err := h.storage.ListSessions(r.Context(), roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	sessions := make([]response.Session, 0, len(recs))
	for _, rec := range recs {
		sessions = append(sessions, toSessionResponse(rec))
	}
	response.JSON(w, http.StatusOK, response.SessionList{Sessions: sessions})
}

func toSessionResponse(rec *storage.SessionRecord) response.Session {
	resp := response.Session{
		ID:        string(rec.ID),
		RoomID:    string(rec.RoomID),
		GameType:  string(rec.GameType),
		StartedAt: rec.StartedAt,
		Results:   rec.Results,
	}
	if rec.Completed() {
		t := rec.CompletedAt
		resp.CompletedAt = &t
	}
	if len(rec.FinalSnapshot) > 0 {
		var snapshot any
		if err := json.Unmarshal(rec.FinalSnapshot, &snapshot); err == nil {
			resp.FinalSnapshot = snapshot
		}
	}
	return resp
}
