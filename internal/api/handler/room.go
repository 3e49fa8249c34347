package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openarcade/roomhost/internal/api/apierr"
	"github.com/openarcade/roomhost/internal/api/request"
	"github.com/openarcade/roomhost/internal/api/response"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/room"
)

// RoomHandler serves room lifecycle endpoints
type RoomHandler struct {
	manager *room.Manager
}

// NewRoomHandler creates a room handler
func NewRoomHandler(manager *room.Manager) *RoomHandler {
	return &RoomHandler{manager: manager}
}

// Create handles POST /rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoom
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}
	if req.ID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Room id is required"))
		return
	}
	if req.GameType == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Game type is required"))
		return
	}

	cfg := model.ParseRoomConfig(req.Config)
	info, err := h.manager.CreateRoom(model.RoomID(req.ID), model.GameType(req.GameType), cfg)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.FromRoomInfo(info))
}

// List handles GET /rooms
func (h *RoomHandler) List(w http.ResponseWriter, _ *http.Request) {
	infos := h.manager.ListActiveRooms()
	rooms := make([]response.Room, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, response.FromRoomInfo(info))
	}
	response.JSON(w, http.StatusOK, response.RoomList{Rooms: rooms})
}

// Get handles GET /rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])
	rm, err := h.manager.Room(id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.FromRoomInfo(rm.Info()))
}
