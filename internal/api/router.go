package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openarcade/roomhost/internal/api/apierr"
	"github.com/openarcade/roomhost/internal/api/handler"
	"github.com/openarcade/roomhost/internal/api/response"
	"github.com/openarcade/roomhost/internal/gateway"
	"github.com/openarcade/roomhost/internal/middleware"
	"github.com/openarcade/roomhost/internal/room"
	"github.com/openarcade/roomhost/internal/storage"
)

// RouterConfig holds the collaborators the router serves
type RouterConfig struct {
	Logger  *slog.Logger
	Manager *room.Manager
	Storage storage.Storage
	Gateway *gateway.Gateway
}

// NewRouter creates the API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Manager)
	sessionHandler := handler.NewSessionHandler(cfg.Storage)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Room lifecycle
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)

	// Realtime attach; the gateway takes over the connection
	api.HandleFunc("/rooms/{id}/ws", cfg.Gateway.Attach).Methods(http.MethodGet)

	// Session history
	api.HandleFunc("/rooms/{id}/sessions", sessionHandler.ListByRoom).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
