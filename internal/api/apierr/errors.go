package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openarcade/roomhost/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError. Error codes are stable
// for clients; messages are advisory.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidRoomID):
		return &httpError{http.StatusBadRequest, APIError{"INVALID_REQUEST", "Room id is required"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{model.CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrDuplicateRoom):
		return &httpError{http.StatusConflict, APIError{model.CodeDuplicateRoom, "Room id already in use"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{model.CodeRoomFull, "Room is at capacity"}}
	case errors.Is(err, model.ErrUnknownGameType):
		return &httpError{http.StatusBadRequest, APIError{model.CodeUnknownGameType, "Unknown game type"}}
	case errors.Is(err, model.ErrInvalidPassword):
		return &httpError{http.StatusForbidden, APIError{model.CodeInvalidPassword, "Invalid room password"}}
	case errors.Is(err, model.ErrParticipantNotFound):
		return &httpError{http.StatusNotFound, APIError{"PARTICIPANT_NOT_FOUND", "Participant not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{"SESSION_NOT_FOUND", "Session not found"}}
	case errors.Is(err, model.ErrGameFinished):
		return &httpError{http.StatusConflict, APIError{"GAME_FINISHED", "Game has already finished"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{model.CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{"INVALID_REQUEST", message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{model.CodeInternalError, "Internal server error"}}
}
