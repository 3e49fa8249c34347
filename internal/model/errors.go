package model

import "errors"

// Common errors used across the application
var (
	// Room manager errors
	ErrInvalidRoomID   = errors.New("room id required")
	ErrDuplicateRoom   = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrInvalidPassword = errors.New("invalid room password")

	// Simulation errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrGameFinished        = errors.New("game is finished")

	// Storage errors
	ErrSessionNotFound = errors.New("session not found")
)
