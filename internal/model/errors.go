package model

import "errors"

// Common errors used across the application
var (
	// Record errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrPlayedGamesNotFound = errors.New("played games index not found")
	ErrGameDataNotFound    = errors.New("game data not found")

	// Key errors
	ErrInvalidUserID = errors.New("invalid user id")
	ErrInvalidGameID = errors.New("invalid game id")
)
