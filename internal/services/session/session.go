// Package session serves one admitted user at a time: it publishes the
// user on the current-user slot, answers commands on the main slot and
// persists the user's records until the user ends the session.
package session

import (
	"time"

	"github.com/mcoot/cloudserver/internal/model"
)

// State is a runner's lifecycle stage
type State string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateActive     State = "active"
	StateEnding     State = "ending"
	StateTerminated State = "terminated"
)

// Session is the in-memory state for the user being served
type Session struct {
	ID       string
	User     model.UserID
	Username string
	Action   model.Action
	// ActiveGame is empty until a game is selected
	ActiveGame model.GameID
	Data       model.GameData
	// Account is the record loaded or created during this session
	Account   *model.Account
	StartedAt time.Time
	Commands  int
}

// New creates an empty session for a user
func New(id string, user model.UserID, username string, now time.Time) *Session {
	return &Session{
		ID:        id,
		User:      user,
		Username:  username,
		Action:    model.ActionNone,
		Data:      model.GameData{},
		StartedAt: now,
	}
}

// HasGame returns true once a game has been selected
func (s *Session) HasGame() bool {
	return s.ActiveGame != ""
}

func (s *Session) clearGame() {
	s.ActiveGame = ""
	s.Data = model.GameData{}
}

// Info is a read-only view of a running session for status reporting
type Info struct {
	SessionID  string       `json:"session_id"`
	User       model.UserID `json:"user_id"`
	Username   string       `json:"username"`
	State      State        `json:"state"`
	ActiveGame model.GameID `json:"active_game,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	Commands   int          `json:"commands"`
}
