package model

import "strings"

// UserID identifies a remote user. It is the encoded username exactly as it
// arrives on the queue mailbox slot and doubles as the storage key.
type UserID string

// Valid reports whether the id is safe to use as a storage key
func (id UserID) Valid() bool {
	return validName(string(id))
}

// Account is the persisted account record for a user
type Account struct {
	Username string `json:"username"`
	// PasswordHash is a bcrypt hash; empty until a password has been set
	PasswordHash string `json:"password,omitempty"`
}

// HasPassword returns true once a password has been stored
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// PlayedGames is the ordered index of game ids a user has played
type PlayedGames []string

// Contains returns true if the game id is in the index
func (p PlayedGames) Contains(id GameID) bool {
	for _, g := range p {
		if g == string(id) {
			return true
		}
	}
	return false
}

// Without returns a copy of the index with the given game removed
func (p PlayedGames) Without(id GameID) PlayedGames {
	out := make(PlayedGames, 0, len(p))
	for _, g := range p {
		if g != string(id) {
			out = append(out, g)
		}
	}
	return out
}

// validName rejects anything that could escape a storage directory
func validName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
