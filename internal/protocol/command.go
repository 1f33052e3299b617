// Package protocol parses the semicolon-delimited messages written to the
// main slot and formats the replies sent back through it.
package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/cloudserver/internal/model"
)

// ErrMalformedCommand is returned for any message that is not a recognized
// command. Such messages are ignored and get no reply.
var ErrMalformedCommand = errors.New("malformed command")

// Separator joins message fields on the wire
const Separator = ";"

// Inbound verbs
const (
	VerbGet    = "get"
	VerbSet    = "set"
	VerbDelete = "delete"
	VerbEnd    = "end"
)

// Keys
const (
	KeyHasAccount = "has account"
	KeyAction     = "action"
	KeyPassword   = "password"
	KeyGame       = "game"
	DataPrefix    = "data/"
)

// Command is a parsed inbound message. The set of implementations is closed.
type Command interface {
	command()
}

// End finishes the current session
type End struct{}

// GetHasAccount asks whether the user has an account record
type GetHasAccount struct{}

// GetData reads one entry of the active game's buffer
type GetData struct {
	Name string
}

// SetAction selects what the following password or delete applies to
type SetAction struct {
	Action model.Action
}

// SetPassword supplies a password for the current action
type SetPassword struct {
	Value string
}

// SetGame selects the active game
type SetGame struct {
	GameID model.GameID
}

// SetData writes one entry of the active game's buffer
type SetData struct {
	Name  string
	Value string
}

// DeleteData removes one entry of the active game's buffer
type DeleteData struct {
	Name string
}

func (End) command()           {}
func (GetHasAccount) command() {}
func (GetData) command()       {}
func (SetAction) command()     {}
func (SetPassword) command()   {}
func (SetGame) command()       {}
func (SetData) command()       {}
func (DeleteData) command()    {}

// Parse turns one inbound message into a Command. The message is split into
// at most three fields so a value may itself contain separators.
func Parse(msg string) (Command, error) {
	fields := strings.SplitN(msg, Separator, 3)
	verb := fields[0]
	key, hasKey := field(fields, 1)
	value, hasValue := field(fields, 2)

	switch verb {
	case VerbEnd:
		return End{}, nil

	case VerbGet:
		switch {
		case !hasKey:
		case key == KeyHasAccount:
			return GetHasAccount{}, nil
		case isDataKey(key):
			return GetData{Name: dataName(key)}, nil
		}

	case VerbSet:
		switch {
		case !hasKey:
		case key == KeyAction:
			if action, ok := model.ParseAction(value); ok && action != model.ActionNone {
				return SetAction{Action: action}, nil
			}
		case key == KeyPassword:
			return SetPassword{Value: value}, nil
		case key == KeyGame:
			id := model.GameID(value)
			if hasValue && id.Valid() {
				return SetGame{GameID: id}, nil
			}
		case isDataKey(key):
			return SetData{Name: dataName(key), Value: value}, nil
		}

	case VerbDelete:
		if hasKey && isDataKey(key) {
			return DeleteData{Name: dataName(key)}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, msg)
}

func field(fields []string, i int) (string, bool) {
	if i < len(fields) {
		return fields[i], true
	}
	return "", false
}

func isDataKey(key string) bool {
	return strings.HasPrefix(key, DataPrefix) && len(key) > len(DataPrefix)
}

func dataName(key string) string {
	return strings.TrimPrefix(key, DataPrefix)
}

// DataKey returns the wire key for a buffer entry
func DataKey(name string) string {
	return DataPrefix + name
}
