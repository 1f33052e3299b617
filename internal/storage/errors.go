package storage

import (
	"errors"
	"fmt"

	"github.com/mcoot/cloudserver/internal/model"
)

// Error describes a failed storage operation for a user. It wraps the
// underlying cause so errors.Is still matches the model sentinels.
type Error struct {
	Op   string
	User model.UserID
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s for user %s: %v", e.Op, e.User, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap annotates err with the operation and user. nil stays nil.
func Wrap(op string, user model.UserID, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, User: user, Err: err}
}

// IsNotFound returns true for any of the record-absent sentinels
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrAccountNotFound) ||
		errors.Is(err, model.ErrPlayedGamesNotFound) ||
		errors.Is(err, model.ErrGameDataNotFound)
}
