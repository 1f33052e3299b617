package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/cloudserver/internal/model"
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

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeChannelNotFound = "CHANNEL_NOT_FOUND"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeGameNotFound    = "GAME_NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ErrChannelNotFound is returned for a project/variant that is not served
var ErrChannelNotFound = errors.New("channel not found")

// ErrUserNotFound is returned for a user with no stored records
var ErrUserNotFound = errors.New("user not found")

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

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, ErrChannelNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeChannelNotFound, "Channel not found"}}
	case errors.Is(err, ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrGameDataNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrInvalidUserID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Invalid user id"}}
	case errors.Is(err, model.ErrInvalidGameID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Invalid game id"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
