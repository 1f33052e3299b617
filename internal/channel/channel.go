// Package channel defines the shared-variable transport the server talks
// through: a handful of named slots that any connected party can set.
package channel

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a channel after it has disconnected
	ErrClosed = errors.New("channel closed")
	// ErrUnencodable is returned for text containing characters outside the numeric alphabet
	ErrUnencodable = errors.New("text cannot be numerically encoded")
	// ErrValueTooLong is returned when an encoded value exceeds the slot limit
	ErrValueTooLong = errors.New("encoded value too long")
	// ErrInvalidEncoding is returned when decoding a value that is not a numeric encoding
	ErrInvalidEncoding = errors.New("invalid numeric encoding")
)

// Slot labels used by the service
const (
	LabelQueue       = "Queue"
	LabelCurrentUser = "Current User"
	LabelMain        = "Main"
)

// IdleValue is the resting value of every slot
const IdleValue = "0"

// Variant selects which hosting platform a project's channel lives on
type Variant string

const (
	VariantScratch   Variant = "scratch"
	VariantTurbowarp Variant = "turbowarp"
)

// ParseVariant validates a variant name
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantScratch, VariantTurbowarp:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("unknown channel variant %q", s)
	}
}

// Event is a slot change observed on the channel
type Event struct {
	Name  string
	Value string
	// Source identifies the writing connection when known
	Source string
}

// Channel is one live connection to a project's slots
type Channel interface {
	// Name maps a label like "Main" to the slot name used on the wire
	Name(label string) string
	// Set writes a slot
	Set(ctx context.Context, name, value string) error
	// Subscribe returns a stream of slot changes made by other parties and
	// a function that ends the subscription
	Subscribe() (<-chan Event, func())
	// Encode converts text to the channel's numeric representation
	Encode(text string) (string, error)
	// Decode reverses Encode
	Decode(value string) (string, error)
	// Done is closed when the connection ends
	Done() <-chan struct{}
	// Err reports why the connection ended, nil while it is open
	Err() error
	// Close disconnects
	Close() error
}

// Connector opens channels for a project
type Connector interface {
	Connect(ctx context.Context, projectID string, variant Variant) (Channel, error)
}
