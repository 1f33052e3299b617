// Package memory is an in-process channel: every connection to the same
// project and variant shares one set of slots.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/cloudserver/internal/channel"
)

const slotPrefix = "☁ "

type roomKey struct {
	project string
	variant channel.Variant
}

type room struct {
	values map[string]string
	conns  map[*Conn]bool
}

// Bus hosts the shared slots for any number of projects
type Bus struct {
	mu     sync.Mutex
	rooms  map[roomKey]*room
	nextID int
	echo   bool
	logger *slog.Logger
}

// Option configures a Bus
type Option func(*Bus)

// WithEcho makes the bus reflect each write back to its writer, the way
// some hosted servers do
func WithEcho() Option {
	return func(b *Bus) { b.echo = true }
}

// NewBus creates an empty bus
func NewBus(logger *slog.Logger, opts ...Option) *Bus {
	b := &Bus{
		rooms:  make(map[roomKey]*room),
		logger: logger.With(slog.String("component", "memory-channel")),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ensure Bus implements the connector interface
var _ channel.Connector = (*Bus)(nil)

// Connect opens a new connection to a project's slots
func (b *Bus) Connect(ctx context.Context, projectID string, variant channel.Variant) (channel.Channel, error) {
	return b.Dial(ctx, projectID, variant)
}

// Dial is Connect returning the concrete connection
func (b *Bus) Dial(ctx context.Context, projectID string, variant channel.Variant) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := channel.ParseVariant(string(variant)); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := roomKey{projectID, variant}
	r, ok := b.rooms[key]
	if !ok {
		r = &room{values: make(map[string]string), conns: make(map[*Conn]bool)}
		b.rooms[key] = r
	}

	b.nextID++
	c := &Conn{
		id:     fmt.Sprintf("conn-%d", b.nextID),
		bus:    b,
		room:   r,
		guard:  channel.NewEchoGuard(),
		hub:    channel.NewHub(b.logger),
		done:   make(chan struct{}),
		logger: b.logger,
	}
	go c.hub.Run()
	r.conns[c] = true
	return c, nil
}

// Value returns the current value of a slot
func (b *Bus) Value(projectID string, variant channel.Variant, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[roomKey{projectID, variant}]
	if !ok {
		return ""
	}
	return r.values[name]
}

// Drop disconnects every connection to a project with the given error,
// simulating a lost server
func (b *Bus) Drop(projectID string, variant channel.Variant, err error) {
	b.mu.Lock()
	r, ok := b.rooms[roomKey{projectID, variant}]
	var conns []*Conn
	if ok {
		for c := range r.conns {
			conns = append(conns, c)
		}
	}
	b.mu.Unlock()

	for _, c := range conns {
		c.shutdown(err)
	}
}

func (b *Bus) set(from *Conn, name, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !from.room.conns[from] {
		return channel.ErrClosed
	}
	from.room.values[name] = value

	event := channel.Event{Name: name, Value: value, Source: from.id}
	for c := range from.room.conns {
		if c == from {
			if !b.echo {
				continue
			}
			c.guard.Expect(name, value)
		}
		c.deliver(event)
	}
	return nil
}

func (b *Bus) leave(c *Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(c.room.conns, c)
}
