package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/cloudserver/internal/channel"
)

// Conn is one party's connection to a bus room
type Conn struct {
	id     string
	bus    *Bus
	room   *room
	guard  *channel.EchoGuard
	hub    *channel.Hub
	logger *slog.Logger

	mu       sync.Mutex
	err      error
	done     chan struct{}
	doneOnce sync.Once
}

// Ensure Conn implements the channel interface
var _ channel.Channel = (*Conn)(nil)

// ID identifies the connection as the Source of its events
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Name(label string) string {
	return slotPrefix + label
}

func (c *Conn) Set(ctx context.Context, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.done:
		return channel.ErrClosed
	default:
	}
	return c.bus.set(c, name, value)
}

func (c *Conn) Subscribe() (<-chan channel.Event, func()) {
	return c.hub.Subscribe()
}

// SubscriberCount returns the number of active subscriptions
func (c *Conn) SubscriberCount() int {
	return c.hub.SubscriberCount()
}

func (c *Conn) Encode(text string) (string, error) {
	return channel.EncodeNumeric(text)
}

func (c *Conn) Decode(value string) (string, error) {
	return channel.DecodeNumeric(value)
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) Close() error {
	c.shutdown(channel.ErrClosed)
	return nil
}

// deliver is called with the bus lock held
func (c *Conn) deliver(event channel.Event) {
	if event.Source == c.id && c.guard.Suppress(event.Name, event.Value) {
		return
	}
	c.hub.Publish(event)
}

func (c *Conn) shutdown(err error) {
	c.doneOnce.Do(func() {
		c.bus.leave(c)
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.hub.Close()
		close(c.done)
		c.logger.Debug("memory channel closed", slog.String("conn", c.id))
	})
}
