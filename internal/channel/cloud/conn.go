package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/cloudserver/internal/channel"
)

const slotPrefix = "☁ "

// message is one line of the cloud protocol
type message struct {
	Method    string          `json:"method"`
	User      string          `json:"user,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

type connParams struct {
	projectID    string
	username     string
	writeTimeout time.Duration
	suppressEcho bool
}

// Conn is a live cloud connection
type Conn struct {
	ws     *websocket.Conn
	params connParams
	hub    *channel.Hub
	guard  *channel.EchoGuard
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	err       error
	done      chan struct{}
	closeOnce sync.Once
}

// Ensure Conn implements the channel interface
var _ channel.Channel = (*Conn)(nil)

func newConn(ws *websocket.Conn, params connParams, logger *slog.Logger) *Conn {
	return &Conn{
		ws:     ws,
		params: params,
		hub:    channel.NewHub(logger),
		guard:  channel.NewEchoGuard(),
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (c *Conn) Name(label string) string {
	return slotPrefix + label
}

func (c *Conn) Set(ctx context.Context, name, value string) error {
	select {
	case <-c.done:
		return channel.ErrClosed
	default:
	}
	if len(value) > channel.MaxValueLength {
		return fmt.Errorf("%w: %d digits", channel.ErrValueTooLong, len(value))
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.params.suppressEcho {
		c.guard.Expect(name, value)
	}
	return c.write(ctx, message{
		Method:    "set",
		User:      c.params.username,
		ProjectID: c.params.projectID,
		Name:      name,
		Value:     raw,
	})
}

func (c *Conn) Subscribe() (<-chan channel.Event, func()) {
	return c.hub.Subscribe()
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

func (c *Conn) handshake(ctx context.Context) error {
	return c.write(ctx, message{
		Method:    "handshake",
		User:      c.params.username,
		ProjectID: c.params.projectID,
	})
}

func (c *Conn) write(ctx context.Context, msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	deadline := time.Now().Add(c.params.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	err = c.ws.SetWriteDeadline(deadline)
	if err == nil {
		err = c.ws.WriteMessage(websocket.TextMessage, data)
	}
	c.writeMu.Unlock()

	if err != nil {
		err = fmt.Errorf("write: %w", err)
		c.shutdown(err)
		return err
	}
	return nil
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = channel.ErrClosed
			}
			c.shutdown(err)
			return
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			c.handleLine(line)
		}
	}
}

func (c *Conn) handleLine(line []byte) {
	var msg message
	if err := json.Unmarshal(line, &msg); err != nil {
		c.logger.Warn("invalid cloud message", slog.String("error", err.Error()))
		return
	}
	if msg.Method != "set" {
		return
	}

	value, err := valueString(msg.Value)
	if err != nil {
		c.logger.Warn("invalid cloud value",
			slog.String("slot", msg.Name),
			slog.String("error", err.Error()))
		return
	}
	if c.params.suppressEcho && c.guard.Suppress(msg.Name, value) {
		return
	}
	c.hub.Publish(channel.Event{Name: msg.Name, Value: value, Source: msg.User})
}

// valueString accepts values sent either as JSON strings or numbers
func valueString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("missing value")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return strings.TrimSpace(n.String()), nil
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()

		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.ws.Close()

		c.hub.Close()
		close(c.done)
		c.logger.Info("cloud connection closed", slog.String("reason", err.Error()))
	})
}
