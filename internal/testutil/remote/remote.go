// Package remote simulates a project client on an in-process channel.
package remote

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/channel/memory"
	"github.com/mcoot/cloudserver/internal/model"
)

// Timeout bounds every wait
const Timeout = 2 * time.Second

// Remote is one user's view of a channel
type Remote struct {
	t      testing.TB
	ctx    context.Context
	conn   *memory.Conn
	events <-chan channel.Event

	// ID is the encoded username announced on the queue slot
	ID model.UserID
}

// Dial connects a user named name to the project's channel on bus
func Dial(ctx context.Context, t testing.TB, bus *memory.Bus, projectID string, variant channel.Variant, name string) *Remote {
	t.Helper()
	conn, err := bus.Dial(ctx, projectID, variant)
	require.NoError(t, err)
	events, cancel := conn.Subscribe()
	id, err := channel.EncodeNumeric(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		_ = conn.Close()
	})
	return &Remote{t: t, ctx: ctx, conn: conn, events: events, ID: model.UserID(id)}
}

// Announce asks to join the queue
func (r *Remote) Announce() {
	r.t.Helper()
	require.NoError(r.t, r.conn.Set(r.ctx, r.conn.Name(channel.LabelQueue), string(r.ID)))
}

// AwaitTurn blocks until the server publishes this user as current
func (r *Remote) AwaitTurn() {
	r.t.Helper()
	name := r.conn.Name(channel.LabelCurrentUser)
	deadline := time.After(Timeout)
	for {
		select {
		case e := <-r.events:
			if e.Name == name && e.Value == string(r.ID) {
				return
			}
		case <-deadline:
			r.t.Fatalf("turn never came for %s", r.ID)
		}
	}
}

// Send writes a plain-text command to the main slot
func (r *Remote) Send(msg string) {
	r.t.Helper()
	encoded, err := channel.EncodeNumeric(msg)
	require.NoError(r.t, err)
	require.NoError(r.t, r.conn.Set(r.ctx, r.conn.Name(channel.LabelMain), encoded))
}

// Reply waits for the next server response on the main slot
func (r *Remote) Reply() string {
	r.t.Helper()
	msg, ok := r.next(Timeout)
	if !ok {
		r.t.Fatalf("no reply for %s", r.ID)
	}
	return msg
}

// Call sends msg and returns the reply
func (r *Remote) Call(msg string) string {
	r.t.Helper()
	r.Send(msg)
	return r.Reply()
}

// ExpectSilence fails if a response arrives within d
func (r *Remote) ExpectSilence(d time.Duration) {
	r.t.Helper()
	if msg, ok := r.next(d); ok {
		r.t.Fatalf("unexpected reply %q", msg)
	}
}

// next returns the next decoded response, skipping idle resets and
// other clients' commands
func (r *Remote) next(d time.Duration) (string, bool) {
	name := r.conn.Name(channel.LabelMain)
	deadline := time.After(d)
	for {
		select {
		case e := <-r.events:
			if e.Name != name || e.Value == channel.IdleValue {
				continue
			}
			msg, err := channel.DecodeNumeric(e.Value)
			if err != nil {
				continue
			}
			if strings.HasPrefix(msg, "respond;") || strings.HasPrefix(msg, "received") {
				return msg, true
			}
		case <-deadline:
			return "", false
		}
	}
}
