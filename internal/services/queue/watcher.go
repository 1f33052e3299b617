package queue

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/model"
)

// Watcher feeds a Queue from the channel's mailbox slot. Any non-idle value
// written there is a user id; the watcher queues it and resets the slot.
type Watcher struct {
	ch       channel.Channel
	queue    *Queue
	logSlots []string
	logger   *slog.Logger

	events      <-chan channel.Event
	unsubscribe func()
}

// NewWatcher creates a Watcher. Changes to the slots labelled in logSlots
// are logged as they arrive. The watcher subscribes immediately so no
// announcement is missed between construction and Run.
func NewWatcher(ch channel.Channel, q *Queue, logSlots []string, logger *slog.Logger) *Watcher {
	names := make([]string, len(logSlots))
	for i, label := range logSlots {
		names[i] = ch.Name(label)
	}
	events, unsubscribe := ch.Subscribe()
	return &Watcher{
		ch:          ch,
		queue:       q,
		logSlots:    names,
		logger:      logger.With(slog.String("component", "queue-watcher")),
		events:      events,
		unsubscribe: unsubscribe,
	}
}

// Run consumes events until ctx is cancelled or the channel closes
func (w *Watcher) Run(ctx context.Context) error {
	defer w.unsubscribe()

	mailbox := w.ch.Name(channel.LabelQueue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.ch.Done():
			return channel.ErrClosed
		case event, ok := <-w.events:
			if !ok {
				return channel.ErrClosed
			}
			if slices.Contains(w.logSlots, event.Name) {
				w.logger.Info("slot set",
					slog.String("slot", event.Name),
					slog.String("value", event.Value))
			}
			if event.Name != mailbox || event.Value == channel.IdleValue || event.Value == "" {
				continue
			}
			w.admit(ctx, model.UserID(event.Value))
		}
	}
}

func (w *Watcher) admit(ctx context.Context, id model.UserID) {
	if !id.Valid() {
		w.logger.Debug("ignoring invalid user id", slog.String("user_id", string(id)))
	} else if w.queue.Push(id) {
		w.logger.Info("adding user to queue",
			slog.String("user_id", string(id)),
			slog.Int("queue_length", w.queue.Len()))
	}

	if err := w.ch.Set(ctx, w.ch.Name(channel.LabelQueue), channel.IdleValue); err != nil {
		w.logger.Warn("failed to reset mailbox", slog.String("error", err.Error()))
	}
}
