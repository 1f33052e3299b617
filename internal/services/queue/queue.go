// Package queue admits users one at a time: users announce themselves on
// the mailbox slot and are served in arrival order.
package queue

import (
	"context"
	"iter"
	"sync"

	"github.com/mcoot/cloudserver/internal/model"
)

// Queue is a FIFO of users waiting to be served. A user already waiting or
// currently being served is not queued again.
type Queue struct {
	mu      sync.Mutex
	pending []model.UserID
	serving model.UserID
	// waiter is closed by the next Push; nil when nobody is waiting
	waiter chan struct{}
}

// New creates an empty Queue
func New() *Queue {
	return &Queue{}
}

// Push appends a user, reporting false if the user was already waiting or
// being served
func (q *Queue) Push(id model.UserID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if id == q.serving {
		return false
	}
	for _, p := range q.pending {
		if p == id {
			return false
		}
	}
	q.pending = append(q.pending, id)

	if q.waiter != nil {
		close(q.waiter)
		q.waiter = nil
	}
	return true
}

// Next blocks until a user is waiting, then removes and returns it and
// marks it as being served
func (q *Queue) Next(ctx context.Context) (model.UserID, error) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			id := q.pending[0]
			q.pending = q.pending[1:]
			q.serving = id
			q.mu.Unlock()
			return id, nil
		}
		if q.waiter == nil {
			q.waiter = make(chan struct{})
		}
		wait := q.waiter
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Done clears the served marker once a user's session ends
func (q *Queue) Done(id model.UserID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.serving == id {
		q.serving = ""
	}
}

// Users yields users in admission order until ctx is cancelled
func (q *Queue) Users(ctx context.Context) iter.Seq[model.UserID] {
	return func(yield func(model.UserID) bool) {
		for {
			id, err := q.Next(ctx)
			if err != nil {
				return
			}
			if !yield(id) {
				return
			}
		}
	}
}

// Len returns the number of waiting users
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Snapshot returns the user being served (empty if none) and a copy of
// the waiting users
func (q *Queue) Snapshot() (model.UserID, []model.UserID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.serving, append([]model.UserID(nil), q.pending...)
}
