package channel

import (
	"log/slog"
	"sync"
)

const (
	hubBufferSize        = 256
	subscriberBufferSize = 16
)

// subscriber queues events without bound so a slow reader never loses one.
// pump moves them onto events in publish order.
type subscriber struct {
	events chan Event

	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func newSubscriber() *subscriber {
	return &subscriber{
		events: make(chan Event, subscriberBufferSize),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

func (s *subscriber) push(event Event) {
	s.mu.Lock()
	s.pending = append(s.pending, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) backlog() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *subscriber) pump() {
	defer close(s.events)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		event := s.pending[0]
		s.pending[0] = Event{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.events <- event:
		case <-s.stop:
			return
		}
	}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.stop) })
}

// Hub fans slot events out to every subscriber of one connection. Events
// are never dropped: each subscriber buffers its own backlog.
type Hub struct {
	subscribers map[*subscriber]bool
	mu          sync.RWMutex
	logger      *slog.Logger

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan Event
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a Hub. Call Run to start delivery.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]bool),
		logger:      logger,
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan Event, hubBufferSize),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			count := len(h.subscribers)
			h.mu.Unlock()
			go sub.pump()
			h.logger.Debug("channel subscriber registered", slog.Int("total_subscribers", count))

		case sub := <-h.unregister:
			h.mu.Lock()
			delete(h.subscribers, sub)
			count := len(h.subscribers)
			h.mu.Unlock()
			sub.close()
			h.logger.Debug("channel subscriber unregistered", slog.Int("total_subscribers", count))

		case event := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.subscribers {
				sub.push(event)
				if n := sub.backlog(); n > 0 && n%1024 == 0 {
					h.logger.Warn("channel subscriber falling behind",
						slog.String("slot", event.Name),
						slog.Int("backlog", n))
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			count := len(h.subscribers)
			for sub := range h.subscribers {
				sub.close()
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			h.logger.Debug("channel hub stopped", slog.Int("disconnected_subscribers", count))
			return
		}
	}
}

// Subscribe registers a new subscriber. Events published after Subscribe
// returns are delivered in order. The stream is closed by the returned
// function or when the hub closes.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	sub := newSubscriber()
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.events)
		return sub.events, func() {}
	}

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			select {
			case h.unregister <- sub:
			case <-h.done:
			}
		})
	}
}

// Publish hands an event to the hub. It blocks while the hub's inbox is
// full, so a fast producer is throttled rather than losing events.
func (h *Hub) Publish(event Event) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

// Close shuts down the hub and closes every subscription
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
