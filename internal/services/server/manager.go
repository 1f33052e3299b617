package server

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/dependencies/clock"
	"github.com/mcoot/cloudserver/internal/dependencies/random"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/services/session"
)

// Connection states reported by the Manager
const (
	ConnConnecting   = "connecting"
	ConnConnected    = "connected"
	ConnDisconnected = "disconnected"
)

// Config holds configuration for the Manager
type Config struct {
	Session        session.Config
	LogSlots       []string
	ReconnectDelay time.Duration
}

// DefaultConfig returns default manager configuration
func DefaultConfig() Config {
	return Config{
		Session:        session.DefaultConfig(),
		ReconnectDelay: 5 * time.Second,
	}
}

// ChannelStatus is the Manager's view of one target
type ChannelStatus struct {
	Status
	State      string    `json:"state"`
	Since      time.Time `json:"since"`
	Reconnects int       `json:"reconnects"`
	LastError  string    `json:"last_error,omitempty"`
}

type entry struct {
	state      string
	since      time.Time
	reconnects int
	lastErr    error
	server     *Server
}

// Manager keeps a Server running for every target, reconnecting with a
// jittered delay when a channel drops
type Manager struct {
	targets   []Target
	connector channel.Connector
	handler   *session.Handler
	clock     clock.Clock
	random    random.Random
	cfg       Config
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[Target]*entry
}

// NewManager creates a Manager
func NewManager(
	targets []Target,
	connector channel.Connector,
	handler *session.Handler,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	entries := make(map[Target]*entry, len(targets))
	for _, t := range targets {
		entries[t] = &entry{state: ConnDisconnected, since: clk.Now()}
	}
	return &Manager{
		targets:   targets,
		connector: connector,
		handler:   handler,
		clock:     clk,
		random:    rnd,
		cfg:       cfg,
		logger:    logger,
		entries:   entries,
	}
}

// Run serves every target until ctx is cancelled
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range m.targets {
		g.Go(func() error { return m.keepAlive(ctx, t) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *Manager) keepAlive(ctx context.Context, t Target) error {
	logger := m.logger.With(
		slog.String("component", "manager"),
		slog.String("project", t.ProjectID),
		slog.String("variant", string(t.Variant)),
	)

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := random.Jitter(m.random, m.cfg.ReconnectDelay)
			logger.Info("reconnecting", slog.Duration("delay", delay), slog.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		m.update(t, func(e *entry) {
			e.state = ConnConnecting
			if attempt > 0 {
				e.reconnects++
			}
		})

		ch, err := m.connector.Connect(ctx, t.ProjectID, t.Variant)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("failed to connect", slog.String("error", err.Error()))
			m.update(t, func(e *entry) { e.state, e.lastErr = ConnDisconnected, err })
			continue
		}

		srv := NewServer(t, ch, m.handler, m.clock, m.cfg.Session, m.cfg.LogSlots, m.logger)
		m.update(t, func(e *entry) { e.state, e.server = ConnConnected, srv })

		err = srv.Run(ctx)
		_ = ch.Close()
		m.update(t, func(e *entry) { e.state, e.lastErr, e.server = ConnDisconnected, err, nil })

		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("channel lost", slog.String("error", err.Error()))
	}
}

func (m *Manager) update(t Target, fn func(*entry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[t]
	prev := e.state
	fn(e)
	if e.state != prev {
		e.since = m.clock.Now()
	}
}

// Status reports every target, ordered by project then variant
func (m *Manager) Status() []ChannelStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ChannelStatus, 0, len(m.entries))
	for t, e := range m.entries {
		cs := ChannelStatus{
			Status:     Status{Target: t},
			State:      e.state,
			Since:      e.since,
			Reconnects: e.reconnects,
		}
		if e.server != nil {
			cs.Status = e.server.Status()
		}
		if cs.Queue == nil {
			cs.Queue = []model.UserID{}
		}
		if e.lastErr != nil {
			cs.LastError = e.lastErr.Error()
		}
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID < out[j].ProjectID
		}
		return out[i].Variant < out[j].Variant
	})
	return out
}
