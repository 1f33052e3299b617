package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/dependencies/clock"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/protocol"
	"github.com/mcoot/cloudserver/internal/storage"
)

const (
	tracerName   = "github.com/mcoot/cloudserver/internal/services/session"
	resetTimeout = 5 * time.Second
)

// Config holds configuration for the session runner
type Config struct {
	// IdleTimeout ends a session after this long without a command; zero disables it
	IdleTimeout time.Duration
	// RequireAccount ignores game and data commands until an account exists
	RequireAccount bool
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		IdleTimeout: 5 * time.Minute,
	}
}

// Runner serves users on one channel, one at a time
type Runner struct {
	ch      channel.Channel
	handler *Handler
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer

	mu      sync.RWMutex
	state   State
	current *Session
}

// NewRunner creates a Runner
func NewRunner(ch channel.Channel, handler *Handler, clk clock.Clock, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		ch:      ch,
		handler: handler,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "session")),
		tracer:  otel.Tracer(tracerName),
		state:   StateIdle,
	}
}

// State returns the runner's current lifecycle stage
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Current describes the session being served, if any
func (r *Runner) Current() (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return Info{}, false
	}
	s := r.current
	return Info{
		SessionID:  s.ID,
		User:       s.User,
		Username:   s.Username,
		State:      r.state,
		ActiveGame: s.ActiveGame,
		StartedAt:  s.StartedAt,
		Commands:   s.Commands,
	}, true
}

// Serve runs one user's session to completion. A nil return means the
// session ended normally (by the user or by idle timeout). Storage errors
// end only this session; channel errors mean the channel is unusable.
func (r *Runner) Serve(ctx context.Context, user model.UserID) (err error) {
	username, decodeErr := r.ch.Decode(string(user))
	if decodeErr != nil {
		username = string(user)
	}
	s := New(uuid.NewString(), user, username, r.clock.Now())

	logger := r.logger.With(
		slog.String("user_id", string(user)),
		slog.String("session_id", s.ID),
	)
	if decodeErr != nil {
		logger.Warn("user id is not a numeric name", slog.String("error", decodeErr.Error()))
	}

	ctx, span := r.tracer.Start(ctx, "session",
		trace.WithAttributes(
			attribute.String("user_id", string(user)),
			attribute.String("session_id", s.ID),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// Starting
	r.transition(StateStarting, s)
	events, unsubscribe := r.ch.Subscribe()
	defer func() {
		// Ending
		r.transition(StateEnding, s)
		unsubscribe()
		r.release(ctx, logger)
		r.transition(StateTerminated, nil)
		logger.Info("session ended",
			slog.Int("commands", s.Commands),
			slog.Duration("duration", r.clock.Since(s.StartedAt)))
	}()

	for _, label := range []string{channel.LabelQueue, channel.LabelCurrentUser, channel.LabelMain} {
		if err := r.ch.Set(ctx, r.ch.Name(label), channel.IdleValue); err != nil {
			return fmt.Errorf("reset %s: %w", label, err)
		}
	}
	if err := r.ch.Set(ctx, r.ch.Name(channel.LabelCurrentUser), string(user)); err != nil {
		return fmt.Errorf("publish current user: %w", err)
	}

	// Active
	r.transition(StateActive, s)
	logger.Info("session started", slog.String("username", username))

	return r.loop(ctx, s, events, logger)
}

func (r *Runner) loop(ctx context.Context, s *Session, events <-chan channel.Event, logger *slog.Logger) error {
	main := r.ch.Name(channel.LabelMain)

	var idle <-chan time.Time
	var timer *time.Timer
	if r.cfg.IdleTimeout > 0 {
		timer = time.NewTimer(r.cfg.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-r.ch.Done():
			return channelErr(r.ch)

		case <-idle:
			logger.Info("session idle, ending", slog.Duration("idle_timeout", r.cfg.IdleTimeout))
			return nil

		case event, ok := <-events:
			if !ok {
				return channelErr(r.ch)
			}
			if event.Name != main || event.Value == channel.IdleValue {
				continue
			}

			msg, err := r.ch.Decode(event.Value)
			if err != nil {
				logger.Debug("ignoring undecodable message", slog.String("value", event.Value))
				continue
			}
			cmd, err := protocol.Parse(msg)
			if err != nil {
				logger.Debug("ignoring message", slog.String("error", err.Error()))
				continue
			}

			if timer != nil {
				timer.Reset(r.cfg.IdleTimeout)
			}
			if _, ok := cmd.(protocol.End); ok {
				return nil
			}

			if err := r.dispatch(ctx, s, cmd, logger); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, s *Session, cmd protocol.Command, logger *slog.Logger) error {
	ctx, span := r.tracer.Start(ctx, "command",
		trace.WithAttributes(attribute.String("command", fmt.Sprintf("%T", cmd))))
	defer span.End()

	r.mu.Lock()
	resp, err := r.handler.Handle(ctx, s, cmd)
	s.Commands++
	r.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var storageErr *storage.Error
		if errors.As(err, &storageErr) {
			logger.Error("storage failure, ending session",
				slog.String("op", storageErr.Op),
				slog.String("error", storageErr.Err.Error()))
		}
		return err
	}
	if resp == nil {
		return nil
	}

	out := resp.Format()
	encoded, err := r.ch.Encode(out)
	if err != nil {
		logger.Warn("response cannot be sent", slog.String("error", err.Error()))
		return nil
	}
	if err := r.ch.Set(ctx, r.ch.Name(channel.LabelMain), encoded); err != nil {
		return fmt.Errorf("send response: %w", err)
	}
	return nil
}

// release clears the current-user slot so nobody sees a stale owner
func (r *Runner) release(ctx context.Context, logger *slog.Logger) {
	select {
	case <-r.ch.Done():
		return
	default:
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetTimeout)
	defer cancel()
	if err := r.ch.Set(ctx, r.ch.Name(channel.LabelCurrentUser), channel.IdleValue); err != nil {
		logger.Warn("failed to clear current user", slog.String("error", err.Error()))
	}
}

func (r *Runner) transition(state State, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	if state == StateTerminated {
		r.current = nil
		return
	}
	if s != nil {
		r.current = s
	}
}

func channelErr(ch channel.Channel) error {
	if err := ch.Err(); err != nil && !errors.Is(err, channel.ErrClosed) {
		return fmt.Errorf("%w: %w", channel.ErrClosed, err)
	}
	return channel.ErrClosed
}
