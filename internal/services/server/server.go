// Package server runs the admission queue and session runner for each
// configured channel and keeps the channels connected.
package server

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/dependencies/clock"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/services/queue"
	"github.com/mcoot/cloudserver/internal/services/session"
	"github.com/mcoot/cloudserver/internal/storage"
)

// Target identifies one channel: a project on one variant
type Target struct {
	ProjectID string          `json:"project_id"`
	Variant   channel.Variant `json:"variant"`
}

func (t Target) String() string {
	return t.ProjectID + "/" + string(t.Variant)
}

// Server serves one connected channel
type Server struct {
	target  Target
	ch      channel.Channel
	queue   *queue.Queue
	watcher *queue.Watcher
	runner  *session.Runner
	logger  *slog.Logger
}

// NewServer wires a queue, watcher and runner onto ch
func NewServer(
	target Target,
	ch channel.Channel,
	handler *session.Handler,
	clk clock.Clock,
	sessionCfg session.Config,
	logSlots []string,
	logger *slog.Logger,
) *Server {
	logger = logger.With(
		slog.String("project", target.ProjectID),
		slog.String("variant", string(target.Variant)),
	)
	q := queue.New()
	return &Server{
		target:  target,
		ch:      ch,
		queue:   q,
		watcher: queue.NewWatcher(ch, q, logSlots, logger),
		runner:  session.NewRunner(ch, handler, clk, sessionCfg, logger),
		logger:  logger.With(slog.String("component", "server")),
	}
}

// Run serves users until ctx is cancelled or the channel fails
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("server started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.watcher.Run(ctx) })
	g.Go(func() error { return s.serve(ctx) })
	err := g.Wait()

	s.logger.Info("server stopped", slog.Any("reason", err))
	return err
}

func (s *Server) serve(ctx context.Context) error {
	for user := range s.queue.Users(ctx) {
		err := s.runner.Serve(ctx, user)
		s.queue.Done(user)

		var storageErr *storage.Error
		switch {
		case err == nil:
			s.logger.Info("done serving user", slog.String("user_id", string(user)))
		case errors.As(err, &storageErr):
			// only this user's session is lost
		default:
			return err
		}
	}
	return ctx.Err()
}

// Status is a point-in-time view of a channel
type Status struct {
	Target
	Serving *session.Info  `json:"serving,omitempty"`
	Queue   []model.UserID `json:"queue"`
}

// Status reports the current session and waiting users
func (s *Server) Status() Status {
	st := Status{Target: s.target}
	if info, ok := s.runner.Current(); ok {
		st.Serving = &info
	}
	_, st.Queue = s.queue.Snapshot()
	return st
}
