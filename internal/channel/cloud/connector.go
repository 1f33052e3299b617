// Package cloud connects to hosted cloud-variable servers over websockets.
// The wire protocol is newline-delimited JSON: a handshake naming the user
// and project, then set messages in both directions.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/cloudserver/internal/channel"
)

// Connector dials cloud servers
type Connector struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewConnector creates a Connector
func NewConnector(cfg Config, logger *slog.Logger) *Connector {
	return &Connector{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: logger.With(slog.String("component", "cloud")),
	}
}

// Ensure Connector implements the connector interface
var _ channel.Connector = (*Connector)(nil)

// Connect dials the variant's endpoint and performs the handshake
func (c *Connector) Connect(ctx context.Context, projectID string, variant channel.Variant) (channel.Channel, error) {
	endpoint, ok := c.cfg.Endpoints[variant]
	if !ok {
		return nil, fmt.Errorf("no endpoint for variant %q", variant)
	}

	header := http.Header{}
	if c.cfg.UserAgent != "" {
		header.Set("User-Agent", c.cfg.UserAgent)
	}
	if variant == channel.VariantScratch {
		header.Set("Origin", scratchOrigin)
		if c.cfg.SessionID != "" {
			header.Set("Cookie", fmt.Sprintf("scratchsessionsid=%s; scratchcsrftoken=a; scratchlanguage=en;", c.cfg.SessionID))
		}
	}

	ws, resp, err := c.dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	logger := c.logger.With(
		slog.String("project", projectID),
		slog.String("variant", string(variant)),
	)

	conn := newConn(ws, connParams{
		projectID:    projectID,
		username:     c.cfg.Username,
		writeTimeout: c.cfg.WriteTimeout,
		suppressEcho: c.cfg.SuppressEcho[variant],
	}, logger)

	if err := conn.handshake(ctx); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	go conn.hub.Run()
	go conn.readLoop()

	logger.Info("connected to cloud server", slog.String("endpoint", endpoint))
	return conn, nil
}
