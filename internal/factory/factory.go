// Package factory wires storage, channels and services into a runnable App.
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/channel/cloud"
	"github.com/mcoot/cloudserver/internal/codec"
	"github.com/mcoot/cloudserver/internal/config"
	"github.com/mcoot/cloudserver/internal/dependencies/clock"
	"github.com/mcoot/cloudserver/internal/dependencies/random"
	"github.com/mcoot/cloudserver/internal/services/auth"
	"github.com/mcoot/cloudserver/internal/services/server"
	"github.com/mcoot/cloudserver/internal/services/session"
	"github.com/mcoot/cloudserver/internal/storage"
	"github.com/mcoot/cloudserver/internal/storage/filesystem"
	"github.com/mcoot/cloudserver/internal/storage/memory"
	redisstorage "github.com/mcoot/cloudserver/internal/storage/redis"
	"github.com/mcoot/cloudserver/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeFilesystem = config.StorageFilesystem
	StorageTypeMemory     = config.StorageMemory
	StorageTypeRedis      = config.StorageRedis
	StorageTypeSQLite     = config.StorageSQLite
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Connector channel.Connector

	// Services
	AuthService *auth.Service
	Handler     *session.Handler
	Manager     *server.Manager

	closers []io.Closer
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// StorageConfig selects and configures the record store
type StorageConfig struct {
	// Type is one of the StorageType constants; empty means filesystem
	Type string
	// DataDir is the filesystem backend root
	DataDir string
	// RedisConfig is required when Type is redis
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file for the sqlite backend
	SQLitePath string
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	Storage StorageConfig

	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config

	// Cloud configures the websocket connector
	Cloud cloud.Config
	// Connector overrides the cloud connector when set
	Connector channel.Connector

	Targets []server.Target
	Manager server.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	connector := cfg.Connector
	if connector == nil {
		connector = cloud.NewConnector(cfg.Cloud, logger)
	}

	authCfg := cfg.AuthConfig
	if authCfg.Cost == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, connector, clock.New(), random.New(), authCfg, cfg.Targets, cfg.Manager, logger)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

// NewStorage opens the configured record store. The closer is nil for
// backends that hold no connection.
func NewStorage(ctx context.Context, cfg StorageConfig) (storage.Storage, io.Closer, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = StorageTypeFilesystem
	}

	c, err := codec.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create codec: %w", err)
	}

	switch storageType {
	case StorageTypeFilesystem:
		store, err := filesystem.New(cfg.DataDir, c)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when storage type is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig, c)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, store, nil
	case StorageTypeSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, c)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid storage type %q: must be filesystem, memory, redis or sqlite", storageType)
	}
}

// Targets expands projects into one target per served variant
func Targets(projects []config.Project) []server.Target {
	var targets []server.Target
	for _, p := range projects {
		for _, v := range p.Variants() {
			targets = append(targets, server.Target{ProjectID: p.ID, Variant: v})
		}
	}
	return targets
}

// FromEnv builds a factory Config from loaded settings
func FromEnv(cfg *config.Config, projects []config.Project, settings config.Settings, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = cfg.RedisURL

	cloudCfg := cloud.DefaultConfig()
	cloudCfg.Username = cfg.Username
	cloudCfg.SessionID = cfg.ScratchSessionID

	managerCfg := server.DefaultConfig()
	managerCfg.Session.IdleTimeout = cfg.IdleTimeout
	managerCfg.Session.RequireAccount = cfg.RequireAccount
	managerCfg.ReconnectDelay = cfg.ReconnectDelay
	managerCfg.LogSlots = settings.LogSlots()

	return Config{
		Logger: logger,
		Storage: StorageConfig{
			Type:        cfg.StorageType,
			DataDir:     cfg.DataDir,
			RedisConfig: &redisCfg,
			SQLitePath:  cfg.SQLitePath,
		},
		AuthConfig: auth.Config{Cost: cfg.BcryptCost},
		Cloud:      cloudCfg,
		Targets:    Targets(projects),
		Manager:    managerCfg,
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	connector channel.Connector,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	targets []server.Target,
	managerCfg server.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(authCfg)
	handler := session.NewHandler(store, authService, managerCfg.Session.RequireAccount, logger)
	manager := server.NewManager(targets, connector, handler, clk, rnd, managerCfg, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Connector:   connector,
		AuthService: authService,
		Handler:     handler,
		Manager:     manager,
	}
}
