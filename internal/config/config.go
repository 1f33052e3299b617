// Package config loads server settings from the environment and the
// projects and settings JSON files.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageFilesystem = "filesystem"
	StorageMemory     = "memory"
	StorageRedis      = "redis"
	StorageSQLite     = "sqlite"
)

// Config is the server configuration
type Config struct {
	DataDir      string `env:"CLOUDSERVER_DATA_DIR" envDefault:"./data"`
	ProjectsFile string `env:"CLOUDSERVER_PROJECTS_FILE" envDefault:"./projects.json"`
	SettingsFile string `env:"CLOUDSERVER_SETTINGS_FILE" envDefault:"./settings.json"`

	// Username is the account the server connects as
	Username         string `env:"CLOUDSERVER_USERNAME"`
	ScratchSessionID string `env:"CLOUDSERVER_SCRATCH_SESSION_ID"`

	StorageType string `env:"CLOUDSERVER_STORAGE_TYPE" envDefault:"filesystem"`
	RedisURL    string `env:"CLOUDSERVER_REDIS_URL" envDefault:"redis://localhost:6379"`
	SQLitePath  string `env:"CLOUDSERVER_SQLITE_PATH" envDefault:"./data/cloudsave.db"`

	IdleTimeout    time.Duration `env:"CLOUDSERVER_IDLE_TIMEOUT" envDefault:"5m"`
	RequireAccount bool          `env:"CLOUDSERVER_REQUIRE_ACCOUNT" envDefault:"false"`
	ReconnectDelay time.Duration `env:"CLOUDSERVER_RECONNECT_DELAY" envDefault:"5s"`
	BcryptCost     int           `env:"CLOUDSERVER_BCRYPT_COST" envDefault:"10"`

	HTTPAddr     string `env:"CLOUDSERVER_HTTP_ADDR" envDefault:":8080"`
	LogLevel     string `env:"CLOUDSERVER_LOG_LEVEL" envDefault:"info"`
	OtelEndpoint string `env:"CLOUDSERVER_OTEL_ENDPOINT"`
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings needed to serve
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageFilesystem, StorageMemory, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage type %q: must be filesystem, memory, redis or sqlite", c.StorageType)
	}
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("CLOUDSERVER_USERNAME is required")
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative")
	}
	return nil
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
