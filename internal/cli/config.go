package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds settings for the inspection commands
type Config struct {
	ServerURL string `env:"CLOUDSERVER_URL" envDefault:"http://localhost:8080"`
	Output    string `env:"CLOUDSERVER_OUTPUT" envDefault:"text"`
}

// DefaultConfig reads the environment, falling back to built-in defaults
// when it cannot be parsed
func DefaultConfig() *Config {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return &Config{ServerURL: "http://localhost:8080", Output: OutputText}
	}
	return &c
}

// Validate checks the flag-adjusted config
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server url is required")
	}
	return nil
}
