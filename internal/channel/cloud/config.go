package cloud

import (
	"time"

	"github.com/mcoot/cloudserver/internal/channel"
)

// Default cloud data endpoints per variant
const (
	ScratchEndpoint   = "wss://clouddata.scratch.mit.edu"
	TurbowarpEndpoint = "wss://clouddata.turbowarp.org"

	scratchOrigin    = "https://scratch.mit.edu"
	defaultUserAgent = "cloudserver (+https://github.com/mcoot/cloudserver)"
)

// Config holds cloud connection settings
type Config struct {
	// Username is announced in the handshake and attached to every set
	Username string
	// SessionID is the Scratch session cookie value; unused for Turbowarp
	SessionID string
	// UserAgent is required by Turbowarp's server
	UserAgent string

	// Endpoints overrides the websocket URL per variant
	Endpoints map[channel.Variant]string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// SuppressEcho drops events matching this connection's own writes.
	// Turbowarp reflects writes back; Scratch does not.
	SuppressEcho map[channel.Variant]bool
}

// DefaultConfig returns sensible defaults for cloud connections
func DefaultConfig() Config {
	return Config{
		UserAgent: defaultUserAgent,
		Endpoints: map[channel.Variant]string{
			channel.VariantScratch:   ScratchEndpoint,
			channel.VariantTurbowarp: TurbowarpEndpoint,
		},
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		SuppressEcho: map[channel.Variant]bool{
			channel.VariantTurbowarp: true,
		},
	}
}
