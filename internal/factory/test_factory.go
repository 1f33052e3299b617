package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	memchannel "github.com/mcoot/cloudserver/internal/channel/memory"
	"github.com/mcoot/cloudserver/internal/dependencies/mocks"
	"github.com/mcoot/cloudserver/internal/services/auth"
	"github.com/mcoot/cloudserver/internal/services/server"
	"github.com/mcoot/cloudserver/internal/storage/memory"
	"github.com/mcoot/cloudserver/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// In-process channel shared by the server and simulated clients
	Bus *memchannel.Bus

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App serving targets over an in-process bus with
// memory storage and mocked dependencies
func NewTestApp(cfg server.Config, targets ...server.Target) *TestApp {
	logger := testutil.NopLogger()
	store := memory.New()
	bus := memchannel.NewBus(logger)
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 10 * time.Millisecond
	}

	app := newWithDependencies(store, bus, mockClock, mockRandom, auth.Config{Cost: bcrypt.MinCost}, targets, cfg, logger)

	return &TestApp{
		App:        app,
		Bus:        bus,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
