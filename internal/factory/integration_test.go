package factory

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/config"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/services/server"
	"github.com/mcoot/cloudserver/internal/storage/filesystem"
	"github.com/mcoot/cloudserver/internal/storage/memory"
	redisstorage "github.com/mcoot/cloudserver/internal/storage/redis"
	"github.com/mcoot/cloudserver/internal/storage/sqlite"
	"github.com/mcoot/cloudserver/internal/testutil"
	"github.com/mcoot/cloudserver/internal/testutil/remote"
)

var (
	scratchTarget   = server.Target{ProjectID: "1000", Variant: channel.VariantScratch}
	turbowarpTarget = server.Target{ProjectID: "1000", Variant: channel.VariantTurbowarp}
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	ctx    context.Context
	cancel context.CancelFunc
	done   chan error
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.app = NewTestApp(server.DefaultConfig(), scratchTarget, turbowarpTarget)

	s.done = make(chan error, 1)
	go func() { s.done <- s.app.Manager.Run(s.ctx) }()

	s.Require().Eventually(func() bool {
		for _, st := range s.app.Manager.Status() {
			if st.State != server.ConnConnected {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *IntegrationSuite) TearDownTest() {
	s.cancel()
	select {
	case err := <-s.done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("manager did not stop")
	}
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) dial(t server.Target, name string) *remote.Remote {
	return remote.Dial(s.ctx, s.T(), s.app.Bus, t.ProjectID, t.Variant, name)
}

// Test: a user creates an account, plays, leaves and comes back
func (s *IntegrationSuite) TestAccountAndGameAcrossSessions() {
	alice := s.dial(scratchTarget, "alice")

	// Step 1: first session creates the account and saves progress
	alice.Announce()
	alice.AwaitTurn()
	s.Equal("respond;has account;false", alice.Call("get;has account"))
	s.Equal("received", alice.Call("set;action;create account"))
	s.Equal("received", alice.Call("set;password;hunter2"))
	s.Equal("received;false", alice.Call("set;game;level1"))
	s.Equal("received", alice.Call("set;data/score;42"))
	s.Equal("received", alice.Call("set;data/score;42"))
	alice.Send("end")

	// Step 2: second session logs in and resumes
	s.rejoin(scratchTarget, alice)
	alice.AwaitTurn()
	s.Equal("respond;has account;true", alice.Call("get;has account"))
	s.Equal("received", alice.Call("set;action;log in"))
	s.Equal("received;true", alice.Call("set;password;hunter2"))
	s.Equal("received;true", alice.Call("set;game;level1"))
	s.Equal("respond;data/score;42", alice.Call("get;data/score"))
	alice.Send("end")

	account, err := s.app.Storage.GetAccount(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("alice", account.Username)
	s.True(account.HasPassword())
	s.NotEqual("hunter2", account.PasswordHash)
}

// Test: deleting a game removes its data and its index entry
func (s *IntegrationSuite) TestDeleteGame() {
	bob := s.dial(scratchTarget, "bob")

	bob.Announce()
	bob.AwaitTurn()
	s.Equal("received;false", bob.Call("set;game;level2"))
	s.Equal("received;false", bob.Call("set;game;level1"))
	s.Equal("received", bob.Call("set;data/coins;7"))

	bob.Send("set;action;delete game")
	bob.Send("get;data/coins")
	bob.ExpectSilence(100 * time.Millisecond)

	played, err := s.app.Storage.GetPlayedGames(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Equal(model.PlayedGames{"level2"}, played)
	_, err = s.app.Storage.GetGameData(s.ctx, bob.ID, "level1")
	s.ErrorIs(err, model.ErrGameDataNotFound)

	// the game starts over
	s.Equal("received;false", bob.Call("set;game;level1"))
	s.Equal("respond;data/coins;", bob.Call("get;data/coins"))
	bob.Send("end")
}

// Test: users are served one at a time in arrival order
func (s *IntegrationSuite) TestQueueOrder() {
	users := []*remote.Remote{
		s.dial(scratchTarget, "carol"),
		s.dial(scratchTarget, "dave"),
		s.dial(scratchTarget, "erin"),
	}

	users[0].Announce()
	users[0].AwaitTurn()
	users[1].Announce()
	s.Eventually(func() bool { return len(s.status(scratchTarget).Queue) == 1 }, time.Second, 5*time.Millisecond)
	users[2].Announce()
	s.Eventually(func() bool { return len(s.status(scratchTarget).Queue) == 2 }, time.Second, 5*time.Millisecond)

	s.Equal([]model.UserID{users[1].ID, users[2].ID}, s.status(scratchTarget).Queue)

	for i, u := range users {
		if i > 0 {
			u.AwaitTurn()
		}
		s.Equal("respond;has account;false", u.Call("get;has account"))
		u.Send("end")
	}
}

// Test: unrecognised messages produce no output and change nothing
func (s *IntegrationSuite) TestUnknownMessagesIgnored() {
	frank := s.dial(scratchTarget, "frank")

	frank.Announce()
	frank.AwaitTurn()
	frank.Send("launch;rockets")
	frank.Send("set;game;")
	frank.Send("get;score")
	frank.ExpectSilence(100 * time.Millisecond)
	frank.Send("end")

	exists, err := s.app.Storage.AccountExists(s.ctx, frank.ID)
	s.Require().NoError(err)
	s.False(exists)
	_, err = s.app.Storage.GetPlayedGames(s.ctx, frank.ID)
	s.ErrorIs(err, model.ErrPlayedGamesNotFound)
}

// Test: each variant has its own queue and session
func (s *IntegrationSuite) TestVariantsServedIndependently() {
	onScratch := s.dial(scratchTarget, "grace")
	onTurbowarp := s.dial(turbowarpTarget, "heidi")

	onScratch.Announce()
	onScratch.AwaitTurn()
	onTurbowarp.Announce()
	onTurbowarp.AwaitTurn()

	s.Equal("received;false", onTurbowarp.Call("set;game;level1"))
	s.Equal("received;false", onScratch.Call("set;game;level1"))

	onScratch.Send("end")
	onTurbowarp.Send("end")

	s.Eventually(func() bool {
		return s.status(scratchTarget).Serving == nil && s.status(turbowarpTarget).Serving == nil
	}, time.Second, 5*time.Millisecond)
}

// rejoin announces r again once its previous session has been released
func (s *IntegrationSuite) rejoin(t server.Target, r *remote.Remote) {
	s.Require().Eventually(func() bool { return s.status(t).Serving == nil }, time.Second, 5*time.Millisecond)
	s.Require().Eventually(func() bool {
		st := s.status(t)
		if (st.Serving != nil && st.Serving.User == r.ID) || slices.Contains(st.Queue, r.ID) {
			return true
		}
		r.Announce()
		return false
	}, time.Second, 20*time.Millisecond)
}

func (s *IntegrationSuite) status(t server.Target) server.ChannelStatus {
	for _, st := range s.app.Manager.Status() {
		if st.Target == t {
			return st
		}
	}
	s.FailNow("unknown target", t.String())
	return server.ChannelStatus{}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	store, closer, err := NewStorage(ctx, StorageConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &filesystem.Storage{}, store)

	store, closer, err = NewStorage(ctx, StorageConfig{Type: StorageTypeMemory})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &memory.Storage{}, store)

	store, closer, err = NewStorage(ctx, StorageConfig{
		Type:       StorageTypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "cloudsave.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Storage{}, store)
	require.NoError(t, closer.Close())

	mini := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()
	store, closer, err = NewStorage(ctx, StorageConfig{Type: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	assert.IsType(t, &redisstorage.Storage{}, store)
	require.NoError(t, closer.Close())
}

func TestNewStorageErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := NewStorage(ctx, StorageConfig{Type: "floppy"})
	assert.ErrorContains(t, err, "invalid storage type")

	_, _, err = NewStorage(ctx, StorageConfig{Type: StorageTypeRedis})
	assert.ErrorContains(t, err, "RedisConfig required")

	_, _, err = NewStorage(ctx, StorageConfig{Type: StorageTypeFilesystem})
	assert.Error(t, err)
}

func TestTargets(t *testing.T) {
	targets := Targets([]config.Project{
		{ID: "1000", Scratch: true, Turbowarp: true},
		{ID: "2000", Turbowarp: true},
	})
	assert.Equal(t, []server.Target{
		{ProjectID: "1000", Variant: channel.VariantScratch},
		{ProjectID: "1000", Variant: channel.VariantTurbowarp},
		{ProjectID: "2000", Variant: channel.VariantTurbowarp},
	}, targets)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CLOUDSERVER_USERNAME", "server-bot")
	t.Setenv("CLOUDSERVER_SCRATCH_SESSION_ID", "cookie")
	t.Setenv("CLOUDSERVER_IDLE_TIMEOUT", "1m")
	t.Setenv("CLOUDSERVER_REQUIRE_ACCOUNT", "true")
	t.Setenv("CLOUDSERVER_STORAGE_TYPE", "memory")
	env, err := config.Load()
	require.NoError(t, err)

	settings := config.Settings{LogCloudSet: config.LogCloudSet{Active: true, Variables: []string{"Main"}}}
	cfg := FromEnv(env, []config.Project{{ID: "1000", Scratch: true}}, settings, testutil.NopLogger())

	assert.Equal(t, "server-bot", cfg.Cloud.Username)
	assert.Equal(t, "cookie", cfg.Cloud.SessionID)
	assert.Equal(t, time.Minute, cfg.Manager.Session.IdleTimeout)
	assert.True(t, cfg.Manager.Session.RequireAccount)
	assert.Equal(t, []string{"Main"}, cfg.Manager.LogSlots)
	assert.Equal(t, []server.Target{scratchTarget}, cfg.Targets)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, app.Storage)
	assert.NoError(t, app.Close())
}
