package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cloudserver/internal/api"
	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/channel"
	memchannel "github.com/mcoot/cloudserver/internal/channel/memory"
	"github.com/mcoot/cloudserver/internal/factory"
	"github.com/mcoot/cloudserver/internal/services/server"
	"github.com/mcoot/cloudserver/internal/testutil"
	"github.com/mcoot/cloudserver/internal/testutil/remote"
)

var target = server.Target{ProjectID: "1000", Variant: channel.VariantScratch}

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	dataDir    string
}

func newCLIRunner(t *testing.T, serverURL, dataDir string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "cloudserver-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/cloudserver")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		dataDir:    dataDir,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(),
		"CLOUDSERVER_STORAGE_TYPE=filesystem",
		"CLOUDSERVER_DATA_DIR="+r.dataDir,
	)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testStack runs the manager and status API in-process over an in-memory
// channel, with records on disk
type testStack struct {
	bus     *memchannel.Bus
	app     *factory.App
	dataDir string
	url     string
	ctx     context.Context
}

func startTestStack(t *testing.T) *testStack {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	logger := testutil.NopLogger()
	bus := memchannel.NewBus(logger)
	dataDir := t.TempDir()

	managerCfg := server.DefaultConfig()
	managerCfg.ReconnectDelay = 10 * time.Millisecond

	app, err := factory.New(ctx, factory.Config{
		Logger:    logger,
		Storage:   factory.StorageConfig{Type: factory.StorageTypeFilesystem, DataDir: dataDir},
		Connector: bus,
		Targets:   []server.Target{target},
		Manager:   managerCfg,
	})
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	httpServer := api.NewServer(api.NewRouter(api.RouterConfig{
		Logger:  logger,
		Status:  app.Manager,
		Storage: app.Storage,
	}), api.DefaultServerConfig(), logger)

	managerDone := make(chan error, 1)
	go func() { managerDone <- app.Manager.Run(ctx) }()
	go func() { _ = httpServer.Serve(listener) }()

	t.Cleanup(func() {
		cancel()
		_ = httpServer.Shutdown(context.Background())
		select {
		case err := <-managerDone:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("manager did not stop")
		}
		_ = app.Close()
	})

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")
	require.Eventually(t, func() bool {
		return app.Manager.Status()[0].State == server.ConnConnected
	}, 5*time.Second, 10*time.Millisecond)

	return &testStack{bus: bus, app: app, dataDir: dataDir, url: serverURL, ctx: ctx}
}

func (s *testStack) dial(t *testing.T, name string) *remote.Remote {
	return remote.Dial(s.ctx, t, s.bus, target.ProjectID, target.Variant, name)
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("server did not become ready in time")
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	stack := startTestStack(t)
	cli := newCLIRunner(t, stack.url, stack.dataDir)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp response.Health
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_StatusShowsSessionAndQueue(t *testing.T) {
	stack := startTestStack(t)
	cli := newCLIRunner(t, stack.url, stack.dataDir)

	alice := stack.dial(t, "alice")
	bob := stack.dial(t, "bob")

	alice.Announce()
	alice.AwaitTurn()
	assert.Equal(t, "received;false", alice.Call("set;game;level1"))
	bob.Announce()
	require.Eventually(t, func() bool {
		return len(stack.app.Manager.Status()[0].Queue) == 1
	}, 2*time.Second, 10*time.Millisecond)

	output, err := cli.run("status")
	require.NoError(t, err, "output: %s", output)

	var list response.ChannelList
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	require.Len(t, list.Channels, 1)
	st := list.Channels[0]
	assert.Equal(t, server.ConnConnected, st.State)
	require.NotNil(t, st.Serving)
	assert.Equal(t, alice.ID, st.Serving.User)
	assert.Equal(t, "alice", st.Serving.Username)
	assert.Equal(t, "level1", string(st.Serving.ActiveGame))
	assert.Equal(t, bob.ID, st.Queue[0])

	alice.Send("end")
	bob.AwaitTurn()
	bob.Send("end")
}

func TestCLI_InspectSavedGame(t *testing.T) {
	stack := startTestStack(t)
	cli := newCLIRunner(t, stack.url, stack.dataDir)

	carol := stack.dial(t, "carol")
	carol.Announce()
	carol.AwaitTurn()
	assert.Equal(t, "received", carol.Call("set;action;create account"))
	assert.Equal(t, "received", carol.Call("set;password;pa55word"))
	assert.Equal(t, "received;false", carol.Call("set;game;castle"))
	assert.Equal(t, "received", carol.Call("set;data/gold;120"))
	carol.Send("end")

	// Read straight from the data directory
	output, err := cli.run("inspect", "carol")
	require.NoError(t, err, "output: %s", output)

	var user response.User
	require.NoError(t, json.Unmarshal([]byte(output), &user))
	assert.Equal(t, carol.ID, user.ID)
	assert.Equal(t, "carol", user.Username)
	assert.True(t, user.HasPassword)
	assert.Equal(t, []string{"castle"}, user.PlayedGames)

	// Read through the running server
	output, err = cli.run("inspect", "carol", "--remote", "--game", "castle")
	require.NoError(t, err, "output: %s", output)

	var game response.Game
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	assert.Equal(t, "120", game.Data["gold"])
}

func TestCLI_ErrorHandling(t *testing.T) {
	stack := startTestStack(t)
	cli := newCLIRunner(t, stack.url, stack.dataDir)

	output, err := cli.run("inspect", "nobody", "--remote")
	assert.Error(t, err)
	assert.Contains(t, output, "USER_NOT_FOUND")

	output, err = cli.run("status", "9999", "scratch")
	assert.Error(t, err)
	assert.Contains(t, output, "CHANNEL_NOT_FOUND")
}
