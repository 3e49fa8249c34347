package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarcade/roomhost/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(projectRoot, "bin", "roomctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/roomctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
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

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	server := &http.Server{
		Addr:    addr,
		Handler: app.Router(logger),
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			app.Shutdown()
		},
	}
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

// Response types for JSON parsing

type roomResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GameType     string `json:"gameType"`
	Status       string `json:"status"`
	Participants int    `json:"participants"`
	Capacity     int    `json:"capacity"`
	HasPassword  bool   `json:"hasPassword"`
}

type roomListResponse struct {
	Rooms []roomResponse `json:"rooms"`
}

type sessionListResponse struct {
	Sessions []struct {
		ID string `json:"id"`
	} `json:"sessions"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_RoomCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Create a room
	output, err := cli.run("rooms", "create", "arena-1", "shooter",
		"--name", "Friday Arena", "--max-participants", "4")
	require.NoError(t, err, "output: %s", output)

	var created roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	assert.Equal(t, "arena-1", created.ID)
	assert.Equal(t, "Friday Arena", created.Name)
	assert.Equal(t, "shooter", created.GameType)
	assert.Equal(t, "waiting", created.Status)
	assert.Equal(t, 4, created.Capacity)

	// Get it back
	output, err = cli.run("rooms", "get", "arena-1")
	require.NoError(t, err, "output: %s", output)

	var fetched roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	// List shows it
	output, err = cli.run("rooms", "list")
	require.NoError(t, err, "output: %s", output)

	var list roomListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "arena-1", list.Rooms[0].ID)
}

func TestCLI_RoomWithTuningAndPassword(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("rooms", "create", "quiz-1", "quiz",
		"--password", "hunter2", "--tuning", `{"rounds": 3}`)
	require.NoError(t, err, "output: %s", output)

	var created roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	assert.True(t, created.HasPassword)
}

func TestCLI_SessionCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// A room with no play history lists an empty session set
	output, err := cli.run("rooms", "create", "arena-1", "racer")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("sessions", "list", "arena-1")
	require.NoError(t, err, "output: %s", output)

	var sessions sessionListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &sessions))
	assert.Empty(t, sessions.Sessions)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Unknown room
	output, err := cli.run("rooms", "get", "missing")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Unknown game type
	output, err = cli.run("rooms", "create", "r1", "chess")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unknown game type")

	// Duplicate room id
	output, err = cli.run("rooms", "create", "arena-1", "shooter")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("rooms", "create", "arena-1", "quiz")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "already in use")

	// Invalid tuning JSON rejected client-side
	output, err = cli.run("rooms", "create", "r2", "quiz", "--tuning", "{broken")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "invalid tuning json")

	// Unknown session
	output, err = cli.run("sessions", "get", "missing")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")
}
