package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mcp-client-go/pkg/config"
)

func writeServerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReload(t *testing.T) {
	f := newFleet()
	m := newTestManager(t, f)
	ctx := context.Background()
	require.NoError(t, m.LoadFromObject(ctx, map[string]config.ServerConfig{
		"keep":    stdio("keep"),
		"change":  stdio("change"),
		"drop":    stdio("drop"),
		"disable": stdio("disable"),
	}))
	keep, err := m.GetClient("keep")
	require.NoError(t, err)

	err = m.Reload(ctx, map[string]config.ServerConfig{
		"keep":    stdio("keep"),
		"change":  {Command: "change", Args: []string{"--verbose"}},
		"disable": {Command: "disable", Disabled: true},
		"new":     stdio("new"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"change", "keep", "new"}, m.Servers())

	same, err := m.GetClient("keep")
	require.NoError(t, err)
	assert.Same(t, keep, same)
	assert.Len(t, f.transports("keep"), 1)

	assert.Len(t, f.transports("change"), 2)
	assert.True(t, f.transports("change")[0].IsClosed())
	cfg, _ := m.ServerConfig("change")
	assert.Equal(t, []string{"--verbose"}, cfg.Args)

	assert.True(t, f.latest(t, "drop").IsClosed())
	assert.True(t, f.latest(t, "disable").IsClosed())

	for _, status := range m.GetConnectionStatus() {
		assert.True(t, status.Connected, status.ID)
	}
}

func TestReloadReportsFailures(t *testing.T) {
	f := newFleet(&stubServer{id: "bad", failInit: true})
	m := newTestManager(t, f)
	ctx := context.Background()

	err := m.Reload(ctx, map[string]config.ServerConfig{
		"good": stdio("good"),
		"bad":  stdio("bad"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Equal(t, []ConnectionStatus{
		{ID: "bad", Connected: false, State: "closed"},
		{ID: "good", Connected: true, State: "ready"},
	}, m.GetConnectionStatus())
}

func TestWatchConfigFile(t *testing.T) {
	f := newFleet()
	m := newTestManager(t, f)
	path := writeServerFile(t, `{"mcpServers": {"a": {"command": "a"}}}`)
	require.NoError(t, m.LoadFromFile(context.Background(), path))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.WatchConfigFile(ctx, path) }()

	// the watcher is registered asynchronously; keep rewriting until it is seen
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"mcpServers": {"b": {"command": "b"}}}`), 0o600)
		servers := m.Servers()
		return len(servers) == 1 && servers[0] == "b"
	}, 5*time.Second, 50*time.Millisecond)

	// an unparsable file leaves the running set alone
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": `), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"b"}, m.Servers())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
