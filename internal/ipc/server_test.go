package ipc

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
)

type fakeHandler struct {
	mu      sync.Mutex
	reopens int
	actions []string
	failMon error
}

func (h *fakeHandler) Status() StatusData {
	return StatusData{DaemonRunning: true, Edge: "bottom", Mode: "per-monitor", Panels: 2}
}

func (h *fakeHandler) Monitors() ([]platform.Monitor, error) {
	if h.failMon != nil {
		return nil, h.failMon
	}
	return []platform.Monitor{
		{Handle: 1, Device: "DP-1", Bounds: platform.RectFromXYWH(0, 0, 1920, 1080), Primary: true},
		{Handle: 2, Device: "HDMI-1", Bounds: platform.RectFromXYWH(1920, 0, 1280, 1024)},
	}, nil
}

func (h *fakeHandler) Panels() PanelsData {
	return PanelsData{Panels: []panel.Info{{ID: "01J", Window: 0x500001, Monitor: "DP-1", Edge: "bottom", Registered: true}}}
}

func (h *fakeHandler) Reopen() (ReopenData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reopens++
	return ReopenData{Panels: 2}, nil
}

func (h *fakeHandler) Reload() (ReopenData, error) {
	return ReopenData{}, errors.New("edge: unknown edge")
}

func (h *fakeHandler) HostPanel(action string) (HostPanelData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append(h.actions, action)
	return HostPanelData{Action: action, Changed: 1, Suppressed: action == HostHide}, nil
}

func startServer(t *testing.T, h Handler) *Client {
	t.Helper()
	// Unix socket paths are length limited; t.TempDir can exceed it.
	dir, err := os.MkdirTemp("", "ebipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	srv, err := NewServer(h, filepath.Join(dir, "edgebar.sock"), nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	return NewClientAt(srv.SocketPath())
}

func TestServer_StatusMonitorsPanels(t *testing.T) {
	client := startServer(t, &fakeHandler{})

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.DaemonRunning)
	assert.Equal(t, "per-monitor", status.Mode)
	assert.Equal(t, 2, status.Panels)

	monitors, err := client.GetMonitors()
	require.NoError(t, err)
	require.Len(t, monitors.Monitors, 2)
	assert.Equal(t, MonitorInfo{Handle: 2, Name: "HDMI-1", X: 1920, Y: 0, Width: 1280, Height: 1024}, monitors.Monitors[1])
	assert.True(t, monitors.Monitors[0].Primary)

	panels, err := client.ListPanels()
	require.NoError(t, err)
	require.Len(t, panels.Panels, 1)
	assert.Equal(t, platform.WindowID(0x500001), panels.Panels[0].Window)
}

func TestServer_ReopenAndHostPanel(t *testing.T) {
	h := &fakeHandler{}
	client := startServer(t, h)

	data, err := client.Reopen()
	require.NoError(t, err)
	assert.Equal(t, 2, data.Panels)

	host, err := client.HostPanel(HostHide)
	require.NoError(t, err)
	assert.True(t, host.Suppressed)
	assert.Equal(t, 1, host.Changed)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, 1, h.reopens)
	assert.Equal(t, []string{HostHide}, h.actions)
}

func TestServer_ErrorsAreReported(t *testing.T) {
	h := &fakeHandler{failMon: errors.New("no randr")}
	client := startServer(t, h)

	_, err := client.GetMonitors()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no randr")

	_, err = client.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown edge")

	_, err = client.HostPanel("flip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flip")
	assert.Empty(t, h.actions)

	err = client.call("FROBNICATE", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown command")
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	err := client.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the daemon running")
}

func TestServer_StopIsIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "ebipc")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "s.sock")
	srv, err := NewServer(&fakeHandler{}, path, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	srv.Stop()
	srv.Stop()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
