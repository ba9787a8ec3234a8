package tui

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
)

type fakeClient struct {
	status  *ipc.StatusData
	panels  []panel.Info
	err     error
	actions []string
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.status == nil {
		return nil, errors.New("daemon not running")
	}
	return f.status, nil
}

func (f *fakeClient) ListPanels() (*ipc.PanelsData, error) {
	return &ipc.PanelsData{Panels: f.panels}, nil
}

func (f *fakeClient) Reopen() (*ipc.ReopenData, error) {
	f.actions = append(f.actions, "reopen")
	return &ipc.ReopenData{Panels: len(f.panels)}, f.err
}

func (f *fakeClient) Reload() (*ipc.ReopenData, error) {
	f.actions = append(f.actions, "reload")
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.ReopenData{Panels: len(f.panels)}, nil
}

func (f *fakeClient) HostPanel(action string) (*ipc.HostPanelData, error) {
	f.actions = append(f.actions, "host:"+action)
	f.status.HostPanelSuppressed = action == ipc.HostHide
	return &ipc.HostPanelData{Action: action, Suppressed: f.status.HostPanelSuppressed}, nil
}

func newTestTUI(t *testing.T, client *fakeClient) *TUI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("edge: left\nmode: primary\n"), 0644))

	tui := New(path, client)
	tui.out = &bytes.Buffer{}
	require.NoError(t, tui.loadConfig())
	tui.refresh()
	return tui
}

func runningClient() *fakeClient {
	return &fakeClient{
		status: &ipc.StatusData{Version: "1.0.0", Monitors: 1, Panels: 1, Registered: 1},
		panels: []panel.Info{{
			Monitor:    "DP-1",
			Edge:       "left",
			Bounds:     platform.Rect{Left: 0, Top: 0, Right: 48, Bottom: 1080},
			Registered: true,
		}},
	}
}

func TestViewShowsConfigAndPanels(t *testing.T) {
	tui := newTestTUI(t, runningClient())

	out := tui.view()
	assert.Contains(t, out, "daemon 1.0.0")
	assert.Contains(t, out, "primary")
	assert.Contains(t, out, "DP-1")
	assert.Contains(t, out, "48x1080+0+0")
	assert.Contains(t, out, "registered")
}

func TestViewWithoutDaemon(t *testing.T) {
	tui := newTestTUI(t, &fakeClient{})

	out := tui.view()
	assert.Contains(t, out, "daemon not running")
	assert.NotContains(t, out, "Panels")
}

func TestHandleInputQuits(t *testing.T) {
	tui := newTestTUI(t, &fakeClient{})
	assert.True(t, tui.handleInput([]byte("q")))
	assert.True(t, tui.handleInput([]byte{0x03}))
	assert.True(t, tui.handleInput([]byte{0x1b}))
	assert.False(t, tui.handleInput([]byte{0x1b, '[', 'A'}))
}

func TestHandleInputDaemonActions(t *testing.T) {
	client := runningClient()
	tui := newTestTUI(t, client)

	assert.False(t, tui.handleInput([]byte("loh")))
	assert.Equal(t, []string{"reload", "reopen", "host:hide"}, client.actions)
	assert.Contains(t, tui.message, "host panel hide")

	tui.handleInput([]byte("h"))
	assert.Equal(t, "host:restore", client.actions[len(client.actions)-1])
}

func TestHandleInputReportsErrors(t *testing.T) {
	client := runningClient()
	client.err = errors.New("boom")
	tui := newTestTUI(t, client)

	tui.handleInput([]byte("l"))
	assert.Equal(t, "reload: boom", tui.lastError)
	assert.Empty(t, tui.message)
}

func TestActionsNeedDaemon(t *testing.T) {
	client := &fakeClient{}
	tui := newTestTUI(t, client)

	tui.handleInput([]byte("o"))
	assert.Empty(t, client.actions)
	assert.Contains(t, tui.lastError, "daemon not running")
}

func TestLoadConfigErrorShownInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("edge: sideways\n"), 0644))

	tui := New(path, &fakeClient{})
	require.Error(t, tui.loadConfig())
	assert.Contains(t, tui.view(), "edge")
	assert.Contains(t, tui.view(), "not loaded")
}
