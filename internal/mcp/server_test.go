package mcp

import (
	"context"
	"errors"
	"sort"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/panel"
)

type fakeClient struct {
	err     error
	actions []string
	reopens int
}

func (c *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.StatusData{DaemonRunning: true, Edge: "bottom", Panels: 2}, nil
}

func (c *fakeClient) GetMonitors() (*ipc.MonitorsData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.MonitorsData{Monitors: []ipc.MonitorInfo{{Name: "DP-1", Width: 1920, Height: 1080, Primary: true}}}, nil
}

func (c *fakeClient) ListPanels() (*ipc.PanelsData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.PanelsData{Panels: []panel.Info{{ID: "p1", Monitor: "DP-1"}}}, nil
}

func (c *fakeClient) Reopen() (*ipc.ReopenData, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.reopens++
	return &ipc.ReopenData{Panels: 2}, nil
}

func (c *fakeClient) HostPanel(action string) (*ipc.HostPanelData, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.actions = append(c.actions, action)
	return &ipc.HostPanelData{Action: action, Changed: 1}, nil
}

func TestTools_ForwardToDaemon(t *testing.T) {
	client := &fakeClient{}
	s := NewServer(client, "test", nil)
	ctx := context.Background()

	_, status, err := s.handleDockStatus(ctx, nil, NoInput{})
	require.NoError(t, err)
	assert.True(t, status.DaemonRunning)
	assert.Equal(t, 2, status.Panels)

	_, monitors, err := s.handleListMonitors(ctx, nil, NoInput{})
	require.NoError(t, err)
	require.Len(t, monitors.Monitors, 1)
	assert.Equal(t, "DP-1", monitors.Monitors[0].Name)

	_, panels, err := s.handleListPanels(ctx, nil, NoInput{})
	require.NoError(t, err)
	assert.Len(t, panels.Panels, 1)

	_, reopen, err := s.handleReopenPanels(ctx, nil, NoInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, reopen.Panels)
	assert.Equal(t, 1, client.reopens)

	_, host, err := s.handleSetHostPanel(ctx, nil, SetHostPanelInput{Action: ipc.HostRestore})
	require.NoError(t, err)
	assert.Equal(t, ipc.HostRestore, host.Action)
	assert.Equal(t, []string{ipc.HostRestore}, client.actions)
}

func TestSetHostPanel_RejectsUnknownAction(t *testing.T) {
	client := &fakeClient{}
	s := NewServer(client, "test", nil)

	_, _, err := s.handleSetHostPanel(context.Background(), nil, SetHostPanelInput{Action: "toggle"})
	require.Error(t, err)
	assert.Empty(t, client.actions)
}

func TestTools_PropagateDaemonErrors(t *testing.T) {
	s := NewServer(&fakeClient{err: errors.New("failed to connect to daemon")}, "test", nil)
	ctx := context.Background()

	_, _, err := s.handleDockStatus(ctx, nil, NoInput{})
	assert.Error(t, err)
	_, _, err = s.handleReopenPanels(ctx, nil, NoInput{})
	assert.Error(t, err)
	_, _, err = s.handleSetHostPanel(ctx, nil, SetHostPanelInput{Action: ipc.HostHide})
	assert.Error(t, err)
}

func TestServer_ListsTools(t *testing.T) {
	ctx := context.Background()
	s := NewServer(&fakeClient{}, "test", nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"dock_status", "list_monitors", "list_panels", "reopen_panels", "set_host_panel"}, names)
}
