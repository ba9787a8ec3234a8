package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/edgebar/internal/ipc"
)

func (s *Server) handleDockStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *status, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ipc.MonitorsData, error) {
	data, err := s.client.GetMonitors()
	if err != nil {
		return nil, ipc.MonitorsData{}, err
	}
	return nil, *data, nil
}

func (s *Server) handleListPanels(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ipc.PanelsData, error) {
	data, err := s.client.ListPanels()
	if err != nil {
		return nil, ipc.PanelsData{}, err
	}
	return nil, *data, nil
}

func (s *Server) handleReopenPanels(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ipc.ReopenData, error) {
	data, err := s.client.Reopen()
	if err != nil {
		return nil, ipc.ReopenData{}, err
	}
	s.logger.Info("panels reopened via MCP", "panels", data.Panels)
	return nil, *data, nil
}

func (s *Server) handleSetHostPanel(_ context.Context, _ *mcpsdk.CallToolRequest, args SetHostPanelInput) (*mcpsdk.CallToolResult, ipc.HostPanelData, error) {
	switch args.Action {
	case ipc.HostShow, ipc.HostHide, ipc.HostRestore:
	default:
		return nil, ipc.HostPanelData{}, fmt.Errorf("unknown action %q; want show, hide or restore", args.Action)
	}

	data, err := s.client.HostPanel(args.Action)
	if err != nil {
		return nil, ipc.HostPanelData{}, err
	}
	s.logger.Info("host panel changed via MCP", "action", args.Action, "changed", data.Changed)
	return nil, *data, nil
}
