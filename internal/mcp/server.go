// Package mcp exposes the running daemon to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/edgebar/internal/ipc"
)

const ServerName = "edgebar"

// DaemonClient is the part of ipc.Client the tools call.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	ListPanels() (*ipc.PanelsData, error)
	Reopen() (*ipc.ReopenData, error)
	HostPanel(action string) (*ipc.HostPanelData, error)
}

var _ DaemonClient = (*ipc.Client)(nil)

// Server is the MCP server for edgebar. Every tool is one IPC round trip.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
	logger    *slog.Logger
}

// NewServer creates a new MCP server that talks to the daemon through client.
func NewServer(client DaemonClient, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		client: client,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dock_status",
		Description: "Report the edgebar daemon's state: configured edge and mode, how many monitors and panels it manages, how many panels hold a dock registration, and whether the host desktop's panel is suppressed.",
	}, s.handleDockStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List the monitors of the display topology the panels were built from, in enumeration order, with their bounds in screen pixels.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_panels",
		Description: "List the live dock panels with their window id, monitor, edge, negotiated bounds and registration state.",
	}, s.handleListPanels)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reopen_panels",
		Description: "Close every panel and open fresh ones against the current display topology. Use after a panel ended up misplaced.",
	}, s.handleReopenPanels)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_host_panel",
		Description: "Show, hide or restore the host desktop's own panel.",
	}, s.handleSetHostPanel)
}
