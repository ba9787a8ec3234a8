package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/topology"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandListPanels  CommandType = "LIST_PANELS"
	CommandReopen      CommandType = "REOPEN"
	CommandReload      CommandType = "RELOAD"
	CommandHostPanel   CommandType = "HOST_PANEL"
)

// Host panel actions carried by HOST_PANEL.
const (
	HostShow    = "show"
	HostHide    = "hide"
	HostRestore = "restore"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Version       string `json:"version"`
	PID           int    `json:"pid"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	ConfigFile    string `json:"config_file,omitempty"`

	Edge     string `json:"edge"`
	Mode     string `json:"mode"`
	AutoHide bool   `json:"auto_hide"`

	Monitors   int `json:"monitors"`
	Panels     int `json:"panels"`
	Registered int `json:"registered"`

	HostPanelSuppressed bool                    `json:"host_panel_suppressed"`
	HostPanelState      platform.HostPanelState `json:"host_panel_state"`
	HostStateCaptured   bool                    `json:"host_state_captured"`

	Topology topology.Stats `json:"topology"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	Handle  uint64 `json:"handle"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// NewMonitorsData converts a monitor list into its wire form.
func NewMonitorsData(monitors []platform.Monitor) MonitorsData {
	infos := make([]MonitorInfo, len(monitors))
	for i, m := range monitors {
		infos[i] = MonitorInfo{
			Handle:  uint64(m.Handle),
			Name:    m.Device,
			X:       m.Bounds.Left,
			Y:       m.Bounds.Top,
			Width:   m.Bounds.Width(),
			Height:  m.Bounds.Height(),
			Primary: m.Primary,
		}
	}
	return MonitorsData{Monitors: infos}
}

// PanelsData represents the data returned by LIST_PANELS
type PanelsData struct {
	Panels []panel.Info `json:"panels"`
}

type HostPanelPayload struct {
	Action string `json:"action"`
}

type HostPanelData struct {
	Action     string                  `json:"action"`
	Changed    int                     `json:"changed"`
	Suppressed bool                    `json:"suppressed"`
	State      platform.HostPanelState `json:"state"`
}

// ReopenData is returned by REOPEN and RELOAD.
type ReopenData struct {
	Panels int `json:"panels"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
