// Package tui is a small terminal dashboard for a running daemon: it shows
// the effective config next to the live panel state and drives the control
// commands from single keys.
package tui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/1broseidon/edgebar/internal/config"
	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/panel"
)

// DaemonClient is the part of the IPC client the dashboard uses.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListPanels() (*ipc.PanelsData, error)
	Reopen() (*ipc.ReopenData, error)
	Reload() (*ipc.ReopenData, error)
	HostPanel(action string) (*ipc.HostPanelData, error)
}

var _ DaemonClient = (*ipc.Client)(nil)

// TUI represents the terminal user interface state.
type TUI struct {
	configPath string
	client     DaemonClient
	out        io.Writer

	result *config.LoadResult
	status *ipc.StatusData
	panels []panel.Info

	message   string
	lastError string
	fatalErr  error

	// Terminal state
	oldState *term.State
	width    int
	height   int
}

// New creates a dashboard for the config at configPath (empty: default
// location) talking to client.
func New(configPath string, client DaemonClient) *TUI {
	return &TUI{
		configPath: configPath,
		client:     client,
		out:        os.Stdout,
		width:      80,
		height:     24,
	}
}

// Run starts the TUI main loop.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t.oldState = oldState
	defer t.restore()

	t.updateSize()
	// A broken config is shown inline so it can be fixed with 'e'.
	_ = t.loadConfig()
	t.refresh()
	t.render()

	buf := make([]byte, 32)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}
		if t.handleInput(buf[:n]) {
			break
		}
		t.updateSize()
		t.render()
	}

	return t.fatalErr
}

func (t *TUI) restore() {
	if t.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), t.oldState)
		t.oldState = nil
	}
	fmt.Fprint(t.out, escReset+escShowCursor+escClear+escHome)
}

func (t *TUI) updateSize() {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return
	}
	t.width = w
	t.height = h
}

func (t *TUI) loadConfig() error {
	var res *config.LoadResult
	var err error
	if t.configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(t.configPath)
	}
	if err != nil {
		t.lastError = err.Error()
		return err
	}
	t.result = res
	t.lastError = ""
	return nil
}

// refresh pulls status and panels from the daemon. A daemon that is not
// running leaves status nil.
func (t *TUI) refresh() {
	status, err := t.client.GetStatus()
	if err != nil {
		t.status = nil
		t.panels = nil
		return
	}
	t.status = status

	panels, err := t.client.ListPanels()
	if err != nil {
		t.lastError = err.Error()
		return
	}
	t.panels = panels.Panels
}

// handleInput applies one read's worth of keys and reports whether to quit.
func (t *TUI) handleInput(input []byte) bool {
	for len(input) > 0 {
		// Escape sequences (arrows, function keys) are ignored; a lone
		// escape quits.
		if input[0] == 0x1b && len(input) > 1 {
			return false
		}

		switch input[0] {
		case 'q', 0x1b, 0x03:
			return true
		case 'r':
			t.message = ""
			_ = t.loadConfig()
			t.refresh()
		case 'e':
			if err := t.editConfig(); err != nil {
				t.fatalErr = err
				return true
			}
		case 'l':
			t.daemonAction("reload", func() (string, error) {
				data, err := t.client.Reload()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("config reloaded, %d panel(s)", data.Panels), nil
			})
		case 'o':
			t.daemonAction("reopen", func() (string, error) {
				data, err := t.client.Reopen()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("reopened %d panel(s)", data.Panels), nil
			})
		case 'h':
			t.daemonAction("host panel", t.toggleHost)
		}

		input = input[1:]
	}
	return false
}

func (t *TUI) toggleHost() (string, error) {
	action := ipc.HostHide
	if t.status != nil && t.status.HostPanelSuppressed {
		action = ipc.HostRestore
	}
	data, err := t.client.HostPanel(action)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("host panel %s: %s", action, data.State), nil
}

func (t *TUI) daemonAction(name string, fn func() (string, error)) {
	if t.status == nil {
		t.lastError = name + ": daemon not running"
		return
	}
	msg, err := fn()
	if err != nil {
		t.message = ""
		t.lastError = fmt.Sprintf("%s: %v", name, err)
		return
	}
	t.lastError = ""
	t.message = msg
	t.refresh()
}

func (t *TUI) editConfig() error {
	t.restore()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	editorParts := strings.Fields(editor)
	if len(editorParts) == 0 {
		editorParts = []string{"vi"}
	}

	path := t.configPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			t.lastError = err.Error()
			return t.reenterRawMode()
		}
		path = p
	}

	cmd := exec.Command(editorParts[0], append(editorParts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.lastError = fmt.Sprintf("editor failed: %v", err)
	}

	if err := t.reenterRawMode(); err != nil {
		return err
	}
	if t.loadConfig() == nil {
		t.message = "config saved; press l to reload the daemon"
	}
	return nil
}

func (t *TUI) reenterRawMode() error {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to re-enter raw mode: %w", err)
	}
	t.oldState = oldState
	return nil
}
