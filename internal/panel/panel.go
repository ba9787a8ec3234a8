// Package panel owns the live dock panels, one per monitor or one on the
// primary monitor, and rebuilds them when the topology or settings change.
package panel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/edgebar/internal/appbar"
	"github.com/1broseidon/edgebar/internal/platform"
)

// ErrNotClosable is returned by Close before AllowClose was called.
var ErrNotClosable = errors.New("panel is not closable")

// Mode selects which monitors get a panel.
type Mode string

const (
	ModePerMonitor Mode = "per-monitor"
	ModePrimary    Mode = "primary"
)

// ParseMode converts a config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePerMonitor, "":
		return ModePerMonitor, nil
	case ModePrimary:
		return ModePrimary, nil
	default:
		return ModePerMonitor, fmt.Errorf("unknown mode %q (want per-monitor or primary)", s)
	}
}

// Settings are read from configuration when panels are opened.
type Settings struct {
	Mode     Mode
	Edge     platform.Edge
	AutoHide bool
	// Width and Height are in device-independent pixels. Top and bottom
	// panels use Height as their thickness, left and right ones Width.
	Width  int
	Height int
	// Scale is the DPI scale applied to panels; zero means 1.
	Scale      float64
	Background string
}

// Panel is a dock window bound to one monitor.
type Panel interface {
	appbar.Bar

	// ID is unique for the lifetime of the process.
	ID() string
	Edge() platform.Edge
	AutoHide() bool
	Show() error
	// AllowClose marks the panel as closable. Close fails before it.
	AllowClose()
	Close() error
}

// Factory builds an unshown panel for monitor.
type Factory interface {
	NewPanel(monitor platform.Monitor, settings Settings) (Panel, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(monitor platform.Monitor, settings Settings) (Panel, error)

func (f FactoryFunc) NewPanel(monitor platform.Monitor, settings Settings) (Panel, error) {
	return f(monitor, settings)
}

// Registrar docks panels with the host shell. *appbar.Registry implements it.
type Registrar interface {
	RegisterBar(bar appbar.Bar, width, height int, edge platform.Edge) (platform.CallbackID, error)
	Unregister(bar appbar.Bar)
	Registered(win platform.WindowID) bool
}

var _ Registrar = (*appbar.Registry)(nil)

// Info is a read-only view of a live panel.
type Info struct {
	ID         string            `json:"id"`
	Window     platform.WindowID `json:"window"`
	Monitor    string            `json:"monitor"`
	Edge       string            `json:"edge"`
	AutoHide   bool              `json:"auto_hide"`
	Bounds     platform.Rect     `json:"bounds"`
	Registered bool              `json:"registered"`
}
