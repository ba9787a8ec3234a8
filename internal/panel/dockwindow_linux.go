//go:build linux

package panel

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/1broseidon/edgebar/internal/appbar"
	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/oklog/ulid/v2"
)

// DockWindow is a solid-colour _NET_WM_WINDOW_TYPE_DOCK window.
type DockWindow struct {
	id       string
	conn     *x11.Connection
	win      xproto.Window
	monitor  platform.Monitor
	edge     platform.Edge
	autoHide bool
	scale    float64
	logger   *slog.Logger

	mu       sync.Mutex
	bounds   platform.Rect // physical pixels
	shown    bool
	hidden   bool // hidden under a fullscreen application
	closable bool
	closed   bool
}

var _ Panel = (*DockWindow)(nil)

// NewDockFactory returns a Factory creating dock windows on conn.
func NewDockFactory(conn *x11.Connection, logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return FactoryFunc(func(monitor platform.Monitor, settings Settings) (Panel, error) {
		return NewDockWindow(conn, monitor, settings, logger)
	})
}

// NewDockWindow creates an unmapped dock window at the candidate position
// for settings on monitor.
func NewDockWindow(conn *x11.Connection, monitor platform.Monitor, settings Settings, logger *slog.Logger) (*DockWindow, error) {
	background := uint32(0x202020)
	if settings.Background != "" {
		color, err := x11.ParseColor(settings.Background)
		if err != nil {
			return nil, err
		}
		background = color
	}

	scale := settings.Scale
	if scale <= 0 {
		scale = 1
	}
	bounds := appbar.CandidateRect(
		monitor.Bounds,
		settings.Edge,
		int(math.Round(float64(settings.Width)*scale)),
		int(math.Round(float64(settings.Height)*scale)),
	)

	id := ulid.Make().String()
	win, err := conn.CreateDock(x11.DockOptions{
		X:          bounds.Left,
		Y:          bounds.Top,
		Width:      bounds.Width(),
		Height:     bounds.Height(),
		Background: background,
		Name:       "edgebar " + monitor.Device,
		Instance:   "edgebar",
		Class:      "Edgebar",
	})
	if err != nil {
		if win != 0 {
			_ = conn.DestroyWindow(win)
		}
		return nil, fmt.Errorf("create dock on %s: %w", monitor.Device, err)
	}

	return &DockWindow{
		id:       id,
		conn:     conn,
		win:      win,
		monitor:  monitor,
		edge:     settings.Edge,
		autoHide: settings.AutoHide,
		scale:    scale,
		logger:   logger.With("panel", id, "monitor", monitor.Device),
		bounds:   bounds,
	}, nil
}

func (d *DockWindow) ID() string                { return d.id }
func (d *DockWindow) Window() platform.WindowID { return platform.WindowID(d.win) }
func (d *DockWindow) Monitor() platform.Monitor { return d.monitor }
func (d *DockWindow) Edge() platform.Edge       { return d.edge }
func (d *DockWindow) AutoHide() bool            { return d.autoHide }
func (d *DockWindow) DPIScale() float64         { return d.scale }

// Bounds returns the window rectangle in device-independent pixels.
func (d *DockWindow) Bounds() platform.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds.Scale(1 / d.scale)
}

// PixelBounds returns the window rectangle as last applied, in physical
// pixels.
func (d *DockWindow) PixelBounds() platform.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds
}

func (d *DockWindow) Show() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("show panel %s: already closed", d.id)
	}
	if err := d.conn.SetMapped(d.win, true); err != nil {
		return err
	}
	d.shown = true
	return nil
}

// SetAssignedRect moves the window to the negotiated rectangle, given in
// physical pixels.
func (d *DockWindow) SetAssignedRect(r platform.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.conn.MoveResizeWindow(d.win, r.Left, r.Top, r.Width(), r.Height()); err != nil {
		return err
	}
	d.bounds = r
	return nil
}

func (d *DockWindow) NotifyNegotiationComplete(unchanged bool, r platform.Rect) {
	d.logger.Debug("negotiation complete", "unchanged", unchanged, "rect", r.String())
}

// NotifyFullScreen unmaps the dock while a fullscreen application is active.
func (d *DockWindow) NotifyFullScreen(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.shown || d.closed || d.hidden == active {
		return
	}
	if err := d.conn.SetMapped(d.win, !active); err != nil {
		d.logger.Debug("fullscreen visibility change failed", "active", active, "error", err)
		return
	}
	d.hidden = active
}

func (d *DockWindow) AllowClose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closable = true
}

func (d *DockWindow) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	if !d.closable {
		return ErrNotClosable
	}
	d.closed = true
	return d.conn.DestroyWindow(d.win)
}
