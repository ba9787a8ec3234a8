package platform

import (
	"fmt"
	"math"
	"strings"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// MonitorHandle is the shell's opaque token for a monitor.
type MonitorHandle uintptr

// CallbackID identifies the message the host shell uses to notify a docked bar.
type CallbackID uint32

// Rect describes a rectangular region in screen pixels. Right and Bottom are exclusive.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// RectFromXYWH builds a Rect from an origin and a size.
func RectFromXYWH(x, y, width, height int) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Scale multiplies every coordinate by f, rounding to the nearest pixel.
func (r Rect) Scale(f float64) Rect {
	if f == 1 || f <= 0 {
		return r
	}
	return Rect{
		Left:   int(math.Round(float64(r.Left) * f)),
		Top:    int(math.Round(float64(r.Top) * f)),
		Right:  int(math.Round(float64(r.Right) * f)),
		Bottom: int(math.Round(float64(r.Bottom) * f)),
	}
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Edge is the screen side a bar attaches to. Values follow the shell's edge numbering.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeTop
	EdgeRight
	EdgeBottom
)

// Horizontal reports whether the edge is top or bottom.
func (e Edge) Horizontal() bool {
	return e == EdgeTop || e == EdgeBottom
}

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// ParseEdge converts a config value into an Edge.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return EdgeLeft, nil
	case "top":
		return EdgeTop, nil
	case "right":
		return EdgeRight, nil
	case "bottom", "":
		return EdgeBottom, nil
	default:
		return EdgeBottom, fmt.Errorf("unknown edge %q (want top, bottom, left or right)", s)
	}
}

// Monitor describes a physical display at the moment it was enumerated.
type Monitor struct {
	Handle  MonitorHandle `json:"handle"`
	Device  string        `json:"device"`
	Bounds  Rect          `json:"bounds"`
	Primary bool          `json:"primary"`
}

// HostPanelState is the auto-hide / always-on-top mode of the host shell's panel.
type HostPanelState struct {
	AutoHide    bool `json:"auto_hide"`
	AlwaysOnTop bool `json:"always_on_top"`
}

func (s HostPanelState) String() string {
	var parts []string
	if s.AutoHide {
		parts = append(parts, "auto-hide")
	}
	if s.AlwaysOnTop {
		parts = append(parts, "on-top")
	}
	if len(parts) == 0 {
		return "normal"
	}
	return strings.Join(parts, "+")
}

// Notification is a layout-relevant event the host shell sends to a bar.
type Notification int

const (
	NotifyPosChanged Notification = iota
	NotifyFullScreenApp
	NotifyStateChange
)

func (n Notification) String() string {
	switch n {
	case NotifyPosChanged:
		return "pos-changed"
	case NotifyFullScreenApp:
		return "fullscreen-app"
	case NotifyStateChange:
		return "state-change"
	default:
		return fmt.Sprintf("notification(%d)", int(n))
	}
}

// EventKind classifies events delivered through Shell.Subscribe.
type EventKind int

const (
	EventDisplayChange EventKind = iota
	EventWorkAreaChange
	EventBarNotification
)

// Event is delivered by the shell from its own event loop.
type Event struct {
	Kind EventKind
	// Reason describes a display change (e.g. "screen-change").
	Reason string
	// Window and Notification are set for EventBarNotification.
	Window       WindowID
	Notification Notification
	// Active carries the on/off flag of a fullscreen notification.
	Active bool
}

// Shell is the narrow interop surface the dock core needs from the host
// desktop shell. Every negotiation call must be bracketed by SuspendInterop
// and ResumeInterop.
type Shell interface {
	Monitors() ([]Monitor, error)

	RegisterCallbackMessage(name string) (CallbackID, error)
	NewBar(win WindowID, callback CallbackID, edge Edge) error
	RemoveBar(win WindowID) error
	QueryPosition(win WindowID, edge Edge, rect Rect) (Rect, error)
	SetPosition(win WindowID, edge Edge, rect Rect) (Rect, error)
	Activate(win WindowID) error
	PositionChanged(win WindowID) error

	GetState() (HostPanelState, error)
	SetState(state HostPanelState) error

	SuspendInterop() error
	ResumeInterop() error

	// FindHostPanels returns the windows that look like host panels. The
	// result can include this process's own windows; see IsOwnWindow.
	FindHostPanels() (primary WindowID, secondary []WindowID, err error)
	IsWindowVisible(win WindowID) (bool, error)
	SetWindowVisible(win WindowID, visible bool) error
	IsOwnWindow(win WindowID) bool
	IsShellProcess() bool

	// Subscribe registers fn for shell events and returns a function that
	// removes the subscription.
	Subscribe(fn func(Event)) (cancel func())
}
