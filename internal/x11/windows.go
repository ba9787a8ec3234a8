package x11

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

const (
	wmStateRemove = 0
	wmStateAdd    = 1

	stateAbove      = "_NET_WM_STATE_ABOVE"
	stateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	typeDock        = "_NET_WM_WINDOW_TYPE_DOCK"

	// allDesktops is the _NET_WM_DESKTOP value for sticky windows.
	allDesktops = 0xFFFFFFFF
)

// DockOptions describes a dock window to create.
type DockOptions struct {
	X, Y          int
	Width, Height int
	Background    uint32
	Name          string
	Instance      string
	Class         string
}

// CreateDock creates an unmapped _NET_WM_WINDOW_TYPE_DOCK window owned by
// this process, sticky on all desktops.
func (c *Connection) CreateDock(opts DockOptions) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		int16(opts.X), int16(opts.Y),
		uint16(max(1, opts.Width)), uint16(max(1, opts.Height)),
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		// Value list order follows the bit positions of the mask.
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			opts.Background,
			uint32(xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange | xproto.EventMaskExposure),
		},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create dock window: %w", err)
	}

	if err := ewmh.WmWindowTypeSet(c.XUtil, wid, []string{typeDock}); err != nil {
		return wid, fmt.Errorf("failed to set dock type: %w", err)
	}
	if err := ewmh.WmStateSet(c.XUtil, wid, []string{"_NET_WM_STATE_STICKY", stateAbove}); err != nil {
		return wid, fmt.Errorf("failed to set dock state: %w", err)
	}
	if err := ewmh.WmDesktopSet(c.XUtil, wid, allDesktops); err != nil {
		return wid, fmt.Errorf("failed to set dock desktop: %w", err)
	}
	if err := ewmh.WmPidSet(c.XUtil, wid, uint(os.Getpid())); err != nil {
		return wid, fmt.Errorf("failed to set dock pid: %w", err)
	}
	if opts.Name != "" {
		_ = ewmh.WmNameSet(c.XUtil, wid, opts.Name)
	}
	if opts.Class != "" {
		_ = icccm.WmClassSet(c.XUtil, wid, &icccm.WmClass{Instance: opts.Instance, Class: opts.Class})
	}

	return wid, nil
}

// DestroyWindow destroys a window created by this connection.
func (c *Connection) DestroyWindow(windowID xproto.Window) error {
	return c.check(func() error {
		return xproto.DestroyWindowChecked(c.XUtil.Conn(), windowID).Check()
	})
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	return c.check(func() error {
		return xproto.ConfigureWindowChecked(
			c.XUtil.Conn(),
			windowID,
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{
				uint32(x),
				uint32(y),
				uint32(max(1, width)),
				uint32(max(1, height)),
			},
		).Check()
	})
}

// Raise puts a window at the top of the stacking order.
func (c *Connection) Raise(windowID xproto.Window) error {
	return c.check(func() error {
		return xproto.ConfigureWindowChecked(
			c.XUtil.Conn(),
			windowID,
			xproto.ConfigWindowStackMode,
			[]uint32{xproto.StackModeAbove},
		).Check()
	})
}

// WindowGeometry returns a window's position in root coordinates and its size.
func (c *Connection) WindowGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := await(c, func() (*xproto.GetGeometryReply, error) {
		return xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	})
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := await(c, func() (*xproto.TranslateCoordinatesReply, error) {
		return xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	})
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// SetMapped maps or unmaps a window.
func (c *Connection) SetMapped(windowID xproto.Window, mapped bool) error {
	return c.check(func() error {
		if mapped {
			return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
		}
		return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
	})
}

// IsMapped reports whether a window is currently viewable.
func (c *Connection) IsMapped(windowID xproto.Window) (bool, error) {
	attrs, err := await(c, func() (*xproto.GetWindowAttributesReply, error) {
		return xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	})
	if err != nil {
		return false, err
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// SetStrut reserves screen space for a dock. The legacy _NET_WM_STRUT is set
// too for window managers that ignore the partial form.
func (c *Connection) SetStrut(windowID xproto.Window, sp ewmh.WmStrutPartial) error {
	if err := ewmh.WmStrutPartialSet(c.XUtil, windowID, &sp); err != nil {
		return fmt.Errorf("failed to set strut partial: %w", err)
	}
	legacy := &ewmh.WmStrut{Left: sp.Left, Right: sp.Right, Top: sp.Top, Bottom: sp.Bottom}
	if err := ewmh.WmStrutSet(c.XUtil, windowID, legacy); err != nil {
		return fmt.Errorf("failed to set strut: %w", err)
	}
	return nil
}

// Strut returns the partial strut a window currently reserves.
func (c *Connection) Strut(windowID xproto.Window) (ewmh.WmStrutPartial, bool) {
	if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
		return *sp, true
	}
	if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
		width, height, err := c.RootSize()
		if err != nil {
			return ewmh.WmStrutPartial{}, false
		}
		return fullSpanStrut(s, width, height), true
	}
	return ewmh.WmStrutPartial{}, false
}

// ClearStrut releases any space a window reserved.
func (c *Connection) ClearStrut(windowID xproto.Window) error {
	return c.SetStrut(windowID, ewmh.WmStrutPartial{})
}

// StrutEmpty reports whether sp reserves nothing.
func StrutEmpty(sp ewmh.WmStrutPartial) bool {
	return sp.Left == 0 && sp.Right == 0 && sp.Top == 0 && sp.Bottom == 0
}

// DockClients lists managed windows of type _NET_WM_WINDOW_TYPE_DOCK.
func (c *Connection) DockClients() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	var docks []xproto.Window
	for _, windowID := range clients {
		if c.hasType(windowID, typeDock) {
			docks = append(docks, windowID)
		}
	}
	return docks, nil
}

func (c *Connection) hasType(windowID xproto.Window, want string) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// WindowClass returns the WM_CLASS instance and class of a window.
func (c *Connection) WindowClass(windowID xproto.Window) (instance, class string) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(wmClass.Instance), strings.TrimSpace(wmClass.Class)
}

// WindowPID returns the _NET_WM_PID of a window.
func (c *Connection) WindowPID(windowID xproto.Window) (int, bool) {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0, false
	}
	return int(pid), true
}

// WindowManagerPID returns the PID of the running EWMH window manager.
func (c *Connection) WindowManagerPID() (int, bool) {
	check, err := ewmh.SupportingWmCheckGet(c.XUtil, c.Root)
	if err != nil || check == 0 {
		return 0, false
	}
	return c.WindowPID(check)
}

// SetAbove adds or removes _NET_WM_STATE_ABOVE through the window manager.
func (c *Connection) SetAbove(windowID xproto.Window, above bool) error {
	action := wmStateRemove
	if above {
		action = wmStateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, stateAbove)
}

// IsAbove reports whether a window has _NET_WM_STATE_ABOVE.
func (c *Connection) IsAbove(windowID xproto.Window) bool {
	return c.hasState(windowID, stateAbove)
}

// IsFullscreen reports whether a window has _NET_WM_STATE_FULLSCREEN.
func (c *Connection) IsFullscreen(windowID xproto.Window) bool {
	return c.hasState(windowID, stateFullscreen)
}

func (c *Connection) hasState(windowID xproto.Window, want string) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == want {
			return true
		}
	}
	return false
}

// GetActiveWindow returns the window the window manager reports as focused.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// ParseColor converts "#rrggbb" into a 24-bit TrueColor pixel value.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color %q (want #rrggbb)", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}
