package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
)

// OnScreenChange calls fn for every RandR screen change notification.
// Callbacks run on the EventLoop goroutine.
func (c *Connection) OnScreenChange(fn func()) error {
	err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, randr.NotifyMaskScreenChange).Check()
	if err != nil {
		return fmt.Errorf("failed to select randr input: %w", err)
	}

	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		if _, ok := event.(randr.ScreenChangeNotifyEvent); ok {
			fn()
		}
		return true
	}).Connect(c.XUtil)
	return nil
}

// OnRootProperty calls fn with the atom name of every property that changes
// on the root window, e.g. _NET_WORKAREA.
func (c *Connection) OnRootProperty(fn func(name string)) error {
	err := xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		c.Root,
		xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify)},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to watch root properties: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		fn(name)
	}).Connect(c.XUtil, c.Root)
	return nil
}

// OnClientMessage calls fn with the 32-bit payload of client messages of
// type atom sent to windowID.
func (c *Connection) OnClientMessage(windowID xproto.Window, atom xproto.Atom, fn func(data []uint32)) {
	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if ev.Type != atom || ev.Format != 32 {
			return
		}
		fn(ev.Data.Data32)
	}).Connect(c.XUtil, windowID)
}

// Detach removes every event callback registered for windowID.
func (c *Connection) Detach(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}
