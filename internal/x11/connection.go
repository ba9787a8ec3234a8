package x11

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// DefaultTimeout bounds how long a caller waits for an X server reply.
const DefaultTimeout = 300 * time.Millisecond

// ErrTimeout is returned when the X server did not answer within the
// connection's timeout.
var ErrTimeout = errors.New("x11 request timed out")

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil   *xgbutil.XUtil
	Root    xproto.Window
	Timeout time.Duration
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		Timeout: DefaultTimeout,
	}, nil
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes EventLoop return after the current event.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// GrabServer stops the server from processing requests of other clients.
func (c *Connection) GrabServer() error {
	return c.check(func() error {
		return xproto.GrabServerChecked(c.XUtil.Conn()).Check()
	})
}

// UngrabServer releases a grab taken with GrabServer.
func (c *Connection) UngrabServer() error {
	return c.check(func() error {
		return xproto.UngrabServerChecked(c.XUtil.Conn()).Check()
	})
}

// RootSize returns the current root window size. It changes with RandR
// reconfiguration, so it is queried every time.
func (c *Connection) RootSize() (width, height int, err error) {
	geom, err := await(c, func() (*xproto.GetGeometryReply, error) {
		return xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return int(geom.Width), int(geom.Height), nil
}

// InternAtom returns the atom for name, creating it if needed.
func (c *Connection) InternAtom(name string) (xproto.Atom, error) {
	reply, err := await(c, func() (*xproto.InternAtomReply, error) {
		return xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

// await runs fn and gives up after the connection timeout. A late reply is
// discarded.
func await[T any](c *Connection, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{val: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

func (c *Connection) check(fn func() error) error {
	_, err := await(c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
