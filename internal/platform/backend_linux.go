//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/edgebar/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// KnownHostPanels lists WM_CLASS values of panels shipped by common desktops.
// They are matched case-insensitively when no host class is configured.
var KnownHostPanels = []string{
	"xfce4-panel",
	"gnome-panel",
	"mate-panel",
	"lxpanel",
	"lxqt-panel",
	"tint2",
	"polybar",
	"plasmashell",
	"cinnamon",
	"budgie-panel",
}

type x11Bar struct {
	edge     Edge
	callback CallbackID
	strut    ewmh.WmStrutPartial
	placed   bool
}

// X11Shell implements Shell on top of an EWMH window manager. Bars are dock
// windows reserving space through _NET_WM_STRUT_PARTIAL.
type X11Shell struct {
	conn      *x11.Connection
	hostClass string
	logger    *slog.Logger

	mu         sync.Mutex
	bars       map[WindowID]*x11Bar
	saved      map[WindowID]ewmh.WmStrutPartial
	subs       map[int]func(Event)
	nextSub    int
	grabs      int
	fullscreen bool
}

var _ Shell = (*X11Shell)(nil)

// NewX11Shell wraps an open connection. hostClass selects the host panel by
// WM_CLASS; empty means KnownHostPanels.
func NewX11Shell(conn *x11.Connection, hostClass string, logger *slog.Logger) *X11Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &X11Shell{
		conn:      conn,
		hostClass: strings.TrimSpace(hostClass),
		logger:    logger,
		bars:      make(map[WindowID]*x11Bar),
		saved:     make(map[WindowID]ewmh.WmStrutPartial),
		subs:      make(map[int]func(Event)),
	}
}

// Conn returns the underlying X11 connection.
func (s *X11Shell) Conn() *x11.Connection {
	return s.conn
}

// Start hooks RandR and root property notifications. Events are delivered
// from the X event loop goroutine.
func (s *X11Shell) Start() error {
	if err := s.conn.OnScreenChange(func() {
		s.emit(Event{Kind: EventDisplayChange, Reason: "screen-change"})
	}); err != nil {
		return err
	}

	return s.conn.OnRootProperty(func(name string) {
		switch name {
		case "_NET_WORKAREA":
			s.emit(Event{Kind: EventWorkAreaChange})
		case "_NET_ACTIVE_WINDOW":
			s.checkFullscreen()
		}
	})
}

func (s *X11Shell) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *X11Shell) emit(ev Event) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *X11Shell) checkFullscreen() {
	active, err := s.conn.GetActiveWindow()
	if err != nil {
		return
	}
	fs := active != 0 && !s.IsOwnWindow(WindowID(active)) && s.conn.IsFullscreen(active)

	s.mu.Lock()
	changed := fs != s.fullscreen
	s.fullscreen = fs
	s.mu.Unlock()

	if changed {
		s.logger.Debug("fullscreen application state changed", "window", active, "active", fs)
		s.emit(Event{Kind: EventBarNotification, Notification: NotifyFullScreenApp, Active: fs})
	}
}

func (s *X11Shell) Monitors() ([]Monitor, error) {
	monitors, err := s.conn.GetMonitors()
	if err != nil {
		return nil, xerr("enumerate monitors", 0, err)
	}

	out := make([]Monitor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, monitorFromX11(m))
	}
	return out, nil
}

func monitorFromX11(m x11.Monitor) Monitor {
	return Monitor{
		Handle:  MonitorHandle(m.Output),
		Device:  m.Name,
		Bounds:  RectFromXYWH(m.X, m.Y, m.Width, m.Height),
		Primary: m.Primary,
	}
}

func (s *X11Shell) RegisterCallbackMessage(name string) (CallbackID, error) {
	atom, err := s.conn.InternAtom(name)
	if err != nil {
		return 0, xerr("register callback message", 0, err)
	}
	return CallbackID(atom), nil
}

func (s *X11Shell) NewBar(win WindowID, callback CallbackID, edge Edge) error {
	s.mu.Lock()
	if _, ok := s.bars[win]; ok {
		s.mu.Unlock()
		return Fail("new bar", win, errors.New("already registered"))
	}
	s.bars[win] = &x11Bar{edge: edge, callback: callback}
	s.mu.Unlock()

	// data[0] carries the notification, data[1] the on/off flag.
	s.conn.OnClientMessage(xproto.Window(win), xproto.Atom(callback), func(data []uint32) {
		if len(data) < 2 {
			return
		}
		s.emit(Event{
			Kind:         EventBarNotification,
			Window:       win,
			Notification: Notification(data[0]),
			Active:       data[1] != 0,
		})
	})
	return nil
}

func (s *X11Shell) RemoveBar(win WindowID) error {
	s.mu.Lock()
	bar, ok := s.bars[win]
	delete(s.bars, win)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	s.conn.Detach(xproto.Window(win))
	if bar.placed {
		return xerr("remove bar", win, s.conn.ClearStrut(xproto.Window(win)))
	}
	return nil
}

// QueryPosition moves rect past the space other docks already reserve on the
// same edge of the monitor it sits on.
func (s *X11Shell) QueryPosition(win WindowID, edge Edge, rect Rect) (Rect, error) {
	monitors, err := s.conn.GetMonitors()
	if err != nil {
		return rect, xerr("query position", win, err)
	}
	if len(monitors) == 0 {
		return rect, Fail("query position", win, errors.New("no monitors"))
	}

	mon := monitors[0]
	cx, cy := rect.Left+rect.Width()/2, rect.Top+rect.Height()/2
	for _, m := range monitors {
		if m.Contains(cx, cy) {
			mon = m
			break
		}
	}

	struts, err := s.conn.DockStruts(mon, xproto.Window(win))
	if err != nil {
		return rect, xerr("query position", win, err)
	}
	bounds := RectFromXYWH(mon.X, mon.Y, mon.Width, mon.Height)
	return shiftPastStruts(rect, edge, bounds, struts), nil
}

// shiftPastStruts translates rect along the edge normal so it starts where
// the reserved space on that edge of bounds ends.
func shiftPastStruts(rect Rect, edge Edge, bounds Rect, struts x11.Struts) Rect {
	var dx, dy int
	switch edge {
	case EdgeTop:
		if limit := bounds.Top + struts.Top; rect.Top < limit {
			dy = limit - rect.Top
		}
	case EdgeBottom:
		if limit := bounds.Bottom - struts.Bottom; rect.Bottom > limit {
			dy = limit - rect.Bottom
		}
	case EdgeLeft:
		if limit := bounds.Left + struts.Left; rect.Left < limit {
			dx = limit - rect.Left
		}
	case EdgeRight:
		if limit := bounds.Right - struts.Right; rect.Right > limit {
			dx = limit - rect.Right
		}
	}
	return Rect{Left: rect.Left + dx, Top: rect.Top + dy, Right: rect.Right + dx, Bottom: rect.Bottom + dy}
}

// SetPosition reserves rect for the bar. The window itself is moved by the
// bar once negotiation completes.
func (s *X11Shell) SetPosition(win WindowID, edge Edge, rect Rect) (Rect, error) {
	rootWidth, rootHeight, err := s.conn.RootSize()
	if err != nil {
		return rect, xerr("set position", win, err)
	}

	granted := clipRect(rect, Rect{Right: rootWidth, Bottom: rootHeight})
	if granted.Empty() {
		return rect, Fail("set position", win, fmt.Errorf("rect %s outside root window", rect))
	}

	sp := x11.StrutFor(sideFor(edge), granted.Left, granted.Top, granted.Width(), granted.Height(), rootWidth, rootHeight)

	// Rewriting an identical strut still makes the window manager republish
	// _NET_WORKAREA, which would bounce back here as a work-area change.
	s.mu.Lock()
	bar, ok := s.bars[win]
	unchanged := ok && bar.placed && bar.strut == sp
	s.mu.Unlock()
	if unchanged {
		return granted, nil
	}

	if err := s.conn.SetStrut(xproto.Window(win), sp); err != nil {
		return rect, xerr("set position", win, err)
	}

	s.mu.Lock()
	if bar, ok := s.bars[win]; ok {
		bar.edge = edge
		bar.strut = sp
		bar.placed = true
	}
	s.mu.Unlock()
	return granted, nil
}

func clipRect(r, bounds Rect) Rect {
	return Rect{
		Left:   max(r.Left, bounds.Left),
		Top:    max(r.Top, bounds.Top),
		Right:  min(r.Right, bounds.Right),
		Bottom: min(r.Bottom, bounds.Bottom),
	}
}

func sideFor(edge Edge) x11.Side {
	switch edge {
	case EdgeLeft:
		return x11.SideLeft
	case EdgeTop:
		return x11.SideTop
	case EdgeRight:
		return x11.SideRight
	default:
		return x11.SideBottom
	}
}

func (s *X11Shell) Activate(win WindowID) error {
	return xerr("activate", win, s.conn.Raise(xproto.Window(win)))
}

// PositionChanged re-asserts the bar's strut so the window manager
// recomputes the work area.
func (s *X11Shell) PositionChanged(win WindowID) error {
	s.mu.Lock()
	bar, ok := s.bars[win]
	var sp ewmh.WmStrutPartial
	if ok {
		sp = bar.strut
		ok = bar.placed
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return xerr("position changed", win, s.conn.SetStrut(xproto.Window(win), sp))
}

// GetState reads the primary host panel. A panel whose strut was cleared
// (by us or by its own auto-hide) reports AutoHide.
func (s *X11Shell) GetState() (HostPanelState, error) {
	primary, _, err := s.FindHostPanels()
	if err != nil {
		return HostPanelState{}, err
	}

	s.mu.Lock()
	_, saved := s.saved[primary]
	s.mu.Unlock()

	autoHide := saved
	if !autoHide {
		sp, ok := s.conn.Strut(xproto.Window(primary))
		autoHide = !ok || x11.StrutEmpty(sp)
	}
	return HostPanelState{
		AutoHide:    autoHide,
		AlwaysOnTop: s.conn.IsAbove(xproto.Window(primary)),
	}, nil
}

// SetState applies state to every host panel. AutoHide releases the panel's
// reserved space; clearing it puts the remembered strut back.
func (s *X11Shell) SetState(state HostPanelState) error {
	primary, secondary, err := s.FindHostPanels()
	if err != nil {
		return err
	}

	var errs []error
	for _, win := range append([]WindowID{primary}, secondary...) {
		if win == 0 || s.IsOwnWindow(win) {
			continue
		}
		if err := s.setPanelState(win, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *X11Shell) setPanelState(win WindowID, state HostPanelState) error {
	xwin := xproto.Window(win)

	s.mu.Lock()
	saved, hasSaved := s.saved[win]
	s.mu.Unlock()

	switch {
	case state.AutoHide && !hasSaved:
		if sp, ok := s.conn.Strut(xwin); ok && !x11.StrutEmpty(sp) {
			if err := s.conn.ClearStrut(xwin); err != nil {
				return xerr("set state", win, err)
			}
			s.mu.Lock()
			s.saved[win] = sp
			s.mu.Unlock()
		}
	case !state.AutoHide && hasSaved:
		if err := s.conn.SetStrut(xwin, saved); err != nil {
			return xerr("set state", win, err)
		}
		s.mu.Lock()
		delete(s.saved, win)
		s.mu.Unlock()
	}

	if s.conn.IsAbove(xwin) != state.AlwaysOnTop {
		if err := s.conn.SetAbove(xwin, state.AlwaysOnTop); err != nil {
			return xerr("set state", win, err)
		}
	}
	return nil
}

// SuspendInterop grabs the server. Nested calls share one grab.
func (s *X11Shell) SuspendInterop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grabs == 0 {
		if err := s.conn.GrabServer(); err != nil {
			return xerr("suspend interop", 0, err)
		}
	}
	s.grabs++
	return nil
}

func (s *X11Shell) ResumeInterop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grabs == 0 {
		return nil
	}
	s.grabs--
	if s.grabs == 0 {
		return xerr("resume interop", 0, s.conn.UngrabServer())
	}
	return nil
}

// FindHostPanels returns dock windows whose WM_CLASS identifies them as a
// host panel. The one on the primary monitor is returned as primary.
func (s *X11Shell) FindHostPanels() (primary WindowID, secondary []WindowID, err error) {
	docks, err := s.conn.DockClients()
	if err != nil {
		return 0, nil, xerr("find host panels", 0, err)
	}

	var matches []WindowID
	for _, win := range docks {
		instance, class := s.conn.WindowClass(win)
		if s.isHostClass(instance, class) {
			matches = append(matches, WindowID(win))
		}
	}
	if len(matches) == 0 {
		return 0, nil, ErrNoHostPanel
	}

	primaryBounds, hasPrimary := s.primaryBounds()
	for _, win := range matches {
		if primary == 0 && hasPrimary && s.windowOn(win, primaryBounds) {
			primary = win
			continue
		}
		secondary = append(secondary, win)
	}
	if primary == 0 {
		primary, secondary = secondary[0], secondary[1:]
	}
	return primary, secondary, nil
}

func (s *X11Shell) isHostClass(instance, class string) bool {
	if s.hostClass != "" {
		return strings.EqualFold(class, s.hostClass) || strings.EqualFold(instance, s.hostClass)
	}
	for _, known := range KnownHostPanels {
		if strings.EqualFold(class, known) || strings.EqualFold(instance, known) {
			return true
		}
	}
	return false
}

func (s *X11Shell) primaryBounds() (Rect, bool) {
	monitors, err := s.conn.GetMonitors()
	if err != nil || len(monitors) == 0 {
		return Rect{}, false
	}
	// GetMonitors orders the primary output first.
	m := monitors[0]
	return RectFromXYWH(m.X, m.Y, m.Width, m.Height), true
}

func (s *X11Shell) windowOn(win WindowID, bounds Rect) bool {
	x, y, w, h, err := s.conn.WindowGeometry(xproto.Window(win))
	if err != nil {
		return false
	}
	return bounds.Contains(x+w/2, y+h/2)
}

func (s *X11Shell) IsWindowVisible(win WindowID) (bool, error) {
	mapped, err := s.conn.IsMapped(xproto.Window(win))
	if err != nil {
		return false, xerr("query visibility", win, err)
	}
	return mapped, nil
}

func (s *X11Shell) SetWindowVisible(win WindowID, visible bool) error {
	return xerr("set visibility", win, s.conn.SetMapped(xproto.Window(win), visible))
}

// IsOwnWindow reports whether win is a registered bar or carries this
// process's _NET_WM_PID.
func (s *X11Shell) IsOwnWindow(win WindowID) bool {
	s.mu.Lock()
	_, ok := s.bars[win]
	s.mu.Unlock()
	if ok {
		return true
	}

	pid, ok := s.conn.WindowPID(xproto.Window(win))
	return ok && pid == os.Getpid()
}

// IsShellProcess reports whether this process is the running window manager.
func (s *X11Shell) IsShellProcess() bool {
	pid, ok := s.conn.WindowManagerPID()
	return ok && pid == os.Getpid()
}

// xerr wraps an X11 failure, translating request timeouts to ErrTimeout.
func xerr(op string, win WindowID, err error) error {
	if errors.Is(err, x11.ErrTimeout) {
		err = ErrTimeout
	}
	return Fail(op, win, err)
}
