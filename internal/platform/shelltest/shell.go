// Package shelltest provides an in-memory host shell for deterministic tests
// of the dock core.
package shelltest

import (
	"fmt"
	"sync"

	"github.com/1broseidon/edgebar/internal/platform"
)

// Shell is a fake platform.Shell. Construct it with New.
type Shell struct {
	mu sync.Mutex

	monitors    []platform.Monitor
	monitorsErr error

	nextCallback platform.CallbackID
	bars         map[platform.WindowID]platform.Edge
	positions    map[platform.WindowID]platform.Rect

	// Grant adjusts a queried rectangle. Defaults to granting the request.
	Grant func(win platform.WindowID, edge platform.Edge, rect platform.Rect) platform.Rect
	// Finalize adjusts the rectangle passed to SetPosition. Defaults to
	// accepting it unchanged.
	Finalize func(win platform.WindowID, edge platform.Edge, rect platform.Rect) platform.Rect
	// OnQuery runs inside QueryPosition before Grant; tests use it to panic
	// or to re-enter the core.
	OnQuery func(win platform.WindowID)
	// QueryErr and SetErr make QueryPosition and SetPosition fail without
	// effect while set.
	QueryErr error
	SetErr   error

	state platform.HostPanelState

	hostPanel   platform.WindowID
	secondary   []platform.WindowID
	visible     map[platform.WindowID]bool
	hideTimeout map[platform.WindowID]bool
	own         map[platform.WindowID]bool
	shell       bool

	suspended   int
	unbracketed int

	calls           []string
	visibilityCalls int
	monitorsCalls   int
	setStateCalls   int

	subs   map[int]func(platform.Event)
	nextID int
}

// New returns a fake shell with the given monitors and a visible, on-top host
// panel with window id 1000.
func New(monitors ...platform.Monitor) *Shell {
	return &Shell{
		monitors:     monitors,
		nextCallback: 0xC000,
		bars:         make(map[platform.WindowID]platform.Edge),
		positions:    make(map[platform.WindowID]platform.Rect),
		state:        platform.HostPanelState{AlwaysOnTop: true},
		hostPanel:    1000,
		visible:      map[platform.WindowID]bool{1000: true},
		hideTimeout:  make(map[platform.WindowID]bool),
		own:          make(map[platform.WindowID]bool),
		subs:         make(map[int]func(platform.Event)),
	}
}

// Monitor builds a monitor descriptor for tests.
func Monitor(handle int, device string, x, y, w, h int, primary bool) platform.Monitor {
	return platform.Monitor{
		Handle:  platform.MonitorHandle(handle),
		Device:  device,
		Bounds:  platform.RectFromXYWH(x, y, w, h),
		Primary: primary,
	}
}

func (s *Shell) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *Shell) checkBracketLocked() {
	if s.suspended == 0 {
		s.unbracketed++
	}
}

// SetMonitors replaces the monitor topology.
func (s *Shell) SetMonitors(monitors ...platform.Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitors = monitors
}

// SetMonitorsError makes Monitors fail with err until cleared with nil.
func (s *Shell) SetMonitorsError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitorsErr = err
}

func (s *Shell) Monitors() ([]platform.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitorsCalls++
	if s.monitorsErr != nil {
		return nil, s.monitorsErr
	}
	out := make([]platform.Monitor, len(s.monitors))
	copy(out, s.monitors)
	return out, nil
}

func (s *Shell) RegisterCallbackMessage(name string) (platform.CallbackID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("register-message %s", name)
	return s.nextCallback, nil
}

func (s *Shell) NewBar(win platform.WindowID, callback platform.CallbackID, edge platform.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.record("new 0x%x %s", uint32(win), edge)
	s.bars[win] = edge
	return nil
}

func (s *Shell) RemoveBar(win platform.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.record("remove 0x%x", uint32(win))
	delete(s.bars, win)
	delete(s.positions, win)
	return nil
}

func (s *Shell) QueryPosition(win platform.WindowID, edge platform.Edge, rect platform.Rect) (platform.Rect, error) {
	s.mu.Lock()
	s.checkBracketLocked()
	s.record("query 0x%x %s %s", uint32(win), edge, rect)
	onQuery, grant, qerr := s.OnQuery, s.Grant, s.QueryErr
	s.mu.Unlock()

	if onQuery != nil {
		onQuery(win)
	}
	if qerr != nil {
		return platform.Rect{}, platform.Fail("query position", win, qerr)
	}
	if grant != nil {
		return grant(win, edge, rect), nil
	}
	return rect, nil
}

func (s *Shell) SetPosition(win platform.WindowID, edge platform.Edge, rect platform.Rect) (platform.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.record("set 0x%x %s %s", uint32(win), edge, rect)
	if s.SetErr != nil {
		return platform.Rect{}, platform.Fail("set position", win, s.SetErr)
	}
	if s.Finalize != nil {
		rect = s.Finalize(win, edge, rect)
	}
	s.positions[win] = rect
	return rect, nil
}

func (s *Shell) Activate(win platform.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.record("activate 0x%x", uint32(win))
	return nil
}

func (s *Shell) PositionChanged(win platform.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.record("position-changed 0x%x", uint32(win))
	return nil
}

func (s *Shell) GetState() (platform.HostPanelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Shell) SetState(state platform.HostPanelState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.setStateCalls++
	s.record("set-state %s", state)
	s.state = state
	return nil
}

func (s *Shell) SuspendInterop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended++
	return nil
}

func (s *Shell) ResumeInterop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended > 0 {
		s.suspended--
	}
	return nil
}

// SetHostPanels replaces the host panel handles; all start visible.
func (s *Shell) SetHostPanels(primary platform.WindowID, secondary ...platform.WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostPanel = primary
	s.secondary = secondary
	s.visible = make(map[platform.WindowID]bool)
	if primary != 0 {
		s.visible[primary] = true
	}
	for _, w := range secondary {
		s.visible[w] = true
	}
}

// FindHostPanels returns every host panel window, own windows included.
func (s *Shell) FindHostPanels() (platform.WindowID, []platform.WindowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hostPanel == 0 && len(s.secondary) == 0 {
		return 0, nil, platform.ErrNoHostPanel
	}
	secondary := make([]platform.WindowID, len(s.secondary))
	copy(secondary, s.secondary)
	return s.hostPanel, secondary, nil
}

func (s *Shell) IsWindowVisible(win platform.WindowID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[win], nil
}

// SetHideTimeout makes visibility changes on win time out without effect.
func (s *Shell) SetHideTimeout(win platform.WindowID, timeout bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hideTimeout[win] = timeout
}

func (s *Shell) SetWindowVisible(win platform.WindowID, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkBracketLocked()
	s.visibilityCalls++
	s.record("visible 0x%x %v", uint32(win), visible)
	if s.hideTimeout[win] {
		return platform.Fail("set visibility", win, platform.ErrTimeout)
	}
	s.visible[win] = visible
	return nil
}

// MarkOwn flags win as one of this process's own windows.
func (s *Shell) MarkOwn(win platform.WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own[win] = true
}

func (s *Shell) IsOwnWindow(win platform.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.own[win]
}

// SetShellProcess marks the process as acting as the host shell itself.
func (s *Shell) SetShellProcess(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shell = v
}

func (s *Shell) IsShellProcess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shell
}

func (s *Shell) Subscribe(fn func(platform.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Emit delivers ev to every subscriber synchronously.
func (s *Shell) Emit(ev platform.Event) {
	s.mu.Lock()
	subs := make([]func(platform.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// SetLiveState overwrites the host panel state without recording a call,
// the way a user toggling the host panel's settings would.
func (s *Shell) SetLiveState(state platform.HostPanelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Calls returns a copy of the recorded protocol calls.
func (s *Shell) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// ResetCalls clears the call log and counters.
func (s *Shell) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.visibilityCalls = 0
	s.monitorsCalls = 0
	s.setStateCalls = 0
}

func (s *Shell) VisibilityCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibilityCalls
}

func (s *Shell) MonitorsCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitorsCalls
}

func (s *Shell) SetStateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStateCalls
}

// Suspended returns the current interop suspension depth.
func (s *Shell) Suspended() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// Unbracketed counts protocol calls made while interop was not suspended.
func (s *Shell) Unbracketed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unbracketed
}

// HasBar reports whether win is registered with the fake shell.
func (s *Shell) HasBar(win platform.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bars[win]
	return ok
}

// Position returns the last rectangle set for win.
func (s *Shell) Position(win platform.WindowID) (platform.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.positions[win]
	return r, ok
}

// Visible reports the fake visibility of win.
func (s *Shell) Visible(win platform.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[win]
}

// State returns the current host panel state.
func (s *Shell) State() platform.HostPanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

var _ platform.Shell = (*Shell)(nil)
