// Package appbar keeps the set of docked bars and negotiates their reserved
// screen space with the host shell.
package appbar

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/topology"
)

// CallbackMessage is the name under which the shell callback message is registered.
const CallbackMessage = "EDGEBAR_APPBAR_CALLBACK"

// Unregistered is returned by RegisterBar when the call toggled an existing
// registration off.
const Unregistered platform.CallbackID = 0

// DefaultMaxAttempts bounds the negotiation retry loop.
const DefaultMaxAttempts = 3

// Bar is the part of a panel the registry talks to. Bar methods are called
// with the registry lock held and must not call back into the Registry.
type Bar interface {
	Window() platform.WindowID
	// Monitor is the bar's target monitor. A zero Handle means none yet.
	Monitor() platform.Monitor
	// Bounds is the bar's current rectangle in device-independent pixels.
	Bounds() platform.Rect
	// PixelBounds is the same rectangle in physical pixels, as last applied.
	PixelBounds() platform.Rect
	DPIScale() float64
	SetAssignedRect(r platform.Rect) error
	NotifyNegotiationComplete(unchanged bool, r platform.Rect)
	NotifyFullScreen(active bool)
}

// Registration is a docked bar as the shell knows it.
type Registration struct {
	Window   platform.WindowID   `json:"window"`
	Edge     platform.Edge       `json:"edge"`
	Width    int                 `json:"width"`
	Height   int                 `json:"height"`
	Scale    float64             `json:"scale"`
	Assigned platform.Rect       `json:"assigned"`
	Callback platform.CallbackID `json:"callback"`
}

// Options configures a Registry.
type Options struct {
	// MaxAttempts caps negotiation passes when the shell grants less space
	// than requested. Zero means DefaultMaxAttempts.
	MaxAttempts int
	// ValidMonitor reports whether a monitor handle is still part of the
	// current topology.
	ValidMonitor func(platform.MonitorHandle) bool
	Logger       *slog.Logger
}

// Registry owns every dock registration. All registration and negotiation
// calls are serialized by one lock: the shell has a single negotiation slot
// shared by every bar.
type Registry struct {
	shell  platform.Shell
	logger *slog.Logger

	mu           sync.Mutex
	maxAttempts  int
	validMonitor func(platform.MonitorHandle) bool
	callback     platform.CallbackID
	regs         map[platform.WindowID]*Registration
	bars         map[platform.WindowID]Bar
}

// NewRegistry creates an empty registry bound to shell.
func NewRegistry(shell platform.Shell, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Registry{
		shell:        shell,
		logger:       logger,
		maxAttempts:  maxAttempts,
		validMonitor: opts.ValidMonitor,
		regs:         make(map[platform.WindowID]*Registration),
		bars:         make(map[platform.WindowID]Bar),
	}
}

// SetMonitorValidator replaces the stale-monitor check.
func (r *Registry) SetMonitorValidator(fn func(platform.MonitorHandle) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validMonitor = fn
}

// SetMaxAttempts changes the retry bound for later negotiations.
func (r *Registry) SetMaxAttempts(n int) {
	if n <= 0 {
		n = DefaultMaxAttempts
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxAttempts = n
}

// RegisterBar docks bar on edge with the requested size in device-independent
// pixels and negotiates its first position. Calling it for a bar that is
// already registered removes the registration instead and returns
// Unregistered.
func (r *Registry) RegisterBar(bar Bar, width, height int, edge platform.Edge) (platform.CallbackID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	win := bar.Window()
	if _, ok := r.regs[win]; ok {
		r.removeLocked(win)
		return Unregistered, nil
	}

	cb, err := r.callbackLocked()
	if err != nil {
		return Unregistered, err
	}

	err = platform.WithInterop(r.shell, func() error {
		return r.shell.NewBar(win, cb, edge)
	})
	if err != nil {
		return Unregistered, fmt.Errorf("register bar 0x%x: %w", uint32(win), err)
	}

	r.regs[win] = &Registration{
		Window:   win,
		Edge:     edge,
		Width:    width,
		Height:   height,
		Scale:    bar.DPIScale(),
		Callback: cb,
	}
	r.bars[win] = bar
	r.logger.Debug("bar registered", "window", win, "edge", edge, "callback", cb)

	if _, err := r.setPositionLocked(bar, width, height, edge, true); err != nil {
		return cb, err
	}
	return cb, nil
}

func (r *Registry) callbackLocked() (platform.CallbackID, error) {
	if r.callback != Unregistered {
		return r.callback, nil
	}
	cb, err := r.shell.RegisterCallbackMessage(CallbackMessage)
	if err != nil {
		return Unregistered, fmt.Errorf("register callback message: %w", err)
	}
	r.callback = cb
	return cb, nil
}

// Unregister removes bar's registration. It is a no-op for unknown bars.
func (r *Registry) Unregister(bar Bar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[bar.Window()]; ok {
		r.removeLocked(bar.Window())
	}
}

func (r *Registry) removeLocked(win platform.WindowID) {
	delete(r.regs, win)
	delete(r.bars, win)
	err := platform.WithInterop(r.shell, func() error {
		return r.shell.RemoveBar(win)
	})
	if err != nil {
		r.logger.Debug("remove bar failed", "window", win, "error", err)
		return
	}
	r.logger.Debug("bar unregistered", "window", win)
}

// Registered reports whether win has a live registration.
func (r *Registry) Registered(win platform.WindowID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.regs[win]
	return ok
}

// Registrations returns copies of every registration ordered by window.
func (r *Registry) Registrations() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Registration, 0, len(r.regs))
	for _, reg := range r.regs {
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window < out[j].Window })
	return out
}

// Activate tells the shell bar was activated.
func (r *Registry) Activate(bar Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	win := bar.Window()
	if _, ok := r.regs[win]; !ok {
		return ErrNotRegistered
	}
	return platform.WithInterop(r.shell, func() error {
		return r.shell.Activate(win)
	})
}

// PositionChanged tells the shell bar moved on its own.
func (r *Registry) PositionChanged(bar Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	win := bar.Window()
	if _, ok := r.regs[win]; !ok {
		return ErrNotRegistered
	}
	return platform.WithInterop(r.shell, func() error {
		return r.shell.PositionChanged(win)
	})
}

// SetPosition negotiates bar's rectangle on edge with the shell and applies
// the result. width and height are device-independent pixels.
func (r *Registry) SetPosition(bar Bar, width, height int, edge platform.Edge, initial bool) (platform.Rect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setPositionLocked(bar, width, height, edge, initial)
}

func (r *Registry) setPositionLocked(bar Bar, width, height int, edge platform.Edge, initial bool) (platform.Rect, error) {
	win := bar.Window()
	scale := bar.DPIScale()
	w, h := scalePixels(width, scale), scalePixels(height, scale)
	want := h
	if !edge.Horizontal() {
		want = w
	}

	monitor := bar.Monitor()
	if r.stale(monitor.Handle) {
		return platform.Rect{}, fmt.Errorf("negotiate bar 0x%x: %w", uint32(win), ErrStaleMonitor)
	}

	var (
		final platform.Rect
		err   error
	)
	attempt := 1
	for ; attempt <= r.maxAttempts; attempt++ {
		final, err = r.negotiateLocked(win, monitor, edge, w, h)
		if err != nil {
			return platform.Rect{}, err
		}
		if Thickness(final, edge) >= want {
			break
		}
		r.logger.Debug("shell granted less space, retrying",
			"window", win,
			"edge", edge,
			"attempt", attempt,
			"want", want,
			"got", Thickness(final, edge),
		)
	}
	if attempt > r.maxAttempts {
		r.logger.Debug("using best-effort rectangle",
			"window", win,
			"rect", final,
			"error", fmt.Errorf("%w after %d attempts", ErrShortfall, r.maxAttempts),
		)
	}

	// The monitor can vanish while the shell is being queried.
	if r.stale(monitor.Handle) {
		return platform.Rect{}, fmt.Errorf("negotiate bar 0x%x: %w", uint32(win), ErrStaleMonitor)
	}

	unchanged := bar.PixelBounds() == final
	if !unchanged {
		if err := bar.SetAssignedRect(final); err != nil {
			r.logger.Debug("move bar failed", "window", win, "rect", final, "error", err)
		} else {
			r.logger.Debug("bar moved",
				"window", win,
				"edge", edge,
				"rect", final,
				"initial", initial,
			)
		}
	}
	bar.NotifyNegotiationComplete(unchanged, final)

	if reg, ok := r.regs[win]; ok {
		reg.Edge = edge
		reg.Width = width
		reg.Height = height
		reg.Scale = scale
		reg.Assigned = final
	}
	return final, nil
}

// negotiateLocked runs one query/set exchange and returns the rectangle the
// shell accepted. A query or set the shell fails to answer is skipped and
// the best rectangle known so far is used.
func (r *Registry) negotiateLocked(win platform.WindowID, monitor platform.Monitor, edge platform.Edge, w, h int) (platform.Rect, error) {
	bounds, err := r.monitorBounds(monitor)
	if err != nil {
		return platform.Rect{}, fmt.Errorf("negotiate bar 0x%x: %w", uint32(win), err)
	}
	candidate := CandidateRect(bounds, edge, w, h)

	granted := candidate
	err = platform.WithInterop(r.shell, func() error {
		got, qerr := r.shell.QueryPosition(win, edge, candidate)
		if qerr == nil {
			granted = got
		}
		return qerr
	})
	if err != nil {
		r.logger.Debug("query position failed, using candidate", "window", win, "rect", candidate, "error", err)
	}
	granted = ClampThickness(granted, edge, w, h)

	final := granted
	err = platform.WithInterop(r.shell, func() error {
		got, serr := r.shell.SetPosition(win, edge, granted)
		if serr == nil {
			final = got
		}
		return serr
	})
	if err != nil {
		r.logger.Debug("set position failed, keeping clamped rectangle", "window", win, "rect", granted, "error", err)
	}
	return final, nil
}

func (r *Registry) monitorBounds(monitor platform.Monitor) (platform.Rect, error) {
	if monitor.Handle != 0 && !monitor.Bounds.Empty() {
		return monitor.Bounds, nil
	}
	snap, err := topology.Capture(r.shell)
	if err != nil {
		return platform.Rect{}, err
	}
	primary, _ := snap.Primary()
	return primary.Bounds, nil
}

func (r *Registry) stale(handle platform.MonitorHandle) bool {
	return handle != 0 && r.validMonitor != nil && !r.validMonitor(handle)
}

// HandleShellNotification routes a shell callback to its bar. A position
// change with no window renegotiates every registered bar.
func (r *Registry) HandleShellNotification(ev platform.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Notification {
	case platform.NotifyPosChanged:
		for _, win := range r.targetsLocked(ev.Window) {
			reg := r.regs[win]
			if _, err := r.setPositionLocked(r.bars[win], reg.Width, reg.Height, reg.Edge, false); err != nil {
				r.logger.Debug("renegotiation failed", "window", win, "error", err)
			}
		}
	case platform.NotifyFullScreenApp:
		for _, win := range r.targetsLocked(ev.Window) {
			r.bars[win].NotifyFullScreen(ev.Active)
		}
	case platform.NotifyStateChange:
		r.logger.Debug("host shell state changed", "window", ev.Window)
	default:
		r.logger.Debug("ignoring shell notification", "notification", ev.Notification)
	}
}

// targetsLocked returns win when registered, or every registered window
// in ascending order when win is zero.
func (r *Registry) targetsLocked(win platform.WindowID) []platform.WindowID {
	if win != 0 {
		if _, ok := r.regs[win]; ok {
			return []platform.WindowID{win}
		}
		return nil
	}
	out := make([]platform.WindowID, 0, len(r.regs))
	for w := range r.regs {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
