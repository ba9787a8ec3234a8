// Package hostshell suppresses the host desktop's own panel while edgebar
// runs and puts it back afterwards.
package hostshell

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/edgebar/internal/platform"
)

// DefaultRestoreState is restored when nothing was captured this session.
var DefaultRestoreState = platform.HostPanelState{AlwaysOnTop: true}

// Options gates what the controller is allowed to touch.
type Options struct {
	// ManageVisibility allows hiding and showing host panel windows at all.
	ManageVisibility bool
	// SuppressSecondary extends visibility changes to per-monitor host panels.
	SuppressSecondary bool
	// Replace means edgebar stands in for the host panel.
	Replace bool
	// KeepVisible means the user wants the host panel left on screen.
	KeepVisible bool
	Logger      *slog.Logger
}

// Controller owns the host panel's remembered state.
type Controller struct {
	shell  platform.Shell
	logger *slog.Logger

	mu         sync.Mutex
	opts       Options
	captured   platform.HostPanelState
	hasState   bool
	suppressed bool
}

// New returns a controller for shell.
func New(shell platform.Shell, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{shell: shell, logger: logger, opts: opts}
}

// SetOptions swaps the gating options, e.g. after a config reload. The
// captured state is kept.
func (c *Controller) SetOptions(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	opts.Logger = c.logger
	c.opts = opts
}

// CapturedState returns the state that RestoreHostPanel will apply, and
// whether it was captured from the shell.
func (c *Controller) CapturedState() (platform.HostPanelState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasState {
		return DefaultRestoreState, false
	}
	return c.captured, true
}

// Suppressed reports whether the host panel is currently suppressed.
func (c *Controller) Suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}

// SuppressHostPanel switches the host panel to auto-hide and hides it. The
// state seen on the first call of the session is what RestoreHostPanel puts
// back; later calls never overwrite it.
func (c *Controller) SuppressHostPanel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shell.IsShellProcess() {
		c.logger.Debug("running as the host shell, not suppressing its panel")
		return nil
	}
	if !c.opts.Replace || c.opts.KeepVisible {
		c.logger.Debug("host panel suppression not wanted",
			"replace", c.opts.Replace,
			"keep_visible", c.opts.KeepVisible,
		)
		return nil
	}

	if !c.hasState {
		var state platform.HostPanelState
		err := platform.WithInterop(c.shell, func() error {
			var gerr error
			state, gerr = c.shell.GetState()
			return gerr
		})
		if err != nil {
			return fmt.Errorf("capture host panel state: %w", err)
		}
		c.captured = state
		c.hasState = true
		c.logger.Info("captured host panel state", "state", state)
	}

	err := platform.WithInterop(c.shell, func() error {
		return c.shell.SetState(platform.HostPanelState{AutoHide: true})
	})
	if err != nil {
		return fmt.Errorf("set host panel auto-hide: %w", err)
	}
	c.suppressed = true

	c.setVisibilityLocked(true)
	return nil
}

// RestoreHostPanel applies the captured state, or DefaultRestoreState when
// none was captured, and shows the host panels again.
func (c *Controller) RestoreHostPanel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shell.IsShellProcess() {
		return nil
	}

	state := DefaultRestoreState
	if c.hasState {
		state = c.captured
	}
	err := platform.WithInterop(c.shell, func() error {
		return c.shell.SetState(state)
	})
	if err != nil {
		return fmt.Errorf("restore host panel state: %w", err)
	}
	c.suppressed = false
	c.logger.Info("restored host panel", "state", state)

	c.setVisibilityLocked(false)
	return nil
}

// SetHostPanelVisibility hides or shows the host panel windows and returns
// how many windows actually changed. Windows already in the wanted state are
// left alone, and a window that times out counts as unchanged.
func (c *Controller) SetHostPanelVisibility(hide bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setVisibilityLocked(hide)
}

func (c *Controller) setVisibilityLocked(hide bool) int {
	if !c.opts.ManageVisibility {
		return 0
	}

	changed := 0
	for _, win := range c.targetsLocked() {
		visible, err := c.shell.IsWindowVisible(win)
		if err != nil {
			c.logger.Debug("host panel visibility unknown", "window", win, "error", err)
			continue
		}
		if visible != hide {
			continue
		}

		err = platform.WithInterop(c.shell, func() error {
			return c.shell.SetWindowVisible(win, !hide)
		})
		switch {
		case errors.Is(err, platform.ErrTimeout):
			c.logger.Debug("host panel did not answer, treating as unchanged", "window", win)
		case err != nil:
			c.logger.Debug("host panel visibility change failed", "window", win, "error", err)
		default:
			changed++
		}
	}
	if changed > 0 {
		c.logger.Debug("host panel visibility changed", "hide", hide, "windows", changed)
	}
	return changed
}

// targetsLocked lists the host panel windows to act on, skipping edgebar's
// own windows since they can share the host panel's class.
func (c *Controller) targetsLocked() []platform.WindowID {
	primary, secondary, err := c.shell.FindHostPanels()
	if err != nil {
		if !errors.Is(err, platform.ErrNoHostPanel) {
			c.logger.Debug("host panel lookup failed", "error", err)
		}
		return nil
	}

	var out []platform.WindowID
	if primary != 0 && !c.shell.IsOwnWindow(primary) {
		out = append(out, primary)
	}
	if c.opts.SuppressSecondary {
		for _, win := range secondary {
			if !c.shell.IsOwnWindow(win) {
				out = append(out, win)
			}
		}
	}
	return out
}
