// Package hotkeys binds edgebar's global keyboard shortcuts on the X root
// window.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/edgebar/internal/config"
	"github.com/1broseidon/edgebar/internal/x11"
)

// Actions are the operations a hotkey can trigger. Both are called from the
// X event loop and must not block.
type Actions interface {
	RequestReopen()
	ToggleHostPanel()
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	actions Actions
	logger  *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(conn *x11.Connection, actions Actions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		xu:      conn.XUtil,
		root:    conn.Root,
		actions: actions,
		logger:  logger,
	}
}

// Bind registers every configured key sequence. Empty sequences are
// skipped. A sequence that cannot be grabbed does not stop the others.
func (h *Handler) Bind(keys config.Hotkeys) error {
	var errs []error
	bind := func(name, seq string, fn func()) {
		if seq == "" {
			return
		}
		err := h.RegisterFunc(seq, func() {
			h.logger.Debug("hotkey triggered", "action", name, "keys", seq)
			fn()
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("hotkeys.%s %q: %w", name, seq, err))
			return
		}
		h.logger.Info("hotkey bound", "action", name, "keys", seq)
	}

	bind("reopen", keys.Reopen, h.actions.RequestReopen)
	bind("toggle_host_panel", keys.ToggleHostPanel, h.actions.ToggleHostPanel)
	return errors.Join(errs...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// Unbind releases every key grab on the root window.
func (h *Handler) Unbind() {
	keybind.Detach(h.xu, h.root)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")
	xevent.IgnoreMods = ignoreMasks(uint16(xproto.ModMaskLock), numLock, scrollLock)
}

// ignoreMasks returns every combination of the lock modifiers, so a hotkey
// fires whatever lock keys are on. Zero and duplicate masks are dropped
// from the base set.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	sort.Slice(ignore, func(i, j int) bool { return ignore[i] < ignore[j] })
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
