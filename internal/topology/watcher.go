package topology

import (
	"log/slog"
	"sync"
)

// Reasons passed to NotifyDisplayChange.
const (
	ReasonScreenChange = "screen-change"
	ReasonResume       = "resume"
	ReasonManual       = "manual"
	ReasonStartup      = "startup"
	ReasonWorkArea     = "work-area"
)

// ChangeFunc is invoked once per confirmed topology change.
type ChangeFunc func(prev, next *Snapshot, reason string)

// Stats is a point-in-time view of the watcher's counters.
type Stats struct {
	Pending  int  `json:"pending"`
	InFlight bool `json:"in_flight"`
	// Passes counts comparison passes, Changes counts passes that found a change.
	Passes  int `json:"passes"`
	Changes int `json:"changes"`
}

// Watcher coalesces display and work-area notifications into comparison
// passes. A notification that arrives while a pass is running only bumps the
// pending counter; the running pass loops once more to cover it.
type Watcher struct {
	src      Source
	onChange ChangeFunc
	logger   *slog.Logger

	mu       sync.Mutex
	current  *Snapshot
	pending  int
	inFlight bool
	passes   int
	changes  int
}

// NewWatcher creates a watcher that reads monitors from src and calls
// onChange when the layout actually changed.
func NewWatcher(src Source, onChange ChangeFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		src:      src,
		onChange: onChange,
		logger:   logger,
	}
}

// Refresh captures a fresh snapshot and makes it the baseline without
// triggering onChange.
func (w *Watcher) Refresh() (*Snapshot, error) {
	snap, err := Capture(w.src)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.current = snap
	w.mu.Unlock()
	return snap, nil
}

// Current returns the last accepted snapshot.
func (w *Watcher) Current() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stats returns the watcher's counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Pending:  w.pending,
		InFlight: w.inFlight,
		Passes:   w.passes,
		Changes:  w.changes,
	}
}

// NotifyDisplayChange reports that the display configuration may have changed.
func (w *Watcher) NotifyDisplayChange(reason string) {
	if reason == "" {
		reason = ReasonScreenChange
	}
	w.reconcile(reason)
}

// NotifyWorkAreaChange reports that the desktop work area may have changed.
func (w *Watcher) NotifyWorkAreaChange() {
	w.reconcile(ReasonWorkArea)
}

func (w *Watcher) reconcile(reason string) {
	w.mu.Lock()
	w.pending++
	if w.inFlight {
		w.logger.Debug("topology pass in flight, coalescing notification",
			"reason", reason,
			"pending", w.pending,
		)
		w.mu.Unlock()
		return
	}
	w.inFlight = true
	w.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			w.mu.Lock()
			w.pending = 0
			w.inFlight = false
			w.mu.Unlock()
			panic(r)
		}
	}()

	for {
		w.mu.Lock()
		covered := w.pending
		if covered == 0 {
			w.inFlight = false
			w.mu.Unlock()
			return
		}
		w.passes++
		w.mu.Unlock()

		w.pass(reason)

		w.mu.Lock()
		w.pending -= covered
		w.mu.Unlock()
	}
}

// pass compares a fresh snapshot against the current one and fires onChange
// when they differ.
func (w *Watcher) pass(reason string) {
	next, err := Capture(w.src)
	if err != nil {
		w.logger.Debug("topology capture failed, keeping previous snapshot",
			"reason", reason,
			"error", err,
		)
		return
	}

	w.mu.Lock()
	prev := w.current
	w.mu.Unlock()

	if prev.Equal(next) {
		w.logger.Debug("topology unchanged", "reason", reason, "monitors", next.Len())
		return
	}

	w.mu.Lock()
	w.current = next
	w.changes++
	w.mu.Unlock()

	w.logger.Info("monitor topology changed",
		"reason", reason,
		"monitors", next.Len(),
		"diff", prev.Diff(next),
	)
	if w.onChange != nil {
		w.onChange(prev, next, reason)
	}
}
