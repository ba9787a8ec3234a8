package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/platform/shelltest"
)

// hookSource lets a test run code in the middle of a comparison pass.
type hookSource struct {
	shell    *shelltest.Shell
	captures int
	hook     func(capture int)
}

func (s *hookSource) Monitors() ([]platform.Monitor, error) {
	s.captures++
	if s.hook != nil {
		s.hook(s.captures)
	}
	return s.shell.Monitors()
}

type change struct {
	prev, next int
	reason     string
}

func newTestWatcher(t *testing.T, monitors ...platform.Monitor) (*Watcher, *hookSource, *[]change) {
	t.Helper()
	src := &hookSource{shell: shelltest.New(monitors...)}
	changes := &[]change{}
	w := NewWatcher(src, func(prev, next *Snapshot, reason string) {
		*changes = append(*changes, change{prev: prev.Len(), next: next.Len(), reason: reason})
	}, nil)
	_, err := w.Refresh()
	require.NoError(t, err)
	return w, src, changes
}

func TestWatcher_SpuriousNotificationCostsOneComparison(t *testing.T) {
	w, src, changes := newTestWatcher(t, twoMonitors()...)

	w.NotifyDisplayChange(ReasonScreenChange)

	stats := w.Stats()
	assert.Equal(t, 1, stats.Passes)
	assert.Zero(t, stats.Changes)
	assert.Zero(t, stats.Pending)
	assert.False(t, stats.InFlight)
	assert.Empty(t, *changes)
	assert.Equal(t, 2, src.captures)
}

func TestWatcher_BurstDuringPassCollapsesToOneExtraPass(t *testing.T) {
	w, src, _ := newTestWatcher(t, twoMonitors()...)

	const burst = 5
	var pendingDuringPass int
	src.hook = func(capture int) {
		// capture 1 was Refresh, capture 2 is the first pass.
		if capture != 2 {
			return
		}
		for i := 0; i < burst; i++ {
			w.NotifyDisplayChange(ReasonScreenChange)
		}
		pendingDuringPass = w.Stats().Pending
	}

	w.NotifyDisplayChange(ReasonScreenChange)

	assert.Equal(t, burst+1, pendingDuringPass)
	stats := w.Stats()
	assert.Equal(t, 2, stats.Passes)
	assert.Zero(t, stats.Pending)
	assert.False(t, stats.InFlight)
	assert.Equal(t, 3, src.captures)
}

func TestWatcher_UnplugTriggersChange(t *testing.T) {
	w, src, changes := newTestWatcher(t, twoMonitors()...)

	src.shell.SetMonitors(twoMonitors()[0])
	w.NotifyDisplayChange(ReasonScreenChange)

	require.Len(t, *changes, 1)
	assert.Equal(t, change{prev: 2, next: 1, reason: ReasonScreenChange}, (*changes)[0])
	assert.Equal(t, 1, w.Current().Len())
	assert.Equal(t, 1, w.Stats().Changes)
}

func TestWatcher_NotificationFromChangeHandlerDoesNotNest(t *testing.T) {
	src := &hookSource{shell: shelltest.New(twoMonitors()...)}
	var w *Watcher
	depth, maxDepth, calls := 0, 0, 0
	w = NewWatcher(src, func(prev, next *Snapshot, reason string) {
		calls++
		depth++
		maxDepth = max(maxDepth, depth)
		// Rebuilding panels makes the shell report another change.
		w.NotifyWorkAreaChange()
		depth--
	}, nil)
	_, err := w.Refresh()
	require.NoError(t, err)

	src.shell.SetMonitors(twoMonitors()[1])
	w.NotifyDisplayChange(ReasonResume)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, maxDepth)
	stats := w.Stats()
	assert.Equal(t, 2, stats.Passes)
	assert.Zero(t, stats.Pending)
}

func TestWatcher_CaptureFailureKeepsSnapshot(t *testing.T) {
	w, src, changes := newTestWatcher(t, twoMonitors()...)
	before := w.Current()

	src.shell.SetMonitorsError(errors.New("connection lost"))
	w.NotifyDisplayChange(ReasonScreenChange)

	assert.Same(t, before, w.Current())
	assert.Empty(t, *changes)
	assert.Zero(t, w.Stats().Pending)
}

func TestWatcher_PanicClearsInFlight(t *testing.T) {
	src := &hookSource{shell: shelltest.New(twoMonitors()...)}
	fail := true
	w := NewWatcher(src, func(prev, next *Snapshot, reason string) {
		if fail {
			panic("rebuild failed")
		}
	}, nil)
	_, err := w.Refresh()
	require.NoError(t, err)

	src.shell.SetMonitors(twoMonitors()[0])
	assert.Panics(t, func() { w.NotifyDisplayChange(ReasonScreenChange) })

	stats := w.Stats()
	assert.False(t, stats.InFlight)
	assert.Zero(t, stats.Pending)

	fail = false
	src.shell.SetMonitors(twoMonitors()...)
	w.NotifyDisplayChange(ReasonManual)
	assert.Equal(t, 2, w.Current().Len())
}
