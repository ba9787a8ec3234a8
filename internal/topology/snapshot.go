// Package topology captures monitor layouts and decides when a change in the
// layout is real enough to rebuild the dock panels.
package topology

import (
	"errors"
	"fmt"
	"time"

	"github.com/1broseidon/edgebar/internal/platform"
)

// ErrNoMonitors is returned when the shell reports an empty monitor list.
var ErrNoMonitors = errors.New("no monitors found")

// MonitorDescriptor is one monitor inside a Snapshot.
type MonitorDescriptor = platform.Monitor

// Source enumerates the current monitors.
type Source interface {
	Monitors() ([]platform.Monitor, error)
}

// Snapshot is an immutable, ordered view of every monitor at one point in time.
type Snapshot struct {
	monitors []MonitorDescriptor
	taken    time.Time
}

// NewSnapshot copies monitors into a new snapshot.
func NewSnapshot(monitors []MonitorDescriptor) *Snapshot {
	cp := make([]MonitorDescriptor, len(monitors))
	copy(cp, monitors)
	return &Snapshot{monitors: cp, taken: time.Now()}
}

// Capture asks src for the current monitors.
func Capture(src Source) (*Snapshot, error) {
	monitors, err := src.Monitors()
	if err != nil {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	if len(monitors) == 0 {
		return nil, ErrNoMonitors
	}
	return NewSnapshot(monitors), nil
}

// Monitors returns a copy of the monitors in enumeration order.
func (s *Snapshot) Monitors() []MonitorDescriptor {
	if s == nil {
		return nil
	}
	cp := make([]MonitorDescriptor, len(s.monitors))
	copy(cp, s.monitors)
	return cp
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.monitors)
}

// Taken is the capture time.
func (s *Snapshot) Taken() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.taken
}

// Primary returns the primary monitor, or the first one when none is flagged.
func (s *Snapshot) Primary() (MonitorDescriptor, bool) {
	if s.Len() == 0 {
		return MonitorDescriptor{}, false
	}
	for _, m := range s.monitors {
		if m.Primary {
			return m, true
		}
	}
	return s.monitors[0], true
}

// Contains reports whether a monitor with the given native handle is present.
func (s *Snapshot) Contains(handle platform.MonitorHandle) bool {
	if s == nil {
		return false
	}
	for _, m := range s.monitors {
		if m.Handle == handle {
			return true
		}
	}
	return false
}

// Equal compares two snapshots monitor by monitor in order. Bounds, device and
// primary flag must match; native handles are identity tokens and are ignored.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if !sameMonitor(s.monitors[i], other.monitors[i]) {
			return false
		}
	}
	return true
}

func sameMonitor(a, b MonitorDescriptor) bool {
	return a.Bounds == b.Bounds &&
		a.Device == b.Device &&
		a.Primary == b.Primary
}

// Diff describes how other differs from s, one line per difference.
func (s *Snapshot) Diff(other *Snapshot) []string {
	var out []string
	if s.Len() != other.Len() {
		out = append(out, fmt.Sprintf("monitor count %d -> %d", s.Len(), other.Len()))
	}
	n := min(s.Len(), other.Len())
	for i := 0; i < n; i++ {
		a, b := s.monitors[i], other.monitors[i]
		if a.Bounds != b.Bounds {
			out = append(out, fmt.Sprintf("monitor %d bounds %s -> %s", i, a.Bounds, b.Bounds))
		}
		if a.Device != b.Device {
			out = append(out, fmt.Sprintf("monitor %d device %q -> %q", i, a.Device, b.Device))
		}
		if a.Primary != b.Primary {
			out = append(out, fmt.Sprintf("monitor %d primary %v -> %v", i, a.Primary, b.Primary))
		}
	}
	return out
}
