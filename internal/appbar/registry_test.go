package appbar

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/platform/shelltest"
)

type completion struct {
	unchanged bool
	rect      platform.Rect
}

type fakeBar struct {
	win     platform.WindowID
	monitor platform.Monitor
	bounds  platform.Rect
	scale   float64

	moves       []platform.Rect
	completions []completion
	fullscreen  []bool
}

func newFakeBar(win platform.WindowID, monitor platform.Monitor) *fakeBar {
	return &fakeBar{win: win, monitor: monitor, scale: 1}
}

func (b *fakeBar) Window() platform.WindowID  { return b.win }
func (b *fakeBar) Monitor() platform.Monitor  { return b.monitor }
func (b *fakeBar) Bounds() platform.Rect      { return b.bounds.Scale(1 / b.scale) }
func (b *fakeBar) PixelBounds() platform.Rect { return b.bounds }
func (b *fakeBar) DPIScale() float64          { return b.scale }
func (b *fakeBar) NotifyFullScreen(on bool)   { b.fullscreen = append(b.fullscreen, on) }

func (b *fakeBar) SetAssignedRect(r platform.Rect) error {
	b.moves = append(b.moves, r)
	b.bounds = r
	return nil
}

func (b *fakeBar) NotifyNegotiationComplete(unchanged bool, r platform.Rect) {
	b.completions = append(b.completions, completion{unchanged: unchanged, rect: r})
}

func countCalls(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

var fullHD = shelltest.Monitor(1, "DP-1", 0, 0, 1920, 1080, true)

func TestRegisterBar_TogglesRegistration(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(0x400001, fullHD)

	cb, err := reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	assert.NotEqual(t, Unregistered, cb)
	assert.True(t, reg.Registered(bar.win))
	assert.True(t, shell.HasBar(bar.win))

	cb, err = reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	assert.Equal(t, Unregistered, cb)
	assert.False(t, reg.Registered(bar.win))
	assert.False(t, shell.HasBar(bar.win))

	cb, err = reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	assert.NotEqual(t, Unregistered, cb)
	assert.True(t, reg.Registered(bar.win))
}

func TestRegisterBar_RegistersCallbackMessageOnce(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})

	_, err := reg.RegisterBar(newFakeBar(1, fullHD), 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	_, err = reg.RegisterBar(newFakeBar(2, fullHD), 48, 30, platform.EdgeBottom)
	require.NoError(t, err)

	assert.Equal(t, 1, countCalls(shell.Calls(), "register-message"))
	assert.Len(t, reg.Registrations(), 2)
}

func TestCandidateRect_AnchorsToEdge(t *testing.T) {
	bounds := platform.RectFromXYWH(1920, 0, 2560, 1440)

	for _, h := range []int{1, 30, 64, 1440} {
		r := CandidateRect(bounds, platform.EdgeBottom, 48, h)
		assert.Equal(t, bounds.Bottom, r.Bottom, "h=%d", h)
		assert.Equal(t, bounds.Bottom-h, r.Top, "h=%d", h)
		assert.Equal(t, bounds.Left, r.Left, "h=%d", h)
		assert.Equal(t, bounds.Right, r.Right, "h=%d", h)
	}

	assert.Equal(t, platform.Rect{Left: 1920, Top: 0, Right: 4480, Bottom: 30},
		CandidateRect(bounds, platform.EdgeTop, 48, 30))
	assert.Equal(t, platform.Rect{Left: 1920, Top: 0, Right: 1968, Bottom: 1440},
		CandidateRect(bounds, platform.EdgeLeft, 48, 30))
	assert.Equal(t, platform.Rect{Left: 4432, Top: 0, Right: 4480, Bottom: 1440},
		CandidateRect(bounds, platform.EdgeRight, 48, 30))
}

func TestClampThickness_UsesReturnedNearEdge(t *testing.T) {
	got := ClampThickness(platform.Rect{Left: 0, Top: 1010, Right: 1920, Bottom: 1040}, platform.EdgeBottom, 48, 30)
	assert.Equal(t, platform.Rect{Left: 0, Top: 1010, Right: 1920, Bottom: 1040}, got)

	// Near edge moved up by 40px, far edge left at the monitor top.
	got = ClampThickness(platform.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1040}, platform.EdgeBottom, 48, 30)
	assert.Equal(t, platform.Rect{Left: 0, Top: 1010, Right: 1920, Bottom: 1040}, got)

	got = ClampThickness(platform.Rect{Left: 0, Top: 24, Right: 1920, Bottom: 1080}, platform.EdgeTop, 48, 30)
	assert.Equal(t, platform.Rect{Left: 0, Top: 24, Right: 1920, Bottom: 54}, got)

	got = ClampThickness(platform.Rect{Left: 60, Top: 0, Right: 1920, Bottom: 1080}, platform.EdgeLeft, 48, 30)
	assert.Equal(t, platform.Rect{Left: 60, Top: 0, Right: 108, Bottom: 1080}, got)

	got = ClampThickness(platform.Rect{Left: 0, Top: 0, Right: 1860, Bottom: 1080}, platform.EdgeRight, 48, 30)
	assert.Equal(t, platform.Rect{Left: 1812, Top: 0, Right: 1860, Bottom: 1080}, got)
}

func TestSetPosition_SingleMonitorBottom(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(0x400001, fullHD)

	_, err := reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)

	want := platform.Rect{Left: 0, Top: 1050, Right: 1920, Bottom: 1080}
	require.Len(t, bar.moves, 1)
	assert.Equal(t, want, bar.moves[0])
	require.Len(t, bar.completions, 1)
	assert.Equal(t, completion{unchanged: false, rect: want}, bar.completions[0])

	pos, ok := shell.Position(bar.win)
	require.True(t, ok)
	assert.Equal(t, want, pos)

	regs := reg.Registrations()
	require.Len(t, regs, 1)
	assert.Equal(t, want, regs[0].Assigned)

	assert.Zero(t, shell.Suspended())
	assert.Zero(t, shell.Unbracketed())
}

func TestSetPosition_FallsBackToPrimaryMonitor(t *testing.T) {
	secondary := shelltest.Monitor(2, "HDMI-1", 1920, 0, 1280, 1024, false)
	shell := shelltest.New(secondary, fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, platform.Monitor{})

	got, err := reg.SetPosition(bar, 48, 30, platform.EdgeTop, true)
	require.NoError(t, err)
	assert.Equal(t, platform.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 30}, got)
}

func TestSetPosition_ScalesRequestedSize(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)
	bar.scale = 2

	got, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Height())
	assert.Equal(t, 1020, got.Top)
}

func TestSetPosition_ClampsAfterShellShift(t *testing.T) {
	shell := shelltest.New(fullHD)
	// Another dock owns the bottom 24px; the shell moves our bottom up.
	shell.Grant = func(_ platform.WindowID, _ platform.Edge, r platform.Rect) platform.Rect {
		r.Bottom -= 24
		return r
	}
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)

	got, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.NoError(t, err)
	assert.Equal(t, platform.Rect{Left: 0, Top: 1026, Right: 1920, Bottom: 1056}, got)
}

func TestSetPosition_ShortfallRetriesAreBounded(t *testing.T) {
	shell := shelltest.New(fullHD)
	shell.Finalize = func(_ platform.WindowID, _ platform.Edge, r platform.Rect) platform.Rect {
		r.Top = r.Bottom - 20
		return r
	}
	reg := NewRegistry(shell, Options{MaxAttempts: 3})
	bar := newFakeBar(7, fullHD)

	got, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Height())
	assert.Equal(t, 3, countCalls(shell.Calls(), "query"))
	require.Len(t, bar.completions, 1)
	assert.Equal(t, got, bar.completions[0].rect)
}

func TestSetPosition_ShortfallConvergesOnRetry(t *testing.T) {
	shell := shelltest.New(fullHD)
	short := true
	shell.Finalize = func(_ platform.WindowID, _ platform.Edge, r platform.Rect) platform.Rect {
		if short {
			short = false
			r.Top = r.Bottom - 10
		}
		return r
	}
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)

	got, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Height())
	assert.Equal(t, 2, countCalls(shell.Calls(), "query"))
}

func TestSetPosition_ResumesInteropOnPanic(t *testing.T) {
	shell := shelltest.New(fullHD)
	shell.OnQuery = func(platform.WindowID) { panic("shell went away") }
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)

	assert.Panics(t, func() {
		_, _ = reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	})
	assert.Zero(t, shell.Suspended())

	// The registry lock was released too.
	shell.OnQuery = nil
	_, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, false)
	require.NoError(t, err)
	assert.Zero(t, shell.Suspended())
}

func TestSetPosition_UnchangedRectSkipsMove(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)
	bar.bounds = platform.Rect{Left: 0, Top: 1050, Right: 1920, Bottom: 1080}

	_, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, false)
	require.NoError(t, err)
	assert.Empty(t, bar.moves)
	require.Len(t, bar.completions, 1)
	assert.True(t, bar.completions[0].unchanged)
}

func TestSetPosition_UnchangedAtFractionalScale(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)
	bar.scale = 1.25

	first, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.NoError(t, err)
	assert.Equal(t, platform.Rect{Left: 0, Top: 1042, Right: 1920, Bottom: 1080}, first)

	second, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, bar.moves, 1)
	require.Len(t, bar.completions, 2)
	assert.False(t, bar.completions[0].unchanged)
	assert.True(t, bar.completions[1].unchanged)
}

func TestRegisterBar_QueryTimeoutUsesCandidate(t *testing.T) {
	shell := shelltest.New(fullHD)
	shell.QueryErr = platform.ErrTimeout
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)

	_, err := reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)

	want := platform.Rect{Left: 0, Top: 1050, Right: 1920, Bottom: 1080}
	assert.True(t, reg.Registered(bar.win))
	assert.Equal(t, []platform.Rect{want}, bar.moves)
	require.Len(t, bar.completions, 1)
	assert.Equal(t, want, bar.completions[0].rect)

	pos, ok := shell.Position(bar.win)
	require.True(t, ok)
	assert.Equal(t, want, pos)
	assert.Zero(t, shell.Suspended())
}

func TestSetPosition_SetTimeoutKeepsClampedRect(t *testing.T) {
	shell := shelltest.New(fullHD)
	shell.Grant = func(_ platform.WindowID, _ platform.Edge, r platform.Rect) platform.Rect {
		r.Bottom -= 24
		return r
	}
	shell.SetErr = platform.ErrTimeout
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)

	got, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.NoError(t, err)

	want := platform.Rect{Left: 0, Top: 1026, Right: 1920, Bottom: 1056}
	assert.Equal(t, want, got)
	assert.Equal(t, []platform.Rect{want}, bar.moves)
	require.Len(t, bar.completions, 1)
	assert.Equal(t, 1, countCalls(shell.Calls(), "query"))

	_, ok := shell.Position(bar.win)
	assert.False(t, ok)
}

func TestSetPosition_DiscardsStaleMonitor(t *testing.T) {
	shell := shelltest.New(fullHD)
	valid := true
	reg := NewRegistry(shell, Options{
		ValidMonitor: func(platform.MonitorHandle) bool { return valid },
	})
	bar := newFakeBar(7, fullHD)

	// Monitor disappears while the shell is being queried.
	shell.OnQuery = func(platform.WindowID) { valid = false }

	_, err := reg.SetPosition(bar, 48, 30, platform.EdgeBottom, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleMonitor))
	assert.Empty(t, bar.moves)
	assert.Empty(t, bar.completions)
}

func TestHandleShellNotification_PosChangedRenegotiatesAll(t *testing.T) {
	left := shelltest.Monitor(1, "DP-1", 0, 0, 1920, 1080, true)
	right := shelltest.Monitor(2, "DP-2", 1920, 0, 1920, 1080, false)
	shell := shelltest.New(left, right)
	reg := NewRegistry(shell, Options{})
	a, b := newFakeBar(1, left), newFakeBar(2, right)

	_, err := reg.RegisterBar(a, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	_, err = reg.RegisterBar(b, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	shell.ResetCalls()

	reg.HandleShellNotification(platform.Event{Kind: platform.EventBarNotification, Notification: platform.NotifyPosChanged})

	assert.Equal(t, 2, countCalls(shell.Calls(), "query"))
	assert.Len(t, a.completions, 2)
	assert.Len(t, b.completions, 2)
	assert.True(t, a.completions[1].unchanged)
}

func TestHandleShellNotification_FullScreenForwarded(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)
	_, err := reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)

	reg.HandleShellNotification(platform.Event{
		Kind:         platform.EventBarNotification,
		Window:       7,
		Notification: platform.NotifyFullScreenApp,
		Active:       true,
	})
	reg.HandleShellNotification(platform.Event{
		Kind:         platform.EventBarNotification,
		Window:       99,
		Notification: platform.NotifyFullScreenApp,
		Active:       true,
	})

	assert.Equal(t, []bool{true}, bar.fullscreen)
}

func TestActivate_RequiresRegistration(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)

	assert.ErrorIs(t, reg.Activate(bar), ErrNotRegistered)
	assert.ErrorIs(t, reg.PositionChanged(bar), ErrNotRegistered)

	_, err := reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)
	assert.NoError(t, reg.Activate(bar))
	assert.NoError(t, reg.PositionChanged(bar))
	assert.Zero(t, shell.Unbracketed())
}

func TestUnregister_IsIdempotent(t *testing.T) {
	shell := shelltest.New(fullHD)
	reg := NewRegistry(shell, Options{})
	bar := newFakeBar(7, fullHD)
	_, err := reg.RegisterBar(bar, 48, 30, platform.EdgeBottom)
	require.NoError(t, err)

	reg.Unregister(bar)
	reg.Unregister(bar)

	assert.False(t, reg.Registered(7))
	assert.Equal(t, 1, countCalls(shell.Calls(), "remove"))
}
