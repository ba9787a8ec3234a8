package hostshell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/platform/shelltest"
)

func defaultOptions() Options {
	return Options{
		ManageVisibility:  true,
		SuppressSecondary: true,
		Replace:           true,
	}
}

func TestSuppressThenRestore_RestoresFirstCapturedState(t *testing.T) {
	shell := shelltest.New()
	ctl := New(shell, defaultOptions())
	onTop := platform.HostPanelState{AlwaysOnTop: true}

	require.NoError(t, ctl.SuppressHostPanel())

	captured, ok := ctl.CapturedState()
	require.True(t, ok)
	assert.Equal(t, onTop, captured)
	assert.Equal(t, platform.HostPanelState{AutoHide: true}, shell.State())
	assert.False(t, shell.Visible(1000))
	assert.True(t, ctl.Suppressed())

	// The user fiddles with the host panel while suppressed.
	shell.SetLiveState(platform.HostPanelState{AutoHide: true, AlwaysOnTop: true})
	require.NoError(t, ctl.SuppressHostPanel())
	require.NoError(t, ctl.SuppressHostPanel())

	captured, _ = ctl.CapturedState()
	assert.Equal(t, onTop, captured)

	require.NoError(t, ctl.RestoreHostPanel())
	assert.Equal(t, onTop, shell.State())
	assert.True(t, shell.Visible(1000))
	assert.False(t, ctl.Suppressed())
	assert.Zero(t, shell.Unbracketed())
	assert.Zero(t, shell.Suspended())
}

func TestRestoreHostPanel_DefaultsWithoutCapture(t *testing.T) {
	shell := shelltest.New()
	shell.SetLiveState(platform.HostPanelState{AutoHide: true})
	ctl := New(shell, defaultOptions())

	state, ok := ctl.CapturedState()
	assert.False(t, ok)
	assert.Equal(t, DefaultRestoreState, state)

	require.NoError(t, ctl.RestoreHostPanel())
	assert.Equal(t, DefaultRestoreState, shell.State())
}

func TestSetHostPanelVisibility_Idempotent(t *testing.T) {
	shell := shelltest.New()
	ctl := New(shell, defaultOptions())

	assert.Equal(t, 1, ctl.SetHostPanelVisibility(true))
	assert.Equal(t, 0, ctl.SetHostPanelVisibility(true))
	assert.Equal(t, 1, shell.VisibilityCalls())

	assert.Equal(t, 1, ctl.SetHostPanelVisibility(false))
	assert.Equal(t, 2, shell.VisibilityCalls())
}

func TestSetHostPanelVisibility_SkipsOwnWindows(t *testing.T) {
	shell := shelltest.New()
	shell.SetHostPanels(1000, 2000, 3000)
	shell.MarkOwn(2000)
	ctl := New(shell, defaultOptions())

	assert.Equal(t, 2, ctl.SetHostPanelVisibility(true))
	assert.False(t, shell.Visible(1000))
	assert.True(t, shell.Visible(2000))
	assert.False(t, shell.Visible(3000))
}

func TestSetHostPanelVisibility_SecondaryGate(t *testing.T) {
	shell := shelltest.New()
	shell.SetHostPanels(1000, 2000)
	opts := defaultOptions()
	opts.SuppressSecondary = false
	ctl := New(shell, opts)

	assert.Equal(t, 1, ctl.SetHostPanelVisibility(true))
	assert.True(t, shell.Visible(2000))

	opts.ManageVisibility = false
	ctl.SetOptions(opts)
	assert.Equal(t, 0, ctl.SetHostPanelVisibility(false))
	assert.False(t, shell.Visible(1000))
}

func TestSetHostPanelVisibility_TimeoutCountsAsNoChange(t *testing.T) {
	shell := shelltest.New()
	shell.SetHideTimeout(1000, true)
	ctl := New(shell, defaultOptions())

	assert.Equal(t, 0, ctl.SetHostPanelVisibility(true))
	assert.True(t, shell.Visible(1000))

	// Still visible, so the next call tries again.
	assert.Equal(t, 0, ctl.SetHostPanelVisibility(true))
	assert.Equal(t, 2, shell.VisibilityCalls())
}

func TestSuppressHostPanel_NoHostPanel(t *testing.T) {
	shell := shelltest.New()
	shell.SetHostPanels(0)
	ctl := New(shell, defaultOptions())

	require.NoError(t, ctl.SuppressHostPanel())
	assert.Zero(t, shell.VisibilityCalls())
}

func TestSuppressHostPanel_Gates(t *testing.T) {
	tests := []struct {
		name  string
		shell bool
		opts  func(*Options)
	}{
		{name: "running as shell", shell: true, opts: func(*Options) {}},
		{name: "not replacing", opts: func(o *Options) { o.Replace = false }},
		{name: "keep visible", opts: func(o *Options) { o.KeepVisible = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shell := shelltest.New()
			shell.SetShellProcess(tt.shell)
			opts := defaultOptions()
			tt.opts(&opts)
			ctl := New(shell, opts)

			require.NoError(t, ctl.SuppressHostPanel())
			assert.Zero(t, shell.SetStateCalls())
			assert.Zero(t, shell.VisibilityCalls())
			assert.True(t, shell.Visible(1000))
			_, captured := ctl.CapturedState()
			assert.False(t, captured)
		})
	}
}
