// Package daemon owns every piece of dock state and runs the core operations
// on a single dispatcher goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/edgebar/internal/appbar"
	"github.com/1broseidon/edgebar/internal/config"
	"github.com/1broseidon/edgebar/internal/hostshell"
	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/topology"
)

// ErrStopped is returned by requests that arrive after the dispatcher exited.
var ErrStopped = errors.New("daemon is not running")

const (
	reasonSettings = "settings"
	workQueueSize  = 64
)

// Options wires a Daemon. Shell, Factory and Config are required.
type Options struct {
	Shell   platform.Shell
	Factory panel.Factory
	Config  *config.Config

	// ConfigPath is reloaded by RELOAD and, with WatchConfig, on change.
	// Empty means the default location.
	ConfigPath  string
	WatchConfig bool

	// IPC enables the control socket at SocketPath (empty: default path).
	IPC        bool
	SocketPath string
	// PIDFile, when set, records the daemon's pid while it runs.
	PIDFile string

	// WatchSleep renegotiates after resume from suspend (logind).
	WatchSleep bool

	// ReconcileInterval is the drift check period. Zero means the default,
	// negative disables it.
	ReconcileInterval time.Duration

	// OnConfig applies platform-level settings, such as the X11 reply
	// timeout. It runs at construction and after every reload.
	OnConfig func(*config.Config)
	// Level, when set, follows log.level across reloads.
	Level *slog.LevelVar

	Version string
	Logger  *slog.Logger
}

// Daemon is the single owner of the dock registry, host shell controller,
// topology watcher and panel manager.
type Daemon struct {
	shell    platform.Shell
	logger   *slog.Logger
	registry *appbar.Registry
	host     *hostshell.Controller
	manager  *panel.Manager
	watcher  *topology.Watcher
	rec      *Reconciler

	opts    Options
	started atomic.Int64 // unix nanoseconds; zero until Run
	running atomic.Bool

	cfgMu sync.RWMutex
	cfg   *config.Config

	work    chan func()
	stopped chan struct{}
}

// New builds the dock core from opts without touching the shell.
func New(opts Options) (*Daemon, error) {
	if opts.Shell == nil || opts.Factory == nil || opts.Config == nil {
		return nil, errors.New("daemon: shell, factory and config are required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	d := &Daemon{
		shell:   opts.Shell,
		logger:  logger,
		opts:    opts,
		cfg:     cfg,
		work:    make(chan func(), workQueueSize),
		stopped: make(chan struct{}),
	}

	d.registry = appbar.NewRegistry(opts.Shell, appbar.Options{
		MaxAttempts: cfg.Negotiation.MaxAttempts,
		Logger:      logger.With("component", "appbar"),
	})

	hostOpts := HostOptions(cfg)
	hostOpts.Logger = logger.With("component", "hostshell")
	d.host = hostshell.New(opts.Shell, hostOpts)

	d.manager = panel.NewManager(opts.Factory, d.registry, opts.Shell, PanelSettings(cfg), logger.With("component", "panel"))
	d.registry.SetMonitorValidator(d.manager.IsValidMonitor)

	d.watcher = topology.NewWatcher(opts.Shell, d.onTopologyChange, logger.With("component", "topology"))

	d.rec = NewReconciler(ReconcilerConfig{
		Interval: opts.ReconcileInterval,
		Logger:   logger.With("component", "reconciler"),
	}, d.watcher, d.manager, d.registry, d.host, d.reopen, d.exec)

	if opts.OnConfig != nil {
		opts.OnConfig(cfg)
	}
	if opts.Level != nil {
		opts.Level.Set(cfg.SlogLevel())
	}
	return d, nil
}

// Run suppresses the host panel, opens the panels and serves events until
// ctx is cancelled. On return every panel is closed and the host panel is
// restored.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon is already running")
	}
	d.started.Store(time.Now().UnixNano())

	unsubscribe := d.shell.Subscribe(d.onShellEvent)
	defer unsubscribe()
	defer d.shutdown()

	if err := d.startup(); err != nil {
		close(d.stopped)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.dispatch(gctx) })

	if d.opts.IPC {
		srv, err := ipc.NewServer(d, d.opts.SocketPath, d.logger.With("component", "ipc"))
		if err != nil {
			return d.abort(g, err)
		}
		if err := srv.Start(); err != nil {
			return d.abort(g, err)
		}
		g.Go(func() error {
			<-gctx.Done()
			srv.Stop()
			return nil
		})
	}

	if d.opts.PIDFile != "" {
		if err := os.WriteFile(d.opts.PIDFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
			d.logger.Warn("failed to write pid file", "file", d.opts.PIDFile, "error", err)
		} else {
			defer os.Remove(d.opts.PIDFile)
		}
	}

	if d.opts.WatchConfig {
		if err := d.watchConfig(gctx, g); err != nil {
			d.logger.Warn("config hot reload disabled", "error", err)
		}
	}

	if d.opts.WatchSleep {
		sleep := NewSleepWatcher(func() {
			d.post(func() { d.watcher.NotifyDisplayChange(topology.ReasonResume) })
		}, d.logger.With("component", "logind"))
		g.Go(func() error {
			if err := sleep.Run(gctx); err != nil {
				d.logger.Warn("resume detection disabled", "error", err)
			}
			return nil
		})
	}

	if d.opts.ReconcileInterval >= 0 {
		g.Go(func() error {
			d.rec.Run(gctx)
			return nil
		})
	}

	d.logger.Info("edgebar running", "panels", len(d.manager.Panels()))
	return g.Wait()
}

// abort stops the dispatcher started by Run and returns err.
func (d *Daemon) abort(g *errgroup.Group, err error) error {
	g.Go(func() error { return err })
	g.Wait()
	return err
}

func (d *Daemon) watchConfig(ctx context.Context, g *errgroup.Group) error {
	path, err := d.configPath()
	if err != nil {
		return err
	}
	w, err := config.NewWatcher(path, func(res *config.LoadResult, err error) {
		if err != nil {
			// The previous config stays in effect.
			return
		}
		d.post(func() {
			if err := d.applyConfig(res.Config); err != nil {
				d.logger.Warn("failed to apply reloaded config", "error", err)
			}
		})
	}, d.logger.With("component", "config"))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return w.Stop()
	})
	return nil
}

func (d *Daemon) startup() error {
	if err := d.host.SuppressHostPanel(); err != nil {
		d.logger.Warn("failed to suppress host panel", "error", err)
	}

	snap, err := d.watcher.Refresh()
	if err != nil {
		return fmt.Errorf("capture monitors: %w", err)
	}
	d.logger.Info("monitors detected", "count", snap.Len())

	if err := d.manager.OpenAll(snap); err != nil {
		d.logger.Warn("some panels failed to open", "error", err)
	}
	return nil
}

func (d *Daemon) shutdown() {
	d.logger.Info("shutting down")
	if err := d.manager.CloseAll(); err != nil {
		d.logger.Warn("failed to close panels", "error", err)
	}
	// A host panel that was never suppressed keeps whatever state it has.
	if _, captured := d.host.CapturedState(); !captured && !d.host.Suppressed() {
		return
	}
	if err := d.host.RestoreHostPanel(); err != nil {
		d.logger.Warn("failed to restore host panel", "error", err)
	}
}

// dispatch runs posted closures one at a time until ctx is done.
func (d *Daemon) dispatch(ctx context.Context) error {
	defer close(d.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-d.work:
			d.runSafe(fn)
		}
	}
}

func (d *Daemon) runSafe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher panic recovered", "panic", r)
		}
	}()
	fn()
}

// post queues fn on the dispatcher. It reports false once the dispatcher
// has exited.
func (d *Daemon) post(fn func()) bool {
	select {
	case d.work <- fn:
		return true
	case <-d.stopped:
		return false
	}
}

// call runs fn on the dispatcher and waits for its result.
func (d *Daemon) call(fn func() error) error {
	done := make(chan error, 1)
	ok := d.post(func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatcher panic recovered", "panic", r)
				err = fmt.Errorf("panic: %v", r)
			}
			done <- err
		}()
		err = fn()
	})
	if !ok {
		return ErrStopped
	}

	select {
	case err := <-done:
		return err
	case <-d.stopped:
		select {
		case err := <-done:
			return err
		default:
			return ErrStopped
		}
	}
}

func (d *Daemon) exec(fn func()) {
	_ = d.call(func() error {
		fn()
		return nil
	})
}

func (d *Daemon) onShellEvent(ev platform.Event) {
	d.post(func() {
		switch ev.Kind {
		case platform.EventDisplayChange:
			d.watcher.NotifyDisplayChange(ev.Reason)
		case platform.EventWorkAreaChange:
			d.watcher.NotifyWorkAreaChange()
			d.registry.HandleShellNotification(platform.Event{
				Kind:         platform.EventBarNotification,
				Notification: platform.NotifyPosChanged,
			})
		case platform.EventBarNotification:
			d.registry.HandleShellNotification(ev)
		}
	})
}

func (d *Daemon) onTopologyChange(prev, next *topology.Snapshot, reason string) {
	d.logger.Info("display topology changed", "reason", reason, "diff", prev.Diff(next))
	if err := d.manager.ReopenAll(next, reason); err != nil {
		d.logger.Warn("reopen after topology change incomplete", "error", err)
	}
	// A new monitor can carry its own host panel.
	if d.host.Suppressed() {
		d.host.SetHostPanelVisibility(true)
	}
}

func (d *Daemon) reopen(reason string) {
	if err := d.manager.ReopenAll(nil, reason); err != nil {
		d.logger.Warn("reopen incomplete", "reason", reason, "error", err)
	}
}

// applyConfig swaps in cfg and rebuilds the panels with it.
func (d *Daemon) applyConfig(cfg *config.Config) error {
	d.cfgMu.Lock()
	d.cfg = cfg
	d.cfgMu.Unlock()

	if d.opts.Level != nil {
		d.opts.Level.Set(cfg.SlogLevel())
	}
	if d.opts.OnConfig != nil {
		d.opts.OnConfig(cfg)
	}
	d.registry.SetMaxAttempts(cfg.Negotiation.MaxAttempts)

	hostOpts := HostOptions(cfg)
	d.host.SetOptions(hostOpts)
	wantSuppressed := hostOpts.Replace && !hostOpts.KeepVisible
	switch {
	case wantSuppressed && !d.host.Suppressed():
		if err := d.host.SuppressHostPanel(); err != nil {
			d.logger.Warn("failed to suppress host panel", "error", err)
		}
	case !wantSuppressed && d.host.Suppressed():
		if err := d.host.RestoreHostPanel(); err != nil {
			d.logger.Warn("failed to restore host panel", "error", err)
		}
	}

	d.manager.UpdateSettings(PanelSettings(cfg))
	return d.manager.ReopenAll(nil, reasonSettings)
}

func (d *Daemon) configPath() (string, error) {
	if d.opts.ConfigPath != "" {
		return d.opts.ConfigPath, nil
	}
	return config.DefaultConfigPath()
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// RequestReopen asks the dispatcher to rebuild every panel. Safe to call
// from any goroutine, e.g. a hotkey handler.
func (d *Daemon) RequestReopen() {
	d.post(func() { d.reopen(topology.ReasonManual) })
}

// ToggleHostPanel restores the host panel when it is suppressed and
// suppresses it otherwise. When suppression is turned off by config
// (replace: false or keep_visible) it only flips the panel's visibility.
func (d *Daemon) ToggleHostPanel() {
	d.post(func() {
		if d.host.Suppressed() {
			if err := d.host.RestoreHostPanel(); err != nil {
				d.logger.Warn("host panel toggle failed", "error", err)
			}
			return
		}
		if err := d.host.SuppressHostPanel(); err != nil {
			d.logger.Warn("host panel toggle failed", "error", err)
			return
		}
		if d.host.Suppressed() {
			return
		}
		if d.host.SetHostPanelVisibility(true) == 0 {
			d.host.SetHostPanelVisibility(false)
		}
	})
}

// Registry, Manager, Watcher and Host expose the core for tests and
// diagnostics. Mutations must go through the dispatcher.
func (d *Daemon) Registry() *appbar.Registry  { return d.registry }
func (d *Daemon) Manager() *panel.Manager     { return d.manager }
func (d *Daemon) Watcher() *topology.Watcher  { return d.watcher }
func (d *Daemon) Host() *hostshell.Controller { return d.host }
