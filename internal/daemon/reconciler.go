package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/edgebar/internal/hostshell"
	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/topology"
)

// DefaultReconcileInterval is used when ReconcilerConfig.Interval is zero.
const DefaultReconcileInterval = 30 * time.Second

// reasonVerify marks display-change passes started by the reconciler.
const reasonVerify = "verify"

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

type panelLister interface {
	Panels() []panel.Panel
}

type registrationChecker interface {
	Registered(win platform.WindowID) bool
}

// Reconciler periodically checks for drift between what edgebar believes and
// what the desktop shows, and corrects it. It catches display changes whose
// notification was lost, panels that fell out of the dock registry, and a
// host panel that came back while suppressed.
type Reconciler struct {
	interval time.Duration
	logger   *slog.Logger

	watcher  *topology.Watcher
	panels   panelLister
	registry registrationChecker
	host     *hostshell.Controller
	reopen   func(reason string)
	// exec runs a pass on the dispatcher goroutine.
	exec func(func())
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, watcher *topology.Watcher, panels panelLister, registry registrationChecker, host *hostshell.Controller, reopen func(string), exec func(func())) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if exec == nil {
		exec = func(fn func()) { fn() }
	}

	return &Reconciler{
		interval: interval,
		logger:   logger,
		watcher:  watcher,
		panels:   panels,
		registry: registry,
		host:     host,
		reopen:   reopen,
		exec:     exec,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reconciler stopped")
			return
		case <-ticker.C:
			r.exec(r.reconcile)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	// A missed RandR event shows up as a snapshot difference here.
	r.watcher.NotifyDisplayChange(reasonVerify)

	var lost []platform.WindowID
	for _, p := range r.panels.Panels() {
		if p.AutoHide() {
			continue
		}
		if !r.registry.Registered(p.Window()) {
			lost = append(lost, p.Window())
		}
	}
	if len(lost) > 0 {
		r.logger.Info("reconciler: panels lost their dock registration", "windows", lost)
		r.reopen(reasonVerify)
	}

	if r.host.Suppressed() {
		if n := r.host.SetHostPanelVisibility(true); n > 0 {
			r.logger.Info("reconciler: host panel reappeared, hid it again", "windows", n)
		}
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.exec(r.reconcile)
}
