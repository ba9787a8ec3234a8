package panel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/topology"
)

// Manager owns the live panel list.
//
// reopenMu serializes OpenAll, CloseAll and ReopenAll so a reopen for a
// settings change never interleaves with one for a topology change. mu guards
// the state read by IsValidMonitor and the introspection calls; it is never
// held while calling into the Registrar, which may call IsValidMonitor back.
type Manager struct {
	factory   Factory
	registrar Registrar
	source    topology.Source
	logger    *slog.Logger

	reopenMu sync.Mutex

	mu       sync.RWMutex
	settings Settings
	snapshot *topology.Snapshot
	panels   []Panel
}

// NewManager creates a manager with no open panels. source is used when a
// caller opens panels without a snapshot.
func NewManager(factory Factory, registrar Registrar, source topology.Source, settings Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		factory:   factory,
		registrar: registrar,
		source:    source,
		logger:    logger,
		settings:  settings,
	}
}

// OpenAll opens panels for snap per the active mode. A nil snap captures the
// current topology first. Panels that fail to open are skipped; their errors
// are joined into the result.
func (m *Manager) OpenAll(snap *topology.Snapshot) error {
	m.reopenMu.Lock()
	defer m.reopenMu.Unlock()
	return m.openLocked(snap)
}

// CloseAll unregisters and closes every live panel.
func (m *Manager) CloseAll() error {
	m.reopenMu.Lock()
	defer m.reopenMu.Unlock()
	return m.closeLocked()
}

// ReopenAll closes every panel and opens them again for snap. A nil snap
// reuses the last snapshot, or captures one when there is none.
func (m *Manager) ReopenAll(snap *topology.Snapshot, reason string) error {
	m.reopenMu.Lock()
	defer m.reopenMu.Unlock()

	if snap == nil {
		snap = m.Snapshot()
	}
	m.logger.Info("reopening panels", "reason", reason, "open", len(m.Panels()), "monitors", snap.Len())

	closeErr := m.closeLocked()
	openErr := m.openLocked(snap)
	return errors.Join(closeErr, openErr)
}

// UpdateSettings replaces the settings used by the next open.
func (m *Manager) UpdateSettings(s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

func (m *Manager) openLocked(snap *topology.Snapshot) error {
	if snap == nil {
		if m.source == nil {
			return topology.ErrNoMonitors
		}
		var err error
		if snap, err = topology.Capture(m.source); err != nil {
			return fmt.Errorf("capture topology: %w", err)
		}
	}

	m.mu.Lock()
	m.snapshot = snap
	settings := m.settings
	m.mu.Unlock()

	var errs []error
	for _, mon := range targets(snap, settings.Mode) {
		p, err := m.openPanel(mon, settings)
		if err != nil {
			m.logger.Warn("failed to open panel", "monitor", mon.Device, "error", err)
			errs = append(errs, fmt.Errorf("monitor %s: %w", mon.Device, err))
			continue
		}
		m.logger.Debug("panel opened", "id", p.ID(), "window", p.Window(), "monitor", mon.Device)
	}
	return errors.Join(errs...)
}

// openPanel builds, shows and registers one panel. The panel joins the live
// list before registration so a failed negotiation still gets closed later.
func (m *Manager) openPanel(mon platform.Monitor, settings Settings) (Panel, error) {
	p, err := m.factory.NewPanel(mon, settings)
	if err != nil {
		return nil, err
	}

	if err := p.Show(); err != nil {
		p.AllowClose()
		_ = p.Close()
		return nil, fmt.Errorf("show panel: %w", err)
	}

	m.mu.Lock()
	m.panels = append(m.panels, p)
	m.mu.Unlock()

	if p.AutoHide() {
		return p, nil
	}
	if _, err := m.registrar.RegisterBar(p, settings.Width, settings.Height, p.Edge()); err != nil {
		return p, fmt.Errorf("register panel: %w", err)
	}
	return p, nil
}

func (m *Manager) closeLocked() error {
	m.mu.Lock()
	panels := m.panels
	m.panels = nil
	m.mu.Unlock()

	var errs []error
	for _, p := range panels {
		m.registrar.Unregister(p)
		p.AllowClose()
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close panel %s: %w", p.ID(), err))
			continue
		}
		m.logger.Debug("panel closed", "id", p.ID(), "window", p.Window())
	}
	return errors.Join(errs...)
}

func targets(snap *topology.Snapshot, mode Mode) []platform.Monitor {
	if mode == ModePrimary {
		if primary, ok := snap.Primary(); ok {
			return []platform.Monitor{primary}
		}
		return nil
	}
	return snap.Monitors()
}

// IsValidMonitor reports whether handle is part of the last topology the
// panels were opened for.
func (m *Manager) IsValidMonitor(handle platform.MonitorHandle) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Contains(handle)
}

// Panels returns a copy of the live panel list.
func (m *Manager) Panels() []Panel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Panel, len(m.panels))
	copy(out, m.panels)
	return out
}

// Find returns the live panel owning win.
func (m *Manager) Find(win platform.WindowID) (Panel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.panels {
		if p.Window() == win {
			return p, true
		}
	}
	return nil, false
}

// Snapshot returns the topology the panels were last opened for.
func (m *Manager) Snapshot() *topology.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Infos describes the live panels.
func (m *Manager) Infos() []Info {
	panels := m.Panels()
	infos := make([]Info, 0, len(panels))
	for _, p := range panels {
		infos = append(infos, Info{
			ID:         p.ID(),
			Window:     p.Window(),
			Monitor:    p.Monitor().Device,
			Edge:       p.Edge().String(),
			AutoHide:   p.AutoHide(),
			Bounds:     p.Bounds(),
			Registered: m.registrar.Registered(p.Window()),
		})
	}
	return infos
}
