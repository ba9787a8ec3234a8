package daemon

import (
	"fmt"
	"os"
	"time"

	"github.com/1broseidon/edgebar/internal/config"
	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/topology"
)

var _ ipc.Handler = (*Daemon)(nil)

// Status reads a consistent-enough view without going through the
// dispatcher; every component guards its own state.
func (d *Daemon) Status() ipc.StatusData {
	cfg := d.Config()
	state, captured := d.host.CapturedState()
	path, _ := d.configPath()

	var uptime int64
	if started := d.started.Load(); started != 0 && d.running.Load() {
		uptime = int64(time.Since(time.Unix(0, started)).Seconds())
	}

	return ipc.StatusData{
		Version:             d.opts.Version,
		PID:                 os.Getpid(),
		UptimeSeconds:       uptime,
		DaemonRunning:       d.running.Load(),
		ConfigFile:          path,
		Edge:                cfg.Edge,
		Mode:                cfg.Mode,
		AutoHide:            cfg.AutoHide,
		Monitors:            d.watcher.Current().Len(),
		Panels:              len(d.manager.Panels()),
		Registered:          len(d.registry.Registrations()),
		HostPanelSuppressed: d.host.Suppressed(),
		HostPanelState:      state,
		HostStateCaptured:   captured,
		Topology:            d.watcher.Stats(),
	}
}

// Monitors returns the snapshot the panels were built from.
func (d *Daemon) Monitors() ([]platform.Monitor, error) {
	snap := d.watcher.Current()
	if snap == nil {
		return nil, topology.ErrNoMonitors
	}
	return snap.Monitors(), nil
}

func (d *Daemon) Panels() ipc.PanelsData {
	return ipc.PanelsData{Panels: d.manager.Infos()}
}

func (d *Daemon) Reopen() (ipc.ReopenData, error) {
	var n int
	err := d.call(func() error {
		err := d.manager.ReopenAll(nil, topology.ReasonManual)
		n = len(d.manager.Panels())
		return err
	})
	return ipc.ReopenData{Panels: n}, err
}

// Reload re-reads the config file and rebuilds the panels with it. An
// invalid file leaves the running config untouched.
func (d *Daemon) Reload() (ipc.ReopenData, error) {
	path, err := d.configPath()
	if err != nil {
		return ipc.ReopenData{}, err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return ipc.ReopenData{}, err
	}

	var n int
	err = d.call(func() error {
		err := d.applyConfig(res.Config)
		n = len(d.manager.Panels())
		return err
	})
	return ipc.ReopenData{Panels: n}, err
}

func (d *Daemon) HostPanel(action string) (ipc.HostPanelData, error) {
	data := ipc.HostPanelData{Action: action}
	err := d.call(func() error {
		switch action {
		case ipc.HostShow:
			data.Changed = d.host.SetHostPanelVisibility(false)
		case ipc.HostHide:
			data.Changed = d.host.SetHostPanelVisibility(true)
		case ipc.HostRestore:
			if err := d.host.RestoreHostPanel(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown host panel action %q", action)
		}
		return nil
	})
	if err != nil {
		return data, err
	}

	data.Suppressed = d.host.Suppressed()
	data.State, _ = d.host.CapturedState()
	return data, nil
}
