package daemon

import (
	"github.com/1broseidon/edgebar/internal/config"
	"github.com/1broseidon/edgebar/internal/hostshell"
	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
)

// PanelSettings converts a validated config into panel settings. Validation
// already rejected unknown edges and modes, so parse errors fall back to the
// defaults.
func PanelSettings(cfg *config.Config) panel.Settings {
	edge, _ := platform.ParseEdge(cfg.Edge)
	mode, _ := panel.ParseMode(cfg.Mode)
	return panel.Settings{
		Mode:       mode,
		Edge:       edge,
		AutoHide:   cfg.AutoHide,
		Width:      cfg.Size.Width,
		Height:     cfg.Size.Height,
		Scale:      cfg.DPIScale,
		Background: cfg.Background,
	}
}

// HostOptions converts the host_panel section into controller options.
func HostOptions(cfg *config.Config) hostshell.Options {
	return hostshell.Options{
		ManageVisibility:  cfg.HostPanel.ManageVisibility,
		SuppressSecondary: cfg.HostPanel.SuppressSecondary,
		Replace:           cfg.HostPanel.Replace,
		KeepVisible:       cfg.HostPanel.KeepVisible,
	}
}
