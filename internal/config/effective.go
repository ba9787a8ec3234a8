package config

import (
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig. It does not
// validate the result.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Edge != nil {
		cfg.Edge = strings.ToLower(strings.TrimSpace(*raw.Edge))
	}
	if raw.Mode != nil {
		cfg.Mode = strings.ToLower(strings.TrimSpace(*raw.Mode))
	}
	if raw.AutoHide != nil {
		cfg.AutoHide = *raw.AutoHide
	}
	if raw.Size != nil {
		cfg.Size.Width = derefInt(raw.Size.Width, cfg.Size.Width)
		cfg.Size.Height = derefInt(raw.Size.Height, cfg.Size.Height)
	}
	if raw.DPIScale != nil {
		cfg.DPIScale = *raw.DPIScale
	}
	if raw.Background != nil {
		cfg.Background = strings.TrimSpace(*raw.Background)
	}
	if raw.Negotiation != nil {
		cfg.Negotiation.MaxAttempts = derefInt(raw.Negotiation.MaxAttempts, cfg.Negotiation.MaxAttempts)
	}

	if hp := raw.HostPanel; hp != nil {
		if hp.Class != nil {
			cfg.HostPanel.Class = strings.TrimSpace(*hp.Class)
		}
		cfg.HostPanel.ManageVisibility = derefBool(hp.ManageVisibility, cfg.HostPanel.ManageVisibility)
		cfg.HostPanel.SuppressSecondary = derefBool(hp.SuppressSecondary, cfg.HostPanel.SuppressSecondary)
		cfg.HostPanel.Replace = derefBool(hp.Replace, cfg.HostPanel.Replace)
		cfg.HostPanel.KeepVisible = derefBool(hp.KeepVisible, cfg.HostPanel.KeepVisible)
		if hp.Timeout != nil {
			d, err := time.ParseDuration(strings.TrimSpace(*hp.Timeout))
			if err != nil {
				return nil, &ValidationError{Path: "host_panel.timeout", Err: fmt.Errorf("invalid duration %q", *hp.Timeout)}
			}
			cfg.HostPanel.Timeout = d
		}
	}

	if raw.Hotkeys != nil {
		if raw.Hotkeys.Reopen != nil {
			cfg.Hotkeys.Reopen = strings.TrimSpace(*raw.Hotkeys.Reopen)
		}
		if raw.Hotkeys.ToggleHostPanel != nil {
			cfg.Hotkeys.ToggleHostPanel = strings.TrimSpace(*raw.Hotkeys.ToggleHostPanel)
		}
	}

	if raw.Log != nil && raw.Log.Level != nil {
		level := strings.ToLower(strings.TrimSpace(*raw.Log.Level))
		if level == "warning" {
			level = "warn"
		}
		cfg.Log.Level = level
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
