package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawSize struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawNegotiation struct {
	MaxAttempts *int `yaml:"max_attempts"`
}

type RawHostPanel struct {
	Class             *string `yaml:"class"`
	ManageVisibility  *bool   `yaml:"manage_visibility"`
	SuppressSecondary *bool   `yaml:"suppress_secondary"`
	Replace           *bool   `yaml:"replace"`
	KeepVisible       *bool   `yaml:"keep_visible"`
	Timeout           *string `yaml:"timeout"`
}

type RawHotkeys struct {
	Reopen          *string `yaml:"reopen"`
	ToggleHostPanel *string `yaml:"toggle_host_panel"`
}

type RawLog struct {
	Level *string `yaml:"level"`
}

// RawConfig is one YAML file as written. Nil fields were not set and fall
// back to whatever an earlier file or the defaults say.
type RawConfig struct {
	Include     IncludeList     `yaml:"include"`
	Edge        *string         `yaml:"edge"`
	Mode        *string         `yaml:"mode"`
	AutoHide    *bool           `yaml:"auto_hide"`
	Size        *RawSize        `yaml:"size"`
	DPIScale    *float64        `yaml:"dpi_scale"`
	Background  *string         `yaml:"background"`
	Negotiation *RawNegotiation `yaml:"negotiation"`
	HostPanel   *RawHostPanel   `yaml:"host_panel"`
	Hotkeys     *RawHotkeys     `yaml:"hotkeys"`
	Log         *RawLog         `yaml:"log"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	out.Edge = pick(out.Edge, overlay.Edge)
	out.Mode = pick(out.Mode, overlay.Mode)
	out.AutoHide = pick(out.AutoHide, overlay.AutoHide)
	out.DPIScale = pick(out.DPIScale, overlay.DPIScale)
	out.Background = pick(out.Background, overlay.Background)

	if overlay.Size != nil {
		if out.Size == nil {
			out.Size = &RawSize{}
		}
		out.Size.Width = pick(out.Size.Width, overlay.Size.Width)
		out.Size.Height = pick(out.Size.Height, overlay.Size.Height)
	}

	if overlay.Negotiation != nil {
		if out.Negotiation == nil {
			out.Negotiation = &RawNegotiation{}
		}
		out.Negotiation.MaxAttempts = pick(out.Negotiation.MaxAttempts, overlay.Negotiation.MaxAttempts)
	}

	if overlay.HostPanel != nil {
		if out.HostPanel == nil {
			out.HostPanel = &RawHostPanel{}
		}
		hp, o := out.HostPanel, overlay.HostPanel
		hp.Class = pick(hp.Class, o.Class)
		hp.ManageVisibility = pick(hp.ManageVisibility, o.ManageVisibility)
		hp.SuppressSecondary = pick(hp.SuppressSecondary, o.SuppressSecondary)
		hp.Replace = pick(hp.Replace, o.Replace)
		hp.KeepVisible = pick(hp.KeepVisible, o.KeepVisible)
		hp.Timeout = pick(hp.Timeout, o.Timeout)
	}

	if overlay.Hotkeys != nil {
		if out.Hotkeys == nil {
			out.Hotkeys = &RawHotkeys{}
		}
		out.Hotkeys.Reopen = pick(out.Hotkeys.Reopen, overlay.Hotkeys.Reopen)
		out.Hotkeys.ToggleHostPanel = pick(out.Hotkeys.ToggleHostPanel, overlay.Hotkeys.ToggleHostPanel)
	}

	if overlay.Log != nil {
		if out.Log == nil {
			out.Log = &RawLog{}
		}
		out.Log.Level = pick(out.Log.Level, overlay.Log.Level)
	}

	return out
}

// pick returns overlay when it is set, base otherwise.
func pick[T any](base, overlay *T) *T {
	if overlay != nil {
		return overlay
	}
	return base
}
