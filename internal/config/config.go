package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEdge        = "bottom"
	DefaultMode        = "per-monitor"
	DefaultWidth       = 48
	DefaultHeight      = 30
	DefaultBackground  = "#202020"
	DefaultMaxAttempts = 3
	DefaultHostTimeout = 300 * time.Millisecond

	maxThickness = 512
	maxDPIScale  = 8
)

// Size is the requested panel size in device-independent pixels. Top and
// bottom panels use Height as their thickness, left and right ones Width.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Negotiation tunes the space negotiation with the window manager.
type Negotiation struct {
	// MaxAttempts bounds the retries when less space is granted than asked.
	MaxAttempts int `yaml:"max_attempts"`
}

// HostPanel controls how the desktop's own panel is handled.
type HostPanel struct {
	// Class is the host panel's WM_CLASS. Empty autodetects known panels.
	Class             string        `yaml:"class"`
	ManageVisibility  bool          `yaml:"manage_visibility"`
	SuppressSecondary bool          `yaml:"suppress_secondary"`
	Replace           bool          `yaml:"replace"`
	KeepVisible       bool          `yaml:"keep_visible"`
	Timeout           time.Duration `yaml:"timeout"`
}

type Hotkeys struct {
	Reopen          string `yaml:"reopen"`
	ToggleHostPanel string `yaml:"toggle_host_panel"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Config is the effective configuration after defaults and includes.
type Config struct {
	Edge        string      `yaml:"edge"`
	Mode        string      `yaml:"mode"`
	AutoHide    bool        `yaml:"auto_hide"`
	Size        Size        `yaml:"size"`
	DPIScale    float64     `yaml:"dpi_scale"`
	Background  string      `yaml:"background"`
	Negotiation Negotiation `yaml:"negotiation"`
	HostPanel   HostPanel   `yaml:"host_panel"`
	Hotkeys     Hotkeys     `yaml:"hotkeys"`
	Log         Log         `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Edge:       DefaultEdge,
		Mode:       DefaultMode,
		Size:       Size{Width: DefaultWidth, Height: DefaultHeight},
		DPIScale:   1,
		Background: DefaultBackground,
		Negotiation: Negotiation{
			MaxAttempts: DefaultMaxAttempts,
		},
		HostPanel: HostPanel{
			ManageVisibility:  true,
			SuppressSecondary: true,
			Replace:           true,
			Timeout:           DefaultHostTimeout,
		},
		Log: Log{Level: "info"},
	}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Edge {
	case "top", "bottom", "left", "right":
	default:
		return &ValidationError{Path: "edge", Err: fmt.Errorf("edge must be one of: top, bottom, left, right")}
	}
	switch c.Mode {
	case "per-monitor", "primary":
	default:
		return &ValidationError{Path: "mode", Err: fmt.Errorf("mode must be one of: per-monitor, primary")}
	}
	if c.Size.Width <= 0 || c.Size.Width > maxThickness {
		return &ValidationError{Path: "size.width", Err: fmt.Errorf("width must be between 1 and %d", maxThickness)}
	}
	if c.Size.Height <= 0 || c.Size.Height > maxThickness {
		return &ValidationError{Path: "size.height", Err: fmt.Errorf("height must be between 1 and %d", maxThickness)}
	}
	if c.DPIScale <= 0 || c.DPIScale > maxDPIScale {
		return &ValidationError{Path: "dpi_scale", Err: fmt.Errorf("dpi_scale must be > 0 and <= %d", maxDPIScale)}
	}
	if !colorPattern.MatchString(c.Background) {
		return &ValidationError{Path: "background", Err: fmt.Errorf("background must be a #rrggbb color")}
	}
	if c.Negotiation.MaxAttempts < 1 || c.Negotiation.MaxAttempts > 10 {
		return &ValidationError{Path: "negotiation.max_attempts", Err: fmt.Errorf("max_attempts must be between 1 and 10")}
	}
	if c.HostPanel.Timeout < 10*time.Millisecond || c.HostPanel.Timeout > 10*time.Second {
		return &ValidationError{Path: "host_panel.timeout", Err: fmt.Errorf("timeout must be between 10ms and 10s")}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	var warnings []string
	if c.HostPanel.KeepVisible && !c.HostPanel.ManageVisibility {
		warnings = append(warnings, "host_panel.keep_visible has no effect while host_panel.manage_visibility is false")
	}
	if c.AutoHide && c.HostPanel.Replace && !c.HostPanel.KeepVisible {
		warnings = append(warnings, "auto_hide panels reserve no space; the host panel will be hidden without a replacement")
	}
	return warnings
}

// SlogLevel maps log.level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
