package config

import (
	"fmt"
	"sort"
)

var explainers = map[string]func(*Config) any{
	"edge":                          func(c *Config) any { return c.Edge },
	"mode":                          func(c *Config) any { return c.Mode },
	"auto_hide":                     func(c *Config) any { return c.AutoHide },
	"size":                          func(c *Config) any { return c.Size },
	"size.width":                    func(c *Config) any { return c.Size.Width },
	"size.height":                   func(c *Config) any { return c.Size.Height },
	"dpi_scale":                     func(c *Config) any { return c.DPIScale },
	"background":                    func(c *Config) any { return c.Background },
	"negotiation":                   func(c *Config) any { return c.Negotiation },
	"negotiation.max_attempts":      func(c *Config) any { return c.Negotiation.MaxAttempts },
	"host_panel":                    func(c *Config) any { return c.HostPanel },
	"host_panel.class":              func(c *Config) any { return c.HostPanel.Class },
	"host_panel.manage_visibility":  func(c *Config) any { return c.HostPanel.ManageVisibility },
	"host_panel.suppress_secondary": func(c *Config) any { return c.HostPanel.SuppressSecondary },
	"host_panel.replace":            func(c *Config) any { return c.HostPanel.Replace },
	"host_panel.keep_visible":       func(c *Config) any { return c.HostPanel.KeepVisible },
	"host_panel.timeout":            func(c *Config) any { return c.HostPanel.Timeout.String() },
	"hotkeys":                       func(c *Config) any { return c.Hotkeys },
	"hotkeys.reopen":                func(c *Config) any { return c.Hotkeys.Reopen },
	"hotkeys.toggle_host_panel":     func(c *Config) any { return c.Hotkeys.ToggleHostPanel },
	"log":                           func(c *Config) any { return c.Log },
	"log.level":                     func(c *Config) any { return c.Log.Level },
}

// Explain returns the effective value at the given YAML path and the file
// position that set it, or a default source.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	get, ok := explainers[path]
	if !ok {
		return nil, Source{}, fmt.Errorf("unknown path: %s", path)
	}
	if src, ok := res.Sources[path]; ok {
		return get(res.Config), src, nil
	}
	return get(res.Config), Source{Kind: SourceDefault}, nil
}

// ExplainPaths lists every path Explain accepts.
func ExplainPaths() []string {
	paths := make([]string, 0, len(explainers))
	for p := range explainers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
