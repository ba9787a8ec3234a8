package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	escClear      = "\x1b[2J"
	escHome       = "\x1b[H"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escReset      = "\x1b[0m"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (t *TUI) render() {
	// Raw mode does not translate newlines.
	frame := strings.ReplaceAll(t.view(), "\n", "\r\n")
	fmt.Fprint(t.out, escHideCursor+escReset+escClear+escHome+frame)
}

func (t *TUI) view() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("edgebar"))
	sb.WriteString("\n")
	sb.WriteString(t.renderStatusBar())
	sb.WriteString("\n")

	sb.WriteString(sectionStyle.Render("Config"))
	sb.WriteString("\n")
	if t.result != nil {
		cfg := t.result.Config
		row(&sb, "edge", cfg.Edge)
		row(&sb, "mode", cfg.Mode)
		row(&sb, "size", fmt.Sprintf("%dx%d @ %.2fx", cfg.Size.Width, cfg.Size.Height, cfg.DPIScale))
		row(&sb, "auto-hide", onOff(cfg.AutoHide))
		host := "replace"
		switch {
		case !cfg.HostPanel.Replace:
			host = "leave alone"
		case cfg.HostPanel.KeepVisible:
			host = "keep visible"
		}
		row(&sb, "host panel", host)
		for _, f := range t.result.Files {
			row(&sb, "file", f)
		}
	} else {
		sb.WriteString(dimStyle.Render("  not loaded"))
		sb.WriteString("\n")
	}

	if t.status != nil {
		sb.WriteString(sectionStyle.Render("Panels"))
		sb.WriteString("\n")
		if len(t.panels) == 0 {
			sb.WriteString(dimStyle.Render("  none"))
			sb.WriteString("\n")
		}
		for _, p := range t.panels {
			b := p.Bounds
			state := okStyle.Render("registered")
			if !p.Registered {
				state = warnStyle.Render("unregistered")
			}
			fmt.Fprintf(&sb, "  %-10s %-6s %dx%d+%d+%d  %s\n",
				p.Monitor, p.Edge, b.Width(), b.Height(), b.Left, b.Top, state)
		}
	}

	sb.WriteString("\n")
	if t.lastError != "" {
		sb.WriteString(errStyle.Render(t.lastError))
		sb.WriteString("\n")
	} else if t.message != "" {
		sb.WriteString(okStyle.Render(t.message))
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render("r: refresh  e: edit config  l: reload daemon  o: reopen panels  h: toggle host panel  q: quit"))
	return sb.String()
}

func (t *TUI) renderStatusBar() string {
	style := lipgloss.NewStyle().
		Width(t.width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)

	if t.status == nil {
		dot := dimStyle.Render("●")
		return style.Render(dot + " daemon not running")
	}

	s := t.status
	started := time.Now().Add(-time.Duration(s.UptimeSeconds) * time.Second)
	host := "host visible"
	if s.HostPanelSuppressed {
		host = "host hidden"
	}
	parts := []string{
		okStyle.Render("●") + " daemon " + s.Version,
		"up since " + humanize.Time(started),
		fmt.Sprintf("%d monitor(s)", s.Monitors),
		fmt.Sprintf("%d/%d registered", s.Registered, s.Panels),
		host,
	}
	return style.Render(strings.Join(parts, "  "))
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString("  ")
	sb.WriteString(labelStyle.Render(label))
	sb.WriteString(value)
	sb.WriteString("\n")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
