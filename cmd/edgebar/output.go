package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

// styled reports whether stdout is a terminal; pipes get plain text.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, s string) string {
	if !styled() {
		return s
	}
	return style.Render(s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFields prints aligned "label: value" rows.
func printFields(w io.Writer, rows [][2]string) {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	for _, r := range rows {
		label := r[0] + ":" + strings.Repeat(" ", width-len(r[0]))
		fmt.Fprintf(w, "%s %s\n", render(labelStyle, label), render(valueStyle, r[1]))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
