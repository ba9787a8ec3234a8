package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/1broseidon/edgebar/internal/ipc"
)

var jsonOutput bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := ipc.NewClient().GetStatus()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, status)
		}

		started := time.Now().Add(-time.Duration(status.UptimeSeconds) * time.Second)
		host := "visible"
		if status.HostPanelSuppressed {
			host = "suppressed"
		}
		if status.HostStateCaptured {
			host += " (saved: " + status.HostPanelState.String() + ")"
		}
		registered := fmt.Sprintf("%d/%d registered", status.Registered, status.Panels)
		if status.Registered == status.Panels {
			registered = render(okStyle, registered)
		} else {
			registered = render(warnStyle, registered)
		}

		fmt.Fprintln(out, render(headStyle, "edgebar "+status.Version))
		printFields(out, [][2]string{
			{"pid", strconv.Itoa(status.PID)},
			{"started", humanize.Time(started)},
			{"config", status.ConfigFile},
			{"edge", status.Edge},
			{"mode", status.Mode},
			{"auto-hide", yesNo(status.AutoHide)},
			{"monitors", strconv.Itoa(status.Monitors)},
			{"panels", registered},
			{"host panel", host},
			{"topology", fmt.Sprintf("%s passes, %s changes", humanize.Comma(int64(status.Topology.Passes)), humanize.Comma(int64(status.Topology.Changes)))},
		})
		return nil
	},
}

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List the monitors the daemon sees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().GetMonitors()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, data)
		}
		for _, m := range data.Monitors {
			line := fmt.Sprintf("%-10s %dx%d+%d+%d", m.Name, m.Width, m.Height, m.X, m.Y)
			if m.Primary {
				line += " " + render(okStyle, "primary")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var panelsCmd = &cobra.Command{
	Use:   "panels",
	Short: "List open panels and their negotiated bounds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().ListPanels()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, data)
		}
		if len(data.Panels) == 0 {
			fmt.Fprintln(out, "no panels")
			return nil
		}
		for _, p := range data.Panels {
			b := p.Bounds
			state := render(okStyle, "registered")
			if !p.Registered {
				state = render(warnStyle, "unregistered")
			}
			if p.AutoHide {
				state += " auto-hide"
			}
			fmt.Fprintf(out, "%-10s %-6s %dx%d+%d+%d  window 0x%x  %s\n",
				p.Monitor, p.Edge, b.Width(), b.Height(), b.Left, b.Top, uint64(p.Window), state)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, monitorsCmd, panelsCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
		rootCmd.AddCommand(c)
	}
}
