package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var daemonOpts struct {
	noWatch     bool
	noIPC       bool
	noSleep     bool
	reconcileIv string
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the dock panel daemon",
	Long: `Run the dock panel daemon in the foreground.

The daemon opens one panel per monitor (or only on the primary monitor with
mode: primary), reserves screen space for it and keeps it placed across
monitor hotplug, resolution changes and resume from suspend. While it runs,
the desktop's own panel is hidden unless host_panel.keep_visible is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonOpts.noWatch, "no-watch", false, "Do not reload the config file when it changes")
	daemonCmd.Flags().BoolVar(&daemonOpts.noIPC, "no-ipc", false, "Do not serve the control socket")
	daemonCmd.Flags().BoolVar(&daemonOpts.noSleep, "no-sleep-watch", false, "Do not listen for logind resume signals")
	daemonCmd.Flags().StringVar(&daemonOpts.reconcileIv, "reconcile", "", "Drift check interval (e.g. 30s, 0 disables)")
	rootCmd.AddCommand(daemonCmd)
}

// reconcileInterval maps --reconcile to daemon.Options: empty keeps the
// default, 0 disables.
func reconcileInterval() (time.Duration, error) {
	if daemonOpts.reconcileIv == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(daemonOpts.reconcileIv)
	if err != nil {
		return 0, fmt.Errorf("invalid --reconcile: %w", err)
	}
	if d == 0 {
		return -1, nil
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid --reconcile: must not be negative")
	}
	return d, nil
}
