package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/edgebar/internal/ipc"
)

var reopenCmd = &cobra.Command{
	Use:   "reopen",
	Short: "Close and reopen every panel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().Reopen()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reopened %d panel(s)\n", data.Panels)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the daemon's config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().Reload()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config reloaded, %d panel(s) open\n", data.Panels)
		return nil
	},
}

var hostCmd = &cobra.Command{
	Use:       "host <show|hide|restore>",
	Short:     "Control the desktop's own panel",
	Long:      "show and hide toggle the host panel's auto-hide and stacking; restore puts back the state saved when edgebar first hid it.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{ipc.HostShow, ipc.HostHide, ipc.HostRestore},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().HostPanel(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if data.Changed == 0 {
			fmt.Fprintln(out, "host panel: no change")
		} else {
			fmt.Fprintf(out, "host panel: %s applied to %d window(s)\n", data.Action, data.Changed)
		}
		fmt.Fprintf(out, "state: %s, suppressed: %s\n", data.State, yesNo(data.Suppressed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reopenCmd, reloadCmd, hostCmd)
}
