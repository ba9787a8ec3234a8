package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard for the config and the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.New(globalOpts.configPath, ipc.NewClient()).Run()
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
