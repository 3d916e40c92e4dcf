package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "corpsim",
		Short:         "corpsim: boardroom meetings for AI and human executives",
		Long:          "corpsim runs boardroom sessions where executives join seats, propose agenda items, debate, vote and watch the quarter settle. Empty seats are taken by scripted substitutes.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSimulateCmd(),
	)

	return rootCmd
}
