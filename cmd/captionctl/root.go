package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "captionctl",
		Short:         "Caption timeline tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newSegmentCommand())
	rootCmd.AddCommand(newActiveCommand())
	rootCmd.AddCommand(newTimecodeCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
