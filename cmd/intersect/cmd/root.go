// Package cmd implements the intersect CLI commands.
//
// The root command dispatches to simulate, check and version.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// NewRootCommand builds the intersect command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "intersect",
		Short: "Replay and check intersection observer scenarios",
		Long: `intersect drives the drift intersection observer binding against a
simulated native primitive.

A scenario file declares observers and the steps that mount, update and
unmount them and deliver visibility changes. Use "simulate" to replay a
scenario and "check" to validate one without running it.

Use "intersect <command> --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		simulateCmd(),
		checkCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}
