// Package cmd is the liDARPT command-line surface: plan, validate, and
// serve, wired with github.com/spf13/cobra in the shape of tidbyt-gtfs's
// cmd/ package (one root command, one file per subcommand registering
// itself from init).
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "lidarpt",
	Short:        "Line-based dial-a-ride planning with transfers",
	Long:         "lidarpt builds, solves, and validates line-based dial-a-ride plans with transfers over a fixed bus network.",
	SilenceUsage: true,
}

// Execute runs the root command; called from main.
func Execute() error {
	return rootCmd.Execute()
}
