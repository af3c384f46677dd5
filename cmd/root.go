// Package cmd implements the command-line interface for goingest.
// It provides the root command and subcommands for running, scheduling,
// and inspecting ingestion passes.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goingest/cmd/run"
	"github.com/jonesrussell/goingest/cmd/schedule"
	cmdstate "github.com/jonesrussell/goingest/cmd/state"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug mode for all commands.
	debug bool

	// rootCmd represents the root command for the goingest CLI.
	rootCmd = &cobra.Command{
		Use:   "goingest",
		Short: "Incremental catalog ingestion service",
		Long: `goingest crawls an external media catalog, diffs every entity against
its persisted state, and imports only the records that changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("goingest version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(schedule.Command())
	rootCmd.AddCommand(cmdstate.Command())
}
