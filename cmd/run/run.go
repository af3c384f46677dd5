// Package run implements the run command, which performs one ingestion
// pass over the catalog.
package run

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goingest/cmd/common"
)

// Command returns the run command for use in the root command.
func Command() *cobra.Command {
	var (
		maxPages int
		sourceID int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion pass over the catalog",
		Long: `Crawl the catalog page by page, diff every entity against the persisted
state, and import only what changed. The pass exits successfully even when
individual entities fail; failed entities are retried on the next run.

With --source-id, a single entity is processed instead of the full crawl.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")

			deps, err := cmdcommon.NewCommandDeps(cfgFile, debug)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			orc, err := cmdcommon.BuildOrchestrator(deps)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if sourceID > 0 {
				return orc.ProcessOne(ctx, sourceID)
			}
			return orc.Run(ctx, maxPages)
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many catalog pages (0 = no limit)")
	cmd.Flags().Int64Var(&sourceID, "source-id", 0, "process a single entity by its metadata ID")

	return cmd
}
