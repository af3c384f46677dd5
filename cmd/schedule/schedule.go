// Package schedule implements the schedule command, which runs ingestion
// passes on a cron schedule.
package schedule

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goingest/cmd/common"
)

const defaultSchedule = "0 */6 * * *"

// Command returns the schedule command for use in the root command.
func Command() *cobra.Command {
	var (
		schedule string
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion passes on a cron schedule",
		Long: `Start a long-running scheduler that performs an ingestion pass on the
given cron schedule. Runs never overlap: if a pass is still going when the
next trigger fires, the trigger is skipped. The scheduler runs until
interrupted with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")

			deps, err := cmdcommon.NewCommandDeps(cfgFile, debug)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			running := make(chan struct{}, 1)

			scheduler := cron.New()
			_, err = scheduler.AddFunc(schedule, func() {
				select {
				case running <- struct{}{}:
					defer func() { <-running }()
				default:
					deps.Logger.Warn("previous ingestion pass still running, skipping trigger")
					return
				}

				// A fresh orchestrator per pass reloads state from disk
				// and starts clean counters.
				orc, buildErr := cmdcommon.BuildOrchestrator(deps)
				if buildErr != nil {
					deps.Logger.Error("failed to build orchestrator", "error", buildErr.Error())
					return
				}
				if runErr := orc.Run(ctx, maxPages); runErr != nil {
					deps.Logger.Error("scheduled ingestion pass failed", "error", runErr.Error())
				}
			})
			if err != nil {
				return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
			}

			deps.Logger.Info("scheduler started", "schedule", schedule)
			scheduler.Start()

			<-ctx.Done()

			deps.Logger.Info("shutdown signal received, waiting for running pass")
			<-scheduler.Stop().Done()

			deps.Logger.Info("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "cron", defaultSchedule, "cron expression for ingestion passes")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop each pass after this many catalog pages (0 = no limit)")

	return cmd
}
