// Package state implements the state command for inspecting and
// compacting the persisted crawl state.
package state

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/goingest/cmd/common"
	"github.com/jonesrussell/goingest/internal/state"
)

const defaultCompactAge = 30 * 24 * time.Hour

// Command returns the state command for use in the root command.
func Command() *cobra.Command {
	var (
		compact   bool
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or compact the persisted crawl state",
		Long: `Print a summary of the persisted crawl state: the last run, the crawl
cursor, and every processed entity.

With --compact, entries whose last processing is older than --older-than
are dropped so they get fully re-imported on the next run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")

			deps, err := cmdcommon.NewCommandDeps(cfgFile, debug)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			store := state.NewStore(deps.Config.Crawl.StatePath, deps.Logger)

			if compact {
				removed := store.Compact(olderThan)
				if err := store.Save(); err != nil {
					return fmt.Errorf("failed to save compacted state: %w", err)
				}
				deps.Logger.Info("state compacted",
					"removed", removed,
					"older_than", olderThan.String(),
				)
				return nil
			}

			renderState(store.Snapshot())
			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "drop entries older than --older-than")
	cmd.Flags().DurationVar(&olderThan, "older-than", defaultCompactAge, "age threshold for --compact")

	return cmd
}

// renderState prints the crawl cursor and a per-entity table to stdout.
func renderState(snapshot state.CrawlState) {
	if snapshot.LastRun.IsZero() {
		fmt.Println("No crawl state recorded yet.")
		return
	}

	fmt.Printf("Last run:  %s\n", snapshot.LastRun.Format(time.RFC3339))
	fmt.Printf("Last page: %d\n\n", snapshot.LastPage)

	sourceIDs := make([]string, 0, len(snapshot.Processed))
	for sourceID := range snapshot.Processed {
		sourceIDs = append(sourceIDs, sourceID)
	}
	sort.Strings(sourceIDs)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source ID", "Title", "Episodes", "Media Links", "Processed At"})

	for _, sourceID := range sourceIDs {
		entry := snapshot.Processed[sourceID]
		t.AppendRow(table.Row{
			sourceID,
			entry.Title,
			entry.EpisodesCount,
			len(entry.MediaPayloads),
			entry.Timestamp.Format(time.RFC3339),
		})
	}

	t.AppendFooter(table.Row{"Total", len(snapshot.Processed), "", "", ""})
	t.SetStyle(table.StyleLight)
	t.Render()
}
