package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics and ledger outcome counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.stats.Refresh(cmd.Context()); err != nil {
				return err
			}
			snapshot, err := rt.store.LatestStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Anime:    %d\n", snapshot.AnimeCount)
			fmt.Fprintf(out, "Episodes: %d\n", snapshot.EpisodeCount)
			fmt.Fprintf(out, "Files:    %d\n", snapshot.FileCount)
			fmt.Fprintf(out, "Watched:  %d\n", snapshot.WatchedCount)

			outcomes, err := rt.store.LedgerStats(cmd.Context())
			if err != nil {
				return err
			}
			if len(outcomes) > 0 {
				fmt.Fprintln(out, "\nLedger outcomes:")
				for outcome, count := range outcomes {
					fmt.Fprintf(out, "  %-16s %d\n", outcome, count)
				}
			}
			return nil
		},
	}
}
