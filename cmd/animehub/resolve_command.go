package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Run the pure resolution phase without materializing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			observations, err := rt.scanner.Scan(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := rt.pipeline.ResolveBatch(cmd.Context(), observations)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(resolved))
			for _, rf := range resolved {
				res := rf.Resolution
				intent := "create"
				if res.MatchedAnimeID != uuid.Nil {
					intent = "match"
				}
				rows = append(rows, []string{
					res.Path,
					res.AnimeTitle,
					res.EpisodeNumber.Label(),
					intent,
					fmt.Sprintf("%.2f", res.Confidence),
					string(res.Source),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Path", "Title", "Episode", "Intent", "Confidence", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d observations resolved\n", len(resolved), len(observations))
			return nil
		},
	}
}
