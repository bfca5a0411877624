package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"animehub/internal/domain"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List the anime in the library with their episode counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			all, err := rt.store.ListAnime(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(all))
			for _, anime := range all {
				episodes, err := rt.store.EpisodesForAnime(cmd.Context(), anime.ID)
				if err != nil {
					return err
				}
				watched := 0
				for _, episode := range episodes {
					if episode.State == domain.EpisodeStateCompleted {
						watched++
					}
				}
				rows = append(rows, []string{
					anime.ID.String(),
					anime.Title,
					string(anime.Kind),
					string(anime.Status),
					fmt.Sprintf("%d", len(episodes)),
					fmt.Sprintf("%d", watched),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Kind", "Status", "Episodes", "Watched"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}
