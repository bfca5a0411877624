package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"animehub/internal/resolution"
)

func newMaterializeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "materialize",
		Short: "Re-run the pipeline over cataloged files not yet linked to an episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			return withLock(rt.cfg, func() error {
				files, err := rt.store.UnlinkedFiles(cmd.Context())
				if err != nil {
					return err
				}
				observations := make([]resolution.Observation, 0, len(files))
				for _, file := range files {
					observations = append(observations, resolution.Observation{
						FileID:     file.ID,
						Path:       file.Path,
						Role:       file.Role,
						Size:       file.Size,
						ModifiedAt: file.ModifiedAt,
					})
				}

				report, err := rt.pipeline.Run(cmd.Context(), observations)
				if err != nil {
					return err
				}
				printReport(func(format string, a ...any) {
					fmt.Fprintf(cmd.OutOrStdout(), format, a...)
				}, report)
				return nil
			})
		},
	}
}
