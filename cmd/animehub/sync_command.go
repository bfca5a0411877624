package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Scan the library and materialize everything new",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			return withLock(rt.cfg, func() error {
				observations, err := rt.scanner.Scan(cmd.Context())
				if err != nil {
					return err
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
