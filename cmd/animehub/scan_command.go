package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk the library roots and update the file catalog",
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

			rows := make([][]string, 0, len(observations))
			for _, obs := range observations {
				rows = append(rows, []string{obs.Path, string(obs.Role), fmt.Sprintf("%d", obs.Size)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Path", "Role", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "%d files observed\n", len(observations))
			return nil
		},
	}
}
