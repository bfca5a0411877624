package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Run the resolution phase and print the event log it produces",
		Long: `Events runs a scan and the pure resolution phase, then prints the bus log
for the run. Nothing is materialized; use it to see what a sync would do.`,
		Args: cobra.NoArgs,
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
			if _, err := rt.pipeline.ResolveBatch(cmd.Context(), observations); err != nil {
				return err
			}

			entries := rt.bus.Log()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.OccurredAt.Local().Format(time.TimeOnly),
					entry.EventType,
					entry.EventID.String(),
					fmt.Sprintf("%d", entry.HandlerCount),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Time", "Event", "ID", "Handlers"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
