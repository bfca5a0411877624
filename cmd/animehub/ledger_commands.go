package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the materialization ledger",
	}
	cmd.AddCommand(newLedgerListCommand(ctx))
	cmd.AddCommand(newLedgerShowCommand(ctx))
	return cmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent ledger records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			records, err := rt.store.ListLedger(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					shortFingerprint(record.Fingerprint),
					record.EventType,
					record.Outcome,
					record.MaterializedAt.Local().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Fingerprint", "Event", "Outcome", "Materialized"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum records to list")
	return cmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <fingerprint>",
		Short: "Show one ledger record with its entity references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			record, err := rt.store.LookupLedger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("no ledger record for fingerprint %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fingerprint:   %s\n", record.Fingerprint)
			fmt.Fprintf(out, "Event:         %s (%s)\n", record.EventType, record.SourceEventID)
			fmt.Fprintf(out, "Outcome:       %s\n", record.Outcome)
			fmt.Fprintf(out, "Materialized:  %s\n", record.MaterializedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Anime:         %s\n", refOrDash(record.AnimeID))
			fmt.Fprintf(out, "Episode:       %s\n", refOrDash(record.EpisodeID))
			fmt.Fprintf(out, "File:          %s\n", refOrDash(record.FileID))
			return nil
		},
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func refOrDash(id uuid.UUID) string {
	if id == uuid.Nil {
		return "-"
	}
	return id.String()
}
