package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"animehub/internal/events"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <principal-id> <alias-id>",
		Short: "Merge a duplicate anime into its principal",
		Long: `Merge records that the alias anime is the same work as the principal.
Existing episodes stay where they are; future materializations follow the
alias chain and attach new episodes to the principal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principalID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("principal id: %w", err)
			}
			aliasID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("alias id: %w", err)
			}

			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			return withLock(rt.cfg, func() error {
				alias, err := rt.store.MergeAnime(cmd.Context(), principalID, aliasID)
				if err != nil {
					return err
				}
				rt.bus.Publish(events.AnimeMerged{
					Meta:        events.NewMeta(),
					PrincipalID: alias.PrincipalID,
					AliasID:     alias.AliasID,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "merged %s into %s\n", alias.AliasID, alias.PrincipalID)
				return nil
			})
		},
	}
}
