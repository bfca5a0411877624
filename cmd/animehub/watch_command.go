package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"animehub/internal/scanner"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the library roots and materialize files as they appear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			return withLock(rt.cfg, func() error {
				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				fmt.Fprintf(cmd.OutOrStdout(), "watching %d roots (ctrl-c to stop)\n", len(rt.cfg.Paths.LibraryDirs))
				watcher := scanner.NewWatcher(rt.cfg, rt.store, rt.bus, rt.logger)
				if err := watcher.Run(runCtx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
}
