package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animehub/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Config file:     %s\n", path)
			} else {
				fmt.Fprintln(out, "Config file:     (defaults, no file found)")
			}
			fmt.Fprintf(out, "Library roots:   %s\n", strings.Join(cfg.Paths.LibraryDirs, ", "))
			fmt.Fprintf(out, "Data directory:  %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Log directory:   %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Database:        %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "Match threshold: %.2f\n", cfg.Resolution.MatchThreshold)
			fmt.Fprintf(out, "Watch debounce:  %dms\n", cfg.Watch.DebounceMS)
			fmt.Fprintf(out, "Logging:         %s/%s\n", cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if exists {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration at %s is valid\n", path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No configuration file found; defaults are valid")
			}
			return nil
		},
	}
}
