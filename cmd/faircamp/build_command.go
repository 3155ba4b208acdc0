package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"faircamp/internal/build"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var catalogDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the static site from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if catalogDir != "" {
				cfg.Paths.CatalogDir = catalogDir
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			builder, err := build.New(cfg, logger)
			if err != nil {
				return err
			}
			result, err := builder.Run(signalCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Built %d release(s) in %s\n", result.Releases, result.Duration.Round(time.Millisecond))
			if len(result.FailedReleases) > 0 {
				fmt.Fprintf(out, "Failed releases: %v\n", result.FailedReleases)
			}
			if result.Sweep.Purged > 0 {
				fmt.Fprintf(out, "Reclaimed %d cached artifact(s)\n", result.Sweep.Purged)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogDir, "catalog", "", "catalog directory (overrides the configured path)")
	return cmd
}
