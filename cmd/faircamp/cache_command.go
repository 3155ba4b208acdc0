package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"faircamp/internal/cache"
	"faircamp/internal/catalog"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the artifact cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheOptimizeCommand(ctx))
	cacheCmd.AddCommand(newCacheWipeCommand(ctx))
	cacheCmd.AddCommand(newCacheRotateSaltCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached artifact counts and sizes per kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIndex(func(index *cache.Index) error {
				report := index.BuildReport()
				out := cmd.OutOrStdout()
				if report.TotalCount == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}

				rows := make([][]string, 0, len(report.Rows))
				for _, row := range report.Rows {
					rows = append(rows, []string{
						string(row.Kind),
						string(row.State),
						fmt.Sprintf("%d", row.Count),
						humanize.Bytes(uint64(row.Bytes)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Kind", "State", "Artifacts", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				))
				fmt.Fprintf(out, "Total: %d artifact(s), %s (%s reclaimable)\n",
					report.TotalCount,
					humanize.Bytes(uint64(report.TotalBytes)),
					humanize.Bytes(uint64(report.StaleBytes)))
				return nil
			})
		},
	}
}

func newCacheOptimizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Purge stale cached artifacts now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOptimizer(func(index *cache.Index, opt *cache.Optimizer) error {
				purged, failed := opt.PurgeStale()
				if err := index.Persist(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d stale artifact(s)", purged)
				if failed > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), ", %d could not be deleted", failed)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newCacheWipeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Purge every cached artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOptimizer(func(index *cache.Index, opt *cache.Optimizer) error {
				purged, failed := opt.PurgeAll()
				if err := index.Persist(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d artifact(s)", purged)
				if failed > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), ", %d could not be deleted", failed)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newCacheRotateSaltCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-salt",
		Short: "Mint a new deployment salt, rotating salted asset URLs",
		Long: "Mint a new deployment salt. Cached transcodes and archives go stale " +
			"on the next build and get fresh URLs, invalidating hotlinks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := catalog.RotateSalt(cfg.Paths.CacheDir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deployment salt rotated; salted assets rebuild on the next build")
			return nil
		},
	}
}

func (c *commandContext) withIndex(fn func(*cache.Index) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	index, err := cache.Open(cfg.Paths.CacheDir, logger)
	if err != nil {
		return err
	}
	defer index.Close()
	return fn(index)
}

func (c *commandContext) withOptimizer(fn func(*cache.Index, *cache.Optimizer) error) error {
	return c.withIndex(func(index *cache.Index) error {
		cfg, err := c.ensureConfig()
		if err != nil {
			return err
		}
		logger, err := c.ensureLogger()
		if err != nil {
			return err
		}
		strategy, err := cache.ParseStrategy(cfg.Cache.Strategy)
		if err != nil {
			return err
		}
		grace := time.Duration(cfg.Cache.GraceHours) * time.Hour
		return fn(index, cache.NewOptimizer(index, strategy, grace, logger))
	})
}
