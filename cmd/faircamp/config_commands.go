package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faircamp/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.ConfigFileName
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the site title and catalog directory before building.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load("")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(out, "No config file found; defaults in effect")
			} else {
				fmt.Fprintf(out, "Config path: %s\n", path)
			}
			fmt.Fprintf(out, "Site title:  %s\n", cfg.Site.Title)
			fmt.Fprintf(out, "Base URL:    %s\n", cfg.Site.BaseURL)
			fmt.Fprintf(out, "Catalog:     %s\n", cfg.Paths.CatalogDir)
			fmt.Fprintf(out, "Build dir:   %s\n", cfg.Paths.BuildDir)
			fmt.Fprintf(out, "Cache dir:   %s\n", cfg.Paths.CacheDir)
			fmt.Fprintf(out, "Strategy:    %s (grace %dh)\n", cfg.Cache.Strategy, cfg.Cache.GraceHours)
			fmt.Fprintf(out, "Formats:     %s\n", strings.Join(cfg.Transcode.Formats, ", "))
			fmt.Fprintf(out, "Archives:    %s\n", yesNo(cfg.Archive.Enabled))
			return nil
		},
	}
}
