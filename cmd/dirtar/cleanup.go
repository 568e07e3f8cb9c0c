package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/dirtar/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale scratch archives",
	Long: `Remove tar archives left in the scratch directory by downloads that never
completed.

This command:
  1. Deletes the scratch file of every registered archive older than --older-than
     and marks its registry entry as cleaned up
  2. Deletes unregistered scratch files older than --older-than

Run this periodically if the server is restarted rarely.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var (
	cleanupLimit     int
	cleanupOlderThan time.Duration
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupLimit, "limit", 100, "registry records to process per batch")
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", time.Hour, "only remove archives older than this")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	slog.Info("starting cleanup", "older_than", cleanupOlderThan, "limit", cleanupLimit, "scratch_dir", a.builder.ScratchDir())

	cleaned, swept, err := a.cleanup(ctx, cleanupOlderThan, cleanupLimit)
	if err != nil {
		return err
	}

	slog.Info("cleanup complete", "archives_cleaned", cleaned, "orphans_removed", swept)
	return nil
}
