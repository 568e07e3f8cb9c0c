package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/dirtar/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the scratch directory and registry database",
	Long: `Create the scratch directory, run registry migrations and validate the
schema, then exit. serve does the same on startup; init lets you check a
configuration before deploying it.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
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

	slog.Info("initialization complete",
		"root", a.root.Name(),
		"scratch_dir", a.builder.ScratchDir(),
		"database", cfg.Database.Type,
	)
	return nil
}
