package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/dirtar/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "dirtar",
	Short:   "HTTP file server with directory listings and tar downloads",
	Long: `dirtar serves a directory tree over HTTP. Directories render as HTML
listings, files are returned as-is, and any directory can be downloaded
as a tar archive with GET /<dir>.tar?download.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var configFiles []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			configFiles = append(configFiles, configFile)
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "directory to serve (default: ., env: DIRTAR_SERVER_ROOT)")
	rootCmd.PersistentFlags().String("scratch-dir", "", "directory for temporary archives (env: DIRTAR_ARCHIVE_SCRATCH_DIR)")
	rootCmd.PersistentFlags().String("db-type", "", "registry database type: sqlite, postgres (default: sqlite, env: DIRTAR_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "registry connection string (default: <user cache dir>/dirtar/registry.db, env: DIRTAR_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: DIRTAR_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
