package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/dirtar/config"
	dirtarhttp "github.com/sagarc03/dirtar/http"
	"github.com/sagarc03/dirtar/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the dirtar HTTP server.

Before accepting requests the server removes scratch archives older than
archive.stale_after that a previous run left behind.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: DIRTAR_SERVER_PORT)")
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server bind address (env: DIRTAR_SERVER_HOST)")
	serveCmd.Flags().String("index-file", "", "HTML shell for directory listings (default: embedded)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	cleaned, swept, err := a.cleanup(ctx, cfg.Archive.StaleAfter, 0)
	if err != nil {
		slog.Warn("startup cleanup failed", "err", err)
	} else if cleaned > 0 || swept > 0 {
		slog.Info("removed stale scratch archives", "registry", cleaned, "orphans", swept)
	}

	indexHTML, err := loadIndexHTML(cfg.Server.IndexFile)
	if err != nil {
		return err
	}

	handler := dirtarhttp.NewHandler(&dirtarhttp.HandlerConfig{
		IndexHTML: indexHTML,
		CORS:      cfg.CORS,
		Metrics:   cfg.Metrics.Enabled,
	}, a.service)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info(fmt.Sprintf("HTTP webserver running. Access it at: http://%s/", cfg.Server.Addr()),
			"root", a.root.Name(), "scratch_dir", a.builder.ScratchDir())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			if err := metrics.SampleProcess(gctx, cfg.Metrics.SampleInterval); err != nil {
				slog.Warn("process metrics disabled", "err", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func loadIndexHTML(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied path
	if err != nil {
		return "", fmt.Errorf("read index file: %w", err)
	}
	return string(data), nil
}
