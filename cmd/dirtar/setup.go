package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/archive"
	"github.com/sagarc03/dirtar/config"
	"github.com/sagarc03/dirtar/database"
	"github.com/sagarc03/dirtar/database/sqlite"
	"github.com/sagarc03/dirtar/filesystem"
)

// app bundles the components every subcommand needs. close releases them in
// reverse order of acquisition.
type app struct {
	cfg     *config.Config
	root    *os.Root
	db      database.Database
	builder *archive.Builder
	service *dirtar.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	info, err := os.Stat(cfg.Server.Root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", cfg.Server.Root, dirtar.ErrNotDirectory)
	}

	if err := checkRegistryOutsideRoot(cfg); err != nil {
		return nil, err
	}

	builder, err := archive.NewBuilder(archive.Options{
		ScratchDir:    cfg.Archive.ScratchDir,
		MaxConcurrent: cfg.Archive.MaxConcurrent,
	})
	if err != nil {
		return nil, fmt.Errorf("create archive builder: %w", err)
	}

	hidden, err := hiddenPaths(cfg.Server.Root, cfg.Archive.ScratchDir)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(cfg.Server.Root)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}
	slog.Debug("connected to registry", "type", cfg.Database.Type)

	service, err := dirtar.NewService(
		filesystem.NewFileStorage(root, hidden...),
		builder,
		db.GetRepo(),
		dirtar.ServiceConfig{CleanupTimeout: time.Duration(cfg.Service.CleanupTimeout) * time.Second},
	)
	if err != nil {
		_ = db.Close()
		_ = root.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &app{
		cfg:     cfg,
		root:    root,
		db:      db,
		builder: builder,
		service: service,
	}, nil
}

// hiddenPaths returns the slash paths, relative to root, of every given
// path that lies inside the served root. Those are kept out of listings,
// file responses and archives. A path equal to the root is an error.
func hiddenPaths(root string, paths ...string) ([]string, error) {
	var hidden []string
	for _, p := range paths {
		rel, inside, err := filesystem.Within(root, p)
		if err != nil {
			return nil, err
		}
		if !inside {
			continue
		}
		if rel == "." {
			return nil, fmt.Errorf("%s must not be the served root", p)
		}
		slog.Warn("path inside served root is hidden", "path", p, "rel", rel)
		hidden = append(hidden, rel)
	}
	return hidden, nil
}

// checkRegistryOutsideRoot refuses a SQLite registry file inside the served
// root, where it could be downloaded and would end up in archives.
func checkRegistryOutsideRoot(cfg *config.Config) error {
	if cfg.Database.Type != "sqlite" {
		return nil
	}
	file := sqlite.FilePath(cfg.Database.DSN)
	if file == "" {
		return nil
	}

	_, inside, err := filesystem.Within(cfg.Server.Root, file)
	if err != nil {
		return err
	}
	if inside {
		return fmt.Errorf("registry database %s is inside the served root %s; set database.dsn elsewhere",
			file, cfg.Server.Root)
	}
	return nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		slog.Warn("failed to close registry", "err", err)
	}
	if err := a.root.Close(); err != nil {
		slog.Warn("failed to close root", "err", err)
	}
}

// cleanup removes scratch archives older than olderThan: first the ones the
// registry knows about, then any orphaned scratch files left in the directory.
func (a *app) cleanup(ctx context.Context, olderThan time.Duration, limit int) (int, int, error) {
	before := time.Now().Add(-olderThan)

	cleaned, err := a.service.Cleanup(ctx, before, limit)
	if err != nil {
		return cleaned, 0, fmt.Errorf("cleanup registry: %w", err)
	}

	swept, err := a.builder.Sweep(ctx, before)
	if err != nil {
		return cleaned, swept, fmt.Errorf("sweep scratch dir: %w", err)
	}

	return cleaned, swept, nil
}
