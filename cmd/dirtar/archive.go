package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/archive"
	"github.com/sagarc03/dirtar/config"
	"github.com/sagarc03/dirtar/filesystem"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <dir>",
	Short: "Write a tar archive of a directory under the root",
	Long: `Write a tar archive of a directory under the served root, exactly as the
server would stream it for GET /<dir>.tar?download.

Entry names are relative to <dir>. The archive goes to stdout unless
--output is given.`,
	Example: `  dirtar archive docs -o docs.tar
  dirtar archive / --root /srv/files > everything.tar`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	rel, err := dirtar.CleanRelPath(args[0])
	if err != nil {
		return fmt.Errorf("archive %s: %w", args[0], err)
	}

	output, _ := cmd.Flags().GetString("output")

	exclude := []string{cfg.Archive.ScratchDir}
	if output != "" && output != "-" {
		exclude = append(exclude, output)
	}
	hidden, err := hiddenPaths(cfg.Server.Root, exclude...)
	if err != nil {
		return err
	}

	root, err := os.OpenRoot(cfg.Server.Root)
	if err != nil {
		return fmt.Errorf("open root: %w", err)
	}
	defer func() { _ = root.Close() }()
	store := filesystem.NewFileStorage(root, hidden...)

	p := dirtar.ResolvedPath{Rel: rel, Web: dirtar.WebPath(rel, true)}
	info, err := store.Stat(ctx, p.Rel)
	if err != nil {
		return fmt.Errorf("archive %s: %w", args[0], err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive %s: %w", args[0], dirtar.ErrNotDirectory)
	}

	var w io.Writer = cmd.OutOrStdout()
	var f *os.File
	if output != "" && output != "-" {
		f, err = os.Create(output) //nolint:gosec // G304: operator supplied path
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		w = f
	}

	bw := bufio.NewWriter(w)
	entries, err := archive.Write(ctx, bw, store.FS(), p.FSPath())
	if err == nil {
		err = bw.Flush()
	}
	if f != nil {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(output)
		}
	}
	if err != nil {
		return fmt.Errorf("archive %s: %w", args[0], err)
	}

	if f != nil {
		size := int64(0)
		if st, statErr := os.Stat(output); statErr == nil {
			size = st.Size()
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d files, %s)\n",
			output, entries, humanize.Bytes(uint64(size))) //nolint:gosec // G115: file size is non-negative
	}
	slog.Debug("archive written", "dir", p.Web, "entries", entries)

	return nil
}
