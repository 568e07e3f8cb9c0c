package main

import (
	"io"
	"os"

	"github.com/sagarc03/dirtar/clientcli"
	"github.com/spf13/cobra"
)

var (
	getOutput  string
	getExtract string
)

var getCmd = &cobra.Command{
	Use:   "get <remote-dir>",
	Short: "Download a remote directory as a tar archive",
	Long: `Download a remote directory as a tar archive.

By default the archive is saved as <name>.tar in the current directory.
With --extract the archive is unpacked into the given directory while it
downloads; entries that would land outside that directory are rejected.

Examples:
  dirtar-cli get docs
  dirtar-cli get docs -o /backups/docs.tar
  dirtar-cli get docs -o - | tar -tv
  dirtar-cli get docs --extract ./docs`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", `output file path ("-" for stdout)`)
	getCmd.Flags().StringVarP(&getExtract, "extract", "x", "", "unpack into this directory instead of saving the archive")
	getCmd.MarkFlagsMutuallyExclusive("output", "extract")
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.GetOptions{
		RemotePath: args[0],
		LocalPath:  getOutput,
		ExtractTo:  getExtract,
	}

	var progress *clientcli.ProgressPrinter
	if !quiet && !jsonOutput {
		progress = clientcli.NewProgressPrinter(os.Stderr, args[0])
		opts.Progress = progress.Update
	}

	result, reader, err := client.Get(cmd.Context(), opts)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, copyErr := io.Copy(os.Stdout, reader)
		if progress != nil {
			progress.Done()
		}
		if copyErr != nil {
			return copyErr
		}
		result.Size = written
		return getFormatter().FormatGet(os.Stderr, result)
	}

	if progress != nil {
		progress.Done()
	}
	return getFormatter().FormatGet(os.Stdout, result)
}
