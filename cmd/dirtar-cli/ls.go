package main

import (
	"os"

	"github.com/sagarc03/dirtar/clientcli"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls [remote-dir]",
	Aliases: []string{"list"},
	Short:   "List a remote directory",
	Long: `List the immediate children of a remote directory.

Examples:
  dirtar-cli ls
  dirtar-cli ls docs/
  dirtar-cli ls --json docs | jq '.entries[].name'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	remotePath := ""
	if len(args) > 0 {
		remotePath = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{Path: remotePath})
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
