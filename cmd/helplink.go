package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadscrape/internal/shell"
)

var openURL shell.Opener = shell.OpenURL

var helpLinkCmd = &cobra.Command{
	Use:   "help-link",
	Short: "Open the product help page in the default browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return openHelp(os.Stdout, cfg.Shell.HelpURL)
	},
}

func openHelp(w io.Writer, url string) error {
	if url == "" {
		url = shell.DefaultHelpURL
	}
	fmt.Fprintln(w, url) //nolint:errcheck
	return openURL(url)
}

func init() {
	rootCmd.AddCommand(helpLinkCmd)
}
