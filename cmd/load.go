package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadscrape/internal/shell"
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Display a scraped text, CSV, or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(os.Stdout, args[0])
	},
}

func runLoad(w io.Writer, path string) error {
	_, err := fmt.Fprintln(w, shell.LoadFile(path))
	return err
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
