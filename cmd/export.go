/*
Copyright © 2026 The Quill Authors
*/

// export.go implements "quill export": snapshot every live page to a
// JSON archive on stdout or a file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/archive"
	"github.com/quillwiki/quill/internal/log"
)

var exportCmd = &cobra.Command{
	Use:   "export [dest-file]",
	Short: "Export the wiki to a JSON archive",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(c *cobra.Command, args []string) error {
	a, err := archive.Export(c.Context(), store, opts)
	b := log.Event("archive:export", "export").Author(author)
	if a != nil {
		b = b.Detail("pages", len(a.Pages))
	}
	b.Write(err)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	out := c.OutOrStdout()
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		defer f.Close()
		out = f
	}
	if err := a.Write(out); err != nil {
		return err
	}
	if len(args) == 1 {
		fmt.Fprintf(c.OutOrStdout(), "Exported %d pages to %s\n", len(a.Pages), args[0])
	}
	return nil
}
