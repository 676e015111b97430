/*
Copyright © 2026 The Quill Authors
*/

// import.go implements "quill import": replay a JSON archive into this
// wiki as ordinary edits, remapping namespace names between configs.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/archive"
	"github.com/quillwiki/quill/internal/log"
)

var importCmd = &cobra.Command{
	Use:   "import [source-file]",
	Short: "Import a JSON archive",
	Long:  `Import an archive from a file, or from stdin when no file is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(c *cobra.Command, args []string) error {
	var source io.Reader = c.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()
		source = f
	}

	a, err := archive.Read(source)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	n, err := archive.Import(c.Context(), engine, a, author)
	log.Event("archive:import", "import").Author(author).Detail("pages", n).Write(err)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Fprintf(c.OutOrStdout(), "Imported %d pages\n", n)
	return nil
}
