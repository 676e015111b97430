/*
Copyright © 2026 The Quill Authors
*/

// rm.go implements "quill rm": delete a page's content. History stays,
// and pages still referenced elsewhere are tracked as missing.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
)

var rmComment string

var rmCmd = &cobra.Command{
	Use:   "rm <title>",
	Short: "Delete a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func init() {
	rmCmd.Flags().StringVarP(&rmComment, "comment", "m", "", "Edit comment")
	rootCmd.AddCommand(rmCmd)
}

func runRm(c *cobra.Command, args []string) error {
	t := title.Parse(args[0])

	p, err := engine.Delete(c.Context(), t, author, rmComment)
	log.Event("page:rm", "delete").Author(author).Title(t.String()).Write(err)
	if err != nil {
		return fmt.Errorf("rm %s: %w", t, err)
	}

	if p.Missing {
		fmt.Fprintf(c.OutOrStdout(), "Deleted %s (still referenced by other pages)\n", t)
	} else {
		fmt.Fprintf(c.OutOrStdout(), "Deleted %s\n", t)
	}
	return nil
}
