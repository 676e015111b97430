/*
Copyright © 2026 The Quill Authors
*/

// diff.go implements "quill diff": render the change a revision
// introduced, in one of the revision package's output formats.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/revision"
	"github.com/quillwiki/quill/internal/title"
)

var (
	diffVersion int
	diffFormat  string
)

var diffCmd = &cobra.Command{
	Use:   "diff <title>",
	Short: "Show what a revision changed",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().IntVarP(&diffVersion, "version", "v", 0, "Revision to diff (default latest)")
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "gnu", "Output format: gnu, delta, markdown, html")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(c *cobra.Command, args []string) error {
	ctx := c.Context()
	t := title.Parse(args[0])

	v := diffVersion
	if v == 0 {
		revs, err := engine.History(ctx, t)
		if err != nil {
			return fmt.Errorf("diff %s: %w", t, err)
		}
		v = len(revs)
	}

	out, err := engine.DiffAt(ctx, t, v, revision.Format(diffFormat))
	log.Event("page:diff", "read").
		Author(author).
		Title(t.String()).
		Version(v).
		Detail("format", diffFormat).
		Write(err)
	if err != nil {
		return fmt.Errorf("diff %s: %w", t, err)
	}

	fmt.Fprintln(c.OutOrStdout(), out)
	return nil
}
