/*
Copyright © 2026 The Quill Authors
*/

// history.go implements "quill history": the revision log of a page,
// most recent first.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
)

var historyCmd = &cobra.Command{
	Use:   "history <title>",
	Short: "Show a page's revision history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(c *cobra.Command, args []string) error {
	t := title.Parse(args[0])

	revs, err := engine.History(c.Context(), t)
	log.Event("page:history", "read").Author(author).Title(t.String()).Write(err)
	if err != nil {
		return fmt.Errorf("history of %s: %w", t, err)
	}
	if len(revs) == 0 {
		return fmt.Errorf("no history for %s", t)
	}

	for i, r := range revs {
		version := len(revs) - i
		shape := "delta"
		switch {
		case r.Deleted:
			shape = "deleted"
		case r.Milestone:
			shape = "milestone"
		}
		line := fmt.Sprintf("v%-4d %s  %-9s %s", version, r.Timestamp.Format("2006-01-02 15:04"), shape, r.Editor)
		if r.Comment != "" {
			line += "  " + r.Comment
		}
		fmt.Fprintln(c.OutOrStdout(), line)
	}
	return nil
}
