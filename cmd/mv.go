/*
Copyright © 2026 The Quill Authors
*/

// mv.go implements "quill mv": rename a page, leaving a redirect behind
// and re-pointing existing redirects at the new title.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
)

var mvComment string

var mvCmd = &cobra.Command{
	Use:   "mv <title> <new-title>",
	Short: "Rename a page",
	Args:  cobra.ExactArgs(2),
	RunE:  runMv,
}

func init() {
	mvCmd.Flags().StringVarP(&mvComment, "comment", "m", "", "Edit comment")
	rootCmd.AddCommand(mvCmd)
}

func runMv(c *cobra.Command, args []string) error {
	from := title.Parse(args[0])
	to := title.Parse(args[1])

	err := engine.Rename(c.Context(), from, to, author, mvComment)
	log.Event("page:mv", "rename").
		Author(author).
		Title(from.String()).
		Resolved(to.String()).
		Write(err)
	if err != nil {
		return fmt.Errorf("mv %s: %w", from, err)
	}

	fmt.Fprintf(c.OutOrStdout(), "Renamed %s -> %s\n", from, to)
	return nil
}
