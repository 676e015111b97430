/*
Copyright © 2026 The Quill Authors
*/

// redirect.go implements "quill redirect": turn a page into a redirect.
// The engine compresses chains and flags broken or double redirects.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wiki"
)

var redirectComment string

var redirectCmd = &cobra.Command{
	Use:   "redirect <title> <target>",
	Short: "Redirect a page to another",
	Args:  cobra.ExactArgs(2),
	RunE:  runRedirect,
}

func init() {
	redirectCmd.Flags().StringVarP(&redirectComment, "comment", "m", "", "Edit comment")
	rootCmd.AddCommand(redirectCmd)
}

func runRedirect(c *cobra.Command, args []string) error {
	t := title.Parse(args[0])
	target := title.Parse(args[1])

	p, err := engine.Update(c.Context(), wiki.UpdateParams{
		Title:      t,
		Editor:     author,
		Comment:    redirectComment,
		RedirectTo: &target,
	})
	b := log.Event("page:redirect", "redirect").Author(author).Title(t.String())
	if p != nil && p.RedirectTo != nil {
		b = b.Resolved(p.RedirectTo.String())
	}
	b.Write(err)
	if err != nil {
		return fmt.Errorf("redirect %s: %w", t, err)
	}

	switch {
	case p.BrokenRedirect:
		fmt.Fprintf(c.OutOrStdout(), "Redirected %s -> %s (target does not exist)\n", t, p.RedirectTo)
	case p.DoubleRedirect:
		fmt.Fprintf(c.OutOrStdout(), "Redirected %s -> %s (compressed through a chain)\n", t, p.RedirectTo)
	default:
		fmt.Fprintf(c.OutOrStdout(), "Redirected %s -> %s\n", t, p.RedirectTo)
	}
	return nil
}
