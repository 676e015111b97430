/*
Copyright © 2026 The Quill Authors
*/

// cat.go implements "quill cat" for reading page markdown.
//
// Terminal output gets glamour markdown rendering; pipe/redirect gets
// raw markdown. -v reads a historical revision via reconstruction.

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
)

var (
	catVersion int
	catRaw     bool
)

var catCmd = &cobra.Command{
	Use:   "cat <title>",
	Short: "Read a page",
	Long:  `Output a page's markdown to stdout, following redirects.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

func init() {
	catCmd.Flags().IntVarP(&catVersion, "version", "v", 0, "Read a specific revision")
	catCmd.Flags().Bool("raw", false, "Output raw markdown without rendering")
	rootCmd.AddCommand(catCmd)
}

func runCat(c *cobra.Command, args []string) error {
	ctx := c.Context()
	t := title.Parse(args[0])
	catRaw, _ = c.Flags().GetBool("raw")

	var err error
	defer func() {
		b := log.Event("page:cat", "read").Author(author).Title(t.String())
		if catVersion > 0 {
			b = b.Version(catVersion)
		}
		b.Write(err)
	}()

	var markdown string
	if catVersion > 0 {
		markdown, err = engine.TextAt(ctx, t, catVersion)
		if err != nil {
			return fmt.Errorf("cat %s: %w", t, err)
		}
	} else {
		p, perr := engine.Page(ctx, t)
		if perr != nil {
			err = perr
			return fmt.Errorf("cat %s: %w", t, err)
		}
		if p != nil && p.IsRedirect() && !p.BrokenRedirect {
			p, perr = engine.Page(ctx, *p.RedirectTo)
			if perr != nil {
				err = perr
				return fmt.Errorf("cat %s: %w", t, err)
			}
		}
		if p == nil || !p.Exists() {
			err = fmt.Errorf("no page %s", t)
			return err
		}
		markdown = p.Markdown
	}

	if !catRaw && term.IsTerminal(int(os.Stdout.Fd())) {
		rendered, renderErr := glamour.Render(markdown, "dark")
		if renderErr == nil {
			fmt.Fprint(c.OutOrStdout(), rendered)
			return nil
		}
	}
	fmt.Fprintln(c.OutOrStdout(), markdown)
	return nil
}
