/*
Copyright © 2026 The Quill Authors
*/

// write.go implements "quill write": create or edit a page from a file
// or stdin. File pages take their payload fields from flags.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wiki"
)

var (
	writeComment  string
	writeFilePath string
	writeFileSize int64
	writeFileType string
)

var writeCmd = &cobra.Command{
	Use:   "write <title> [source-file]",
	Short: "Create or edit a page",
	Long:  `Write page markdown from a source file, or from stdin when no file is given.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runWrite,
}

func init() {
	writeCmd.Flags().StringVarP(&writeComment, "comment", "m", "", "Edit comment")
	writeCmd.Flags().StringVar(&writeFilePath, "file-path", "", "Stored path for file pages")
	writeCmd.Flags().Int64Var(&writeFileSize, "file-size", 0, "Byte size for file pages")
	writeCmd.Flags().StringVar(&writeFileType, "file-type", "", "MIME type for file pages")
	rootCmd.AddCommand(writeCmd)
}

func runWrite(c *cobra.Command, args []string) error {
	t := title.Parse(args[0])

	var source io.Reader = c.InOrStdin()
	if len(args) == 2 {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[1], err)
		}
		defer f.Close()
		source = f
	}
	markdown, err := io.ReadAll(source)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	p, err := engine.Update(c.Context(), wiki.UpdateParams{
		Title:    t,
		Markdown: string(markdown),
		Editor:   author,
		Comment:  writeComment,
		FilePath: writeFilePath,
		FileSize: writeFileSize,
		FileType: writeFileType,
	})
	b := log.Event("page:write", "edit").Author(author).Title(t.String())
	if p != nil {
		b = b.Resolved(p.Title.String())
	}
	b.Write(err)
	if err != nil {
		return fmt.Errorf("write %s: %w", t, err)
	}

	fmt.Fprintf(c.OutOrStdout(), "Wrote %s\n", p.Title)
	return nil
}
