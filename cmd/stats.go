/*
Copyright © 2026 The Quill Authors
*/

// stats.go implements "quill stats": content counts for the whole wiki.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show wiki statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(c *cobra.Command, _ []string) error {
	ctx := c.Context()

	s, err := engine.Stats(ctx)
	var topics, messages int
	if err == nil {
		topics, messages, err = talks.Stats(ctx)
	}
	log.Event("wiki:stats", "read").Author(author).Write(err)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "Pages:     %d\n", s.Pages)
	fmt.Fprintf(out, "Redirects: %d\n", s.Redirects)
	fmt.Fprintf(out, "Missing:   %d\n", s.Missing)
	fmt.Fprintf(out, "Revisions: %d\n", s.Revisions)
	fmt.Fprintf(out, "Topics:    %d\n", topics)
	fmt.Fprintf(out, "Messages:  %d\n", messages)
	return nil
}
