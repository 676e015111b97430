/*
Copyright © 2026 The Quill Authors
*/

// talk.go implements "quill talk": read a discussion topic, or post to
// it with --post.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/title"
)

var (
	talkPost    string
	talkReplyTo string
)

var talkCmd = &cobra.Command{
	Use:   "talk <title>",
	Short: "Read or post to a discussion topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runTalk,
}

func init() {
	talkCmd.Flags().StringVarP(&talkPost, "post", "p", "", "Post a message instead of reading")
	talkCmd.Flags().StringVar(&talkReplyTo, "reply-to", "", "Message ID to reply to")
	rootCmd.AddCommand(talkCmd)
}

func runTalk(c *cobra.Command, args []string) error {
	ctx := c.Context()
	t := title.Parse(args[0])

	if talkPost != "" {
		msg, err := talks.Post(ctx, t, author, "", talkReplyTo, talkPost)
		log.Event("talk:post", "post").Author(author).Title(t.String()).Write(err)
		if err != nil {
			return fmt.Errorf("post to %s: %w", t, err)
		}
		fmt.Fprintf(c.OutOrStdout(), "Posted %s\n", msg.ID)
		return nil
	}

	topic, err := talks.Topic(ctx, t)
	log.Event("talk:read", "read").Author(author).Title(t.String()).Write(err)
	if err != nil {
		return fmt.Errorf("read %s: %w", t, err)
	}
	if topic == nil || len(topic.Messages) == 0 {
		return fmt.Errorf("no messages in %s", t)
	}

	for _, m := range topic.Messages {
		prefix := ""
		if m.ReplyTo != "" {
			prefix = "  ↳ "
		}
		fmt.Fprintf(c.OutOrStdout(), "%s[%s] %s: %s\n",
			prefix, m.Timestamp.Format("2006-01-02 15:04"), m.Sender, m.Markdown)
	}
	return nil
}
