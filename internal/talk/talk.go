// Package talk implements discussion topics: append-only message lists
// attached to a title, rendered through the same markdown pipeline as
// pages so wiki links work in conversation. Messages are never edited
// or removed; moderation happens at a layer above.
package talk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wikitext"
)

// Message is one post in a topic.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId,omitempty"`
	ReplyTo   string    `json:"replyTo,omitempty"`
	Markdown  string    `json:"markdown"`
	HTML      string    `json:"html"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic is a discussion thread addressed by a title, usually in the
// talk namespace mirroring the page under discussion.
type Topic struct {
	ID       string      `json:"id"`
	Title    title.Title `json:"title"`
	Messages []Message   `json:"messages"`
}

// Key returns the storage ID for the topic addressed by t.
func Key(t title.Title) string {
	return title.Key("topic", t)
}

// Service manages topics over a store. The resolver supplies page
// existence for red-link marking inside messages.
type Service struct {
	store    storage.Store
	renderer *wikitext.Renderer
	resolver wikitext.Resolver
}

// NewService builds a topic service sharing the wiki's renderer.
func NewService(s storage.Store, r *wikitext.Renderer, resolver wikitext.Resolver) *Service {
	return &Service{store: s, renderer: r, resolver: resolver}
}

// Topic loads a topic, nil when no one has posted yet.
func (s *Service) Topic(ctx context.Context, t title.Title) (*Topic, error) {
	return storage.GetJSON[Topic](ctx, s.store, Key(t))
}

// Post appends a message to a topic, creating the topic on first post.
// replyTo, when set, must name an existing message ID in the topic.
func (s *Service) Post(ctx context.Context, t title.Title, sender, senderID, replyTo, markdown string) (*Message, error) {
	if markdown == "" {
		return nil, fmt.Errorf("post to %s: empty message", t)
	}

	topic, err := s.Topic(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load topic %s: %w", t, err)
	}
	if topic == nil {
		topic = &Topic{ID: Key(t), Title: t}
	}

	if replyTo != "" {
		found := false
		for _, m := range topic.Messages {
			if m.ID == replyTo {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("post to %s: no message %s to reply to", t, replyTo)
		}
	}

	res, err := s.renderer.Render(ctx, t, markdown, s.resolver)
	if err != nil {
		return nil, fmt.Errorf("render message for %s: %w", t, err)
	}

	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		SenderID:  senderID,
		ReplyTo:   replyTo,
		Markdown:  markdown,
		HTML:      res.HTML,
		Timestamp: time.Now().UTC(),
	}
	topic.Messages = append(topic.Messages, msg)

	if err := storage.PutJSON(ctx, s.store, topic.ID, topic); err != nil {
		return nil, fmt.Errorf("store topic %s: %w", t, err)
	}
	return &msg, nil
}

// Stats counts stored topics and the messages across them.
func (s *Service) Stats(ctx context.Context) (topics, messages int, err error) {
	err = s.store.List(ctx, "topic:", func(id string, value []byte) error {
		var t Topic
		if err := json.Unmarshal(value, &t); err != nil {
			return fmt.Errorf("decode topic %s: %w", id, err)
		}
		topics++
		messages += len(t.Messages)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("scan topics: %w", err)
	}
	return topics, messages, nil
}
