package talk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/storage/memstore"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wikitext"
)

type allPagesExist struct{}

func (allPagesExist) PageExists(context.Context, title.Title) bool { return true }
func (allPagesExist) TranscludedText(context.Context, title.Title) (string, bool) {
	return "", false
}

func setupService(t *testing.T) *Service {
	t.Helper()
	opts := config.Default()
	return NewService(memstore.New(), wikitext.NewRenderer(opts), allPagesExist{})
}

func TestPostAndRead(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	topic := title.Parse("Talk:Main Page")

	msg, err := svc.Post(ctx, topic, "alice", "user-1", "", "I think the intro needs [[Sources]].")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Contains(t, msg.HTML, "wiki-link")

	_, err = svc.Post(ctx, topic, "bob", "user-2", msg.ID, "Agreed.")
	require.NoError(t, err)

	got, err := svc.Topic(ctx, topic)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "alice", got.Messages[0].Sender)
	assert.Equal(t, msg.ID, got.Messages[1].ReplyTo)
	assert.True(t, got.Messages[0].Timestamp.Before(got.Messages[1].Timestamp) ||
		got.Messages[0].Timestamp.Equal(got.Messages[1].Timestamp))
}

func TestPostValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	topic := title.Parse("Talk:Main Page")

	_, err := svc.Post(ctx, topic, "alice", "", "", "")
	assert.Error(t, err, "empty messages are rejected")

	_, err = svc.Post(ctx, topic, "alice", "", "no-such-id", "orphan reply")
	assert.Error(t, err, "replies must target an existing message")
}

func TestPostSanitisesHTML(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	msg, err := svc.Post(ctx, title.Parse("Talk:Main Page"), "mallory", "", "",
		"hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "hello")
}

func TestTopicAbsent(t *testing.T) {
	svc := setupService(t)

	got, err := svc.Topic(context.Background(), title.Parse("Talk:Quiet Page"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHubSubscriptions(t *testing.T) {
	h := NewHub()
	topicID := Key(title.Parse("Talk:Main Page"))

	assert.Equal(t, 0, h.Subscribers(topicID))

	// Broadcast to an empty topic is a no-op.
	h.Broadcast(topicID, &Message{ID: "m1", Markdown: "hi"})
	assert.Equal(t, 0, h.Subscribers(topicID))
}

func TestStatsCountsTopicsAndMessages(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	topics, messages, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, topics)
	assert.Zero(t, messages)

	_, err = svc.Post(ctx, title.Parse("Talk:Main Page"), "alice", "", "", "first")
	require.NoError(t, err)
	_, err = svc.Post(ctx, title.Parse("Talk:Main Page"), "bob", "", "", "second")
	require.NoError(t, err)
	_, err = svc.Post(ctx, title.Parse("Talk:Other"), "alice", "", "", "elsewhere")
	require.NoError(t, err)

	topics, messages, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, topics)
	assert.Equal(t, 3, messages)
}
