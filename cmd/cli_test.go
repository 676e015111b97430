// Testing strategy: cmd/ holds CLI integration tests exercising the
// full stack, command parsing through the engine to badger. Commands
// run in-process against a temp data directory; each env resets the
// package globals so tests stay independent.

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEnv points the CLI at a fresh temp wiki and resets state left
// by previous tests.
func newTestEnv(t *testing.T) {
	t.Helper()
	resetWiki(t)
	dataDir = t.TempDir()
	configPath = ""
	author = "tester"
	t.Cleanup(func() { resetWiki(t) })
}

func resetWiki(t *testing.T) {
	t.Helper()
	if store != nil {
		require.NoError(t, store.Close())
	}
	store = nil
	engine = nil
	talks = nil
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runErr(t, stdin, args...)
	require.NoError(t, err, "quill %s\noutput: %s", strings.Join(args, " "), out)
	return out
}

// resetFlags restores every flag to its default so one invocation's
// flags don't leak into the next; a real CLI run gets this for free by
// starting a fresh process.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runErr(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestInit(t *testing.T) {
	newTestEnv(t)

	out := run(t, "", "init")
	assert.Contains(t, out, "Initialised")

	_, err := runErr(t, "", "init")
	assert.Error(t, err, "second init must refuse to overwrite")
}

func TestWriteAndCat(t *testing.T) {
	newTestEnv(t)

	content := "# Hello\n\nA page about [[Gophers]]."
	run(t, content, "write", "Main Page")

	out := run(t, "", "cat", "Main Page", "--raw")
	assert.Contains(t, out, "A page about")

	_, err := runErr(t, "", "cat", "No Such Page", "--raw")
	assert.Error(t, err)
}

func TestHistoryAndDiff(t *testing.T) {
	newTestEnv(t)

	run(t, "first version", "write", "Doc", "-m", "created")
	run(t, "second version", "write", "Doc", "-m", "revised")

	out := run(t, "", "history", "Doc")
	assert.Contains(t, out, "milestone")
	assert.Contains(t, out, "tester")
	assert.Contains(t, out, "revised")

	out = run(t, "", "diff", "Doc", "-v", "2")
	assert.Contains(t, out, "second")
}

func TestMvLeavesRedirect(t *testing.T) {
	newTestEnv(t)

	run(t, "the content", "write", "Old Title")
	out := run(t, "", "mv", "Old Title", "New Title")
	assert.Contains(t, out, "Renamed")

	out = run(t, "", "cat", "Old Title", "--raw")
	assert.Contains(t, out, "the content", "cat follows the redirect left behind")
}

func TestTalkRoundTrip(t *testing.T) {
	newTestEnv(t)

	run(t, "", "talk", "Talk:Main Page", "--post", "shall we restructure?")
	out := run(t, "", "talk", "Talk:Main Page")
	assert.Contains(t, out, "tester")
	assert.Contains(t, out, "restructure")
}

func TestExportImport(t *testing.T) {
	newTestEnv(t)

	run(t, "alpha content [[Beta]]", "write", "Alpha")
	run(t, "beta content", "write", "Beta")

	archiveJSON := run(t, "", "export")
	assert.Contains(t, archiveJSON, "Alpha")

	// Import into a second wiki.
	newTestEnv(t)
	out := run(t, archiveJSON, "import")
	assert.Contains(t, out, "Imported 2 pages")

	out = run(t, "", "cat", "Beta", "--raw")
	assert.Contains(t, out, "beta content")
}

func TestStats(t *testing.T) {
	newTestEnv(t)

	run(t, "see [[Ghost]]", "write", "One")
	run(t, "content", "write", "Two")
	run(t, "", "redirect", "Shortcut", "Two")
	run(t, "", "talk", "One", "--post", "first post")

	out := run(t, "", "stats")
	assert.Contains(t, out, "Pages:     2")
	assert.Contains(t, out, "Redirects: 1")
	assert.Contains(t, out, "Missing:   1")
	assert.Contains(t, out, "Revisions: 3")
	assert.Contains(t, out, "Topics:    1")
	assert.Contains(t, out, "Messages:  1")
}
