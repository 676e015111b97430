package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/revision"
	"github.com/quillwiki/quill/internal/storage/memstore"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/validate"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	return New(memstore.New(), config.Default())
}

func mustEdit(t *testing.T, e *Engine, name, markdown string) *page.Page {
	t.Helper()
	p, err := e.Update(context.Background(), UpdateParams{
		Title:    title.Parse(name),
		Markdown: markdown,
		Editor:   "alice",
		Comment:  "test edit",
	})
	require.NoError(t, err)
	return p
}

func TestCreateAndRead(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	p := mustEdit(t, e, "Main Page", "# Welcome\n\nHello world.")
	assert.True(t, p.Exists())
	assert.Equal(t, page.KindArticle, p.Kind)
	assert.Contains(t, p.HTML, "Welcome")
	assert.Contains(t, p.Preview, "Hello world")
	require.NotNil(t, p.Revision)
	assert.True(t, p.Revision.Milestone)
	assert.Empty(t, p.Revision.Delta, "milestone delta lives in history, not on the page")

	got, err := e.Page(ctx, title.Parse("Main Page"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
}

func TestCaseInsensitiveLookup(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Main Page", "content")

	got, err := e.Page(ctx, title.Title{Name: "MAIN PAGE"})
	require.NoError(t, err)
	require.NotNil(t, got, "normalised index should resolve case mismatches")
	assert.Equal(t, "Main Page", got.Title.Name)
}

func TestMissingPageTracking(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	a := mustEdit(t, e, "Alpha", "see [[Beta]]")
	require.Len(t, a.Links, 1)

	b, err := e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	require.NotNil(t, b, "link target gets a placeholder record")
	assert.True(t, b.Missing)
	assert.False(t, b.Exists())

	// Creating the page clears the flag and back-references appear.
	b = mustEdit(t, e, "Beta", "actual content")
	assert.False(t, b.Missing)
	require.Len(t, b.References, 1)
	assert.Equal(t, "Alpha", b.References[0].Name)
}

func TestDeleteWithInboundBecomesMissing(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Alpha", "see [[Beta]]")
	mustEdit(t, e, "Beta", "content")

	b, err := e.Delete(ctx, title.Parse("Beta"), "alice", "gone")
	require.NoError(t, err)
	assert.False(t, b.Exists())
	assert.True(t, b.Missing, "deleted page with inbound links is missing again")
	assert.Empty(t, b.HTML)
	assert.Empty(t, b.Markdown)
}

func TestCategoryMembership(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	p := mustEdit(t, e, "Gopher", "An animal. [[Category:Rodents]]")
	require.Len(t, p.Categories, 1)
	assert.Empty(t, p.Links, "categorising links are not plain links")

	cat, err := e.Page(ctx, title.Parse("Category:Rodents"))
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, page.KindCategory, cat.Kind)
	assert.Contains(t, cat.ChildIDs, p.ID)
	assert.False(t, cat.Missing, "categories exist implicitly")

	members, err := e.CategoryMembers(ctx, title.Parse("Category:Rodents"))
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, p.ID, members[0].ID)

	// Removing the category link removes membership; the category
	// page itself survives.
	mustEdit(t, e, "Gopher", "An animal.")
	cat, err = e.Page(ctx, title.Parse("Category:Rodents"))
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Empty(t, cat.ChildIDs)
}

func TestEscapedCategoryLink(t *testing.T) {
	e := setupEngine(t)

	p := mustEdit(t, e, "Taxonomy", "about [[:Category:Rodents]]")
	assert.Empty(t, p.Categories)
	require.Len(t, p.Links, 1)
}

func TestRedirectResolution(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Target", "the real page")

	to := title.Parse("Target")
	p, err := e.Update(ctx, UpdateParams{
		Title:      title.Parse("Alias"),
		Editor:     "alice",
		RedirectTo: &to,
	})
	require.NoError(t, err)
	assert.True(t, p.IsRedirect())
	assert.False(t, p.BrokenRedirect)
	assert.False(t, p.DoubleRedirect)
	assert.Empty(t, p.Markdown, "redirects carry no content")

	tp, err := e.Page(ctx, title.Parse("Target"))
	require.NoError(t, err)
	require.Len(t, tp.RedirectReferences, 1)
	assert.Equal(t, "Alias", tp.RedirectReferences[0].Name)
}

func TestRedirectChainCompression(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Final", "terminal content")

	toFinal := title.Parse("Final")
	_, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Middle"), Editor: "alice", RedirectTo: &toFinal,
	})
	require.NoError(t, err)

	toMiddle := title.Parse("Middle")
	p, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Start"), Editor: "alice", RedirectTo: &toMiddle,
	})
	require.NoError(t, err)

	require.NotNil(t, p.RedirectTo)
	assert.Equal(t, "Final", p.RedirectTo.Name, "chains compress to the terminal page")
	assert.True(t, p.DoubleRedirect)
	assert.False(t, p.BrokenRedirect)
}

func TestRedirectCycle(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	toB := title.Parse("CycleB")
	_, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("CycleA"), Editor: "alice", RedirectTo: &toB,
	})
	require.NoError(t, err)

	toA := title.Parse("CycleA")
	b, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("CycleB"), Editor: "alice", RedirectTo: &toA,
	})
	require.NoError(t, err)
	assert.True(t, b.BrokenRedirect)
	assert.True(t, b.DoubleRedirect)

	// The other half of the cycle is repaired on propagation.
	a, err := e.Page(ctx, title.Parse("CycleA"))
	require.NoError(t, err)
	assert.True(t, a.BrokenRedirect)
}

func TestBrokenRedirectToNothing(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	to := title.Parse("Nowhere")
	p, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Dangling"), Editor: "alice", RedirectTo: &to,
	})
	require.NoError(t, err)
	assert.True(t, p.BrokenRedirect)
	assert.False(t, p.DoubleRedirect, "single hop to nothing is broken, not double")
}

func TestRedirectRepairedWhenTargetAppears(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	to := title.Parse("Later")
	_, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Early"), Editor: "alice", RedirectTo: &to,
	})
	require.NoError(t, err)

	mustEdit(t, e, "Later", "now it exists")

	p, err := e.Page(ctx, title.Parse("Early"))
	require.NoError(t, err)
	assert.False(t, p.BrokenRedirect, "creating the target repairs the redirect")
}

func TestTransclusionPropagation(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Transclusion:Box", "original box text")
	host := mustEdit(t, e, "Host", "before {{Box}} after")
	assert.Contains(t, host.HTML, "original box text")

	mustEdit(t, e, "Transclusion:Box", "replacement box text")

	host2, err := e.Page(ctx, title.Parse("Host"))
	require.NoError(t, err)
	assert.Contains(t, host2.HTML, "replacement box text")
	assert.NotContains(t, host2.HTML, "original box text")
}

func TestRename(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Old Name", "the content")

	// A pre-existing redirect to the old name must be re-pointed.
	toOld := title.Parse("Old Name")
	_, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Shortcut"), Editor: "alice", RedirectTo: &toOld,
	})
	require.NoError(t, err)

	err = e.Rename(ctx, title.Parse("Old Name"), title.Parse("New Name"), "alice", "renamed")
	require.NoError(t, err)

	dst, err := e.Page(ctx, title.Parse("New Name"))
	require.NoError(t, err)
	require.NotNil(t, dst)
	assert.True(t, dst.Exists())
	assert.Equal(t, "the content", dst.Markdown)

	src, err := e.Page(ctx, title.Parse("Old Name"))
	require.NoError(t, err)
	assert.True(t, src.IsRedirect())
	assert.Equal(t, "New Name", src.RedirectTo.Name)

	sc, err := e.Page(ctx, title.Parse("Shortcut"))
	require.NoError(t, err)
	require.NotNil(t, sc.RedirectTo)
	assert.Equal(t, "New Name", sc.RedirectTo.Name, "redirects re-point past the rename")
	assert.False(t, sc.DoubleRedirect)
}

func TestRenameValidation(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Source", "content")
	mustEdit(t, e, "Occupied", "already here")

	err := e.Rename(ctx, title.Parse("Source"), title.Parse("Occupied"), "alice", "")
	assert.ErrorIs(t, err, validate.ErrExists)

	err = e.Rename(ctx, title.Parse("Source"), title.Parse("Category:Source"), "alice", "")
	assert.ErrorIs(t, err, validate.ErrNamespace)

	err = e.Rename(ctx, title.Parse("Never Existed"), title.Parse("Anywhere"), "alice", "")
	assert.Error(t, err)
}

func TestFileValidation(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	_, err := e.Update(ctx, UpdateParams{
		Title:    title.Parse("File:Diagram.png"),
		Markdown: "a diagram",
		Editor:   "alice",
	})
	assert.ErrorIs(t, err, validate.ErrFileFields)

	p, err := e.Update(ctx, UpdateParams{
		Title:    title.Parse("File:Diagram.png"),
		Markdown: "a diagram",
		Editor:   "alice",
		FilePath: "files/diagram.png",
		FileSize: 1024,
		FileType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, page.KindFile, p.Kind)
	assert.Equal(t, int64(1024), p.FileSize)
}

func TestScriptServedVerbatim(t *testing.T) {
	e := setupEngine(t)

	src := "function f() { return 1 < 2; }"
	p := mustEdit(t, e, "Script:Widget", src)
	assert.Equal(t, page.KindScript, p.Kind)
	assert.Equal(t, src, p.HTML, "scripts bypass rendering and sanitisation")
}

func TestHistoryAndTextAt(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Doc", "version one")
	mustEdit(t, e, "Doc", "version one, extended")
	mustEdit(t, e, "Doc", "version three")

	revs, err := e.History(ctx, title.Parse("Doc"))
	require.NoError(t, err)
	require.Len(t, revs, 3)

	text, err := e.TextAt(ctx, title.Parse("Doc"), 1)
	require.NoError(t, err)
	assert.Equal(t, "version one", text)

	text, err = e.TextAt(ctx, title.Parse("Doc"), 2)
	require.NoError(t, err)
	assert.Equal(t, "version one, extended", text)

	text, err = e.TextAt(ctx, title.Parse("Doc"), 3)
	require.NoError(t, err)
	assert.Equal(t, "version three", text)

	_, err = e.TextAt(ctx, title.Parse("Doc"), 4)
	assert.Error(t, err)

	diff, err := e.DiffAt(ctx, title.Parse("Doc"), 2, revision.FormatGNU)
	require.NoError(t, err)
	assert.NotEmpty(t, diff)
}

func TestHooksFireOncePerUpdate(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	var created, edited, deleted int
	e.SetHooks(Hooks{
		OnCreated: func(context.Context, *page.Page, string) error {
			created++
			return nil
		},
		OnEdited: func(context.Context, *page.Page, revision.Revision, string, string) error {
			edited++
			return nil
		},
		OnDeleted: func(context.Context, *page.Page, string, string) error {
			deleted++
			return nil
		},
	})

	mustEdit(t, e, "Hooked", "first")
	assert.Equal(t, []int{1, 0, 0}, []int{created, edited, deleted})

	mustEdit(t, e, "Hooked", "second")
	assert.Equal(t, []int{1, 1, 0}, []int{created, edited, deleted})

	_, err := e.Delete(ctx, title.Parse("Hooked"), "alice", "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, []int{created, edited, deleted})

	mustEdit(t, e, "Hooked", "reborn")
	assert.Equal(t, []int{2, 1, 1}, []int{created, edited, deleted})
}

func TestOwnerAndACLPatch(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	owner := "user-1"
	editors := []string{"user-2"}
	p, err := e.Update(ctx, UpdateParams{
		Title:          title.Parse("Guarded"),
		Markdown:       "content",
		Editor:         "alice",
		Owner:          &owner,
		AllowedEditors: &editors,
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.Owner)
	assert.Equal(t, []string{"user-2"}, p.AllowedEditors)

	// nil pointers leave stored values alone.
	p, err = e.Update(ctx, UpdateParams{
		Title: title.Parse("Guarded"), Markdown: "content v2", Editor: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.Owner)
	assert.Equal(t, []string{"user-2"}, p.AllowedEditors)
}

func TestMissingClearedWhenLastReferenceRemoved(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Alpha", "see [[Beta]]")

	b, err := e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	require.True(t, b.Missing)

	mustEdit(t, e, "Alpha", "no links any more")

	b, err = e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.False(t, b.Missing, "nothing references Beta any more")

	entry, err := e.missing.Get(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	assert.Nil(t, entry, "the missing marker retires with its last referrer")
}

func TestMissingIndexRecordsReferrers(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	a := mustEdit(t, e, "Alpha", "see [[Beta]]")
	g := mustEdit(t, e, "Gamma", "also [[Beta]]")

	entry, err := e.missing.Get(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.ElementsMatch(t, []string{a.ID, g.ID}, entry.Referrers)

	b, err := e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	assert.NotContains(t, entry.Referrers, b.ID, "a page is not its own referrer")

	// The entry is rebuilt the same way when an existing page is deleted
	// while still referenced.
	mustEdit(t, e, "Beta", "content")
	_, err = e.Delete(ctx, title.Parse("Beta"), "alice", "gone")
	require.NoError(t, err)

	entry, err = e.missing.Get(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.ElementsMatch(t, []string{a.ID, g.ID}, entry.Referrers)
}

func TestMissingClearedWhenRedirectRetargeted(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	to := title.Parse("Nowhere")
	_, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Dangling"), Editor: "alice", RedirectTo: &to,
	})
	require.NoError(t, err)

	n, err := e.Page(ctx, to)
	require.NoError(t, err)
	require.True(t, n.Missing)

	mustEdit(t, e, "Dangling", "a real page now")

	n, err = e.Page(ctx, to)
	require.NoError(t, err)
	assert.False(t, n.Missing, "the only referrer stopped redirecting here")
}

func TestTransclusionLinkResync(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Transclusion:Box", "plain box")
	host := mustEdit(t, e, "Host", "before {{Box}} after")
	assert.Empty(t, host.Links)

	mustEdit(t, e, "Transclusion:Box", "box with [[Gamma]]")

	host2, err := e.Page(ctx, title.Parse("Host"))
	require.NoError(t, err)
	require.Len(t, host2.Links, 1, "link gained through the transclusion")
	assert.Equal(t, "Gamma", host2.Links[0].Name)

	refs, err := e.links.Referrers(ctx, title.Parse("Gamma"))
	require.NoError(t, err)
	assert.Contains(t, refs, host2.ID)

	mustEdit(t, e, "Transclusion:Box", "plain box again")

	host3, err := e.Page(ctx, title.Parse("Host"))
	require.NoError(t, err)
	assert.Empty(t, host3.Links, "link lost with the transclusion")
}

func TestStats(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "One", "see [[Ghost]]")
	mustEdit(t, e, "Two", "content")
	to := title.Parse("Two")
	_, err := e.Update(ctx, UpdateParams{
		Title: title.Parse("Shortcut"), Editor: "alice", RedirectTo: &to,
	})
	require.NoError(t, err)

	s, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Pages)
	assert.Equal(t, 1, s.Redirects)
	assert.Equal(t, 1, s.Missing)
	assert.Equal(t, 3, s.Revisions)
}

func TestMissingSurvivesPartialReferenceRemoval(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	mustEdit(t, e, "Alpha", "see [[Beta]] and {{:Beta}}")

	b, err := e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	require.True(t, b.Missing)

	mustEdit(t, e, "Alpha", "still {{:Beta}}")

	b, err = e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	assert.True(t, b.Missing, "still transcluded, only the link went away")

	mustEdit(t, e, "Alpha", "nothing now")

	b, err = e.Page(ctx, title.Parse("Beta"))
	require.NoError(t, err)
	assert.False(t, b.Missing)
}
