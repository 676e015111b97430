package wiki

import (
	"context"
	"fmt"

	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/refindex"
	"github.com/quillwiki/quill/internal/revision"
	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/validate"
	"github.com/quillwiki/quill/internal/wikitext"
)

// UpdateParams carries one edit. Pointer fields are patch semantics:
// nil leaves the stored value alone, non-nil replaces it.
type UpdateParams struct {
	Title    title.Title
	Markdown string
	Editor   string
	Comment  string

	// RedirectTo turns the page into a redirect; content is discarded.
	RedirectTo *title.Title

	Owner          *string
	AllowedEditors *[]string
	AllowedViewers *[]string
	EditorGroups   *[]string
	ViewerGroups   *[]string

	FilePath string
	FileSize int64
	FileType string
}

// Update applies one edit to a page, creating it if absent. All
// validation happens before the first write: a rejected edit leaves
// the store untouched.
func (e *Engine) Update(ctx context.Context, params UpdateParams) (*page.Page, error) {
	t := params.Title
	kind := e.KindFor(t.Namespace)
	deleting := params.Markdown == "" && params.RedirectTo == nil

	if kind == page.KindFile && !deleting {
		if err := validate.File(params.FilePath, params.FileType, params.FileSize); err != nil {
			return nil, fmt.Errorf("update %s: %w", t, err)
		}
	}
	if params.RedirectTo != nil {
		params.Markdown = ""
	}

	prev, err := e.loadPage(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t, err)
	}

	var p *page.Page
	var prevText string
	var oldCats, oldTranscl, oldLinks []title.Title
	var oldRedirect *title.Title
	existedBefore := false
	oldOwner := ""
	if prev != nil {
		cp := *prev
		p = &cp
		prevText = prev.Markdown
		oldCats = prev.Categories
		oldTranscl = prev.Transclusions
		oldLinks = prev.Links
		oldRedirect = prev.RedirectTo
		existedBefore = prev.Exists()
		oldOwner = prev.Owner
	} else {
		p = page.New(t, kind)
	}

	rev := revision.New(params.Editor, prevText, params.Markdown, params.Comment)
	// A redirect placed on a page that never held text produces a
	// revision with no delta; mark it a milestone so the history
	// replays without faulting.
	if params.RedirectTo != nil && !rev.Deleted && rev.Delta == "" && !rev.Milestone {
		rev.Milestone = true
	}
	// Deleting a page that never held text yields a blank non-deletion
	// revision; record it as a deletion so the page stays non-existent
	// and the history replays.
	if deleting && !rev.Deleted {
		rev.Deleted = true
	}

	var res *wikitext.Result
	if !deleting && params.RedirectTo == nil && kind != page.KindScript {
		r, err := e.renderer.Render(ctx, t, params.Markdown, e)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", t, err)
		}
		res = &r
	}

	if err := e.appendHistory(ctx, t, rev); err != nil {
		return nil, err
	}

	if !kind.Implicit() {
		if deleting {
			err = e.normalized.Remove(ctx, t, p.ID)
		} else {
			err = e.normalized.Add(ctx, t, p.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("normalized index for %s: %w", t, err)
		}
	}

	var newTranscl, newLinks, newCats []title.Title
	if res != nil {
		newTranscl = res.Transclusions
		newLinks = linkTargets(res.Links)
		newCats = res.Categories
	}
	if err := e.syncIndex(ctx, e.transclusions, p.ID, oldTranscl, newTranscl); err != nil {
		return nil, err
	}
	if err := e.syncIndex(ctx, e.links, p.ID, oldLinks, newLinks); err != nil {
		return nil, err
	}
	p.Transclusions = newTranscl
	p.Links = newLinks

	switch {
	case deleting || params.RedirectTo != nil:
		p.Markdown = ""
		p.HTML = ""
		p.Preview = ""
	case kind == page.KindScript:
		// Scripts are served verbatim; sanitising would gut them.
		p.Markdown = params.Markdown
		p.HTML = params.Markdown
		p.Preview = wikitext.Truncate(params.Markdown, e.opts.PreviewLength)
	default:
		p.Markdown = params.Markdown
		p.HTML = res.HTML
		p.Preview = res.Preview
	}

	if err := e.syncCategories(ctx, p, oldCats, newCats); err != nil {
		return nil, err
	}

	if params.Owner != nil {
		p.Owner = *params.Owner
	}
	if params.AllowedEditors != nil {
		p.AllowedEditors = *params.AllowedEditors
	}
	if params.AllowedViewers != nil {
		p.AllowedViewers = *params.AllowedViewers
	}
	if params.EditorGroups != nil {
		p.AllowedEditorGroups = *params.EditorGroups
	}
	if params.ViewerGroups != nil {
		p.AllowedViewerGroups = *params.ViewerGroups
	}
	if kind == page.KindFile && !deleting {
		p.FilePath = params.FilePath
		p.FileSize = params.FileSize
		p.FileType = params.FileType
	}

	if params.RedirectTo != nil {
		if err := e.resolveRedirect(ctx, p, *params.RedirectTo); err != nil {
			return nil, err
		}
	} else {
		p.RedirectTo = nil
		p.BrokenRedirect = false
		p.DoubleRedirect = false
	}
	if oldRedirect != nil && !sameTarget(oldRedirect, p.RedirectTo) {
		if err := e.redirects.Remove(ctx, *oldRedirect, p.ID); err != nil {
			return nil, fmt.Errorf("retire redirect from %s: %w", t, err)
		}
		if err := e.missing.Remove(ctx, *oldRedirect, p.ID); err != nil {
			return nil, fmt.Errorf("unflag missing %s: %w", *oldRedirect, err)
		}
		if err := e.recheckTarget(ctx, *oldRedirect); err != nil {
			return nil, err
		}
	}

	rp := rev
	if rp.Milestone {
		// Milestones can hold the full page text; the page record
		// already carries it.
		rp.Delta = ""
	}
	p.Revision = &rp

	if err := e.updateMissing(ctx, p, prev); err != nil {
		return nil, err
	}
	if err := e.refreshInbound(ctx, p); err != nil {
		return nil, err
	}
	if err := e.putPage(ctx, p); err != nil {
		return nil, fmt.Errorf("store %s: %w", t, err)
	}

	if err := e.propagate(ctx, p); err != nil {
		return nil, err
	}

	e.fireHooks(ctx, p, rev, existedBefore, oldOwner, params.Editor)
	return p, nil
}

// Delete removes a page's content. History and inbound references
// survive; the record itself stays so the title's past remains
// reachable.
func (e *Engine) Delete(ctx context.Context, t title.Title, editor, comment string) (*page.Page, error) {
	return e.Update(ctx, UpdateParams{Title: t, Editor: editor, Comment: comment})
}

func (e *Engine) appendHistory(ctx context.Context, t title.Title, rev revision.Revision) error {
	key := page.HistoryKey(t)
	hist, err := storage.GetJSON[page.History](ctx, e.store, key)
	if err != nil {
		return fmt.Errorf("load history of %s: %w", t, err)
	}
	if hist == nil {
		hist = &page.History{PageID: page.Key(t)}
	}
	hist.Revisions = append([]revision.Revision{rev}, hist.Revisions...)
	if err := storage.PutJSON(ctx, e.store, key, hist); err != nil {
		return fmt.Errorf("store history of %s: %w", t, err)
	}
	return nil
}

// syncIndex reconciles one outbound reference set against an index,
// creating placeholder targets for new references.
func (e *Engine) syncIndex(ctx context.Context, ix *refindex.Index, referrerID string, old, now []title.Title) error {
	nowSet := make(map[title.Title]bool, len(now))
	for _, t := range now {
		nowSet[t] = true
	}
	oldSet := make(map[title.Title]bool, len(old))
	for _, t := range old {
		oldSet[t] = true
	}
	for _, t := range now {
		if oldSet[t] {
			continue
		}
		if err := e.ensureTarget(ctx, t, referrerID); err != nil {
			return err
		}
		if err := ix.Add(ctx, t, referrerID); err != nil {
			return fmt.Errorf("index %s: %w", t, err)
		}
	}
	for _, t := range old {
		if nowSet[t] {
			continue
		}
		if err := ix.Remove(ctx, t, referrerID); err != nil {
			return fmt.Errorf("unindex %s: %w", t, err)
		}
		if err := e.missing.Remove(ctx, t, referrerID); err != nil {
			return fmt.Errorf("unflag missing %s: %w", t, err)
		}
		if err := e.recheckTarget(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func linkTargets(links []wikitext.WikiLink) []title.Title {
	var out []title.Title
	seen := make(map[title.Title]bool)
	for _, l := range links {
		if l.Category {
			continue
		}
		if !seen[l.Target] {
			seen[l.Target] = true
			out = append(out, l.Target)
		}
	}
	return out
}

// ensureTarget guarantees a page record exists for a reference target
// so inbound bookkeeping has somewhere to live. A target that does not
// exist is flagged missing with referrerID recorded against it; targets
// of implicit kinds are never flagged.
func (e *Engine) ensureTarget(ctx context.Context, target title.Title, referrerID string) error {
	tp, err := e.loadPage(ctx, target)
	if err != nil {
		return fmt.Errorf("load target %s: %w", target, err)
	}
	kind := e.KindFor(target.Namespace)
	if tp == nil {
		tp = page.New(target, kind)
	}
	if tp.Exists() || tp.IsRedirect() || kind.Implicit() {
		return nil
	}
	tp.Missing = true
	if err := e.missing.Add(ctx, target, referrerID); err != nil {
		return fmt.Errorf("flag missing %s: %w", target, err)
	}
	if err := e.putPage(ctx, tp); err != nil {
		return fmt.Errorf("store target %s: %w", target, err)
	}
	return nil
}

// recheckTarget clears a placeholder's missing flag once its last
// referrer is gone. The link indexes are the source of truth: a page
// that both links to and transcludes the target stays a referrer until
// every reference kind is dropped.
func (e *Engine) recheckTarget(ctx context.Context, target title.Title) error {
	tp, err := e.loadPage(ctx, target)
	if err != nil {
		return fmt.Errorf("load target %s: %w", target, err)
	}
	if tp == nil || !tp.Missing {
		return nil
	}
	ids, err := e.inboundIDs(ctx, target)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		// Still wanted through another index; keep the marker accurate.
		for _, id := range ids {
			if err := e.missing.Add(ctx, target, id); err != nil {
				return fmt.Errorf("flag missing %s: %w", target, err)
			}
		}
		return nil
	}
	if err := e.missing.Drop(ctx, target); err != nil {
		return fmt.Errorf("clear missing %s: %w", target, err)
	}
	tp.Missing = false
	if err := e.putPage(ctx, tp); err != nil {
		return fmt.Errorf("store target %s: %w", target, err)
	}
	return nil
}

// updateMissing reconciles the page's own missing flag after an edit.
// The missing entry is rebuilt from the live reference indexes so any
// drift from a past partial failure heals here.
func (e *Engine) updateMissing(ctx context.Context, p *page.Page, prev *page.Page) error {
	if p.Exists() || p.IsRedirect() || p.Kind.Implicit() {
		p.Missing = false
		if prev != nil && prev.Missing {
			if err := e.missing.Drop(ctx, p.Title); err != nil {
				return fmt.Errorf("clear missing %s: %w", p.Title, err)
			}
		}
		return nil
	}
	ids, err := e.inboundIDs(ctx, p.Title)
	if err != nil {
		return err
	}
	p.Missing = len(ids) > 0
	if err := e.missing.Drop(ctx, p.Title); err != nil {
		return fmt.Errorf("clear missing %s: %w", p.Title, err)
	}
	for _, id := range ids {
		if err := e.missing.Add(ctx, p.Title, id); err != nil {
			return fmt.Errorf("flag missing %s: %w", p.Title, err)
		}
	}
	return nil
}

func sameTarget(a, b *title.Title) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
