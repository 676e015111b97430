package wiki

import (
	"context"
	"fmt"

	"github.com/quillwiki/quill/internal/page"
)

// task is one pending propagation step. rerender distinguishes pages
// whose content depends on the origin (transcluders, redirect sources)
// from pages that merely link to it and only need fresh caches.
type task struct {
	id       string
	rerender bool
}

// propagate pushes a page change out to its dependents with an
// iterative worklist. Plain linkers get their inbound caches refreshed
// and stop there; transcluders and redirect sources are re-rendered or
// re-resolved and their own dependents enqueued, since their visible
// content changed too. The visited set makes each page process at most
// once per edit, so reference cycles terminate.
func (e *Engine) propagate(ctx context.Context, origin *page.Page) error {
	visited := map[string]bool{origin.ID: true}
	var work []task

	enqueue := func(ids []string, rerender bool) {
		for _, id := range ids {
			if !visited[id] {
				visited[id] = true
				work = append(work, task{id: id, rerender: rerender})
			}
		}
	}
	seed := func(p *page.Page) error {
		linkers, err := e.links.Referrers(ctx, p.Title)
		if err != nil {
			return fmt.Errorf("propagate from %s: %w", p.Title, err)
		}
		enqueue(linkers, false)
		transcluders, err := e.transclusions.Referrers(ctx, p.Title)
		if err != nil {
			return fmt.Errorf("propagate from %s: %w", p.Title, err)
		}
		enqueue(transcluders, true)
		sources, err := e.redirects.Referrers(ctx, p.Title)
		if err != nil {
			return fmt.Errorf("propagate from %s: %w", p.Title, err)
		}
		enqueue(sources, true)
		return nil
	}
	if err := seed(origin); err != nil {
		return err
	}

	for len(work) > 0 {
		t := work[0]
		work = work[1:]

		p, err := e.loadPageByID(ctx, t.id)
		if err != nil {
			return fmt.Errorf("propagate to %s: %w", t.id, err)
		}
		if p == nil {
			// Dangling referrer; its next edit rebuilds the index.
			continue
		}

		if p.IsRedirect() {
			if err := e.resolveRedirect(ctx, p, *p.RedirectTo); err != nil {
				return err
			}
		}
		if t.rerender && p.Exists() && !p.IsRedirect() && p.Kind != page.KindScript {
			res, err := e.renderer.Render(ctx, p.Title, p.Markdown, e)
			if err != nil {
				return fmt.Errorf("re-render %s: %w", p.Title, err)
			}
			// Transcluded content contributes links and categories to
			// its hosts, so a re-render can change this page's outbound
			// sets too; resync them like an ordinary edit would.
			newTranscl := res.Transclusions
			newLinks := linkTargets(res.Links)
			if err := e.syncIndex(ctx, e.transclusions, p.ID, p.Transclusions, newTranscl); err != nil {
				return err
			}
			if err := e.syncIndex(ctx, e.links, p.ID, p.Links, newLinks); err != nil {
				return err
			}
			if err := e.syncCategories(ctx, p, p.Categories, res.Categories); err != nil {
				return err
			}
			p.Transclusions = newTranscl
			p.Links = newLinks
			p.HTML = res.HTML
			p.Preview = res.Preview
		}
		if err := e.refreshInbound(ctx, p); err != nil {
			return err
		}
		if err := e.putPage(ctx, p); err != nil {
			return fmt.Errorf("store %s: %w", p.Title, err)
		}

		// A re-rendered page's own visible content changed, so its
		// content dependents must follow. Plain-link dependents of a
		// plain linker are untouched; the chain stops here.
		if t.rerender {
			transcluders, err := e.transclusions.Referrers(ctx, p.Title)
			if err != nil {
				return fmt.Errorf("propagate from %s: %w", p.Title, err)
			}
			enqueue(transcluders, true)
			sources, err := e.redirects.Referrers(ctx, p.Title)
			if err != nil {
				return fmt.Errorf("propagate from %s: %w", p.Title, err)
			}
			enqueue(sources, true)
		}
	}
	return nil
}
