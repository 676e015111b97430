package wiki

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/title"
)

// maxRedirectHops bounds chain walking when cycle detection cannot, as
// with chains fabricated during a partial import.
const maxRedirectHops = 100

// resolveRedirect walks p's redirect chain to its terminal page and
// compresses the chain: p.RedirectTo ends up pointing at the final
// target, never at an intermediate redirect. A chain that revisits a
// page, exceeds the hop cap, or lands on nothing is marked broken; any
// resolution that took more than one hop is marked double so editors
// can re-point the source directly.
func (e *Engine) resolveRedirect(ctx context.Context, p *page.Page, target title.Title) error {
	p.BrokenRedirect = false
	p.DoubleRedirect = false

	// Redirecting into the category namespace would silently rewrite
	// membership; refuse it.
	if strings.EqualFold(target.Namespace, e.opts.CategoryNamespace) {
		p.RedirectTo = &target
		p.BrokenRedirect = true
		return nil
	}

	visited := map[string]bool{p.ID: true}
	current := target

	// Broken redirects stay in the index too: when the dangling target
	// is later created or the cycle is cut, propagation from that edit
	// finds this page and re-resolves it.
	settle := func(broken, double bool) error {
		p.RedirectTo = &current
		p.BrokenRedirect = broken
		p.DoubleRedirect = double
		if err := e.ensureTarget(ctx, current, p.ID); err != nil {
			return err
		}
		if err := e.redirects.Add(ctx, current, p.ID); err != nil {
			return fmt.Errorf("index redirect to %s: %w", current, err)
		}
		return nil
	}

	for hops := 0; ; hops++ {
		if hops >= maxRedirectHops {
			return settle(true, true)
		}
		tp, err := e.loadPage(ctx, current)
		if err != nil {
			return fmt.Errorf("walk redirect %s: %w", current, err)
		}
		if tp != nil && visited[tp.ID] {
			return settle(true, true)
		}
		if tp == nil || (!tp.Exists() && !tp.IsRedirect()) {
			return settle(true, hops > 0)
		}
		if tp.IsRedirect() {
			visited[tp.ID] = true
			current = *tp.RedirectTo
			continue
		}

		if err := settle(false, hops > 0); err != nil {
			return err
		}
		if err := e.refreshInbound(ctx, tp); err != nil {
			return err
		}
		if err := e.putPage(ctx, tp); err != nil {
			return fmt.Errorf("store redirect target %s: %w", current, err)
		}
		return nil
	}
}
