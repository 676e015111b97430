// Package wiki implements the page lifecycle and link-graph maintenance
// engine. Every content update flows through Engine.Update, which builds
// the revision, keeps the five reference indexes current, resolves
// redirect chains, synchronises category membership and propagates the
// change to dependent pages.
//
// The engine assumes single-writer-per-page discipline from its host and
// no transactions from its store: each write is an idempotent upsert
// keyed by a deterministic ID, so a crash between writes leaves a state
// the next edit of either endpoint repairs.
package wiki

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/log"
	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/refindex"
	"github.com/quillwiki/quill/internal/revision"
	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wikitext"
)

// Hooks are the lifecycle callbacks for external subscribers such as
// search indexers. Exactly one of the three fires per update. Hook
// errors are logged, not propagated: hooks observe updates, they cannot
// veto them.
type Hooks struct {
	OnCreated func(ctx context.Context, p *page.Page, editor string) error
	OnEdited  func(ctx context.Context, p *page.Page, rev revision.Revision, oldOwner, newOwner string) error
	OnDeleted func(ctx context.Context, p *page.Page, oldOwner, newOwner string) error
}

// Engine orchestrates all page mutations over a Store.
type Engine struct {
	store storage.Store

	links         *refindex.Index
	transclusions *refindex.Index
	redirects     *refindex.Index
	normalized    *refindex.Index
	missing       *refindex.Index

	renderer *wikitext.Renderer
	opts     config.Options
	hooks    Hooks
}

// New builds an engine over the given store.
func New(s storage.Store, opts config.Options) *Engine {
	return &Engine{
		store:         s,
		links:         refindex.New(refindex.Links, s),
		transclusions: refindex.New(refindex.Transclusions, s),
		redirects:     refindex.New(refindex.Redirects, s),
		normalized:    refindex.New(refindex.Normalized, s),
		missing:       refindex.New(refindex.Missing, s),
		renderer:      wikitext.NewRenderer(opts),
		opts:          opts,
	}
}

// SetHooks installs the lifecycle callbacks.
func (e *Engine) SetHooks(h Hooks) {
	e.hooks = h
}

// Options returns the wiki's options.
func (e *Engine) Options() config.Options {
	return e.opts
}

// Store returns the underlying store, for collaborators (archive
// export, talk topics) that share the wiki's keyspace.
func (e *Engine) Store() storage.Store {
	return e.store
}

// Renderer returns the engine's markdown pipeline, for collaborators
// (talk topics) that render through the same configuration.
func (e *Engine) Renderer() *wikitext.Renderer {
	return e.renderer
}

// KindFor maps a namespace display name to the page kind it houses.
func (e *Engine) KindFor(namespace string) page.Kind {
	switch {
	case strings.EqualFold(namespace, e.opts.CategoryNamespace):
		return page.KindCategory
	case strings.EqualFold(namespace, e.opts.FileNamespace):
		return page.KindFile
	case strings.EqualFold(namespace, e.opts.UserNamespace):
		return page.KindUser
	case strings.EqualFold(namespace, e.opts.GroupNamespace):
		return page.KindGroup
	case strings.EqualFold(namespace, e.opts.ScriptNamespace):
		return page.KindScript
	default:
		return page.KindArticle
	}
}

// loadPage reads the page stored exactly at t's ID, nil when absent.
func (e *Engine) loadPage(ctx context.Context, t title.Title) (*page.Page, error) {
	return storage.GetJSON[page.Page](ctx, e.store, page.Key(t))
}

// loadPageByID reads a page by its storage ID, nil when absent.
func (e *Engine) loadPageByID(ctx context.Context, id string) (*page.Page, error) {
	return storage.GetJSON[page.Page](ctx, e.store, id)
}

func (e *Engine) putPage(ctx context.Context, p *page.Page) error {
	return storage.PutJSON(ctx, e.store, p.ID, p)
}

// Page resolves t to a page: exact-case lookup first, then the
// normalised index. The normalised fallback only resolves when exactly
// one case-insensitive match exists; an ambiguous match is treated as
// no page found rather than a guess.
func (e *Engine) Page(ctx context.Context, t title.Title) (*page.Page, error) {
	p, err := e.loadPage(ctx, t)
	if err != nil || p != nil {
		return p, err
	}
	entry, err := e.normalized.Get(ctx, t)
	if err != nil || entry == nil || len(entry.Referrers) != 1 {
		return nil, err
	}
	return e.loadPageByID(ctx, entry.Referrers[0])
}

// History returns t's revision log, most recent first. A page with no
// history yields an empty slice.
func (e *Engine) History(ctx context.Context, t title.Title) ([]revision.Revision, error) {
	hist, err := storage.GetJSON[page.History](ctx, e.store, page.HistoryKey(t))
	if err != nil || hist == nil {
		return nil, err
	}
	return hist.Revisions, nil
}

// TextAt reconstructs the page text as of the given revision. Versions
// count from 1 at the oldest revision.
func (e *Engine) TextAt(ctx context.Context, t title.Title, version int) (string, error) {
	revs, err := e.revisionsAt(ctx, t, version)
	if err != nil {
		return "", err
	}
	return revision.Reconstruct(revs)
}

// DiffAt renders the change the given revision introduced.
func (e *Engine) DiffAt(ctx context.Context, t title.Title, version int, format revision.Format) (string, error) {
	revs, err := e.revisionsAt(ctx, t, version)
	if err != nil {
		return "", err
	}
	return revision.Diff(revs, format)
}

func (e *Engine) revisionsAt(ctx context.Context, t title.Title, version int) ([]revision.Revision, error) {
	revs, err := e.History(ctx, t)
	if err != nil {
		return nil, err
	}
	if version < 1 || version > len(revs) {
		return nil, fmt.Errorf("%s has no revision %d", t, version)
	}
	return revs[len(revs)-version:], nil
}

// PageExists implements wikitext.Resolver. Implicit kinds (categories,
// users, groups) always exist for link purposes; other targets resolve
// through the normal lookup and count redirects as existing.
func (e *Engine) PageExists(ctx context.Context, t title.Title) bool {
	if e.KindFor(t.Namespace).Implicit() {
		return true
	}
	p, err := e.Page(ctx, t)
	if err != nil {
		return false
	}
	return p.Exists() || p.IsRedirect()
}

// TranscludedText implements wikitext.Resolver.
func (e *Engine) TranscludedText(ctx context.Context, t title.Title) (string, bool) {
	p, err := e.Page(ctx, t)
	if err != nil || !p.Exists() || p.Markdown == "" {
		return "", false
	}
	return p.Markdown, true
}

// refreshInbound rebuilds the page's cached inbound reference sets from
// the reference indexes, which are the source of truth. Referrer IDs
// with no backing page are skipped; such dangling entries self-heal on
// the referrer's next edit.
func (e *Engine) refreshInbound(ctx context.Context, p *page.Page) error {
	var err error
	if p.References, err = e.inboundTitles(ctx, e.links, p.Title); err != nil {
		return err
	}
	if p.TransclusionReferences, err = e.inboundTitles(ctx, e.transclusions, p.Title); err != nil {
		return err
	}
	if p.RedirectReferences, err = e.inboundTitles(ctx, e.redirects, p.Title); err != nil {
		return err
	}
	return nil
}

func (e *Engine) inboundTitles(ctx context.Context, ix *refindex.Index, t title.Title) ([]title.Title, error) {
	ids, err := ix.Referrers(ctx, t)
	if err != nil {
		return nil, err
	}
	var titles []title.Title
	for _, id := range ids {
		rp, err := e.loadPageByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rp != nil {
			titles = append(titles, rp.Title)
		}
	}
	return titles, nil
}

// inboundIDs collects the distinct IDs of every page that links to,
// transcludes or redirects to t.
func (e *Engine) inboundIDs(ctx context.Context, t title.Title) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, ix := range []*refindex.Index{e.links, e.transclusions, e.redirects} {
		refs, err := ix.Referrers(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, id := range refs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// fireHooks invokes the single lifecycle callback for this update.
func (e *Engine) fireHooks(ctx context.Context, p *page.Page, rev revision.Revision, existedBefore bool, oldOwner, editor string) {
	existsNow := p.Exists()
	var err error
	var event string
	switch {
	case !existedBefore && existsNow:
		event = "created"
		if e.hooks.OnCreated != nil {
			err = e.hooks.OnCreated(ctx, p, editor)
		}
	case existedBefore && !existsNow:
		event = "deleted"
		if e.hooks.OnDeleted != nil {
			err = e.hooks.OnDeleted(ctx, p, oldOwner, p.Owner)
		}
	default:
		event = "edited"
		if e.hooks.OnEdited != nil {
			err = e.hooks.OnEdited(ctx, p, rev, oldOwner, p.Owner)
		}
	}
	if err != nil {
		log.Event("wiki:hook", event).
			Title(p.Title.String()).
			Detail("error", err.Error()).
			Write(err)
	}
}
