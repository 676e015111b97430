// Package wikitext is the markdown collaborator: it parses page source
// for wiki links, transclusions and category memberships, renders
// sanitised HTML, and produces the plain-text preview. Markdown-to-HTML
// conversion itself is goldmark's job and sanitisation is bluemonday's;
// this package wires them to wiki semantics.
package wikitext

import (
	"bytes"
	"context"
	"fmt"
	gohtml "html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/title"
)

// Resolver supplies page context during rendering: whether link targets
// exist (for red-link marking) and the markdown of transcluded pages.
// The engine implements it; tests use map-backed fakes.
type Resolver interface {
	PageExists(ctx context.Context, t title.Title) bool
	TranscludedText(ctx context.Context, t title.Title) (string, bool)
}

// Result is everything one render pass learns about a page's source.
type Result struct {
	HTML          string
	Preview       string
	Links         []WikiLink
	Transclusions []title.Title
	Categories    []title.Title
}

// Renderer is a configured markdown pipeline. Build one per wiki from
// its Options and share it; there is no process-global pipeline cache.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	stripper  *bluemonday.Policy
	opts      config.Options
}

// NewRenderer builds the pipeline for a wiki's options.
func NewRenderer(opts config.Options) *Renderer {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowAttrs("class").OnElements("a", "del", "ins")

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				&wikiExtension{opts: opts},
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		sanitizer: sanitizer,
		stripper:  bluemonday.StrictPolicy(),
		opts:      opts,
	}
}

// Render runs the full pass over markdown source: transclusion
// expansion, parse, link collection, HTML rendering, sanitisation and
// preview extraction. currentTitle scopes category membership: category
// links into another domain do not categorise.
func (r *Renderer) Render(ctx context.Context, currentTitle title.Title, markdown string, resolve Resolver) (Result, error) {
	var res Result

	expanded, transclusions := r.expandTransclusions(ctx, markdown, resolve)
	res.Transclusions = transclusions

	source := []byte(expanded)
	doc := r.md.Parser().Parse(text.NewReader(source))

	// Resolve link targets before rendering so missing targets render as
	// red links, then collect the reference records.
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		wl, ok := n.(*wikiLinkNode)
		if !ok {
			return ast.WalkContinue, nil
		}
		wl.Link.Missing = !resolve.PageExists(ctx, wl.Link.Target)
		res.Links = append(res.Links, wl.Link)
		if wl.Link.Category && sameDomain(wl.Link.Target, currentTitle) {
			res.Categories = append(res.Categories, wl.Link.Target)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return res, fmt.Errorf("collect links: %w", err)
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return res, fmt.Errorf("render markdown: %w", err)
	}
	res.HTML = r.sanitizer.Sanitize(buf.String())
	res.Preview = r.preview(res.HTML)
	return res, nil
}

// sameDomain reports whether categorisation applies: the link has no
// domain, or it names the current page's own domain.
func sameDomain(target, current title.Title) bool {
	return target.Domain == "" || strings.EqualFold(target.Domain, current.Domain)
}

// preview derives the plain-text preview from rendered HTML: strip all
// markup, unescape entities, collapse whitespace and truncate at a rune
// boundary.
func (r *Renderer) preview(html string) string {
	return Truncate(gohtml.UnescapeString(r.stripper.Sanitize(html)), r.opts.PreviewLength)
}

// Truncate collapses whitespace in plain text and cuts it at the last
// word before limit runes, appending an ellipsis when anything was cut.
func Truncate(plain string, limit int) string {
	plain = strings.Join(strings.Fields(plain), " ")
	if limit <= 0 || len(plain) <= limit {
		return plain
	}
	runes := []rune(plain)
	if len(runes) <= limit {
		return plain
	}
	cut := limit
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
