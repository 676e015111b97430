// goldmark.go implements the [[wiki link]] syntax as a goldmark inline
// extension: a parser producing wikiLinkNode inlines and a renderer
// emitting anchor tags with wiki-link classes. Link semantics (category,
// escape, missing) live in link.go; this file is only the goldmark
// plumbing.

package wikitext

import (
	"bytes"
	gohtml "html"
	"net/url"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/quillwiki/quill/internal/config"
)

// kindWikiLink is the AST node kind for wiki links.
var kindWikiLink = ast.NewNodeKind("WikiLink")

// wikiLinkNode is the inline AST node for one [[...]] span.
type wikiLinkNode struct {
	ast.BaseInline
	Link  WikiLink
	Label string
}

func (n *wikiLinkNode) Kind() ast.NodeKind {
	return kindWikiLink
}

func (n *wikiLinkNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": n.Link.Target.String(),
		"Label":  n.Label,
	}, nil)
}

// wikiLinkParser parses [[target|label]] spans. Spans must close on the
// same line; an unterminated opener is left to the default bracket
// handling.
type wikiLinkParser struct {
	opts config.Options
}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikiLinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 4 || line[0] != '[' || line[1] != '[' {
		return nil
	}
	end := bytes.Index(line, []byte("]]"))
	if end < 2 {
		return nil
	}
	inner := string(line[2:end])
	if inner == "" {
		return nil
	}

	link, label := parseLinkTarget(inner, p.opts)
	if link.Target.IsZero() {
		return nil
	}
	block.Advance(end + 2)
	return &wikiLinkNode{Link: link, Label: label}
}

// wikiLinkRenderer renders wikiLinkNode as an anchor. The missing class
// is what themes style as a red link.
type wikiLinkRenderer struct{}

func (r *wikiLinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindWikiLink, r.render)
}

func (r *wikiLinkRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*wikiLinkNode)

	class := "wiki-link"
	if n.Link.Missing {
		class += " missing"
	}
	if n.Link.Category {
		class += " category"
	}

	_, _ = w.WriteString(`<a href="/wiki/`)
	_, _ = w.WriteString(url.PathEscape(n.Link.Target.String()))
	_, _ = w.WriteString(`" class="`)
	_, _ = w.WriteString(class)
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(gohtml.EscapeString(n.Label))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkContinue, nil
}

// wikiExtension wires the parser and renderer into a goldmark instance.
type wikiExtension struct {
	opts config.Options
}

func (e *wikiExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&wikiLinkParser{opts: e.opts}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&wikiLinkRenderer{}, 150),
	))
}
