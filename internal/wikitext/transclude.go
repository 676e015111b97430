// transclude.go implements the transclusion pre-pass: {{Name}} spans are
// substituted with the target page's markdown before the main parse, and
// the set of transcluded titles is collected for the reference indexes.
//
// The pass runs before goldmark because transcluded content must itself
// be parsed as markdown in the host page's context. Expansion recurses
// through transcluded pages with a visited set and a depth cap, so
// self-transclusion and deep chains terminate instead of looping.

package wikitext

import (
	"context"
	"strings"

	"github.com/quillwiki/quill/internal/title"
)

// maxTranscludeDepth bounds nested transclusion expansion.
const maxTranscludeDepth = 5

// expandTransclusions substitutes {{...}} spans in src and returns the
// expanded markdown plus the titles transcluded at the top level.
func (r *Renderer) expandTransclusions(ctx context.Context, src string, resolve Resolver) (string, []title.Title) {
	seen := map[string]bool{}
	var targets []title.Title
	expanded := r.expand(ctx, src, resolve, 0, map[string]bool{}, func(t title.Title) {
		key := t.String()
		if !seen[key] {
			seen[key] = true
			targets = append(targets, t)
		}
	})
	return expanded, targets
}

// expand performs one level of substitution. collect is only invoked at
// depth zero: nested transclusions affect rendered output but the
// reference graph records direct transclusions only.
func (r *Renderer) expand(ctx context.Context, src string, resolve Resolver, depth int, visited map[string]bool, collect func(title.Title)) string {
	if depth > maxTranscludeDepth {
		return src
	}

	var b strings.Builder
	rest := src
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		closeIdx := strings.Index(rest[open:], "}}")
		if closeIdx < 0 {
			b.WriteString(rest)
			return b.String()
		}
		inner := rest[open+2 : open+closeIdx]
		b.WriteString(rest[:open])
		rest = rest[open+closeIdx+2:]

		if strings.ContainsAny(inner, "{}") || strings.TrimSpace(inner) == "" {
			// Not a transclusion span; emit verbatim.
			b.WriteString("{{" + inner + "}}")
			continue
		}

		target := parseTransclusionTarget(inner, r.opts)
		if collect != nil {
			collect(target)
		}

		id := title.Key("page", target)
		if visited[id] {
			continue
		}
		visited[id] = true
		if body, ok := resolve.TranscludedText(ctx, target); ok {
			b.WriteString(r.expand(ctx, body, resolve, depth+1, visited, nil))
		}
		delete(visited, id)
	}
}
