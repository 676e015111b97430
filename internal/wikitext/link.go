// link.go defines the value records produced by markdown parsing: one
// WikiLink or Transclusion per reference found in a page's source. The
// engine diffs sets of these records between revisions to keep the
// reference indexes current, so they must be plain comparable values.

package wikitext

import (
	"strings"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/title"
)

// WikiLink describes a single [[...]] reference found in markdown.
type WikiLink struct {
	Target title.Title
	// Category marks a categorising link: the page becomes a member of
	// the target category rather than merely linking to it.
	Category bool
	// Talk marks a link into the discussion namespace.
	Talk bool
	// Escaped marks a namespace-escaped link ([[:Category:X]]), which
	// links to the target without the namespace side effect.
	Escaped bool
	// Missing reports that the target did not exist when the source was
	// rendered.
	Missing bool
}

// Transclusion describes a single {{...}} reference.
type Transclusion struct {
	Target title.Title
}

// parseLinkTarget interprets the inner text of a [[...]] span against the
// wiki's namespace naming. The label (after "|") is returned separately;
// it defaults to the target's display form.
func parseLinkTarget(raw string, opts config.Options) (WikiLink, string) {
	target := raw
	label := ""
	if i := strings.Index(raw, "|"); i >= 0 {
		target, label = raw[:i], strings.TrimSpace(raw[i+1:])
	}
	target = strings.TrimSpace(target)

	var link WikiLink
	if strings.HasPrefix(target, ":") {
		link.Escaped = true
		target = strings.TrimPrefix(target, ":")
	}
	link.Target = title.Parse(target)
	link.Category = !link.Escaped && strings.EqualFold(link.Target.Namespace, opts.CategoryNamespace)
	link.Talk = strings.EqualFold(link.Target.Namespace, opts.TalkNamespace)

	if label == "" {
		label = link.Target.Name
	}
	return link, label
}

// parseTransclusionTarget interprets the inner text of a {{...}} span.
// Bare names resolve to the transclusion namespace; a leading ":" escapes
// to the main namespace.
func parseTransclusionTarget(raw string, opts config.Options) title.Title {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, ":") {
		return title.Parse(strings.TrimPrefix(raw, ":"))
	}
	t := title.Parse(raw)
	if t.Namespace == "" {
		t = t.WithNamespace(opts.TransclusionNamespace)
	}
	return t
}
