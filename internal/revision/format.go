// format.go renders the difference introduced by the newest revision in a
// history. This is a presentation layer over the same reconstruction
// algorithm as Reconstruct; the four formats share one diff computation.

package revision

import (
	"fmt"
	"html"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Format selects the textual rendering of a revision diff.
type Format string

const (
	// FormatDelta is the compact encoded patch form, the same encoding
	// stored in Revision.Delta.
	FormatDelta Format = "delta"
	// FormatGNU renders +/- prefixed lines in the GNU diff style.
	FormatGNU Format = "gnu"
	// FormatMarkdown renders ~~strikethrough~~ and ++insert++ spans.
	FormatMarkdown Format = "md"
	// FormatHTML renders <del> and <ins> spans with escaped content.
	FormatHTML Format = "html"
)

// Diff reconstructs the text immediately before the newest revision and
// the text after it, and renders their difference in the given format.
// The revisions slice is most-recent-first, as stored in history logs.
func Diff(revisions []Revision, format Format) (string, error) {
	if len(revisions) == 0 {
		return "", fmt.Errorf("%w: empty revision list", ErrMalformedHistory)
	}
	before, err := Reconstruct(revisions[1:])
	if err != nil {
		return "", err
	}
	after, err := Reconstruct(revisions)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	switch format {
	case FormatDelta:
		return dmp.DiffToDelta(diffs), nil
	case FormatGNU:
		return formatGNU(diffs), nil
	case FormatMarkdown:
		return formatSpans(diffs, "~~", "~~", "++", "++", nil), nil
	case FormatHTML:
		return formatSpans(diffs, "<del>", "</del>", "<ins>", "</ins>", html.EscapeString), nil
	default:
		return "", fmt.Errorf("unknown diff format %q", format)
	}
}

// formatGNU converts diffs to +/- prefixed line output.
func formatGNU(diffs []diffmatchpatch.Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		// Trim trailing newline to avoid an artefact empty line from Split.
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, l := range strings.Split(text, "\n") {
			b.WriteString(prefix + l + "\n")
		}
	}
	return b.String()
}

// formatSpans wraps deleted and inserted runs in the given delimiters,
// leaving equal runs bare. escape, when non-nil, is applied to every run.
func formatSpans(diffs []diffmatchpatch.Diff, delOpen, delClose, insOpen, insClose string, escape func(string) string) string {
	var b strings.Builder
	for _, d := range diffs {
		text := d.Text
		if escape != nil {
			text = escape(text)
		}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString(delOpen + text + delClose)
		case diffmatchpatch.DiffInsert:
			b.WriteString(insOpen + text + insClose)
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}
