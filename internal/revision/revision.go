// Package revision implements the page revision delta engine: it decides
// how each edit is stored (deletion marker, full-text milestone, or a
// compact encoded diff) and reconstructs any point-in-time text by
// replaying deltas forward from the nearest preceding milestone.
package revision

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrMalformedHistory indicates a revision chain that cannot be replayed:
// a non-milestone revision with nothing to apply it to, or an encoded
// delta that does not parse against the accumulated text. This is a
// caller/programming fault, not a transient condition; do not retry.
var ErrMalformedHistory = errors.New("malformed revision history")

// Milestone thresholds. When an edit deletes at least deletionRatio of the
// previous text and inserts at least insertionFactor times the surviving
// original content, replaying a patch would cost more than storing the
// full text, so the revision becomes a milestone.
const (
	deletionRatio   = 0.75
	insertionFactor = 3
)

// Revision is an immutable record of a single edit.
//
// Exactly one of three shapes holds:
//   - Deleted:   the edit removed the page; Delta is empty.
//   - Milestone: Delta is the full page text verbatim.
//   - otherwise: Delta is a compact encoded diff against the previous text.
type Revision struct {
	Editor    string    `json:"editor"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
	Deleted   bool      `json:"deleted,omitempty"`
	Milestone bool      `json:"milestone,omitempty"`
	Delta     string    `json:"delta,omitempty"`
}

// New builds the revision recording the edit from previousText to newText.
//
// Blank newText records a deletion (only if there was something to
// delete). Blank previousText makes the revision a milestone. Otherwise
// the texts are diffed, and the milestone heuristic decides between the
// encoded diff and the full text.
func New(editor, previousText, newText, comment string) Revision {
	r := Revision{
		Editor:    editor,
		Timestamp: time.Now().UTC(),
		Comment:   comment,
	}

	if strings.TrimSpace(newText) == "" {
		r.Deleted = strings.TrimSpace(previousText) != ""
		return r
	}
	if strings.TrimSpace(previousText) == "" {
		r.Milestone = true
		r.Delta = newText
		return r
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(previousText, newText, false)
	// Semantic cleanup aligns edit boundaries to word-ish chunks, which
	// both shrinks the encoded delta and makes rendered diffs readable.
	diffs = dmp.DiffCleanupSemantic(diffs)

	var deleted, inserted int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			deleted += len(d.Text)
		case diffmatchpatch.DiffInsert:
			inserted += len(d.Text)
		}
	}

	if deleted > 0 &&
		float64(deleted) >= deletionRatio*float64(len(previousText)) &&
		inserted >= insertionFactor*(len(previousText)-deleted) {
		// Mostly a rewrite: the full text is cheaper than an enormous
		// patch plus the replay cost it adds to every reconstruction.
		r.Milestone = true
		r.Delta = newText
		return r
	}

	r.Delta = dmp.DiffToDelta(diffs)
	return r
}

// applyDelta applies an encoded diff to base.
func applyDelta(base, delta string) (string, error) {
	dmp := diffmatchpatch.New()
	diffs, err := dmp.DiffFromDelta(base, delta)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedHistory, err)
	}
	return dmp.DiffText2(diffs), nil
}

// Reconstruct replays a most-recent-first revision list and returns the
// text after the newest revision. Replay starts from the oldest entry; a
// deletion resets the text, a milestone replaces it wholesale, and a
// normal revision patches the accumulated text.
//
// The caller supplies the slice starting at whichever revision it wants
// the text for, so replay cost is bounded by that revision's depth; a
// milestone inside the slice supersedes everything older than it.
func Reconstruct(revisions []Revision) (string, error) {
	var text string
	for i := len(revisions) - 1; i >= 0; i-- {
		r := revisions[i]
		switch {
		case r.Deleted:
			text = ""
		case r.Milestone:
			text = r.Delta
		default:
			if r.Delta == "" && text == "" {
				return "", fmt.Errorf("%w: non-milestone revision with no delta and no base text", ErrMalformedHistory)
			}
			applied, err := applyDelta(text, r.Delta)
			if err != nil {
				return "", err
			}
			text = applied
		}
	}
	return text, nil
}
