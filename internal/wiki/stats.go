package wiki

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quillwiki/quill/internal/page"
)

// Stats tallies the wiki's stored content.
type Stats struct {
	Pages     int `json:"pages"`
	Redirects int `json:"redirects"`
	Missing   int `json:"missing"`
	Revisions int `json:"revisions"`
}

// Stats walks the page and history key ranges and counts what lives
// there. Placeholder records that are neither live, redirecting nor
// missing (categories awaiting content, cleared missing markers) are
// not counted.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := e.store.List(ctx, "page:", func(id string, value []byte) error {
		var p page.Page
		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("decode page %s: %w", id, err)
		}
		switch {
		case p.IsRedirect():
			s.Redirects++
		case p.Exists():
			s.Pages++
		case p.Missing:
			s.Missing++
		}
		return nil
	})
	if err != nil {
		return s, fmt.Errorf("scan pages: %w", err)
	}
	err = e.store.List(ctx, "history:", func(id string, value []byte) error {
		var h page.History
		if err := json.Unmarshal(value, &h); err != nil {
			return fmt.Errorf("decode history %s: %w", id, err)
		}
		s.Revisions += len(h.Revisions)
		return nil
	})
	if err != nil {
		return s, fmt.Errorf("scan histories: %w", err)
	}
	return s, nil
}
