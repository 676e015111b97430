package wiki

import (
	"context"
	"fmt"
	"slices"

	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/title"
)

// syncCategories reconciles a page's category memberships after an
// edit. Category pages are created implicitly on first membership and
// survive their last member leaving; membership changes never write a
// revision to the category's history.
func (e *Engine) syncCategories(ctx context.Context, p *page.Page, old, now []title.Title) error {
	nowSet := make(map[title.Title]bool, len(now))
	for _, c := range now {
		nowSet[c] = true
	}
	oldSet := make(map[title.Title]bool, len(old))
	for _, c := range old {
		oldSet[c] = true
	}

	for _, c := range now {
		if oldSet[c] {
			continue
		}
		cat, err := e.loadPage(ctx, c)
		if err != nil {
			return fmt.Errorf("load category %s: %w", c, err)
		}
		if cat == nil {
			cat = page.New(c, page.KindCategory)
		}
		if !slices.Contains(cat.ChildIDs, p.ID) {
			cat.ChildIDs = append(cat.ChildIDs, p.ID)
			if err := e.putPage(ctx, cat); err != nil {
				return fmt.Errorf("store category %s: %w", c, err)
			}
		}
	}
	for _, c := range old {
		if nowSet[c] {
			continue
		}
		cat, err := e.loadPage(ctx, c)
		if err != nil {
			return fmt.Errorf("load category %s: %w", c, err)
		}
		if cat == nil {
			continue
		}
		if i := slices.Index(cat.ChildIDs, p.ID); i >= 0 {
			cat.ChildIDs = slices.Delete(cat.ChildIDs, i, i+1)
			if err := e.putPage(ctx, cat); err != nil {
				return fmt.Errorf("store category %s: %w", c, err)
			}
		}
	}

	p.Categories = now
	return nil
}

// CategoryMembers resolves a category's member IDs to their pages,
// skipping IDs whose page has gone.
func (e *Engine) CategoryMembers(ctx context.Context, t title.Title) ([]*page.Page, error) {
	cat, err := e.Page(ctx, t)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, nil
	}
	var members []*page.Page
	for _, id := range cat.ChildIDs {
		m, err := e.loadPageByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			members = append(members, m)
		}
	}
	return members, nil
}
