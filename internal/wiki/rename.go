package wiki

import (
	"context"
	"fmt"

	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/validate"
)

// Rename moves a page to a new title: the content is written to the
// destination as a fresh edit, the source becomes a redirect, and every
// existing redirect at the source is re-pointed so no reader lands on a
// double redirect. All checks run before the first write.
func (e *Engine) Rename(ctx context.Context, oldT, newT title.Title, editor, comment string) error {
	src, err := e.loadPage(ctx, oldT)
	if err != nil {
		return fmt.Errorf("load %s: %w", oldT, err)
	}
	if src == nil || !src.Exists() {
		return fmt.Errorf("rename %s: no such page", oldT)
	}
	if err := validate.Rename(src.Kind, e.KindFor(newT.Namespace)); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldT, newT, err)
	}
	dst, err := e.loadPage(ctx, newT)
	if err != nil {
		return fmt.Errorf("load %s: %w", newT, err)
	}
	if dst != nil && (dst.Exists() || dst.IsRedirect()) {
		return fmt.Errorf("rename %s to %s: %w", oldT, newT, validate.ErrExists)
	}

	owner := src.Owner
	editors := src.AllowedEditors
	viewers := src.AllowedViewers
	editorGroups := src.AllowedEditorGroups
	viewerGroups := src.AllowedViewerGroups
	params := UpdateParams{
		Title:          newT,
		Markdown:       src.Markdown,
		Editor:         editor,
		Comment:        comment,
		Owner:          &owner,
		AllowedEditors: &editors,
		AllowedViewers: &viewers,
		EditorGroups:   &editorGroups,
		ViewerGroups:   &viewerGroups,
	}
	if src.FilePath != "" {
		params.FilePath = src.FilePath
		params.FileSize = src.FileSize
		params.FileType = src.FileType
	}
	if _, err := e.Update(ctx, params); err != nil {
		return err
	}

	if _, err := e.Update(ctx, UpdateParams{
		Title:      oldT,
		Editor:     editor,
		Comment:    comment,
		RedirectTo: &newT,
	}); err != nil {
		return err
	}

	// Redirects that pointed at the old title would now chain through
	// it; re-point each directly at the destination.
	sources, err := e.redirects.Referrers(ctx, oldT)
	if err != nil {
		return fmt.Errorf("re-point redirects of %s: %w", oldT, err)
	}
	for _, id := range sources {
		sp, err := e.loadPageByID(ctx, id)
		if err != nil {
			return err
		}
		if sp == nil || !sp.IsRedirect() {
			continue
		}
		if err := e.redirects.Remove(ctx, oldT, sp.ID); err != nil {
			return fmt.Errorf("re-point redirect %s: %w", sp.Title, err)
		}
		if err := e.resolveRedirect(ctx, sp, newT); err != nil {
			return err
		}
		if err := e.refreshInbound(ctx, sp); err != nil {
			return err
		}
		if err := e.putPage(ctx, sp); err != nil {
			return fmt.Errorf("store %s: %w", sp.Title, err)
		}
	}
	return nil
}
