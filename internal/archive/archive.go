// Package archive implements wiki import and export. An archive is a
// flattened snapshot: each live page appears once with its current text
// and no revision history, so an import replays cleanly into any wiki
// regardless of how the source stored its deltas.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/title"
	"github.com/quillwiki/quill/internal/wiki"
)

// Page is one archived page. Titles are carried as display strings so
// archives stay readable and diffable as plain JSON.
type Page struct {
	Title    string    `json:"title"`
	Kind     page.Kind `json:"kind"`
	Markdown string    `json:"markdown,omitempty"`
	Editor   string    `json:"editor,omitempty"`

	RedirectTo string `json:"redirectTo,omitempty"`

	Owner          string   `json:"owner,omitempty"`
	AllowedEditors []string `json:"allowedEditors,omitempty"`
	AllowedViewers []string `json:"allowedViewers,omitempty"`
	EditorGroups   []string `json:"editorGroups,omitempty"`
	ViewerGroups   []string `json:"viewerGroups,omitempty"`

	FilePath string `json:"filePath,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// Archive is a complete wiki snapshot. Options records the source
// wiki's namespace names so an import into a wiki with different
// display names can remap titles.
type Archive struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Options    config.Options `json:"options"`
	Pages      []Page         `json:"pages"`
}

// Export snapshots every live page in the store. Placeholder records
// for missing pages and revision histories are left behind; the archive
// holds only what a reader could see.
func Export(ctx context.Context, s storage.Store, opts config.Options) (*Archive, error) {
	a := &Archive{
		ExportedAt: time.Now().UTC(),
		Options:    opts,
	}
	err := s.List(ctx, "page:", func(id string, value []byte) error {
		var p page.Page
		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("decode page %s: %w", id, err)
		}
		if !p.Exists() && !p.IsRedirect() {
			return nil
		}
		ap := Page{
			Title:          p.Title.String(),
			Kind:           p.Kind,
			Markdown:       p.Markdown,
			Owner:          p.Owner,
			AllowedEditors: p.AllowedEditors,
			AllowedViewers: p.AllowedViewers,
			EditorGroups:   p.AllowedEditorGroups,
			ViewerGroups:   p.AllowedViewerGroups,
			FilePath:       p.FilePath,
			FileSize:       p.FileSize,
			FileType:       p.FileType,
		}
		if p.Revision != nil {
			ap.Editor = p.Revision.Editor
		}
		if p.RedirectTo != nil {
			ap.RedirectTo = p.RedirectTo.String()
		}
		a.Pages = append(a.Pages, ap)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan pages: %w", err)
	}
	return a, nil
}

// Import replays an archive into a wiki as ordinary edits, so the link
// graph, categories and redirect chains rebuild themselves. Page order
// in the archive does not matter: a redirect imported before its target
// is repaired when the target's edit propagates. Returns the number of
// pages imported.
func Import(ctx context.Context, e *wiki.Engine, a *Archive, editor string) (int, error) {
	remap := namespaceRemapper(a.Options, e.Options())

	imported := 0
	for _, ap := range a.Pages {
		t := remap(title.Parse(ap.Title))
		params := wiki.UpdateParams{
			Title:    t,
			Markdown: ap.Markdown,
			Editor:   ap.Editor,
			Comment:  "imported from archive",
			FilePath: ap.FilePath,
			FileSize: ap.FileSize,
			FileType: ap.FileType,
		}
		if params.Editor == "" {
			params.Editor = editor
		}
		if ap.RedirectTo != "" {
			to := remap(title.Parse(ap.RedirectTo))
			params.RedirectTo = &to
		}
		if ap.Owner != "" {
			params.Owner = &ap.Owner
		}
		if ap.AllowedEditors != nil {
			params.AllowedEditors = &ap.AllowedEditors
		}
		if ap.AllowedViewers != nil {
			params.AllowedViewers = &ap.AllowedViewers
		}
		if ap.EditorGroups != nil {
			params.EditorGroups = &ap.EditorGroups
		}
		if ap.ViewerGroups != nil {
			params.ViewerGroups = &ap.ViewerGroups
		}
		if _, err := e.Update(ctx, params); err != nil {
			return imported, fmt.Errorf("import %s: %w", ap.Title, err)
		}
		imported++
	}
	return imported, nil
}

// namespaceRemapper translates well-known namespace display names from
// the source wiki's options to the target's. Unknown namespaces pass
// through untouched.
func namespaceRemapper(src, dst config.Options) func(title.Title) title.Title {
	pairs := [][2]string{
		{src.CategoryNamespace, dst.CategoryNamespace},
		{src.FileNamespace, dst.FileNamespace},
		{src.UserNamespace, dst.UserNamespace},
		{src.GroupNamespace, dst.GroupNamespace},
		{src.ScriptNamespace, dst.ScriptNamespace},
		{src.TalkNamespace, dst.TalkNamespace},
		{src.TransclusionNamespace, dst.TransclusionNamespace},
	}
	return func(t title.Title) title.Title {
		for _, pair := range pairs {
			if pair[0] != "" && strings.EqualFold(t.Namespace, pair[0]) {
				return t.WithNamespace(pair[1])
			}
		}
		return t
	}
}

// Write encodes the archive as indented JSON.
func (a *Archive) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	return nil
}

// Read decodes an archive from JSON.
func Read(r io.Reader) (*Archive, error) {
	var a Archive
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return &a, nil
}
