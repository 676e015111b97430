// Package page defines the wiki page model. A page is a single closed
// variant type: the Kind field selects the variant (article, category,
// file, ...) and kind-specific payload fields are only meaningful for
// their kind. There is no constructible "abstract" page.
//
// A page's cached reference collections (References, Transclusion
// References, RedirectReferences) are convenience copies; the reference
// indexes in internal/refindex are the source of truth and the engine
// refreshes the caches from them on every update.
package page

import (
	"github.com/quillwiki/quill/internal/revision"
	"github.com/quillwiki/quill/internal/title"
)

// Kind selects the page variant.
type Kind string

const (
	KindArticle  Kind = "article"
	KindCategory Kind = "category"
	KindFile     Kind = "file"
	KindUser     Kind = "user"
	KindGroup    Kind = "group"
	KindScript   Kind = "script"
)

// Implicit reports whether pages of this kind exist implicitly: they are
// exempt from the normalised-title index and are never flagged missing.
func (k Kind) Implicit() bool {
	return k == KindCategory || k == KindUser || k == KindGroup
}

// Page is one wiki page. Never hard-deleted at the model level: deletion
// is a revision flag, and a deleted page lingers as a tombstone (or a
// redirect) so the link graph can keep pointing at it.
type Page struct {
	ID    string      `json:"id"`
	Title title.Title `json:"title"`
	Kind  Kind        `json:"kind"`

	// Content fields, cleared while the page redirects or is deleted.
	HTML     string `json:"html,omitempty"`
	Preview  string `json:"preview,omitempty"`
	Markdown string `json:"markdown,omitempty"`

	// Ownership and access lists. Opaque ID strings supplied by the
	// host's identity collaborator; only meaningful when Owner is set.
	Owner               string   `json:"owner,omitempty"`
	AllowedEditors      []string `json:"allowedEditors,omitempty"`
	AllowedViewers      []string `json:"allowedViewers,omitempty"`
	AllowedEditorGroups []string `json:"allowedEditorGroups,omitempty"`
	AllowedViewerGroups []string `json:"allowedViewerGroups,omitempty"`

	// Revision is the lightweight latest-revision pointer. The history
	// log keeps the authoritative copy; for milestones the engine nulls
	// this pointer's Delta since the full text already lives in
	// HTML/Markdown.
	Revision *revision.Revision `json:"revision,omitempty"`

	// Outbound reference sets parsed from the current markdown.
	// Links excludes categorising links, which live in Categories.
	Links         []title.Title `json:"links,omitempty"`
	Categories    []title.Title `json:"categories,omitempty"`
	Transclusions []title.Title `json:"transclusions,omitempty"`

	// Inbound caches refreshed from the reference indexes.
	References             []title.Title `json:"references,omitempty"`
	TransclusionReferences []title.Title `json:"transclusionReferences,omitempty"`
	RedirectReferences     []title.Title `json:"redirectReferences,omitempty"`

	// Redirect state. RedirectTo is chain-compressed: it points at the
	// terminal page of the redirect chain, not the next hop.
	RedirectTo     *title.Title `json:"redirectTo,omitempty"`
	BrokenRedirect bool         `json:"brokenRedirect,omitempty"`
	DoubleRedirect bool         `json:"doubleRedirect,omitempty"`

	// Missing marks a page referenced by others but never created, or
	// deleted without leaving a redirect.
	Missing bool `json:"missing,omitempty"`

	// Category payload (Kind == KindCategory): IDs of member pages.
	// Membership changes are not content revisions.
	ChildIDs []string `json:"childIds,omitempty"`

	// File payload (Kind == KindFile).
	FilePath string `json:"filePath,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// New returns an empty page of the given kind addressed by t.
func New(t title.Title, kind Kind) *Page {
	return &Page{ID: Key(t), Title: t, Kind: kind}
}

// Exists reports whether the page has real content: it has a revision
// and that revision is not a deletion. Placeholder pages created for
// missing-page tracking have no revision and do not exist.
func (p *Page) Exists() bool {
	return p != nil && p.Revision != nil && !p.Revision.Deleted
}

// IsRedirect reports whether the page currently redirects.
func (p *Page) IsRedirect() bool {
	return p != nil && p.RedirectTo != nil
}

// Key returns the storage ID for the page addressed by t.
func Key(t title.Title) string {
	return title.Key("page", t)
}

// HistoryKey returns the storage ID for t's revision history log.
func HistoryKey(t title.Title) string {
	return title.Key("history", t)
}

// History is a page's revision log, most recent first. Stored separately
// from the page so the hot read path never deserialises old revisions.
type History struct {
	PageID    string              `json:"pageId"`
	Revisions []revision.Revision `json:"revisions"`
}
