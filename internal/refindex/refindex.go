// Package refindex maintains the reverse reference indexes of the link
// graph: for a target page it records which pages link to it, transclude
// it, or redirect to it, plus a case-insensitive title lookup and the set
// of missing-page markers.
//
// Entries are not versioned and every mutation is a full-entry overwrite.
// That is the engine's primary non-transactional risk surface: a crash
// between an index write and the owning page's write can lose one side,
// which degrades to a stale inbound reference that self-heals on the next
// edit of either endpoint.
package refindex

import (
	"context"
	"fmt"
	"slices"

	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/title"
)

// Kind names one of the five reference-index families. The kind doubles
// as the storage key prefix, keeping each family in its own key range.
type Kind string

const (
	// Links records inbound wiki-links.
	Links Kind = "links"
	// Transclusions records inbound transclusions.
	Transclusions Kind = "transclusions"
	// Redirects records inbound redirects.
	Redirects Kind = "redirects"
	// Normalized maps a lowercase-normalised title to the IDs of existing
	// pages whose title matches case-insensitively.
	Normalized Kind = "normalized"
	// Missing marks referenced-but-never-created pages with the IDs of
	// their referrers.
	Missing Kind = "missing"
)

// Entry is one reverse-index record: the referrer IDs for a single
// target. Referrers is ordered by insertion and free of duplicates.
type Entry struct {
	ID        string   `json:"id"`
	Referrers []string `json:"referrers"`
}

// Index is one reference-index family over a Store.
type Index struct {
	kind  Kind
	store storage.Store
}

// New returns the index of the given kind.
func New(kind Kind, s storage.Store) *Index {
	return &Index{kind: kind, store: s}
}

// KeyFor returns the storage ID the index uses for a target title.
func (ix *Index) KeyFor(target title.Title) string {
	if ix.kind == Normalized {
		return title.NormalizedKey(string(ix.kind), target)
	}
	return title.Key(string(ix.kind), target)
}

// Get returns the entry for target, or nil when no page references it.
func (ix *Index) Get(ctx context.Context, target title.Title) (*Entry, error) {
	return storage.GetJSON[Entry](ctx, ix.store, ix.KeyFor(target))
}

// Referrers returns the referrer IDs for target; absent entries yield an
// empty slice.
func (ix *Index) Referrers(ctx context.Context, target title.Title) ([]string, error) {
	e, err := ix.Get(ctx, target)
	if err != nil || e == nil {
		return nil, err
	}
	return e.Referrers, nil
}

// Add records referrer against target, creating the entry on first
// reference. Adding an already-present referrer is a no-op, so the
// operation is idempotent and safe to retry.
func (ix *Index) Add(ctx context.Context, target title.Title, referrer string) error {
	key := ix.KeyFor(target)
	e, err := storage.GetJSON[Entry](ctx, ix.store, key)
	if err != nil {
		return err
	}
	if e == nil {
		e = &Entry{ID: key}
	} else if slices.Contains(e.Referrers, referrer) {
		return nil
	}
	e.Referrers = append(e.Referrers, referrer)
	if err := storage.PutJSON(ctx, ix.store, key, e); err != nil {
		return fmt.Errorf("%s index add: %w", ix.kind, err)
	}
	return nil
}

// Remove drops referrer from target's entry. Removing an absent referrer
// is a no-op; removing the last referrer deletes the entry from storage
// entirely.
func (ix *Index) Remove(ctx context.Context, target title.Title, referrer string) error {
	key := ix.KeyFor(target)
	e, err := storage.GetJSON[Entry](ctx, ix.store, key)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}
	i := slices.Index(e.Referrers, referrer)
	if i < 0 {
		return nil
	}
	e.Referrers = slices.Delete(e.Referrers, i, i+1)
	if len(e.Referrers) == 0 {
		if err := ix.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%s index delete: %w", ix.kind, err)
		}
		return nil
	}
	if err := storage.PutJSON(ctx, ix.store, key, e); err != nil {
		return fmt.Errorf("%s index remove: %w", ix.kind, err)
	}
	return nil
}

// Drop deletes the whole entry for target regardless of its contents.
// Used when a missing page becomes real and its marker is retired.
func (ix *Index) Drop(ctx context.Context, target title.Title) error {
	if err := ix.store.Delete(ctx, ix.KeyFor(target)); err != nil {
		return fmt.Errorf("%s index drop: %w", ix.kind, err)
	}
	return nil
}
