// Package validate provides input validation for engine operations.
//
// Validation faults are caller errors: a rename across a disallowed
// namespace boundary or an incomplete file upload indicates a
// programming or configuration error, not a transient condition, and the
// engine guarantees nothing has been persisted when one is returned.
package validate

import (
	"errors"
	"fmt"

	"github.com/quillwiki/quill/internal/page"
)

var (
	// ErrNamespace indicates a rename or move across a disallowed
	// namespace boundary.
	ErrNamespace = errors.New("disallowed namespace change")
	// ErrFileFields indicates a file page update missing its path, type
	// or size.
	ErrFileFields = errors.New("file pages require path, type and size")
	// ErrExists indicates the rename destination is already occupied.
	ErrExists = errors.New("page already exists")
)

// Rename checks the namespace rules for moving a page between kinds.
// Category, file, group, script and user pages may not change namespace
// at all, and nothing may move into the category or file namespace
// unless it already is that kind.
func Rename(oldKind, newKind page.Kind) error {
	if oldKind == newKind {
		return nil
	}
	switch oldKind {
	case page.KindCategory, page.KindFile, page.KindGroup, page.KindScript, page.KindUser:
		return fmt.Errorf("%w: %s pages may not leave their namespace", ErrNamespace, oldKind)
	}
	switch newKind {
	case page.KindCategory, page.KindFile:
		return fmt.Errorf("%w: only %s pages may occupy that namespace", ErrNamespace, newKind)
	}
	return nil
}

// File checks the required payload fields for a file page update.
func File(path, fileType string, size int64) error {
	if path == "" || fileType == "" || size <= 0 {
		return ErrFileFields
	}
	return nil
}
