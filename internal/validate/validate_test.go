package validate_test

import (
	"testing"

	"github.com/quillwiki/quill/internal/page"
	"github.com/quillwiki/quill/internal/validate"
	"github.com/stretchr/testify/assert"
)

func TestRename(t *testing.T) {
	tests := []struct {
		name     string
		from, to page.Kind
		ok       bool
	}{
		{"article to article", page.KindArticle, page.KindArticle, true},
		{"article to user", page.KindArticle, page.KindUser, true},
		{"category stays", page.KindCategory, page.KindCategory, true},
		{"category leaves", page.KindCategory, page.KindArticle, false},
		{"file leaves", page.KindFile, page.KindArticle, false},
		{"script leaves", page.KindScript, page.KindArticle, false},
		{"user leaves", page.KindUser, page.KindArticle, false},
		{"group leaves", page.KindGroup, page.KindArticle, false},
		{"into category", page.KindArticle, page.KindCategory, false},
		{"into file", page.KindArticle, page.KindFile, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Rename(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, validate.ErrNamespace)
			}
		})
	}
}

func TestFile(t *testing.T) {
	assert.NoError(t, validate.File("uploads/a.png", "image/png", 123))
	assert.ErrorIs(t, validate.File("", "image/png", 123), validate.ErrFileFields)
	assert.ErrorIs(t, validate.File("uploads/a.png", "", 123), validate.ErrFileFields)
	assert.ErrorIs(t, validate.File("uploads/a.png", "image/png", 0), validate.ErrFileFields)
}
