package title_test

import (
	"testing"

	"github.com/quillwiki/quill/internal/title"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   title.Title
		want string
	}{
		{"name only", title.New("Main Page", "", ""), "Main Page"},
		{"namespace", title.New("Foo", "Category", ""), "Category:Foo"},
		{"full", title.New("Foo", "Talk", "Eng"), "(Eng):Talk:Foo"},
		{"domain no namespace", title.New("Foo", "", "Eng"), "(Eng):Foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
			assert.Equal(t, tt.in, title.Parse(tt.in.String()))
		})
	}
}

func TestParse_NeverFails(t *testing.T) {
	// Unparseable input degenerates to the zero title, never an error.
	assert.True(t, title.Parse("").IsZero())
	assert.True(t, title.Parse("(unterminated domain").IsZero())
	assert.True(t, title.Parse("   ").IsZero())
}

func TestParse_ColonsBelongToName(t *testing.T) {
	got := title.Parse("Talk:Essays: A Study")
	assert.Equal(t, "Talk", got.Namespace)
	assert.Equal(t, "Essays: A Study", got.Name)
}

func TestTitle_Normalisation(t *testing.T) {
	a := title.New("main page", "category", "")
	b := title.New("Main Page", "Category", "")
	assert.True(t, a.Equal(b), "construction normalises casing")

	c := title.Title{Name: "MAIN PAGE"}
	assert.False(t, c.Equal(b))
	assert.True(t, c.EqualFold(title.Title{Name: "main page"}))
}

func TestTitle_WithHelpers(t *testing.T) {
	base := title.New("Foo", "", "")
	moved := base.WithNamespace("User")
	assert.Equal(t, "", base.Namespace, "With* returns a copy")
	assert.Equal(t, "User", moved.Namespace)
	assert.Equal(t, base.Name, moved.Name)
}

func TestKey_Deterministic(t *testing.T) {
	a := title.New("Foo", "Category", "")
	require.Equal(t, title.Key("page", a), title.Key("page", a))

	// Distinct parts must not collide even when their concatenation matches.
	x := title.New("B:C", "A", "")
	y := title.New("C", "A:B", "")
	assert.NotEqual(t, title.Key("page", x), title.Key("page", y))

	// Kind prefixes keep entity families disjoint.
	assert.NotEqual(t, title.Key("page", a), title.Key("links", a))
}

func TestNormalizedKey(t *testing.T) {
	a := title.New("Foo", "", "")
	b := title.Title{Name: "foo"}
	assert.NotEqual(t, title.Key("page", a), title.Key("page", b))
	assert.Equal(t, title.NormalizedKey("norm", a), title.NormalizedKey("norm", b))
}

func TestKey_ControlBytesInParts(t *testing.T) {
	// Titles built by struct literal can carry arbitrary bytes, so part
	// boundaries must stay unambiguous without relying on a separator
	// byte the parts cannot contain.
	x := title.Title{Domain: "a", Namespace: "b\x1fc"}
	y := title.Title{Domain: "a\x1fb", Namespace: "c"}
	assert.NotEqual(t, title.Key("page", x), title.Key("page", y))
}
