// Package title provides the canonical addressing type for wiki pages.
// A page is addressed by (name, namespace, domain); all storage keys in
// quill are derived deterministically from a Title, which is what makes
// idempotent upsert-by-ID safe across the whole engine.
package title

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caser title-cases parts for display. Und avoids locale-specific casing
// (Turkish dotless-i would make IDs locale-dependent).
var caser = cases.Title(language.Und)

// Title addresses a single wiki page. Empty string means the part is
// absent: an article in the main namespace has an empty Namespace, and
// most wikis run with an empty Domain.
//
// A Title is an immutable value. Construct with New or Parse; derive
// modified copies with the With* methods. Two titles are equal iff all
// three parts compare equal, which for values built through New/Parse
// means plain == works.
type Title struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// New returns a normalised Title. Each part is trimmed and title-cased
// for display; comparison and lookup use the lowercase shadow (see
// Normalized).
func New(name, namespace, domain string) Title {
	return Title{
		Name:      normalisePart(name),
		Namespace: normalisePart(namespace),
		Domain:    normalisePart(domain),
	}
}

func normalisePart(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return caser.String(s)
}

// Normalized returns the lowercase form of the Title used for
// case-insensitive matching.
func (t Title) Normalized() Title {
	return Title{
		Name:      strings.ToLower(t.Name),
		Namespace: strings.ToLower(t.Namespace),
		Domain:    strings.ToLower(t.Domain),
	}
}

// IsZero reports whether the Title has no parts at all.
func (t Title) IsZero() bool {
	return t.Name == "" && t.Namespace == "" && t.Domain == ""
}

// Equal reports part-by-part equality.
func (t Title) Equal(o Title) bool {
	return t.Name == o.Name && t.Namespace == o.Namespace && t.Domain == o.Domain
}

// EqualFold reports case-insensitive equality.
func (t Title) EqualFold(o Title) bool {
	return t.Normalized() == o.Normalized()
}

// WithName returns a copy with a different name part.
func (t Title) WithName(name string) Title {
	t.Name = normalisePart(name)
	return t
}

// WithNamespace returns a copy with a different namespace part.
func (t Title) WithNamespace(ns string) Title {
	t.Namespace = normalisePart(ns)
	return t
}

// WithDomain returns a copy with a different domain part.
func (t Title) WithDomain(domain string) Title {
	t.Domain = normalisePart(domain)
	return t
}

// String serialises the Title as "(domain):namespace:name". Absent parts
// elide their delimiter, so an article in the main namespace renders as
// just its name.
func (t Title) String() string {
	var b strings.Builder
	if t.Domain != "" {
		b.WriteByte('(')
		b.WriteString(t.Domain)
		b.WriteString("):")
	}
	if t.Namespace != "" {
		b.WriteString(t.Namespace)
		b.WriteByte(':')
	}
	b.WriteString(t.Name)
	return b.String()
}

// Parse is the inverse of String. It never fails: input that cannot be
// interpreted degenerates to the zero Title rather than an error, since
// titles routinely arrive from untrusted markup.
//
// A domain is only recognised in the first colon-delimited segment, and
// only when parenthesised. A single leading namespace segment is split
// off; any further colons belong to the name.
func Parse(s string) Title {
	s = strings.TrimSpace(s)
	if s == "" {
		return Title{}
	}

	var domain string
	if strings.HasPrefix(s, "(") {
		end := strings.Index(s, "):")
		if end < 0 {
			// Unterminated domain marker: nothing sensible to salvage.
			return Title{}
		}
		domain = s[1:end]
		s = s[end+2:]
	}

	var namespace string
	if i := strings.Index(s, ":"); i >= 0 {
		namespace = s[:i]
		s = s[i+1:]
	}
	return New(s, namespace, domain)
}
