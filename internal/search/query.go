// Package search implements the name filter and the locale-aware ordering
// applied to directory listings.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Query is a parsed name filter. Matching is a case-insensitive substring
// test on the file name; there is no directive or content syntax.
type Query struct {
	Raw    string
	folded string
}

// Parse trims input and prepares it for matching.
func Parse(input string) *Query {
	q := &Query{Raw: input}
	if trimmed := strings.TrimSpace(input); trimmed != "" {
		q.folded = Fold(trimmed)
	}
	return q
}

// IsEmpty reports whether the query matches everything.
func (q *Query) IsEmpty() bool {
	return q == nil || q.folded == ""
}

// Match reports whether name contains the query.
func (q *Query) Match(name string) bool {
	if q.IsEmpty() {
		return true
	}
	return strings.Contains(Fold(name), q.folded)
}

// Fold returns the NFC-normalised, case-folded form of s. Names coming from
// HFS+/APFS are often decomposed, so normalisation must happen before the
// substring test.
func Fold(s string) string {
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(norm.NFC.String(s))
}
