package search

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/justyntemme/filedrap/internal/debug"
)

// Collator orders file names using locale-aware, case-insensitive rules.
// A Collator is not safe for concurrent use; create one per sort.
type Collator struct {
	c *collate.Collator
}

// NewCollator returns a Collator for the BCP 47 locale tag. An empty or
// unparseable tag falls back to the root collation.
func NewCollator(locale string) *Collator {
	tag := language.Und
	if locale = strings.TrimSpace(locale); locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			debug.Log(debug.SEARCH, "NewCollator: bad locale %q: %v", locale, err)
		} else {
			tag = parsed
		}
	}
	return &Collator{c: collate.New(tag, collate.IgnoreCase)}
}

// Compare returns -1, 0 or 1. Names that collate equal fall back to a
// byte-wise comparison so the order is total.
func (c *Collator) Compare(a, b string) int {
	if r := c.c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
