package fs

import "strings"

// dropHidden returns the entries of dir that are not hidden.
func dropHidden(dir string, entries []Entry) []Entry {
	hl := newHiddenLookup(dir)
	out := entries[:0:0]
	for _, e := range entries {
		if !hl.isHidden(e) {
			out = append(out, e)
		}
	}
	return out
}

func dotHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
