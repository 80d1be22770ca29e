package fs

import "golang.org/x/sys/unix"

type hiddenLookup struct{}

func newHiddenLookup(string) hiddenLookup { return hiddenLookup{} }

// isHidden checks the leading dot and the UF_HIDDEN flag Finder sets via
// chflags hidden.
func (hiddenLookup) isHidden(e Entry) bool {
	if dotHidden(e.Name) {
		return true
	}
	var st unix.Stat_t
	if err := unix.Lstat(e.Path, &st); err != nil {
		return false
	}
	return st.Flags&unix.UF_HIDDEN != 0
}
