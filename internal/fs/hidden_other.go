//go:build !linux && !darwin && !windows

package fs

type hiddenLookup struct{}

func newHiddenLookup(string) hiddenLookup { return hiddenLookup{} }

func (hiddenLookup) isHidden(e Entry) bool {
	return dotHidden(e.Name)
}
