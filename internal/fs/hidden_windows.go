package fs

import "golang.org/x/sys/windows"

type hiddenLookup struct{}

func newHiddenLookup(string) hiddenLookup { return hiddenLookup{} }

func (hiddenLookup) isHidden(e Entry) bool {
	p, err := windows.UTF16PtrFromString(e.Path)
	if err != nil {
		return dotHidden(e.Name)
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return dotHidden(e.Name)
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
