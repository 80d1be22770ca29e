package fs

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// hiddenListFile names the per-directory list honoured by GNOME Files and
// Dolphin: one file name per line.
const hiddenListFile = ".hidden"

type hiddenLookup struct {
	listed map[string]struct{}
}

func newHiddenLookup(dir string) hiddenLookup {
	f, err := os.Open(filepath.Join(dir, hiddenListFile))
	if err != nil {
		return hiddenLookup{}
	}
	defer f.Close()

	listed := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			listed[name] = struct{}{}
		}
	}
	return hiddenLookup{listed: listed}
}

func (h hiddenLookup) isHidden(e Entry) bool {
	if dotHidden(e.Name) {
		return true
	}
	_, ok := h.listed[e.Name]
	return ok
}
