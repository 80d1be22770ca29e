package bookmarks

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// RecentsKey is the store key of the recently used files list.
	RecentsKey = "recentFilesV1"

	// MaxRecents caps the recently used files list.
	MaxRecents = 30
)

// Recents loads and saves the recently used files list, most recent first.
type Recents struct {
	s *Store
}

func NewRecents(s *Store) *Recents {
	return &Recents{s: s}
}

// Load returns the saved list, deduplicated and capped. It never returns nil.
func (r *Recents) Load() []string {
	data, ok := r.s.get(RecentsKey)
	if !ok {
		return []string{}
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		r.s.log.Warn("discarding corrupt recents list", zap.String("key", RecentsKey), zap.Error(err))
		return []string{}
	}
	return normalize(paths)
}

// Save replaces the saved list.
func (r *Recents) Save(paths []string) {
	if paths == nil {
		paths = []string{}
	}
	r.s.put(RecentsKey, paths)
}

// Promote moves path to the front of list, removing any earlier copy and
// evicting the oldest entries beyond MaxRecents. list is not modified.
func Promote(list []string, path string) []string {
	out := make([]string, 0, min(len(list)+1, MaxRecents))
	out = append(out, path)
	for _, p := range list {
		if len(out) == MaxRecents {
			break
		}
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

// Remove drops path and anything below it.
func Remove(list []string, path string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		if !isSelfOrChild(path, p) {
			out = append(out, p)
		}
	}
	return out
}

// Replace rewrites oldPath, and anything below it, to live under newPath.
// Order is kept; duplicates created by the rewrite collapse to the first.
func Replace(list []string, oldPath, newPath string) []string {
	out := make([]string, len(list))
	for i, p := range list {
		if isSelfOrChild(oldPath, p) {
			p = newPath + p[len(oldPath):]
		}
		out[i] = p
	}
	return normalize(out)
}

func isSelfOrChild(parent, p string) bool {
	return p == parent || strings.HasPrefix(p, parent+string(filepath.Separator))
}

func normalize(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, min(len(paths), MaxRecents))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == MaxRecents {
			break
		}
	}
	return out
}
