package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/filedrap/internal/debug"
	"github.com/justyntemme/filedrap/internal/search"
)

// ErrNotDirectory is returned when a scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Entry is one child of a scanned directory. Path is absolute and is the
// entry's identity.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// ID returns the entry's identity key.
func (e Entry) ID() string { return e.Path }

// Options controls what a scan returns.
type Options struct {
	ShowHidden    bool
	SortAscending bool
	SearchQuery   string
	Locale        string // BCP 47 tag for collation; empty means root collation
}

// Result holds the hidden-filtered listing and the presentation derived
// from it. Listing is kept so the query and sort order can be re-applied
// without touching the disk.
type Result struct {
	Listing []Entry
	Entries []Entry
}

// Scan lists the immediate children of root and applies opts. The context
// is checked during the walk, after listing, and after filtering.
func Scan(ctx context.Context, root string, opts Options) (Result, error) {
	debug.Log(debug.FS, "Scan: root=%q hidden=%v asc=%v query=%q", root, opts.ShowHidden, opts.SortAscending, opts.SearchQuery)

	listing, err := listDir(ctx, root)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if !opts.ShowHidden {
		listing = dropHidden(root, listing)
	}

	entries := SortAndFilter(listing, opts.SearchQuery, opts.SortAscending, opts.Locale)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	debug.Log(debug.FS, "Scan: %d listed, %d visible", len(listing), len(entries))
	return Result{Listing: listing, Entries: entries}, nil
}

// listDir returns every direct child of root, hidden or not.
func listDir(ctx context.Context, root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	// fastwalk reports an unreadable root through the callback; probe it
	// first so permission errors are never mistaken for an empty folder.
	if err := probeReadable(root); err != nil {
		return nil, err
	}

	var result []Entry
	var mu sync.Mutex

	conf := &fastwalk.Config{
		Follow: true, // Follow symlinks to get target info
	}

	cleanRoot := filepath.Clean(root)
	rootLen := len(cleanRoot)

	err = fastwalk.Walk(conf, cleanRoot, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if filepath.Clean(fullPath) == cleanRoot {
				return err
			}
			debug.Log(debug.FS_ENTRY, "listDir: walk error at %q: %v", fullPath, err)
			return nil
		}

		if filepath.Clean(fullPath) == cleanRoot {
			return nil
		}

		relStart := rootLen
		if relStart < len(fullPath) && os.IsPathSeparator(fullPath[relStart]) {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], `/\`) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Broken symlink: report the link itself
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.FS_ENTRY, "listDir: skipping %q: %v", d.Name(), err)
				return nil
			}
		}

		mu.Lock()
		result = append(result, Entry{
			Name:    d.Name(),
			Path:    fullPath,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return result, nil
}

func probeReadable(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// SortAndFilter keeps the entries whose name contains query (case-folded)
// and orders them by name with locale-aware, case-insensitive collation.
// The result depends only on the set of entries, not their input order;
// descending is the exact reverse of ascending. The input is not modified.
func SortAndFilter(entries []Entry, query string, ascending bool, locale string) []Entry {
	q := search.Parse(query)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if q.Match(e.Name) {
			out = append(out, e)
		}
	}

	c := search.NewCollator(locale)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if r := c.Compare(a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.Path, b.Path)
	})
	if !ascending {
		slices.Reverse(out)
	}

	debug.Log(debug.SEARCH, "SortAndFilter: query=%q asc=%v %d -> %d", query, ascending, len(entries), len(out))
	return out
}
