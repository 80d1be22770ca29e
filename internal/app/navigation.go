package app

import (
	"path/filepath"

	"github.com/justyntemme/filedrap/internal/debug"
	"github.com/justyntemme/filedrap/internal/fs"
)

// EnterDirectory browses into entry. Files are ignored.
func (e *Engine) EnterDirectory(entry fs.Entry) {
	if !entry.IsDir {
		return
	}
	e.mu.Lock()
	if e.selectedID == "" {
		e.mu.Unlock()
		return
	}
	debug.Log(debug.APP, "EnterDirectory: %q -> %q", e.current, entry.Path)
	e.current = filepath.Clean(entry.Path)
	e.refreshLocked()
	e.mu.Unlock()
	e.notify()
}

// GoToParentDirectory browses to the parent of the current directory. It
// does nothing at the folder root.
func (e *Engine) GoToParentDirectory() {
	e.mu.Lock()
	if !e.canGoUpLocked() {
		e.mu.Unlock()
		return
	}
	parent := filepath.Dir(filepath.Clean(e.current))
	debug.Log(debug.APP, "GoToParentDirectory: %q -> %q", e.current, parent)
	e.current = parent
	e.refreshLocked()
	e.mu.Unlock()
	e.notify()
}

// CanGoToParentDirectory reports whether the browsing path is below the
// folder root.
func (e *Engine) CanGoToParentDirectory() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canGoUpLocked()
}

func (e *Engine) canGoUpLocked() bool {
	if e.selectedID == "" || e.rootPath == "" {
		return false
	}
	cur := filepath.Clean(e.current)
	return cur != filepath.Clean(e.rootPath) && fs.Within(e.rootPath, cur)
}

// validateBrowsingPathLocked resets the browsing path to the root when it
// has left the root's subtree or no longer exists. The advisory message
// stays visible after the rescan.
func (e *Engine) validateBrowsingPathLocked() {
	cur := filepath.Clean(e.current)
	if cur == filepath.Clean(e.rootPath) {
		return
	}

	var reason error
	switch {
	case !fs.Within(e.rootPath, cur):
		reason = ErrOutsideRoot
	case !fs.IsDir(cur):
		reason = ErrVanished
	default:
		return
	}

	err := &Error{Kind: KindConfinement, Op: "browse", Path: cur, Err: reason}
	e.log.Info("browsing path reset to folder root")
	debug.Log(debug.APP, "confinement: %v; resetting to %q", err, e.rootPath)

	e.current = e.rootPath
	e.lastErr = err
	e.errMsg = err.Error()
	e.advisory = true
	e.metrics.Operation("confinement_reset", nil)
}

// followLocked points the directory watcher at the browsing directory.
func (e *Engine) followLocked(dir string) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Follow(dir); err != nil {
		debug.Log(debug.WATCH, "follow %q: %v", dir, err)
	}
}

// processWatchEvents refreshes when the browsing directory changes on disk.
func (e *Engine) processWatchEvents(w *DirectoryWatcher) {
	for dir := range w.Notify() {
		e.mu.Lock()
		relevant := e.selectedID != "" && filepath.Clean(dir) == filepath.Clean(e.current)
		if relevant {
			e.refreshLocked()
		}
		e.mu.Unlock()

		if relevant {
			debug.Log(debug.WATCH, "change in %q, refreshing", dir)
			e.metrics.WatcherRefresh()
			e.notify()
		}
	}
}
