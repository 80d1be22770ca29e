package app

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/bookmarks"
	"github.com/justyntemme/filedrap/internal/debug"
	"github.com/justyntemme/filedrap/internal/fs"
)

// RenameEntry renames entry within its directory. Renaming to the current
// name succeeds without touching the disk; an existing destination is never
// overwritten.
func (e *Engine) RenameEntry(entry fs.Entry, newName string) error {
	e.mu.Lock()
	defer e.notify()
	defer e.mu.Unlock()

	err := e.renameLocked(entry, newName)
	e.metrics.Operation("rename", err)
	return err
}

func (e *Engine) renameLocked(entry fs.Entry, newName string) error {
	const op = "rename"
	src := filepath.Clean(entry.Path)

	if err := e.checkTargetLocked(op, src); err != nil {
		return err
	}

	name := strings.TrimSpace(newName)
	switch {
	case name == "":
		return e.failLocked(validationError(op, src, ErrEmptyName))
	case name == "." || name == ".." || strings.ContainsAny(name, `/`+string(filepath.Separator)):
		return e.failLocked(validationError(op, src, ErrInvalidName))
	case name == filepath.Base(src):
		return nil
	}

	dst := filepath.Join(filepath.Dir(src), name)
	if fs.Exists(dst) && !sameFile(src, dst) {
		return e.failLocked(validationError(op, src, ErrDestinationExists))
	}

	if err := e.rename(src, dst); err != nil {
		e.log.Warn("rename failed", zap.String("from", src), zap.String("to", dst), zap.Error(err))
		return e.failLocked(mutationError(op, src, err))
	}
	e.log.Info("renamed", zap.String("from", src), zap.String("to", dst))

	e.recents = bookmarks.Replace(e.recents, src, dst)
	e.saveRecentsLocked()
	e.refreshLocked()
	return nil
}

// MoveToTrash moves entry to the OS trash.
func (e *Engine) MoveToTrash(entry fs.Entry) error {
	e.mu.Lock()
	defer e.notify()
	defer e.mu.Unlock()

	err := e.trashLocked(entry)
	e.metrics.Operation("trash", err)
	return err
}

func (e *Engine) trashLocked(entry fs.Entry) error {
	const op = "trash"
	path := filepath.Clean(entry.Path)

	if err := e.checkTargetLocked(op, path); err != nil {
		return err
	}
	if e.trasher == nil {
		return e.failLocked(mutationError(op, path, ErrUnsupported))
	}
	if err := e.trasher.MoveToTrash(path); err != nil {
		e.log.Warn("trash failed", zap.String("path", path), zap.Error(err))
		return e.failLocked(mutationError(op, path, err))
	}
	e.log.Info("moved to trash", zap.String("path", path))

	e.recents = bookmarks.Remove(e.recents, path)
	e.saveRecentsLocked()
	e.refreshLocked()
	return nil
}

// checkTargetLocked rejects mutations outside the selected folder and of
// the folder root itself.
func (e *Engine) checkTargetLocked(op, path string) error {
	if e.selectedID == "" {
		return e.failLocked(validationError(op, path, ErrNoFolderSelected))
	}
	if path == filepath.Clean(e.rootPath) || !fs.Within(e.rootPath, path) {
		return e.failLocked(validationError(op, path, ErrOutsideRoot))
	}
	return nil
}

// sameFile reports whether a and b name one file, as with a case-only
// rename on a case-insensitive volume.
func sameFile(a, b string) bool {
	ai, err := os.Lstat(a)
	if err != nil {
		return false
	}
	bi, err := os.Lstat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// OpenEntry enters directories and opens files with their default
// application, recording them as recently used.
func (e *Engine) OpenEntry(entry fs.Entry) error {
	if entry.IsDir {
		e.EnterDirectory(entry)
		return nil
	}
	if e.opener == nil {
		return e.report(mutationError("open", entry.Path, ErrUnsupported))
	}
	if err := e.opener.Open(entry.Path); err != nil {
		e.metrics.Operation("open", err)
		return e.report(mutationError("open", entry.Path, err))
	}
	e.metrics.Operation("open", nil)
	e.MarkFileUsed(entry.Path)
	return nil
}

// RevealInFileManager shows entry in the desktop file manager.
func (e *Engine) RevealInFileManager(entry fs.Entry) error {
	return e.reveal(entry.Path)
}

// RevealCurrentFolder shows the selected folder's root in the file manager,
// wherever browsing has descended to.
func (e *Engine) RevealCurrentFolder() error {
	e.mu.Lock()
	root := e.rootPath
	e.mu.Unlock()
	if root == "" {
		return e.report(validationError("reveal", "", ErrNoFolderSelected))
	}
	return e.reveal(root)
}

func (e *Engine) reveal(path string) error {
	if e.opener == nil {
		return e.report(mutationError("reveal", path, ErrUnsupported))
	}
	if err := e.opener.Reveal(path); err != nil {
		return e.report(mutationError("reveal", path, err))
	}
	return nil
}

func (e *Engine) report(err error) error {
	e.mu.Lock()
	e.failLocked(err)
	e.mu.Unlock()
	e.notify()
	return err
}

// ---------------------------------------------------------------------------
// Recently used files
// ---------------------------------------------------------------------------

// MarkFileUsed moves path to the front of the recently used list.
func (e *Engine) MarkFileUsed(path string) {
	if path == "" {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	e.mu.Lock()
	e.recents = bookmarks.Promote(e.recents, path)
	e.saveRecentsLocked()
	e.mu.Unlock()

	debug.Log(debug.APP, "MarkFileUsed: %q", path)
	e.notify()
}

// RemoveRecent drops path from the recently used list.
func (e *Engine) RemoveRecent(path string) {
	e.mu.Lock()
	e.recents = bookmarks.Remove(e.recents, filepath.Clean(path))
	e.saveRecentsLocked()
	e.mu.Unlock()
	e.notify()
}

// ClearRecents empties the recently used list.
func (e *Engine) ClearRecents() {
	e.mu.Lock()
	e.recents = []string{}
	e.saveRecentsLocked()
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) saveRecentsLocked() {
	e.recentsStore.Save(e.recents)
	e.metrics.SetRecentFiles(len(e.recents))
}
