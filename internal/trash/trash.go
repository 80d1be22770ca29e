// Package trash moves files and directories to the platform's trash
// instead of deleting them.
package trash

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrUnavailable is returned when no trash location can be found.
var ErrUnavailable = errors.New("trash unavailable")

// OS moves items to the current user's system trash.
type OS struct{}

// MoveToTrash moves the file or directory at path to the trash.
func (OS) MoveToTrash(path string) error {
	return MoveToTrash(path)
}

// MoveToTrash moves the file or directory at path to the trash. The path
// itself must exist; a dangling symlink is trashed as a link.
func MoveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	return moveToTrash(abs)
}

// DisplayName returns the platform's name for the trash:
// "Trash" on macOS/Linux, "Recycle Bin" on Windows.
func DisplayName() string {
	return displayName()
}

// VerbPhrase returns the action phrase for moving to trash.
func VerbPhrase() string {
	return "Move to " + DisplayName()
}
