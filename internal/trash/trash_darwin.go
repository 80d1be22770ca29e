//go:build darwin

package trash

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// macOS keeps the user's trash in ~/.Trash without metadata files. Items on
// other volumes are handed to Finder, which knows each volume's .Trashes.

func moveToTrash(path string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	trashDir := filepath.Join(home, ".Trash")

	base := filepath.Base(path)
	dest := filepath.Join(trashDir, base)
	if _, err := os.Lstat(dest); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		dest = filepath.Join(trashDir, fmt.Sprintf("%s %s%s", stem, time.Now().Format("15.04.05.000"), ext))
	}

	err = os.Rename(path, dest)
	if errors.Is(err, unix.EXDEV) {
		return finderDelete(path)
	}
	return err
}

func finderDelete(path string) error {
	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	out, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("finder delete %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func displayName() string {
	return "Trash"
}
