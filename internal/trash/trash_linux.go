//go:build linux

package trash

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Linux follows the freedesktop.org trash specification:
//
//	$XDG_DATA_HOME/Trash/files/<name>          trashed item
//	$XDG_DATA_HOME/Trash/info/<name>.trashinfo metadata
//
// Items on another filesystem go to $topdir/.Trash-$uid instead.

func homeTrash() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "Trash"), nil
}

func moveToTrash(path string) error {
	trashDir, err := homeTrash()
	if err != nil {
		return err
	}

	err = trashInto(trashDir, path, path)
	if !errors.Is(err, unix.EXDEV) {
		return err
	}

	top, terr := mountTop(path)
	if terr != nil {
		return fmt.Errorf("cannot move %s to trash: %w", path, err)
	}
	rel, terr := filepath.Rel(top, path)
	if terr != nil {
		return fmt.Errorf("cannot move %s to trash: %w", path, err)
	}
	return trashInto(filepath.Join(top, ".Trash-"+strconv.Itoa(os.Getuid())), path, rel)
}

// trashInto moves path into trashDir, recording recorded as its original
// location. The .trashinfo file is created exclusively to claim a name.
func trashInto(trashDir, path, recorded string) error {
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return fmt.Errorf("cannot create trash files directory: %w", err)
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return fmt.Errorf("cannot create trash info directory: %w", err)
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapePath(recorded), time.Now().Format("2006-01-02T15:04:05"))

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s.%d%s", stem, n, ext)
		}
		infoPath := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("cannot create trashinfo file: %w", err)
		}
		_, werr := f.WriteString(info)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			os.Remove(infoPath)
			return fmt.Errorf("cannot write trashinfo file: %w", werr)
		}

		dest := filepath.Join(filesDir, name)
		if _, err := os.Lstat(dest); err == nil {
			// Orphaned file without info; keep looking.
			os.Remove(infoPath)
			continue
		}
		if err := os.Rename(path, dest); err != nil {
			os.Remove(infoPath)
			return err
		}
		return nil
	}
}

// escapePath percent-encodes each path segment, keeping the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// mountTop returns the topmost directory above path on the same device.
func mountTop(path string) (string, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return "", err
	}
	dev := st.Dev

	dir := filepath.Dir(path)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}
		if err := unix.Stat(parent, &st); err != nil {
			return "", err
		}
		if st.Dev != dev {
			return dir, nil
		}
		dir = parent
	}
}

func displayName() string {
	return "Trash"
}
