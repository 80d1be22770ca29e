//go:build unix

package access

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/justyntemme/filedrap/internal/debug"
)

// InodeProvider records a folder's device and inode. A token is stale when
// its path now names a different file, e.g. after the folder was replaced.
type InodeProvider struct{}

func NewInodeProvider() InodeProvider { return InodeProvider{} }

// NewDefaultProvider returns the provider for this platform.
func NewDefaultProvider() Provider { return NewInodeProvider() }

func (InodeProvider) DeriveToken(path string) ([]byte, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	id := fileID{Dev: uint64(st.Dev), Ino: uint64(st.Ino), Path: path}
	return id.marshal(), nil
}

func (InodeProvider) ResolveToken(token []byte) (string, bool, error) {
	id, err := unmarshalFileID(token)
	if err != nil {
		return "", false, err
	}

	var st unix.Stat_t
	if err := unix.Stat(id.Path, &st); err != nil {
		return "", false, fmt.Errorf("stat %s: %w", id.Path, err)
	}
	stale := uint64(st.Dev) != id.Dev || uint64(st.Ino) != id.Ino
	if stale {
		debug.Log(debug.ACCESS, "ResolveToken: %q moved from %d:%d to %d:%d", id.Path, id.Dev, id.Ino, st.Dev, st.Ino)
	}
	return id.Path, stale, nil
}

func (InodeProvider) OpenAccess(path string) bool {
	return unix.Access(path, unix.R_OK|unix.X_OK) == nil
}

func (InodeProvider) CloseAccess(string) {}
