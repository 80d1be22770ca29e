//go:build unix

package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInodeProvider_Staleness(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "folder")
	require.NoError(t, os.Mkdir(dir, 0755))

	p := NewInodeProvider()
	token, err := p.DeriveToken(dir)
	require.NoError(t, err)

	path, stale, err := p.ResolveToken(token)
	require.NoError(t, err)
	assert.Equal(t, dir, path)
	assert.False(t, stale)

	// Replace the folder: same path, new inode.
	replacement := filepath.Join(filepath.Dir(dir), "replacement")
	require.NoError(t, os.Mkdir(replacement, 0755))
	require.NoError(t, os.Remove(dir))
	require.NoError(t, os.Rename(replacement, dir))

	path, stale, err = p.ResolveToken(token)
	require.NoError(t, err)
	assert.Equal(t, dir, path)
	assert.True(t, stale)

	// A Grant refreshes it.
	_, refreshed := NewGrant(p, nil).Resolve(dir, token)
	require.NotNil(t, refreshed)
	_, stale, err = p.ResolveToken(refreshed)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestInodeProvider_Missing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "folder")
	require.NoError(t, os.Mkdir(dir, 0755))

	p := NewInodeProvider()
	token, err := p.DeriveToken(dir)
	require.NoError(t, err)
	require.NoError(t, os.Remove(dir))

	_, _, err = p.ResolveToken(token)
	assert.Error(t, err)

	path, refreshed := NewGrant(p, nil).Resolve(dir, token)
	assert.Equal(t, dir, path)
	assert.Nil(t, refreshed)
}

func TestInodeProvider_OpenAccess(t *testing.T) {
	p := NewInodeProvider()
	assert.True(t, p.OpenAccess(t.TempDir()))
	assert.False(t, p.OpenAccess(filepath.Join(t.TempDir(), "missing")))
}
