package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records calls and returns canned answers.
type fakeProvider struct {
	resolvePath  string
	resolveStale bool
	resolveErr   error
	deriveToken  []byte
	deriveErr    error
	openOK       bool

	opened []string
	closed []string
}

func (f *fakeProvider) DeriveToken(string) ([]byte, error) { return f.deriveToken, f.deriveErr }

func (f *fakeProvider) ResolveToken([]byte) (string, bool, error) {
	return f.resolvePath, f.resolveStale, f.resolveErr
}

func (f *fakeProvider) OpenAccess(path string) bool {
	f.opened = append(f.opened, path)
	return f.openOK
}

func (f *fakeProvider) CloseAccess(path string) { f.closed = append(f.closed, path) }

func TestGrant_Resolve(t *testing.T) {
	testCases := []struct {
		name        string
		provider    *fakeProvider
		token       []byte
		wantPath    string
		wantRefresh []byte
	}{
		{
			name:     "nil token uses raw path",
			provider: &fakeProvider{resolvePath: "/elsewhere"},
			wantPath: "/raw",
		},
		{
			name:     "fresh token",
			provider: &fakeProvider{resolvePath: "/resolved"},
			token:    []byte{1},
			wantPath: "/resolved",
		},
		{
			name:        "stale token is refreshed",
			provider:    &fakeProvider{resolvePath: "/resolved", resolveStale: true, deriveToken: []byte{9}},
			token:       []byte{1},
			wantPath:    "/resolved",
			wantRefresh: []byte{9},
		},
		{
			name:     "stale token with failed refresh",
			provider: &fakeProvider{resolvePath: "/resolved", resolveStale: true, deriveErr: errors.New("boom")},
			token:    []byte{1},
			wantPath: "/resolved",
		},
		{
			name:     "resolve error degrades to raw path",
			provider: &fakeProvider{resolveErr: errors.New("gone")},
			token:    []byte{1},
			wantPath: "/raw",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGrant(tc.provider, nil)
			path, refreshed := g.Resolve("/raw", tc.token)
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, tc.wantRefresh, refreshed)
		})
	}
}

func TestGrant_SingleOpenSession(t *testing.T) {
	p := &fakeProvider{openOK: true}
	g := NewGrant(p, nil)

	require.True(t, g.Open("a", "/a"))
	require.True(t, g.Open("b", "/b"))

	assert.Equal(t, []string{"/a", "/b"}, p.opened)
	assert.Equal(t, []string{"/a"}, p.closed)
	assert.True(t, g.IsOpenFor("b"))
	assert.False(t, g.IsOpenFor("a"))

	g.Close()
	g.Close()
	assert.Equal(t, []string{"/a", "/b"}, p.closed)
	_, ok := g.Current()
	assert.False(t, ok)
}

func TestGrant_OpenFailureLeavesNoSession(t *testing.T) {
	p := &fakeProvider{openOK: true}
	g := NewGrant(p, nil)
	require.True(t, g.Open("a", "/a"))

	p.openOK = false
	assert.False(t, g.Open("b", "/b"))

	_, ok := g.Current()
	assert.False(t, ok)
	assert.Equal(t, []string{"/a"}, p.closed)
}

func TestGrant_DeriveNormalisesEmpty(t *testing.T) {
	g := NewGrant(&fakeProvider{deriveToken: []byte{}}, nil)
	assert.Nil(t, g.Derive("/x"))

	g = NewGrant(&fakeProvider{deriveErr: errors.New("nope")}, nil)
	assert.Nil(t, g.Derive("/x"))
}

func TestPassthrough(t *testing.T) {
	g := NewGrant(Passthrough{}, nil)
	assert.Nil(t, g.Derive("/x"))
	assert.True(t, g.Open("f", "/x"))

	path, refreshed := g.Resolve("/x", []byte("foreign"))
	assert.Equal(t, "/x", path)
	assert.Nil(t, refreshed)
}

func TestFileID_RoundTrip(t *testing.T) {
	id := fileID{Dev: 42, Ino: 1 << 40, Path: "/home/user/Projects"}
	got, err := unmarshalFileID(id.marshal())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, bad := range [][]byte{nil, {0}, {tokenVersion}, append(id.marshal(), 'x')} {
		_, err := unmarshalFileID(bad)
		assert.ErrorIs(t, err, ErrBadToken, "token %v", bad)
	}
}
