// Package access keeps folders reachable across restarts. A Provider turns
// a folder path into an opaque token that can be stored and later resolved
// back to the folder, and scopes read access to one folder at a time.
package access

import (
	"sync"

	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/debug"
)

// Provider is the OS facility behind a Grant.
type Provider interface {
	// DeriveToken returns a persistable token for path. A nil token means
	// the provider has nothing to store.
	DeriveToken(path string) ([]byte, error)
	// ResolveToken returns the path the token now refers to. stale is set
	// when the token still resolves but should be replaced.
	ResolveToken(token []byte) (path string, stale bool, err error)
	// OpenAccess begins a scoped access session for path.
	OpenAccess(path string) bool
	// CloseAccess ends the session opened for path.
	CloseAccess(path string)
}

// Session is an open scoped access session.
type Session struct {
	FolderID string
	Path     string
}

// Grant holds at most one open Session.
type Grant struct {
	provider Provider
	log      *zap.Logger

	mu      sync.Mutex
	current *Session
}

func NewGrant(p Provider, log *zap.Logger) *Grant {
	if p == nil {
		p = Passthrough{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Grant{provider: p, log: log}
}

// Derive returns a token for path, or nil when derivation fails.
func (g *Grant) Derive(path string) []byte {
	token, err := g.provider.DeriveToken(path)
	if err != nil {
		g.log.Warn("derive access token", zap.String("path", path), zap.Error(err))
		return nil
	}
	if len(token) == 0 {
		return nil
	}
	return token
}

// Resolve returns the path to use for a stored folder and, when the stored
// token was stale, a fresh token the caller should persist. Resolution
// failures degrade to the stored path.
func (g *Grant) Resolve(path string, token []byte) (string, []byte) {
	if len(token) == 0 {
		return path, nil
	}

	resolved, stale, err := g.provider.ResolveToken(token)
	if err != nil {
		g.log.Warn("resolve access token", zap.String("path", path), zap.Error(err))
		return path, nil
	}
	if !stale {
		return resolved, nil
	}

	debug.Log(debug.ACCESS, "Resolve: stale token for %q, refreshing from %q", path, resolved)
	fresh, err := g.provider.DeriveToken(resolved)
	if err != nil {
		g.log.Warn("refresh stale access token", zap.String("path", resolved), zap.Error(err))
		return resolved, nil
	}
	if len(fresh) == 0 {
		return resolved, nil
	}
	return resolved, fresh
}

// Open closes any open session and opens one for the folder. On failure no
// session is left open.
func (g *Grant) Open(folderID, path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeLocked()
	if !g.provider.OpenAccess(path) {
		g.log.Warn("open scoped access", zap.String("folder", folderID), zap.String("path", path))
		return false
	}
	g.current = &Session{FolderID: folderID, Path: path}
	debug.Log(debug.ACCESS, "Open: folder=%s path=%q", folderID, path)
	return true
}

// Close ends the open session, if any. It is safe to call repeatedly.
func (g *Grant) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeLocked()
}

func (g *Grant) closeLocked() {
	if g.current == nil {
		return
	}
	debug.Log(debug.ACCESS, "Close: folder=%s path=%q", g.current.FolderID, g.current.Path)
	g.provider.CloseAccess(g.current.Path)
	g.current = nil
}

// Current returns the open session.
func (g *Grant) Current() (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return Session{}, false
	}
	return *g.current, true
}

// IsOpenFor reports whether the open session belongs to folderID.
func (g *Grant) IsOpenFor(folderID string) bool {
	s, ok := g.Current()
	return ok && s.FolderID == folderID
}
