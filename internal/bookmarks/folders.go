// Package bookmarks persists the user's saved folders and the recently used
// files list in a key/value store.
package bookmarks

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/debug"
	"github.com/justyntemme/filedrap/internal/store"
)

// FoldersKey is the store key of the saved folder list.
const FoldersKey = "savedFoldersV1"

// Folder is a saved folder. AccessToken is nil when no token is stored.
type Folder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	AccessToken []byte `json:"accessToken,omitempty"`
}

// Store loads and saves folders. Persistence failures are logged and
// swallowed: Load falls back to an empty list and Save is best-effort.
type Store struct {
	kv  store.KV
	log *zap.Logger
}

func NewStore(kv store.KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log}
}

// Load returns the saved folders in order. It never returns nil.
func (s *Store) Load() []Folder {
	data, ok := s.get(FoldersKey)
	if !ok {
		return []Folder{}
	}

	var folders []Folder
	if err := json.Unmarshal(data, &folders); err != nil {
		s.log.Warn("discarding corrupt folder list", zap.String("key", FoldersKey), zap.Error(err))
		return []Folder{}
	}
	for i := range folders {
		if len(folders[i].AccessToken) == 0 {
			folders[i].AccessToken = nil
		}
	}
	debug.Log(debug.STORE, "Load: %d folders", len(folders))
	return folders
}

// Save replaces the saved folder list.
func (s *Store) Save(folders []Folder) {
	out := make([]Folder, len(folders))
	copy(out, folders)
	for i := range out {
		if len(out[i].AccessToken) == 0 {
			out[i].AccessToken = nil
		}
	}
	s.put(FoldersKey, out)
}

func (s *Store) get(key string) ([]byte, bool) {
	if s.kv == nil {
		return nil, false
	}
	data, err := s.kv.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("read from store", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (s *Store) put(key string, v any) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("encode for store", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.kv.Set(key, data); err != nil {
		s.log.Warn("write to store", zap.String("key", key), zap.Error(err))
	}
}
