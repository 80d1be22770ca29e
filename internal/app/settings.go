package app

import (
	"errors"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/store"
)

// Display settings persisted across sessions.
const (
	settingShowHidden    = "settings.showHidden"
	settingSortAscending = "settings.sortAscending"
)

func (e *Engine) loadSettingsLocked() {
	if e.transient {
		return
	}
	if v, ok := e.loadBoolSetting(settingShowHidden); ok {
		e.showHidden = v
	}
	if v, ok := e.loadBoolSetting(settingSortAscending); ok {
		e.sortAsc = v
	}
}

func (e *Engine) loadBoolSetting(key string) (bool, bool) {
	data, err := e.kv.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.log.Warn("read setting", zap.String("key", key), zap.Error(err))
		}
		return false, false
	}
	v, err := strconv.ParseBool(string(data))
	if err != nil {
		e.log.Warn("ignoring malformed setting", zap.String("key", key), zap.ByteString("value", data))
		return false, false
	}
	return v, true
}

func (e *Engine) saveSettingLocked(key string, v bool) {
	if e.transient {
		return
	}
	if err := e.kv.Set(key, []byte(strconv.FormatBool(v))); err != nil {
		e.log.Warn("write setting", zap.String("key", key), zap.Error(err))
	}
}

func newFolderID() string {
	return uuid.NewString()
}

// displayName is the folder's base name, or the path itself for a volume
// root.
func displayName(path string) string {
	name := filepath.Base(path)
	if name == string(filepath.Separator) || name == "." || name == "" {
		return path
	}
	return name
}
