//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	// Core categories
	APP    Category = "APP"    // Engine state transitions, navigation
	FS     Category = "FS"     // Directory scans
	SEARCH Category = "SEARCH" // Filtering and collation
	STORE  Category = "STORE"  // KV store, bookmarks, recents
	ACCESS Category = "ACCESS" // Scoped access grants
	WATCH  Category = "WATCH"  // Directory watcher events

	// Very verbose, disabled by default
	FS_ENTRY Category = "FS_ENTRY" // Individual entry processing
)

var (
	enabledCategories = map[Category]bool{
		APP:      true,
		FS:       true,
		SEARCH:   true,
		STORE:    true,
		ACCESS:   true,
		WATCH:    true,
		FS_ENTRY: false,
	}
	categoryMu sync.RWMutex

	loggerMu sync.RWMutex
	logger   = newFallbackLogger()
)

func newFallbackLogger() *zap.SugaredLogger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func init() {
	// FILEDRAP_DEBUG=APP,FS or FILEDRAP_DEBUG=all or FILEDRAP_DEBUG=none
	if env := os.Getenv("FILEDRAP_DEBUG"); env != "" {
		categoryMu.Lock()
		defer categoryMu.Unlock()

		env = strings.ToUpper(env)
		switch env {
		case "ALL":
			for cat := range enabledCategories {
				enabledCategories[cat] = true
			}
		case "NONE":
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
		default:
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
			for _, cat := range strings.Split(env, ",") {
				enabledCategories[Category(strings.TrimSpace(cat))] = true
			}
		}
	}
}

// SetLogger routes debug output through the given zap logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	loggerMu.Lock()
	logger = l.Named("debug").Sugar()
	loggerMu.Unlock()
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.With("category", string(cat)).Debugf(format, args...)
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// EnableAll enables all debug categories including verbose ones
func EnableAll() {
	categoryMu.Lock()
	for cat := range enabledCategories {
		enabledCategories[cat] = true
	}
	categoryMu.Unlock()
}
