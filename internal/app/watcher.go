package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/filedrap/internal/debug"
)

// DirectoryWatcher watches the browsing directory and reports, debounced,
// when its contents change.
type DirectoryWatcher struct {
	watcher   *fsnotify.Watcher
	mu        sync.Mutex
	watching  map[string]bool // Currently watched paths
	notify    chan string     // Changed directory paths
	done      chan struct{}   // Shutdown signal
	debounce  time.Duration
	closeOnce sync.Once
}

// NewDirectoryWatcher creates a watcher. A non-positive debounce uses 200ms.
func NewDirectoryWatcher(debounce time.Duration) (*DirectoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	dw := &DirectoryWatcher{
		watcher:  w,
		watching: make(map[string]bool),
		notify:   make(chan string, 10),
		done:     make(chan struct{}),
		debounce: debounce,
	}
	go dw.run()
	return dw, nil
}

// run processes filesystem events with debouncing
func (dw *DirectoryWatcher) run() {
	defer close(dw.notify)

	lastEvent := make(map[string]time.Time)
	tick := dw.debounce / 2
	if tick <= 0 {
		tick = dw.debounce
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)) {
				continue
			}

			// Events name the changed child; the watched directory itself
			// shows up when it is removed or renamed.
			changed := filepath.Clean(event.Name)
			parent := filepath.Dir(changed)

			dw.mu.Lock()
			switch {
			case dw.watching[parent]:
				lastEvent[parent] = time.Now()
			case dw.watching[changed]:
				lastEvent[changed] = time.Now()
			}
			dw.mu.Unlock()
			debug.Log(debug.WATCH, "event: %s %s", event.Op, changed)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.WATCH, "fsnotify error: %v", err)

		case <-ticker.C:
			now := time.Now()
			for dir, at := range lastEvent {
				if now.Sub(at) < dw.debounce {
					continue
				}
				select {
				case dw.notify <- dir:
					debug.Log(debug.WATCH, "change notification: %s", dir)
				default:
					// Channel full, a refresh is already queued
				}
				delete(lastEvent, dir)
			}
		}
	}
}

// Follow makes dir the only watched directory.
func (dw *DirectoryWatcher) Follow(dir string) error {
	dir = filepath.Clean(dir)

	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[dir] && len(dw.watching) == 1 {
		return nil
	}
	dw.unwatchAllLocked()

	if err := dw.watcher.Add(dir); err != nil {
		return err
	}
	dw.watching[dir] = true
	debug.Log(debug.WATCH, "now watching %s", dir)
	return nil
}

// UnwatchAll removes all directories from the watch list
func (dw *DirectoryWatcher) UnwatchAll() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.unwatchAllLocked()
}

func (dw *DirectoryWatcher) unwatchAllLocked() {
	for path := range dw.watching {
		// The directory may already be gone
		if err := dw.watcher.Remove(path); err != nil {
			debug.Log(debug.WATCH, "unwatch %s: %v", path, err)
		}
	}
	dw.watching = make(map[string]bool)
}

// Watched returns the watched directories.
func (dw *DirectoryWatcher) Watched() []string {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	out := make([]string, 0, len(dw.watching))
	for p := range dw.watching {
		out = append(out, p)
	}
	return out
}

// Notify returns the channel that receives directory change notifications.
// It is closed after Close.
func (dw *DirectoryWatcher) Notify() <-chan string {
	return dw.notify
}

// Close shuts down the watcher
func (dw *DirectoryWatcher) Close() error {
	var err error
	dw.closeOnce.Do(func() {
		close(dw.done)
		err = dw.watcher.Close()
	})
	return err
}
