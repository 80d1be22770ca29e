// Package app implements the folder session engine: the saved folder list,
// confined browsing inside the selected folder, background scans with
// stale-result rejection, file operations, and the recently used list.
package app

import (
	"context"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/access"
	"github.com/justyntemme/filedrap/internal/bookmarks"
	"github.com/justyntemme/filedrap/internal/debug"
	"github.com/justyntemme/filedrap/internal/fs"
	"github.com/justyntemme/filedrap/internal/metrics"
	"github.com/justyntemme/filedrap/internal/store"
)

// Picker is the native folder chooser. ok is false when the user cancelled.
type Picker interface {
	PickFolder(ctx context.Context) (path string, ok bool, err error)
}

// Opener hands paths to the desktop.
type Opener interface {
	Open(path string) error
	Reveal(path string) error
}

// Trasher moves items to the OS trash.
type Trasher interface {
	MoveToTrash(path string) error
}

// Deps are the engine's collaborators. Only KV is required; nil
// collaborators disable the operations that need them.
type Deps struct {
	KV       store.KV
	Provider access.Provider
	Picker   Picker
	Opener   Opener
	Trasher  Trasher
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Options are the initial display settings. Settings persisted by an
// earlier session override ShowHidden and SortAscending.
type Options struct {
	ShowHidden    bool
	SortAscending bool
	Locale        string

	// TransientSettings keeps display setting changes in this session only:
	// persisted settings are neither loaded nor written.
	TransientSettings bool

	// Watch refreshes the view when the browsing directory changes on disk.
	Watch         bool
	WatchDebounce time.Duration
}

// Snapshot is an immutable view of engine state for presentation.
type Snapshot struct {
	Folders                []bookmarks.Folder
	SelectedFolderID       string
	RootPath               string
	CurrentPath            string
	CanGoToParentDirectory bool
	Entries                []fs.Entry
	Loading                bool
	ErrorMessage           string
	Recents                []string
	ShowHidden             bool
	SortAscending          bool
	SearchQuery            string
}

// SelectedFolder returns the selected folder, if any.
func (s Snapshot) SelectedFolder() (bookmarks.Folder, bool) {
	for _, f := range s.Folders {
		if f.ID == s.SelectedFolderID {
			return f, true
		}
	}
	return bookmarks.Folder{}, false
}

// presentation is the part of the view that can change without a rescan.
type presentation struct {
	query string
	asc   bool
}

// Engine owns the folder session. All state is guarded by mu; listing runs
// on the fs worker and results are applied by processResponses.
type Engine struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	kv           store.KV
	folderStore  *bookmarks.Store
	recentsStore *bookmarks.Recents
	grant        *access.Grant
	picker       Picker
	opener       Opener
	trasher      Trasher
	rename       func(oldPath, newPath string) error

	fsys          *fs.System
	watchEnabled  bool
	watchDebounce time.Duration
	transient     bool // display settings are not persisted
	watcher       *DirectoryWatcher

	mu         sync.Mutex
	folders    []bookmarks.Folder
	selectedID string
	rootPath   string
	current    string
	listing    []fs.Entry // hidden-filtered result of the last successful scan
	entries    []fs.Entry // listing with query and sort applied
	loading    bool
	errMsg     string
	lastErr    error
	advisory   bool // errMsg survives the next successful scan
	recents    []string
	showHidden bool
	sortAsc    bool
	query      string
	locale     string

	gen      int64         // bumped on every dispatch and invalidation
	pending  chan struct{} // closed when the scan for gen settles
	scanView presentation  // presentation the pending scan was dispatched with

	started bool
	closed  bool

	updates  chan struct{}
	loopDone chan struct{}
}

// New constructs an engine. Call Start before using it.
func New(d Deps, opts Options) *Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	kv := d.KV
	if kv == nil {
		kv = store.NewMemory()
	}
	provider := d.Provider
	if provider == nil {
		provider = access.Passthrough{}
	}

	folderStore := bookmarks.NewStore(kv, log)
	return &Engine{
		log:           log,
		metrics:       d.Metrics,
		kv:            kv,
		folderStore:   folderStore,
		recentsStore:  bookmarks.NewRecents(folderStore),
		grant:         access.NewGrant(provider, log),
		picker:        d.Picker,
		opener:        d.Opener,
		trasher:       d.Trasher,
		rename:        os.Rename,
		fsys:          fs.NewSystem(),
		watchEnabled:  opts.Watch,
		watchDebounce: opts.WatchDebounce,
		transient:     opts.TransientSettings,
		folders:       []bookmarks.Folder{},
		recents:       []string{},
		showHidden:    opts.ShowHidden,
		sortAsc:       opts.SortAscending,
		locale:        opts.Locale,
		updates:       make(chan struct{}, 1),
		loopDone:      make(chan struct{}),
	}
}

// Start loads persisted state, launches the scan worker and selects the
// first saved folder.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true

	go e.fsys.Start()
	go e.processResponses()

	if e.watchEnabled {
		w, err := NewDirectoryWatcher(e.watchDebounce)
		if err != nil {
			e.log.Warn("directory watcher unavailable", zap.Error(err))
		} else {
			e.watcher = w
			go e.processWatchEvents(w)
		}
	}

	e.folders = e.folderStore.Load()
	e.recents = e.recentsStore.Load()
	e.loadSettingsLocked()
	e.metrics.SetSavedFolders(len(e.folders))
	e.metrics.SetRecentFiles(len(e.recents))

	debug.Log(debug.APP, "Start: %d folders, %d recents, hidden=%v asc=%v",
		len(e.folders), len(e.recents), e.showHidden, e.sortAsc)

	if len(e.folders) > 0 {
		e.selectLocked(e.folders[0])
	}
	e.mu.Unlock()
	e.notify()
}

// Close cancels any scan, ends the access session and stops the worker.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.invalidateLocked()
	e.closed = true
	started := e.started
	e.grant.Close()
	w := e.watcher
	e.watcher = nil
	e.mu.Unlock()

	if w != nil {
		w.Close()
	}
	if started {
		e.fsys.Stop()
		<-e.loopDone
	}
}

// Snapshot returns a copy of the published state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	folders := make([]bookmarks.Folder, len(e.folders))
	for i, f := range e.folders {
		f.AccessToken = slices.Clone(f.AccessToken)
		folders[i] = f
	}

	return Snapshot{
		Folders:                folders,
		SelectedFolderID:       e.selectedID,
		RootPath:               e.rootPath,
		CurrentPath:            e.current,
		CanGoToParentDirectory: e.canGoUpLocked(),
		Entries:                slices.Clone(e.entries),
		Loading:                e.loading,
		ErrorMessage:           e.errMsg,
		Recents:                slices.Clone(e.recents),
		ShowHidden:             e.showHidden,
		SortAscending:          e.sortAsc,
		SearchQuery:            e.query,
	}
}

// LastError returns the error behind Snapshot.ErrorMessage, or nil.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Updates delivers a signal after every state change. Signals coalesce:
// a reader only learns that something changed and should take a Snapshot.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// WaitIdle blocks until no scan is pending, or ctx is done.
func (e *Engine) WaitIdle(ctx context.Context) error {
	for {
		e.mu.Lock()
		ch := e.pending
		e.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ---------------------------------------------------------------------------
// Folders
// ---------------------------------------------------------------------------

// AddFolder saves the folder at path and selects it. Adding a path that is
// already saved selects the existing folder.
func (e *Engine) AddFolder(path string) (bookmarks.Folder, error) {
	e.mu.Lock()
	defer e.notify()
	defer e.mu.Unlock()

	f, err := e.addFolderLocked(path)
	e.metrics.Operation("add_folder", err)
	return f, err
}

func (e *Engine) addFolderLocked(path string) (bookmarks.Folder, error) {
	if path == "" {
		return bookmarks.Folder{}, e.failLocked(validationError("add folder", path, ErrEmptyName))
	}
	canon, err := fs.Canonicalize(path)
	if err != nil {
		return bookmarks.Folder{}, e.failLocked(validationError("add folder", path, err))
	}
	if info, err := os.Stat(canon); err != nil {
		return bookmarks.Folder{}, e.failLocked(validationError("add folder", canon, err))
	} else if !info.IsDir() {
		return bookmarks.Folder{}, e.failLocked(validationError("add folder", canon, fs.ErrNotDirectory))
	}

	for _, f := range e.folders {
		if f.Path == canon {
			debug.Log(debug.APP, "AddFolder: %q already saved as %s", canon, f.ID)
			e.selectLocked(f)
			return f, nil
		}
	}

	f := bookmarks.Folder{
		ID:          newFolderID(),
		Name:        displayName(canon),
		Path:        canon,
		AccessToken: e.grant.Derive(canon),
	}
	e.folders = append(e.folders, f)
	e.saveFoldersLocked()
	e.log.Info("folder added", zap.String("id", f.ID), zap.String("path", canon))

	e.selectLocked(f)
	return f, nil
}

// PickAndAddFolder asks the Picker for a folder and adds it. ok is false
// when the user cancelled.
func (e *Engine) PickAndAddFolder(ctx context.Context) (f bookmarks.Folder, ok bool, err error) {
	if e.picker == nil {
		return bookmarks.Folder{}, false, ErrUnsupported
	}
	path, ok, err := e.picker.PickFolder(ctx)
	if err != nil || !ok {
		return bookmarks.Folder{}, false, err
	}
	f, err = e.AddFolder(path)
	return f, err == nil, err
}

// RemoveFolder forgets a saved folder. When it was selected, the folder
// before it in the list is selected instead.
func (e *Engine) RemoveFolder(id string) error {
	e.mu.Lock()
	defer e.notify()
	defer e.mu.Unlock()

	idx := e.folderIndexLocked(id)
	if idx < 0 {
		err := e.failLocked(validationError("remove folder", id, ErrUnknownFolder))
		e.metrics.Operation("remove_folder", err)
		return err
	}

	if e.grant.IsOpenFor(id) {
		e.grant.Close()
	}
	wasSelected := e.selectedID == id
	removed := e.folders[idx]

	e.folders = slices.Delete(e.folders, idx, idx+1)
	e.saveFoldersLocked()
	e.log.Info("folder removed", zap.String("id", id), zap.String("path", removed.Path))

	if wasSelected {
		if len(e.folders) > 0 {
			e.selectLocked(e.folders[max(idx-1, 0)])
		} else {
			e.clearSelectionLocked()
		}
	}
	e.metrics.Operation("remove_folder", nil)
	return nil
}

// SelectFolder makes id the browsing folder and rescans from its root.
func (e *Engine) SelectFolder(id string) error {
	e.mu.Lock()
	defer e.notify()
	defer e.mu.Unlock()

	idx := e.folderIndexLocked(id)
	if idx < 0 {
		return e.failLocked(validationError("select folder", id, ErrUnknownFolder))
	}
	e.selectLocked(e.folders[idx])
	return nil
}

func (e *Engine) selectLocked(f bookmarks.Folder) {
	debug.Log(debug.APP, "select: %s %q", f.ID, f.Path)

	e.selectedID = f.ID
	root := e.ensureAccessLocked(f)
	e.rootPath = root
	e.current = root
	e.listing, e.entries = nil, nil
	e.errMsg, e.lastErr, e.advisory = "", nil, false
	e.refreshLocked()
}

func (e *Engine) clearSelectionLocked() {
	e.invalidateLocked()
	e.grant.Close()
	e.selectedID = ""
	e.rootPath, e.current = "", ""
	e.listing, e.entries = nil, nil
	e.errMsg, e.lastErr, e.advisory = "", nil, false
	if e.watcher != nil {
		e.watcher.UnwatchAll()
	}
}

// ensureAccessLocked opens the access session for f if it is not already
// open and returns the folder's accessible root.
func (e *Engine) ensureAccessLocked(f bookmarks.Folder) string {
	if e.closed {
		return f.Path
	}
	if s, ok := e.grant.Current(); ok && s.FolderID == f.ID {
		return s.Path
	}

	path, refreshed := e.grant.Resolve(f.Path, f.AccessToken)
	if refreshed != nil {
		if idx := e.folderIndexLocked(f.ID); idx >= 0 {
			e.folders[idx].AccessToken = refreshed
			e.saveFoldersLocked()
			debug.Log(debug.ACCESS, "persisted refreshed token for %s", f.ID)
		}
	}
	// A failed open is logged by the grant; the scan still runs unscoped.
	e.grant.Open(f.ID, path)
	return path
}

func (e *Engine) folderIndexLocked(id string) int {
	return slices.IndexFunc(e.folders, func(f bookmarks.Folder) bool { return f.ID == id })
}

func (e *Engine) selectedFolderLocked() (bookmarks.Folder, bool) {
	idx := e.folderIndexLocked(e.selectedID)
	if idx < 0 {
		return bookmarks.Folder{}, false
	}
	return e.folders[idx], true
}

func (e *Engine) saveFoldersLocked() {
	e.folderStore.Save(e.folders)
	e.metrics.SetSavedFolders(len(e.folders))
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

// Refresh rescans the browsing directory.
func (e *Engine) Refresh() {
	e.mu.Lock()
	e.refreshLocked()
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) refreshLocked() {
	if !e.started || e.closed {
		return
	}
	f, ok := e.selectedFolderLocked()
	if !ok {
		e.clearSelectionLocked()
		return
	}

	e.rootPath = e.ensureAccessLocked(f)
	e.validateBrowsingPathLocked()
	e.dispatchLocked()
}

// dispatchLocked starts a scan of the browsing directory, superseding any
// scan in flight.
func (e *Engine) dispatchLocked() {
	e.gen++
	e.settlePendingLocked()
	e.pending = make(chan struct{})
	e.scanView = presentation{query: e.query, asc: e.sortAsc}
	e.loading = true

	debug.Log(debug.APP, "dispatch: gen=%d folder=%s path=%q", e.gen, e.selectedID, e.current)
	e.fsys.RequestChan <- fs.Request{
		Op:       fs.ScanDir,
		Path:     e.current,
		FolderID: e.selectedID,
		Gen:      e.gen,
		Options: fs.Options{
			ShowHidden:    e.showHidden,
			SortAscending: e.sortAsc,
			SearchQuery:   e.query,
			Locale:        e.locale,
		},
	}
}

// invalidateLocked cancels the scan in flight so its result is discarded.
func (e *Engine) invalidateLocked() {
	e.gen++
	e.settlePendingLocked()
	e.loading = false
	if e.started && !e.closed {
		e.fsys.RequestChan <- fs.Request{Op: fs.CancelScan, Gen: e.gen}
	}
}

func (e *Engine) settlePendingLocked() {
	if e.pending != nil {
		close(e.pending)
		e.pending = nil
	}
}

// processResponses is the only writer of scan results.
func (e *Engine) processResponses() {
	defer close(e.loopDone)
	for resp := range e.fsys.ResponseChan {
		outcome := "ok"
		switch {
		case resp.Cancelled:
			outcome = "cancelled"
		case resp.Err != nil:
			outcome = "error"
		}
		e.metrics.ObserveScan(outcome, resp.Duration)

		e.mu.Lock()
		applied := e.applyLocked(resp)
		e.mu.Unlock()
		if applied {
			e.notify()
		}
	}
}

// applyLocked publishes resp if it is still the latest scan for the
// selected folder.
func (e *Engine) applyLocked(resp fs.Response) bool {
	if resp.Gen != e.gen || resp.FolderID != e.selectedID {
		// Superseded scans are cancelled; only completed results count as stale.
		if !resp.Cancelled {
			debug.Log(debug.APP, "apply: stale gen=%d folder=%s (current gen=%d folder=%s)",
				resp.Gen, resp.FolderID, e.gen, e.selectedID)
			e.metrics.StaleResult()
		}
		return false
	}
	defer e.settlePendingLocked()
	e.loading = false

	if resp.Cancelled {
		return true
	}

	if resp.Err != nil {
		e.listing, e.entries = nil, nil
		e.lastErr = &Error{Kind: KindScan, Op: "scan", Path: resp.Path, Err: resp.Err}
		e.errMsg = scanMessage(resp.Err)
		e.advisory = false
		e.log.Warn("scan failed", zap.String("path", resp.Path), zap.Error(resp.Err))
		return true
	}

	e.listing = resp.Result.Listing
	if e.scanView == (presentation{query: e.query, asc: e.sortAsc}) {
		e.entries = resp.Result.Entries
	} else {
		e.entries = fs.SortAndFilter(e.listing, e.query, e.sortAsc, e.locale)
	}
	if e.advisory {
		e.advisory = false
	} else {
		e.errMsg, e.lastErr = "", nil
	}
	e.metrics.ObserveEntries(len(e.entries))
	e.followLocked(resp.Path)

	debug.Log(debug.APP, "apply: gen=%d path=%q %d entries in %v", resp.Gen, resp.Path, len(e.entries), resp.Duration)
	return true
}

// failLocked publishes err as the error message and returns it.
func (e *Engine) failLocked(err error) error {
	e.lastErr = err
	e.errMsg = err.Error()
	e.advisory = false
	debug.Log(debug.APP, "error: %v", err)
	return err
}

// ---------------------------------------------------------------------------
// Presentation
// ---------------------------------------------------------------------------

// SetSearchQuery filters the current listing by name. No rescan happens.
func (e *Engine) SetSearchQuery(q string) {
	e.mu.Lock()
	e.query = q
	e.representLocked()
	e.mu.Unlock()
	e.notify()
}

// SetSortAscending reorders the current listing. No rescan happens.
func (e *Engine) SetSortAscending(asc bool) {
	e.mu.Lock()
	e.sortAsc = asc
	e.representLocked()
	e.saveSettingLocked(settingSortAscending, asc)
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) ToggleSortOrder() {
	e.mu.Lock()
	asc := !e.sortAsc
	e.mu.Unlock()
	e.SetSortAscending(asc)
}

// SetShowHiddenFiles changes hidden-file visibility and rescans, since the
// hidden filter is applied while listing.
func (e *Engine) SetShowHiddenFiles(show bool) {
	e.mu.Lock()
	e.showHidden = show
	e.saveSettingLocked(settingShowHidden, show)
	if e.selectedID != "" {
		e.refreshLocked()
	}
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) ToggleShowHidden() {
	e.mu.Lock()
	show := !e.showHidden
	e.mu.Unlock()
	e.SetShowHiddenFiles(show)
}

func (e *Engine) representLocked() {
	e.entries = fs.SortAndFilter(e.listing, e.query, e.sortAsc, e.locale)
}
