package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func mkTree(t *testing.T, dirs, files []string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		if err := os.Mkdir(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("failed to create dir %s: %v", d, err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", f, err)
		}
	}
	return root
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func equalNames(t *testing.T, got []Entry, want ...string) {
	t.Helper()
	g := names(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestNewSystem(t *testing.T) {
	s := NewSystem()
	if s == nil {
		t.Fatal("NewSystem returned nil")
	}
	if s.RequestChan == nil {
		t.Error("RequestChan is nil")
	}
	if s.ResponseChan == nil {
		t.Error("ResponseChan is nil")
	}
	if s.Scan == nil {
		t.Error("Scan is nil")
	}
}

func TestScan_SortAndSearch(t *testing.T) {
	root := mkTree(t, nil, []string{"Gamma.txt", "alpha.txt", "Beta.txt"})

	testCases := []struct {
		name string
		opts Options
		want []string
	}{
		{"ascending", Options{SortAscending: true}, []string{"alpha.txt", "Beta.txt", "Gamma.txt"}},
		{"descending", Options{SortAscending: false}, []string{"Gamma.txt", "Beta.txt", "alpha.txt"}},
		{"query", Options{SortAscending: true, SearchQuery: "ga"}, []string{"Gamma.txt"}},
		{"query upper", Options{SortAscending: true, SearchQuery: "  GA "}, []string{"Gamma.txt"}},
		{"no match", Options{SortAscending: true, SearchQuery: "zzz"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Scan(context.Background(), root, tc.opts)
			if err != nil {
				t.Fatalf("Scan returned error: %v", err)
			}
			equalNames(t, res.Entries, tc.want...)
			if len(res.Listing) != 3 {
				t.Errorf("expected 3 listed entries, got %d", len(res.Listing))
			}
		})
	}
}

func TestScan_Hidden(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("dot files are not hidden by attribute on windows")
	}
	root := mkTree(t, []string{"dir1", ".hidden_dir"}, []string{"file1.txt", ".hidden_file"})

	res, err := Scan(context.Background(), root, Options{SortAscending: true})
	if err != nil {
		t.Fatal(err)
	}
	equalNames(t, res.Entries, "dir1", "file1.txt")

	res, err = Scan(context.Background(), root, Options{SortAscending: true, ShowHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 4 {
		t.Errorf("expected 4 entries with hidden shown, got %v", names(res.Entries))
	}
}

func TestScan_HiddenListFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip(".hidden lists are a linux file manager convention")
	}
	root := mkTree(t, nil, []string{"keep.txt", "secret.txt"})
	if err := os.WriteFile(filepath.Join(root, ".hidden"), []byte("secret.txt\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Scan(context.Background(), root, Options{SortAscending: true})
	if err != nil {
		t.Fatal(err)
	}
	equalNames(t, res.Entries, "keep.txt")
}

func TestScan_Idempotent(t *testing.T) {
	root := mkTree(t, []string{"sub"}, []string{"b", "A", "c"})
	opts := Options{SortAscending: true}

	first, err := Scan(context.Background(), root, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(context.Background(), root, opts)
	if err != nil {
		t.Fatal(err)
	}
	equalNames(t, second.Entries, names(first.Entries)...)
}

func TestScan_NonExistent(t *testing.T) {
	_, err := Scan(context.Background(), "/nonexistent/path/that/does/not/exist", Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestScan_NotDirectory(t *testing.T) {
	root := mkTree(t, nil, []string{"file.txt"})
	_, err := Scan(context.Background(), filepath.Join(root, "file.txt"), Options{})
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestScan_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	root := mkTree(t, []string{"locked"}, nil)
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	if _, err := Scan(context.Background(), locked, Options{}); err == nil {
		t.Error("expected error for unreadable directory")
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := mkTree(t, nil, []string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, root, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScan_SymlinkHandling(t *testing.T) {
	tmpDir := t.TempDir()

	realDir := filepath.Join(tmpDir, "realdir")
	if err := os.Mkdir(realDir, 0755); err != nil {
		t.Fatal(err)
	}
	realFile := filepath.Join(tmpDir, "realfile.txt")
	if err := os.WriteFile(realFile, []byte("real content"), 0644); err != nil {
		t.Fatal(err)
	}

	linkToDir := filepath.Join(tmpDir, "linkdir")
	if err := os.Symlink(realDir, linkToDir); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "broken")); err != nil {
		t.Fatal(err)
	}

	res, err := Scan(context.Background(), tmpDir, Options{SortAscending: true})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	entryMap := make(map[string]Entry)
	for _, e := range res.Entries {
		entryMap[e.Name] = e
	}

	// Symlink to directory should appear as a directory (following symlink)
	if e, ok := entryMap["linkdir"]; !ok || !e.IsDir {
		t.Errorf("symlink to directory should appear as directory: %+v", e)
	}
	if _, ok := entryMap["broken"]; !ok {
		t.Error("broken symlink should still be listed")
	}
}

func TestScan_EntryFields(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("hello world")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Scan(context.Background(), tmpDir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Entries))
	}

	e := res.Entries[0]
	if e.Name != "test.txt" {
		t.Errorf("expected Name='test.txt', got %q", e.Name)
	}
	if e.Path != testFile || e.ID() != testFile {
		t.Errorf("expected Path=%q, got %q", testFile, e.Path)
	}
	if e.IsDir {
		t.Error("expected IsDir=false")
	}
	if e.Size != int64(len(content)) {
		t.Errorf("expected Size=%d, got %d", len(content), e.Size)
	}
	if time.Since(e.ModTime) > time.Minute {
		t.Errorf("ModTime seems too old: %v", e.ModTime)
	}
}

func TestSortAndFilter_OrderIndependent(t *testing.T) {
	a := []Entry{
		{Name: "readme", Path: "/r/readme"},
		{Name: "README", Path: "/r/README"},
		{Name: "b", Path: "/r/b"},
		{Name: "A", Path: "/r/A"},
	}
	b := []Entry{a[2], a[1], a[3], a[0]}

	for _, asc := range []bool{true, false} {
		x := names(SortAndFilter(a, "", asc, ""))
		y := names(SortAndFilter(b, "", asc, ""))
		for i := range x {
			if x[i] != y[i] {
				t.Fatalf("asc=%v: order depends on input: %v vs %v", asc, x, y)
			}
		}
	}

	asc := names(SortAndFilter(a, "", true, ""))
	desc := names(SortAndFilter(a, "", false, ""))
	for i := range asc {
		if asc[i] != desc[len(desc)-1-i] {
			t.Fatalf("descending is not the reverse of ascending: %v vs %v", asc, desc)
		}
	}

	if a[0].Name != "readme" {
		t.Error("input slice was modified")
	}
}

func TestSystem_Start_ScanDir(t *testing.T) {
	tmpDir := mkTree(t, nil, []string{"test.txt"})

	s := NewSystem()
	go s.Start()
	defer s.Stop()

	s.RequestChan <- Request{
		Op:       ScanDir,
		Path:     tmpDir,
		FolderID: "f1",
		Options:  Options{SortAscending: true},
		Gen:      1,
	}

	select {
	case resp := <-s.ResponseChan:
		if resp.Err != nil {
			t.Fatalf("unexpected error: %v", resp.Err)
		}
		if resp.Gen != 1 || resp.FolderID != "f1" {
			t.Errorf("expected gen=1 folder=f1, got gen=%d folder=%s", resp.Gen, resp.FolderID)
		}
		if resp.Cancelled {
			t.Error("scan should not be cancelled")
		}
		if len(resp.Result.Entries) != 1 {
			t.Errorf("expected 1 entry, got %d", len(resp.Result.Entries))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for response")
	}
}

// blockingScan waits until the scan is cancelled or released.
func blockingScan(release <-chan struct{}) ScanFunc {
	return func(ctx context.Context, root string, opts Options) (Result, error) {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-release:
			return Result{Entries: []Entry{{Name: root}}}, nil
		}
	}
}

func TestSystem_LatestRequestWins(t *testing.T) {
	release := make(chan struct{})
	s := NewSystem()
	s.Scan = blockingScan(release)
	go s.Start()
	defer s.Stop()

	s.RequestChan <- Request{Op: ScanDir, Path: "first", Gen: 1}
	s.RequestChan <- Request{Op: ScanDir, Path: "second", Gen: 2}

	// The first scan is cancelled by the second request.
	select {
	case resp := <-s.ResponseChan:
		if resp.Gen != 1 || !resp.Cancelled {
			t.Fatalf("expected cancelled gen 1, got gen=%d cancelled=%v", resp.Gen, resp.Cancelled)
		}
		if len(resp.Result.Entries) != 0 {
			t.Error("cancelled response must not carry entries")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for cancelled response")
	}

	close(release)
	select {
	case resp := <-s.ResponseChan:
		if resp.Gen != 2 || resp.Cancelled {
			t.Fatalf("expected live gen 2, got gen=%d cancelled=%v", resp.Gen, resp.Cancelled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for response")
	}
}

func TestSystem_CancelScan(t *testing.T) {
	s := NewSystem()
	s.Scan = blockingScan(make(chan struct{}))
	go s.Start()
	defer s.Stop()

	s.RequestChan <- Request{Op: ScanDir, Path: "x", Gen: 7}
	s.RequestChan <- Request{Op: CancelScan}

	select {
	case resp := <-s.ResponseChan:
		if !resp.Cancelled || resp.Gen != 7 {
			t.Errorf("expected cancelled gen 7, got %+v", resp)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for cancelled response")
	}
}

func TestSystem_StopClosesResponses(t *testing.T) {
	s := NewSystem()
	s.Scan = blockingScan(make(chan struct{}))
	done := make(chan struct{})
	go func() {
		s.Start()
		close(done)
	}()

	s.RequestChan <- Request{Op: ScanDir, Path: "x", Gen: 1}
	s.Stop()

	var got int
	for range s.ResponseChan {
		got++
	}
	<-done
	if got != 1 {
		t.Errorf("expected the in-flight scan to report once, got %d", got)
	}
}

func TestWithin(t *testing.T) {
	sep := string(filepath.Separator)
	root := filepath.Join(sep+"a", "b")
	testCases := []struct {
		path string
		want bool
	}{
		{root, true},
		{root + sep, true},
		{filepath.Join(root, "c"), true},
		{filepath.Join(root, "c", "d"), true},
		{filepath.Join(sep+"a", "bc"), false},
		{sep + "a", false},
		{filepath.Join(root, "..", "x"), false},
	}
	for _, tc := range testCases {
		if got := Within(root, tc.path); got != tc.want {
			t.Errorf("Within(%q, %q) = %v, want %v", root, tc.path, got, tc.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tmpDir := t.TempDir()
	real, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Canonicalize(filepath.Join(tmpDir, "x", ".."))
	if err != nil {
		t.Fatal(err)
	}
	if got != real {
		t.Errorf("expected %q, got %q", real, got)
	}

	// Missing tail is kept verbatim below the resolved ancestor.
	got, err = Canonicalize(filepath.Join(tmpDir, "missing", "leaf"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(real, "missing", "leaf"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func BenchmarkScan(b *testing.B) {
	tmpDir := b.TempDir()
	for i := 0; i < 100; i++ {
		f := filepath.Join(tmpDir, "file"+string(rune('a'+i%26))+string(rune('0'+i/26))+".txt")
		os.WriteFile(f, []byte("content"), 0644)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Scan(context.Background(), tmpDir, Options{SortAscending: true})
	}
}
