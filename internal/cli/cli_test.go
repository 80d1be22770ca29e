package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/filedrap/internal/bookmarks"
)

// testEnv writes a config pointing at a private state database and returns
// its path.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	cfg := map[string]any{
		"storage": map[string]any{"dbPath": filepath.Join(dir, "state.db")},
		"watch":   map[string]any{"enabled": false},
		"logging": map[string]any{"level": "error"},
		"metrics": map[string]any{"textfile": filepath.Join(dir, "filedrap.prom")},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(n), 0o644))
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "filedrap", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	want := []string{"folders", "ls", "recent", "open", "reveal", "rename", "trash", "watch", "config"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, sub.Name())
			assert.NotEmpty(t, sub.Short, name)
		}
	}
}

func TestFoldersAddAndList(t *testing.T) {
	cfg := testEnv(t)
	docs := t.TempDir()

	out, err := run(t, cfg, "folders", "add", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved ")

	// Adding again is a no-op
	_, err = run(t, cfg, "folders", "add", docs)
	require.NoError(t, err)

	out, err = run(t, cfg, "folders", "list")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"), "header plus one folder: %s", out)

	_, err = run(t, cfg, "folders", "add", filepath.Join(docs, "missing"))
	assert.Error(t, err)
}

func TestLs(t *testing.T) {
	cfg := testEnv(t)
	root := t.TempDir()
	writeFiles(t, root, "b.txt", "A.txt", "report.pdf", ".secret", "sub/inner.txt")

	_, err := run(t, cfg, "folders", "add", root)
	require.NoError(t, err)

	out, err := run(t, cfg, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "A.txt")
	assert.Contains(t, out, "sub"+string(filepath.Separator))
	assert.NotContains(t, out, ".secret")
	assert.Less(t, strings.Index(out, "A.txt"), strings.Index(out, "b.txt"))

	out, err = run(t, cfg, "ls", "--hidden", "--desc")
	require.NoError(t, err)
	assert.Contains(t, out, ".secret")
	assert.Greater(t, strings.Index(out, "A.txt"), strings.Index(out, "b.txt"))

	out, err = run(t, cfg, "ls", "--query", "REP")
	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf")
	assert.NotContains(t, out, "b.txt")

	out, err = run(t, cfg, "ls", "sub")
	require.NoError(t, err)
	assert.Contains(t, out, "inner.txt")

	_, err = run(t, cfg, "ls", "../..")
	assert.Error(t, err)
}

func TestLsFlagsApplyToOneRun(t *testing.T) {
	cfg := testEnv(t)
	root := t.TempDir()
	writeFiles(t, root, "visible.txt", "zeta.txt", ".secret")

	_, err := run(t, cfg, "folders", "add", root)
	require.NoError(t, err)

	out, err := run(t, cfg, "ls", "--hidden", "--desc")
	require.NoError(t, err)
	assert.Contains(t, out, ".secret")

	out, err = run(t, cfg, "ls")
	require.NoError(t, err)
	assert.NotContains(t, out, ".secret")
	assert.Contains(t, out, "2 entries")
	assert.Less(t, strings.Index(out, "visible.txt"), strings.Index(out, "zeta.txt"))

	t.Setenv("FILEDRAP_BROWSER_SHOW_HIDDEN", "true")
	out, err = run(t, cfg, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, ".secret")
}

func TestLsWithoutFolders(t *testing.T) {
	cfg := testEnv(t)
	_, err := run(t, cfg, "ls")
	assert.Error(t, err)
}

func TestRenameAndRemove(t *testing.T) {
	cfg := testEnv(t)
	root := t.TempDir()
	writeFiles(t, root, "draft.txt")

	_, err := run(t, cfg, "folders", "add", root)
	require.NoError(t, err)

	_, err = run(t, cfg, "rename", filepath.Join(root, "draft.txt"), "final.txt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "final.txt"))
	assert.NoFileExists(t, filepath.Join(root, "draft.txt"))

	_, err = run(t, cfg, "rename", filepath.Join(root, "final.txt"), "a/b")
	assert.Error(t, err)

	outside := t.TempDir()
	writeFiles(t, outside, "x.txt")
	_, err = run(t, cfg, "rename", filepath.Join(outside, "x.txt"), "y.txt")
	assert.Error(t, err)
	assert.FileExists(t, filepath.Join(outside, "x.txt"))

	_, err = run(t, cfg, "folders", "remove", filepath.Base(root))
	require.NoError(t, err)
	out, err := run(t, cfg, "folders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved folders")
	assert.DirExists(t, root)
}

func TestTrash(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("freedesktop trash only")
	}
	cfg := testEnv(t)
	root := t.TempDir()
	writeFiles(t, root, "junk.txt")

	_, err := run(t, cfg, "folders", "add", root)
	require.NoError(t, err)
	_, err = run(t, cfg, "trash", filepath.Join(root, "junk.txt"))
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "junk.txt"))

	_, err = run(t, cfg, "trash", root)
	assert.Error(t, err, "folder roots cannot be trashed")
	assert.DirExists(t, root)
}

func TestRecentClear(t *testing.T) {
	cfg := testEnv(t)
	out, err := run(t, cfg, "recent", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared")
}

func TestConfigShowAppliesEnv(t *testing.T) {
	cfg := testEnv(t)
	t.Setenv("FILEDRAP_BROWSER_SHOW_HIDDEN", "true")

	out, err := run(t, cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"showHidden": true`)

	out, err = run(t, cfg, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfg, strings.TrimSpace(out))
}

func TestMetricsTextfileWritten(t *testing.T) {
	cfg := testEnv(t)
	_, err := run(t, cfg, "folders", "list")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "filedrap.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "filedrap_saved_folders")
}

func TestFindFolder(t *testing.T) {
	root := t.TempDir()
	folders := []bookmarks.Folder{
		{ID: "1", Name: "Docs", Path: filepath.Join(root, "a", "Docs")},
		{ID: "2", Name: "Music", Path: filepath.Join(root, "Music")},
		{ID: "3", Name: "docs", Path: filepath.Join(root, "b", "docs")},
	}

	f, err := findFolder(folders, "2")
	require.NoError(t, err)
	assert.Equal(t, "Music", f.Name)

	f, err = findFolder(folders, "music")
	require.NoError(t, err)
	assert.Equal(t, "2", f.ID)

	_, err = findFolder(folders, "docs")
	assert.ErrorContains(t, err, "matches 2 folders")

	_, err = findFolder(folders, "nope")
	assert.Error(t, err)
}

func TestContainingFolder(t *testing.T) {
	folders := []bookmarks.Folder{
		{ID: "outer", Path: "/data"},
		{ID: "inner", Path: "/data/projects"},
		{ID: "other", Path: "/database"},
	}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/data/x.txt", "outer", true},
		{"/data/projects/y", "inner", true},
		{"/database/z", "other", true},
		{"/elsewhere", "", false},
	}
	for _, tt := range tests {
		f, ok := containingFolder(folders, filepath.FromSlash(tt.path))
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, f.ID, tt.path)
	}
}

func TestRelativeDirs(t *testing.T) {
	root := filepath.FromSlash("/r")
	assert.Nil(t, relativeDirs(root, root))
	assert.Equal(t,
		[]string{filepath.FromSlash("/r/a"), filepath.FromSlash("/r/a/b")},
		relativeDirs(root, filepath.FromSlash("/r/a/b")))
}

func TestLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_COLLATE", "")
	t.Setenv("LANG", "de_DE.UTF-8")

	assert.Equal(t, "sv", locale("sv"))
	assert.Equal(t, "de-DE", locale(""))

	t.Setenv("LANG", "C")
	assert.Equal(t, "", locale(""))
}
