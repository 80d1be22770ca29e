package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/app"
	"github.com/justyntemme/filedrap/internal/fs"
)

type lsOptions struct {
	folder string
	query  string
	hidden bool
	desc   bool
}

func newLsCmd(opts *globalOptions) *cobra.Command {
	o := &lsOptions{}

	cmd := &cobra.Command{
		Use:   "ls [subdir]",
		Short: "List the contents of a saved folder",
		Long: `List one directory level of a saved folder. Without --folder the
first saved folder is used. subdir is relative to the folder root and
cannot leave it.

Example:
  filedrap ls --folder Documents --query report
  filedrap ls --folder Documents projects/2024`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				if err := s.applyListing(cmd, o); err != nil {
					return err
				}
				if len(args) == 1 {
					if err := s.enterRelative(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				return s.printListing()
			})
		},
	}

	cmd.Flags().StringVarP(&o.folder, "folder", "f", "", "Saved folder (ID, name or path)")
	cmd.Flags().StringVarP(&o.query, "query", "q", "", "Only show names containing this text")
	cmd.Flags().BoolVarP(&o.hidden, "hidden", "a", false, "Show hidden files")
	cmd.Flags().BoolVar(&o.desc, "desc", false, "Sort names in descending order")

	return cmd
}

// applyListing selects the requested folder and applies the display flags
// that were given explicitly.
func (s *session) applyListing(cmd *cobra.Command, o *lsOptions) error {
	snap := s.engine.Snapshot()
	if len(snap.Folders) == 0 {
		return app.ErrNoFolderSelected
	}
	if o.folder != "" {
		f, err := findFolder(snap.Folders, o.folder)
		if err != nil {
			return err
		}
		if err := s.engine.SelectFolder(f.ID); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("hidden") {
		s.engine.SetShowHiddenFiles(o.hidden)
	}
	if cmd.Flags().Changed("desc") {
		s.engine.SetSortAscending(!o.desc)
	}
	s.engine.SetSearchQuery(o.query)
	return s.waitIdle(cmd.Context())
}

// enterRelative walks down from the folder root one directory at a time,
// the way a user would.
func (s *session) enterRelative(ctx context.Context, rel string) error {
	root := s.engine.Snapshot().RootPath
	target := filepath.Join(root, rel)
	if !fs.Within(root, target) {
		return fmt.Errorf("%s: %w", rel, app.ErrOutsideRoot)
	}
	for _, dir := range relativeDirs(root, target) {
		s.engine.EnterDirectory(fs.Entry{Name: filepath.Base(dir), Path: dir, IsDir: true})
		if err := s.waitIdle(ctx); err != nil {
			return err
		}
		if snap := s.engine.Snapshot(); snap.ErrorMessage != "" {
			return fmt.Errorf("%s", snap.ErrorMessage)
		}
	}
	return nil
}

func (s *session) printListing() error {
	snap := s.engine.Snapshot()
	if snap.ErrorMessage != "" {
		fmt.Fprintf(s.out, "! %s\n", snap.ErrorMessage)
	}
	fmt.Fprintf(s.out, "%s\n", snap.CurrentPath)

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, e := range snap.Entries {
		kind, size := "-", humanize.Bytes(uint64(max(e.Size, 0)))
		name := e.Name
		if e.IsDir {
			kind, size, name = "d", "", e.Name+string(filepath.Separator)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, size, humanize.Time(e.ModTime), name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n", humanize.Comma(int64(len(snap.Entries)))+" entries")
	return nil
}

func newRecentCmd(opts *globalOptions) *cobra.Command {
	var clear bool
	var remove string

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recently used files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				switch {
				case clear:
					s.engine.ClearRecents()
					fmt.Fprintln(s.out, "Cleared recently used files")
					return nil
				case remove != "":
					path, err := targetPath(remove)
					if err != nil {
						return err
					}
					s.engine.RemoveRecent(path)
				}
				for i, p := range s.engine.Snapshot().Recents {
					marker := " "
					if !fs.Exists(p) {
						marker = "?"
					}
					fmt.Fprintf(s.out, "%2d %s %s\n", i+1, marker, p)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Forget all recently used files")
	cmd.Flags().StringVar(&remove, "remove", "", "Forget one recently used file")

	return cmd
}

func newOpenCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a file with its default application and remember it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				entry, err := entryFor(args[0])
				if err != nil {
					return err
				}
				if entry.IsDir {
					return fmt.Errorf("%s is a directory; use ls", entry.Path)
				}
				return s.engine.OpenEntry(entry)
			})
		},
	}
}

func newRevealCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <path>",
		Short: "Show a file or folder in the desktop file manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				entry, err := entryFor(args[0])
				if err != nil {
					return err
				}
				return s.engine.RevealInFileManager(entry)
			})
		},
	}
}

func newRenameCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename an item inside a saved folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				entry, err := s.selectContaining(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := s.engine.RenameEntry(entry, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "Renamed %s to %s\n", entry.Name, args[1])
				return nil
			})
		},
	}
}

func newTrashCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trash <path>...",
		Short: "Move items inside saved folders to the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				for _, p := range args {
					entry, err := s.selectContaining(cmd.Context(), p)
					if err != nil {
						return err
					}
					if err := s.engine.MoveToTrash(entry); err != nil {
						return err
					}
					fmt.Fprintf(s.out, "Moved %s to the trash\n", entry.Path)
				}
				return nil
			})
		},
	}
}

// selectContaining selects the saved folder holding path and returns the
// entry for it. Mutations are only allowed inside saved folders.
func (s *session) selectContaining(ctx context.Context, path string) (fs.Entry, error) {
	entry, err := entryFor(path)
	if err != nil {
		return fs.Entry{}, err
	}
	f, ok := containingFolder(s.engine.Snapshot().Folders, entry.Path)
	if !ok {
		return fs.Entry{}, fmt.Errorf("%s: %w", entry.Path, app.ErrOutsideRoot)
	}
	if err := s.engine.SelectFolder(f.ID); err != nil {
		return fs.Entry{}, err
	}
	return entry, s.waitIdle(ctx)
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var folder string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the folder listing whenever it changes",
		Long: `Browse a saved folder and reprint the listing each time it changes
on disk. When the watcher is disabled in the configuration the folder is
rescanned every --interval instead. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withSession(cmd, opts, true, func(s *session) error {
				if err := s.applyListing(cmd, &lsOptions{folder: folder}); err != nil {
					return err
				}
				if err := s.printListing(); err != nil {
					return err
				}

				var tick <-chan time.Time
				if !s.cfg.Watch.Enabled {
					t := time.NewTicker(interval)
					defer t.Stop()
					tick = t.C
				}

				last := s.engine.Snapshot().Entries
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-tick:
						s.engine.Refresh()
						continue
					case <-s.engine.Updates():
					}
					snap := s.engine.Snapshot()
					if snap.Loading || sameEntries(last, snap.Entries) {
						continue
					}
					last = snap.Entries
					s.log.Debug("listing changed", zap.Int("entries", len(last)))
					fmt.Fprintln(s.out)
					if err := s.printListing(); err != nil {
						return err
					}
				}
			})
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Saved folder (ID, name or path)")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Rescan interval when the watcher is disabled")

	return cmd
}

func sameEntries(a, b []fs.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path || a[i].Size != b[i].Size || !a[i].ModTime.Equal(b[i].ModTime) {
			return false
		}
	}
	return true
}

// targetPath canonicalizes the directory part of p but keeps its final
// element, so a symlink names the link rather than its target.
func targetPath(p string) (string, error) {
	abs, err := fs.Canonicalize(filepath.Dir(p))
	if err != nil {
		return "", err
	}
	return filepath.Join(abs, filepath.Base(p)), nil
}

// entryFor describes the item at p without following a final symlink.
func entryFor(p string) (fs.Entry, error) {
	path, err := targetPath(p)
	if err != nil {
		return fs.Entry{}, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return fs.Entry{}, err
	}
	return fs.Entry{
		Name:    info.Name(),
		Path:    path,
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
