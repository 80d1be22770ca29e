package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filedrap/internal/bookmarks"
	"github.com/justyntemme/filedrap/internal/fs"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd(opts *globalOptions) *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Saved folder operations (list, add, pick, remove)",
		Long:  `Commands for managing the list of saved folders.`,
	}

	foldersCmd.AddCommand(newFoldersListCmd(opts))
	foldersCmd.AddCommand(newFoldersAddCmd(opts))
	foldersCmd.AddCommand(newFoldersPickCmd(opts))
	foldersCmd.AddCommand(newFoldersRemoveCmd(opts))

	return foldersCmd
}

func newFoldersListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved folders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				snap := s.engine.Snapshot()
				if len(snap.Folders) == 0 {
					fmt.Fprintln(s.out, "No saved folders. Add one with: filedrap folders add <path>")
					return nil
				}
				w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPATH")
				for _, f := range snap.Folders {
					fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, f.Path)
				}
				return w.Flush()
			})
		},
	}
}

func newFoldersAddCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Save one or more folders",
		Long: `Save folders so they can be browsed later. Adding a folder that is
already saved is a no-op.

Example:
  filedrap folders add ~/Documents ~/Downloads`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				var errs []error
				for _, p := range args {
					f, err := s.engine.AddFolder(p)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprintf(s.out, "Saved %s (%s)\n", f.Path, f.ID)
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newFoldersPickCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a folder with the desktop folder picker and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				f, ok, err := s.engine.PickAndAddFolder(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(s.out, "Cancelled")
					return nil
				}
				fmt.Fprintf(s.out, "Saved %s (%s)\n", f.Path, f.ID)
				return nil
			})
		},
	}
}

func newFoldersRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|name|path>",
		Aliases: []string{"rm"},
		Short:   "Forget a saved folder. Nothing on disk is touched.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, false, func(s *session) error {
				f, err := findFolder(s.engine.Snapshot().Folders, args[0])
				if err != nil {
					return err
				}
				if err := s.engine.RemoveFolder(f.ID); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "Removed %s\n", f.Path)
				return nil
			})
		},
	}
}

// findFolder resolves a folder by ID, then name, then path.
func findFolder(folders []bookmarks.Folder, ref string) (bookmarks.Folder, error) {
	for _, f := range folders {
		if f.ID == ref {
			return f, nil
		}
	}
	var byName []bookmarks.Folder
	for _, f := range folders {
		if strings.EqualFold(f.Name, ref) {
			byName = append(byName, f)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
	default:
		return bookmarks.Folder{}, fmt.Errorf("%q matches %d folders; use the ID", ref, len(byName))
	}
	if canon, err := fs.Canonicalize(ref); err == nil {
		for _, f := range folders {
			if f.Path == canon {
				return f, nil
			}
		}
	}
	return bookmarks.Folder{}, fmt.Errorf("no saved folder matches %q", ref)
}

// containingFolder returns the saved folder with the deepest root that
// contains path.
func containingFolder(folders []bookmarks.Folder, path string) (bookmarks.Folder, bool) {
	var best bookmarks.Folder
	found := false
	for _, f := range folders {
		if !fs.Within(f.Path, path) {
			continue
		}
		if !found || len(f.Path) > len(best.Path) {
			best, found = f, true
		}
	}
	return best, found
}

// relativeDirs returns the directories between root and dir, outermost
// first, as absolute paths.
func relativeDirs(root, dir string) []string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return nil
	}
	var out []string
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		out = append(out, cur)
	}
	return out
}
