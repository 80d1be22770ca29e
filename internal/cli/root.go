// Package cli provides the filedrap command-line interface. Every command
// drives the same session engine a graphical front end would.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justyntemme/filedrap/internal/access"
	"github.com/justyntemme/filedrap/internal/app"
	"github.com/justyntemme/filedrap/internal/config"
	"github.com/justyntemme/filedrap/internal/debug"
	"github.com/justyntemme/filedrap/internal/logging"
	"github.com/justyntemme/filedrap/internal/metrics"
	"github.com/justyntemme/filedrap/internal/platform"
	"github.com/justyntemme/filedrap/internal/store"
	"github.com/justyntemme/filedrap/internal/trash"
)

// Version information - set by main package at startup
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

// session is one engine run backed by the user's state database.
type session struct {
	cfg     config.Config
	log     *zap.Logger
	db      *store.DB
	metrics *metrics.Metrics
	engine  *app.Engine
	out     io.Writer
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "filedrap",
		Short: "Keep a set of folders at hand and browse them",
		Long: `filedrap keeps a list of saved folders, browses inside them,
and remembers the files you used recently.

Configuration is read from ~/.config/filedrap/config.json and can be
overridden with FILEDRAP_* environment variables, e.g.
FILEDRAP_BROWSER_SHOW_HIDDEN=true.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (debug log level)")
	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newFoldersCmd(opts))
	rootCmd.AddCommand(newLsCmd(opts))
	rootCmd.AddCommand(newRecentCmd(opts))
	rootCmd.AddCommand(newOpenCmd(opts))
	rootCmd.AddCommand(newRevealCmd(opts))
	rootCmd.AddCommand(newRenameCmd(opts))
	rootCmd.AddCommand(newTrashCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// withSession starts an engine for the duration of fn. The directory
// watcher only runs for long-lived commands (watch) and when enabled in the
// configuration.
func withSession(cmd *cobra.Command, opts *globalOptions, watch bool, fn func(s *session) error) error {
	mgr := config.NewManager(opts.configPath)
	if err := mgr.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := mgr.Get()
	if perr := mgr.ParseError(); perr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is invalid, using defaults: %v\n", mgr.Path(), perr)
	}

	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
	}
	if opts.verbose {
		logCfg.Level = "debug"
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()
	debug.SetLogger(log)

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	desktop := platform.NewDesktop()
	engine := app.New(app.Deps{
		KV:       db,
		Provider: access.NewDefaultProvider(),
		Picker:   desktop,
		Opener:   desktop,
		Trasher:  trash.OS{},
		Logger:   log,
		Metrics:  m,
	}, app.Options{
		ShowHidden:    cfg.Browser.ShowHidden,
		SortAscending: cfg.Browser.SortAscending,
		Locale:        locale(cfg.Browser.Locale),
		// Flags such as ls --hidden apply to one invocation; the config
		// file and FILEDRAP_BROWSER_* decide the defaults.
		TransientSettings: true,
		Watch:             watch && cfg.Watch.Enabled,
		WatchDebounce:     cfg.Watch.Debounce(),
	})
	engine.Start()
	defer engine.Close()

	s := &session{cfg: cfg, log: log, db: db, metrics: m, engine: engine, out: cmd.OutOrStdout()}
	if err := s.waitIdle(cmd.Context()); err != nil {
		return err
	}

	runErr := fn(s)

	if path := cfg.Metrics.Textfile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Warn("write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	return runErr
}

func (s *session) waitIdle(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.engine.WaitIdle(ctx)
}

// locale returns the configured collation locale, falling back to the
// POSIX locale environment. "de_DE.UTF-8" becomes "de-DE".
func locale(configured string) string {
	if configured != "" {
		return configured
	}
	for _, key := range []string{"LC_ALL", "LC_COLLATE", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return ""
}
