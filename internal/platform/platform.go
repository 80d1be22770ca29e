// Package platform launches the desktop's file handlers: opening files,
// revealing them in the file manager, and the native folder picker.
package platform

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/justyntemme/filedrap/internal/debug"
)

// ErrNoPicker is returned when no folder picker is installed.
var ErrNoPicker = errors.New("no folder picker available")

// command is one external program invocation.
type command struct {
	name string
	args []string
}

// Desktop implements the engine's Opener and Picker against the running
// desktop session.
type Desktop struct {
	// start launches a command without waiting; output runs one to
	// completion. Both are replaced in tests.
	start  func(c command) error
	output func(ctx context.Context, c command) ([]byte, error)
}

func NewDesktop() *Desktop {
	return &Desktop{start: startCommand, output: outputCommand}
}

// Open opens path with its default application.
func (d *Desktop) Open(path string) error {
	c := openCommand(path)
	debug.Log(debug.APP, "Open: %s %v", c.name, c.args)
	if err := d.start(c); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// Reveal shows path selected in the file manager. Where the file manager
// cannot select items, the containing folder is opened.
func (d *Desktop) Reveal(path string) error {
	c := revealCommand(path)
	debug.Log(debug.APP, "Reveal: %s %v", c.name, c.args)
	if err := d.start(c); err != nil {
		return fmt.Errorf("reveal %s: %w", path, err)
	}
	return nil
}

// PickFolder asks the user for a folder. ok is false when the user
// cancelled.
func (d *Desktop) PickFolder(ctx context.Context) (path string, ok bool, err error) {
	candidates := pickerCommands()
	for _, c := range candidates {
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		out, err := d.output(ctx, c)
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				return "", false, nil
			}
			return "", false, fmt.Errorf("%s: %w", c.name, err)
		}
		path = strings.TrimRight(string(out), "\r\n")
		if path == "" {
			return "", false, nil
		}
		return path, true, nil
	}
	return "", false, ErrNoPicker
}

func startCommand(c command) error {
	cmd := exec.Command(c.name, c.args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child so it does not linger as a zombie.
	go cmd.Wait()
	return nil
}

func outputCommand(ctx context.Context, c command) ([]byte, error) {
	return exec.CommandContext(ctx, c.name, c.args...).Output()
}
