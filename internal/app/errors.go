package app

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors by how they are recovered.
type Kind int

const (
	// KindValidation: the request was rejected before touching the disk.
	KindValidation Kind = iota + 1
	// KindMutation: a rename, trash or open call failed in the OS.
	KindMutation
	// KindScan: listing the browsing directory failed.
	KindScan
	// KindConfinement: the browsing path left its folder and was reset.
	KindConfinement
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindMutation:
		return "mutation"
	case KindScan:
		return "scan"
	case KindConfinement:
		return "confinement"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrInvalidName       = errors.New("name cannot contain a path separator")
	ErrDestinationExists = errors.New("an item with that name already exists")
	ErrOutsideRoot       = errors.New("path is outside the selected folder")
	ErrVanished          = errors.New("folder no longer exists")
	ErrNoFolderSelected  = errors.New("no folder selected")
	ErrUnknownFolder     = errors.New("unknown folder")
	ErrUnsupported       = errors.New("not supported on this system")
)

// Error is returned by engine operations. Its message is what the engine
// publishes as Snapshot.ErrorMessage.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func validationError(op, path string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Path: path, Err: err}
}

func mutationError(op, path string, err error) *Error {
	return &Error{Kind: KindMutation, Op: op, Path: path, Err: err}
}

// scanMessage is the published message for a failed listing.
func scanMessage(err error) string {
	return fmt.Sprintf("Failed to load files: %v", err)
}
