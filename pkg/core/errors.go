package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidName    = errors.New("invalid component name")
	ErrUnknownTask    = errors.New("unknown task")
	ErrNotInitialized = errors.New("project is not initialized")
)

// Kind classifies an Error.
type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindFileSystem Kind = "filesystem"
	KindIO         Kind = "io"
	KindCompile    Kind = "compile"
	KindInvalid    Kind = "invalid"
)

// Error is the error type returned by scaffolding and pipeline operations.
// Op names the operation ("init", "component", "templates", ...) and Path the
// file or directory involved, when there is one.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Kind, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s %s", e.Op, e.Kind, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap annotates err with a kind, operation and path. It returns nil when err is nil.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	if kind == "" {
		kind = KindUnknown
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
