// Package fserr defines the error taxonomy shared by ondisk, blockio
// and engine, and maps each sentinel to the POSIX-style negative error
// code an adaptor boundary would return.
package fserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// fsError is a sentinel file system error. Callers compare against the
// package-level values below with errors.Is; code that needs the wire
// errno calls Errno on the matched sentinel.
type fsError struct {
	msg   string
	errno int
}

func (e *fsError) Error() string { return e.msg }

// Errno returns the POSIX-style negative error code for this sentinel,
// per spec.md §7.
func (e *fsError) Errno() int { return e.errno }

var (
	// ErrNotFound is returned when a path does not name an existing
	// slot. Maps to ENOENT.
	ErrNotFound = &fsError{"no such file", -2}

	// ErrExists is returned when a path is already in use, or an
	// attempt is made to create a duplicate. Maps to EEXIST.
	ErrExists = &fsError{"file exists", -17}

	// ErrNoSpace is returned when the directory table is full or the
	// data region is exhausted. Maps to ENOSPC.
	ErrNoSpace = &fsError{"no space left on device", -28}

	// ErrTooManyOpen is returned when the open-handle cap is reached.
	// Maps to EMFILE.
	ErrTooManyOpen = &fsError{"too many open files", -24}

	// ErrBusy is returned when unlink is attempted on an open file.
	// Maps to EBUSY.
	ErrBusy = &fsError{"device or resource busy", -16}

	// ErrAlreadyOpen is returned on a double open of the same file.
	// Maps to EPERM.
	ErrAlreadyOpen = &fsError{"operation not permitted", -1}

	// ErrInvalidArgument is returned for a path that is too long, or a
	// negative offset or length. Maps to EINVAL.
	ErrInvalidArgument = &fsError{"invalid argument", -22}

	// ErrBadHandle is returned when release/operate is attempted on a
	// closed handle. Maps to EBADF.
	ErrBadHandle = &fsError{"bad file descriptor", -9}

	// ErrIO is the sentinel wrapped around any block I/O failure
	// surfaced from the blockio.Device. It has no fixed POSIX code of
	// its own; EIO (-5) is used.
	ErrIO = &fsError{"input/output error", -5}
)

// Errno extracts the POSIX-style code for err, walking wrapped errors
// via errors.Cause. Unrecognised errors map to -1 (EPERM), matching
// spec.md §7's "errors never panic the engine" policy: the adaptor
// boundary always has something returnable.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	cause := errors.Cause(err)
	if e, ok := cause.(*fsError); ok {
		return e.Errno()
	}
	return -1
}

// WrapIO wraps a block I/O failure with ErrIO, keeping the stack frame
// that observed it and the description of what was being attempted.
// errors.Cause(result) == ErrIO, so Errno(result) still resolves to
// EIO, while result.Error() retains the original failure's message.
func WrapIO(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(ErrIO, fmt.Sprintf(format, args...)+": "+err.Error())
}

// Logger is the diagnostics sink the core consumes. Its concrete
// implementation is deliberately an external collaborator (spec.md
// §1); the only implementation this package provides is NopLogger
// below, which discards every message.
type Logger interface {
	Logf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...any) {}

// NopLogger discards everything. Used as the default when no Logger is
// supplied to engine.Init.
var NopLogger Logger = nopLogger{}
