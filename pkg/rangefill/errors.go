package rangefill

import (
	"errors"
	"fmt"
)

// Failure kinds. Every job failure reported by this package wraps exactly one of
// them.
var (
	// ErrInvalidConfiguration is returned before any I/O when the job
	// configuration is unusable.
	ErrInvalidConfiguration = errors.New("rangefill: invalid configuration")

	// ErrAllocation is returned when the target file cannot be created or
	// extended to its final size. No worker is started.
	ErrAllocation = errors.New("rangefill: allocation failed")

	// ErrWrite is returned when a worker's write fails or is short.
	ErrWrite = errors.New("rangefill: write failed")

	// ErrCanceled is returned when the caller's context ends before the
	// file is complete.
	ErrCanceled = errors.New("rangefill: canceled")
)

// Error describes why a job failed.
//
// Use errors.Is with one of the Err* variables to test the kind, and
// errors.As to read BytesWritten.
type Error struct {
	Kind         error // ErrInvalidConfiguration, ErrAllocation, ErrWrite or ErrCanceled
	BytesWritten int64 // bytes committed when the failure was observed
	Err          error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidConfiguration, Err: fmt.Errorf(format, args...)}
}
