package libinput

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrContext is returned when the udev or libinput instance could not
	// be created.
	ErrContext = errors.New("failed to create libinput context")

	// ErrSeat is returned when seat assignment fails, including every call
	// after the first one on the same context.
	ErrSeat = errors.New("failed to assign seat")

	// ErrResume is returned when a suspended context cannot be resumed.
	ErrResume = errors.New("failed to resume libinput context")

	// ErrDispatch matches every *DispatchError.
	ErrDispatch = errors.New("libinput dispatch failed")

	// ErrStreamClosed is returned by EventStream.Next after Close.
	ErrStreamClosed = errors.New("event stream closed")
)

// DispatchError wraps the negative errno returned by libinput_dispatch.
type DispatchError struct {
	Errno syscall.Errno
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("libinput dispatch: %v", e.Errno)
}

// Is reports ErrDispatch as a match.
func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}

// Unwrap returns the underlying errno.
func (e *DispatchError) Unwrap() error {
	return e.Errno
}
