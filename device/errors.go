// SPDX-License-Identifier: EPL-2.0

package device

import (
	"errors"
	"fmt"
)

var (
	// ErrInputOverflowed means input was discarded because it was not
	// read in time. The stream keeps running.
	ErrInputOverflowed = errors.New("input overflowed")

	// ErrOutputUnderflowed means output was not written in time and the
	// driver played silence. The stream keeps running.
	ErrOutputUnderflowed = errors.New("output underflowed")

	ErrClosed              = errors.New("stream is closed")
	ErrNotInitialized      = errors.New("host is not initialized")
	ErrNotStarted          = errors.New("stream is not started")
	ErrInvalidDevice       = errors.New("invalid device")
	ErrInvalidChannelCount = errors.New("invalid channel count")
	ErrUnsupportedFormat   = errors.New("unsupported sample format")
	ErrNoInput             = errors.New("stream has no input")
	ErrNoOutput            = errors.New("stream has no output")
)

// Error is a driver failure tied to the operation that raised it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, err itself if it is already an *Error,
// and a new *Error for op otherwise.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return err
	}

	return &Error{Op: op, Err: err}
}

// Recoverable reports whether err is an overflow or underflow condition
// that leaves the stream usable.
func Recoverable(err error) bool {
	return errors.Is(err, ErrInputOverflowed) || errors.Is(err, ErrOutputUnderflowed)
}
