// SPDX-License-Identifier: EPL-2.0

package device

import "github.com/ik5/soundstream/audio"

// Callback processes exactly one device buffer. in is nil for output
// only streams and out is nil for input only streams. It runs on the
// driver's goroutine under a real-time deadline and must not block.
type Callback[I, O audio.Sample] func(in []I, out []O, info CallbackInfo) Signal

// Host is an audio driver.
type Host[I, O audio.Sample] interface {
	// Name identifies the backend in logs.
	Name() string

	// Initialize and Terminate bracket every other call. Calls nest;
	// each Initialize needs a matching Terminate.
	Initialize() error
	Terminate() error

	Devices() ([]Info, error)
	DefaultInputDevice() (Info, error)
	DefaultOutputDevice() (Info, error)

	// Open opens a stream. A nil cb opens a blocking stream.
	Open(p OpenParams, cb Callback[I, O]) (Stream[I, O], error)
}

// Stream is an open device handle.
type Stream[I, O audio.Sample] interface {
	Start() error
	Stop() error
	Abort() error
	Close() error

	// IsActive reports whether the stream is running. Safe to call from
	// any goroutine.
	IsActive() (bool, error)

	// ReadAvailable and WriteAvailable return the number of frames that
	// can be read or written without blocking.
	ReadAvailable() (int, error)
	WriteAvailable() (int, error)

	// Read fills dst with whole interleaved frames, blocking until
	// len(dst)/channels frames are available.
	Read(dst []I) error
	// Write queues src, blocking until there is room for all of it.
	Write(src []O) error
}
