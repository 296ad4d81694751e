// SPDX-License-Identifier: EPL-2.0

// Package portaudio is a device.Host for sound hardware through
// github.com/gordonklaus/portaudio.
//
// The binding needs cgo and the PortAudio library, so it is only built
// with the portaudio build tag:
//
//	go build -tags portaudio ./...
//
// Without the tag, New returns a Host whose Initialize fails with
// ErrUnavailable, which keeps callers compiling everywhere.
//
// # Sample formats
//
// PortAudio takes float32, int32, int16, int8 and uint8 buffers. Other
// sample types fail at Open with device.ErrUnsupportedFormat.
//
// # Callbacks
//
// gordonklaus/portaudio callbacks cannot end the stream themselves. A
// callback that returns Complete or Abort has its later buffers
// silenced while a watcher goroutine stops or aborts the stream.
package portaudio
