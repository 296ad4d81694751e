// SPDX-License-Identifier: EPL-2.0

// Package device defines the boundary between the stream engine and an
// audio driver.
//
// A Host is a driver: it is initialized once, enumerates devices and
// opens streams. A Stream is one open device handle in either blocking
// mode (Read, Write and the availability queries) or callback mode,
// where the driver invokes a Callback once per device buffer from its
// own goroutine.
//
// Host and Stream are generic over the input and output sample types so
// that buffers reach the driver without conversion.
//
// # Backends
//
//   - device/filedev   files in, WAV out, for tests and offline runs
//   - device/portaudio hardware through PortAudio (build tag portaudio)
//
// # Errors
//
// ErrInputOverflowed and ErrOutputUnderflowed are recoverable: the
// driver dropped or inserted samples but the stream is still running.
// Every other failure is wrapped in *Error with the failing operation.
package device
