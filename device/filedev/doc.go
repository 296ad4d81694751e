// SPDX-License-Identifier: EPL-2.0

// Package filedev is a device.Host backed by files.
//
// The "file-in" device plays an audio file decoded through an
// audio.Registry (WAV, AIFF, MP3 and Ogg Vorbis by default). The file is
// resampled and channel mapped to whatever the stream asks for. The
// "file-out" device records to a 16-bit WAV file.
//
//	host := filedev.New[float32, int16](filedev.Options{
//	    Input:     "in.mp3",
//	    Output:    "out.wav",
//	    StopAtEOF: true,
//	})
//	b, err := soundstream.Open(host, soundstream.DefaultConfig())
//
// # Pacing
//
// By default both devices run on the clock: input becomes available at
// the sample rate and output drains at the same rate. Input left unread
// for more than four device buffers is dropped and reported as
// device.ErrInputOverflowed; output that runs dry is recorded as silence
// and reported as device.ErrOutputUnderflowed. Unpaced streams serve
// and accept four buffers on every query and never glitch, which turns
// a copy into a fast offline conversion.
//
// # Callback mode
//
// A callback stream runs the callback on its own goroutine once per
// buffer period, or back to back when unpaced, until it returns
// Complete or Abort, the stream is stopped, or the input ends with
// StopAtEOF set.
package filedev
