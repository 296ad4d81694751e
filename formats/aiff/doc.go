// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 or 32 bits is supported, with any channel
// count and sample rate. The byte order is handled by go-audio and the
// samples come out as float32 in [-1, 1]:
//
//	f, _ := os.Open("input.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // ...
//	}
//
// Register the decoder with audio.Registry under "aif" and "aiff" to
// open such files through the file device.
package aiff
