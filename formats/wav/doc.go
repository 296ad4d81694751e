// SPDX-License-Identifier: EPL-2.0

// Package wav reads and records WAV files through github.com/go-audio/wav.
//
// # Decoding
//
// Decoder accepts integer PCM at 8, 16, 24 or 32 bits, any channel
// count and any sample rate. Samples come out as float32 in [-1, 1]:
//
//	f, _ := os.Open("input.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    // errors.Is(err, wav.ErrNotWavFile) ...
//	}
//	defer src.Close() // closes f
//
// Inputs that cannot seek are buffered in memory first.
//
// # Recording
//
// Recorder writes 16-bit PCM. The header sizes are fixed up by Close,
// so the destination has to be an io.WriteSeeker such as *os.File:
//
//	rec, _ := wav.NewRecorder(f, 48000, 2)
//	_ = rec.Write(samples)
//	_ = rec.Close()
//
// The file device in device/filedev uses Recorder for its output side.
package wav
