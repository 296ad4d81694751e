// SPDX-License-Identifier: EPL-2.0

// Package audio holds the sample model shared by every stream and the
// small processing primitives used by virtual devices.
//
// # Settings
//
// Settings describes one direction of a stream:
//
//	s := audio.DefaultSettings() // 44100 Hz, 256 frames, 2 channels
//	n := s.BufferSize()          // 512 interleaved samples
//
// # Samples
//
// Sample is a type-set constraint over the PCM representations a device
// can carry (float32, float64, int8, int16, int32, uint8, uint16 and
// uint32). Each type converts to and from a normalized float32 "wave"
// in [-1.0, 1.0]:
//
//	w := audio.ToWave(int16(16384))      // ≈ 0.5
//	u := audio.FromWave[uint8](w)        // ≈ 191
//	f := audio.Convert[float32](u)       // through the wave
//
// The wave representation is lossy but simple. Integer targets clamp to
// [-1, 1]. Unsigned types place silence at half scale, use Silence or
// FillSilence rather than the zero value when emitting quiet buffers.
//
// # Sources
//
// Source is a pull-based stream of wave samples, usually a decoded file:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// A Registry maps file extensions to Decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, ok := registry.ForPath("voice.wav")
//
// # Conforming
//
// Resampler changes the sample rate with cubic interpolation and
// ChannelMapper changes the channel count. Chained together they adapt
// any decoded file to the format a stream expects:
//
//	src = audio.NewResampler(src, 48000)
//	src = audio.NewChannelMapper(src, 2)
//
// The stream engine itself never resamples or mixes, these types exist
// for virtual devices that feed files into a stream.
//
// # Error Handling
//
// Sources return io.EOF when no more data is available.
package audio
