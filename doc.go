// SPDX-License-Identifier: EPL-2.0

// Package soundstream opens audio devices as streams of events at a rate
// the caller chooses, independent of the buffer size the driver uses.
//
// # Quick Start
//
// Open a duplex stream on the default devices and copy input to output:
//
//	host := portaudio.NewHost[float32, float32]()
//	s, err := soundstream.Open(host, soundstream.Config{UpdatesPerBuffer: 4})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	var last []float32
//	for ev := range s.Events(ctx) {
//		switch ev.Kind {
//		case stream.KindInput:
//			last = ev.Input
//		case stream.KindOutput:
//			ev.Output.Copy(last)
//		case stream.KindUpdate:
//			// ev.Delta since the previous update
//		}
//	}
//
// # Callback Mode
//
// OpenCallback hands every device buffer to a function running on the
// driver's goroutine:
//
//	n, err := soundstream.OpenCallback(host, cfg, func(b *stream.Buffers[float32, float32]) stream.Result {
//		copy(b.Out, b.In)
//		return stream.Continue
//	})
//
// # Configuration
//
// Config is validated once, when the stream is opened. Every invalid
// field is reported as a *ConfigError matching ErrInvalidConfiguration.
// Device failures are *device.Error values naming the failed operation.
//
// # Packages
//
//   - stream: the event scheduler and both drivers
//   - rate: update cadence to window size
//   - ring: the sample queues between device and caller
//   - device: the driver interface, with portaudio and filedev backends
//   - audio: sample types, conversion and the file decoding pipeline
//   - formats: WAV, MP3, Ogg Vorbis and AIFF decoders
package soundstream
