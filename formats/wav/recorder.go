// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/soundstream/audio"
)

const recordDepth = 16

// Recorder writes normalized samples to a 16-bit PCM WAV file. The
// header sizes are filled in by Close, so w must seek.
type Recorder struct {
	enc    *gowav.Encoder
	buf    *goaudio.IntBuffer
	frames int
	closed bool
}

// NewRecorder writes a WAV header to w and returns a Recorder for
// interleaved samples of channels channels at sampleRate. Closing the
// Recorder does not close w.
func NewRecorder(w io.WriteSeeker, sampleRate, channels int) (*Recorder, error) {
	if sampleRate < 1 || channels < 1 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidRecorder, sampleRate, channels)
	}

	r := &Recorder{
		enc: gowav.NewEncoder(w, sampleRate, recordDepth, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: channels},
			SourceBitDepth: recordDepth,
		},
	}

	// An empty write puts the header in place before any data arrives.
	if err := r.enc.Write(r.buf); err != nil {
		return nil, fmt.Errorf("writing wav header: %w", err)
	}

	return r, nil
}

// Write appends interleaved samples, clipping them to [-1, 1]. A
// trailing partial frame is dropped.
func (r *Recorder) Write(samples []float32) error {
	if r.closed {
		return ErrRecorderClosed
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]

	for i, w := range samples {
		r.buf.Data[i] = int(audio.FromWave[int16](w))
	}

	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	r.frames += len(samples) / r.buf.Format.NumChannels

	return nil
}

// Frames returns the number of whole frames written.
func (r *Recorder) Frames() int { return r.frames }

// SampleRate of the recording in Hz.
func (r *Recorder) SampleRate() int { return r.buf.Format.SampleRate }

// Channels of the recording.
func (r *Recorder) Channels() int { return r.buf.Format.NumChannels }

// Close finalizes the header. Further calls do nothing.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}
