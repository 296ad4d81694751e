// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Resampler streams from src at a different sample rate using cubic
// interpolation over a four frame window. Works on interleaved samples
// and preserves the channel count. A one-pole low-pass runs on the
// source when downsampling.
//
// When the source already runs at the target rate Resampler is a
// pass-through.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames per output frame
	channels int

	// window[0] = t-1, window[1] = t0, window[2] = t+1, window[3] = t+2
	window [4][]float32
	filled [4]bool
	primed bool

	pos    float64
	srcBuf []float32
	eof    bool

	lowPass bool
	alpha   float32
	lastOut []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		ratio:    ratio,
		channels: channels,
		srcBuf:   make([]float32, channels),
		lowPass:  ratio > 1.0,
		alpha:    0.5,
		lastOut:  make([]float32, channels),
	}

	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples produces samples at the target rate. dst length must be
// a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if r.src.SampleRate() == r.dstRate {
		return r.src.ReadSamples(dst)
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	want := len(dst) / r.channels
	written := 0

	for written < want {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.filled[1] || !r.filled[2] {
			return written * r.channels, io.EOF
		}

		t := float32(r.pos)
		base := written * r.channels

		for c := range r.channels {
			y1 := r.window[1][c]
			y2 := r.window[2][c]

			y0 := y1
			if r.filled[0] {
				y0 = r.window[0][c]
			}

			y3 := y2
			if r.filled[3] {
				y3 = r.window[3][c]
			}

			dst[base+c] = cubicInterpolate(y0, y1, y2, y3, t)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}

// prime fills the window with the first four source frames. A short
// source repeats its last frame.
func (r *Resampler) prime() error {
	r.primed = true

	for i := range r.window {
		ok, err := r.readFrame(r.window[i])
		if ok {
			r.filled[i] = true
			if i == 0 && r.lowPass {
				copy(r.lastOut, r.window[0])
			}
		}

		if err == nil {
			continue
		}

		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w", err)
		}

		r.eof = true
		if i == 0 && !ok {
			return io.EOF
		}

		last := i
		if !ok {
			last = i - 1
		}
		for j := last + 1; j < len(r.window); j++ {
			copy(r.window[j], r.window[last])
			r.filled[j] = true
		}

		return nil
	}

	return nil
}

// advance shifts the window one frame.
func (r *Resampler) advance() error {
	first := r.window[0]
	copy(r.window[:], r.window[1:])
	r.window[3] = first
	copy(r.filled[:], r.filled[1:])
	r.filled[3] = false

	if !r.eof {
		ok, err := r.readFrame(r.window[3])
		r.filled[3] = ok

		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w", err)
			}
			r.eof = true
		}
	}

	if !r.filled[2] {
		return io.EOF
	}

	return nil
}

// readFrame reads exactly one frame into dst and applies the low-pass.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	n, err := r.src.ReadSamples(r.srcBuf)
	if n < r.channels {
		if err == nil {
			err = io.EOF
		}
		return false, err
	}

	copy(dst, r.srcBuf)

	if r.lowPass {
		for c := range r.channels {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.lastOut[c]
			r.lastOut[c] = dst[c]
		}
	}

	return true, err
}

// cubicInterpolate evaluates a Catmull-Rom spline between y1 and y2.
// t is the fractional position (0 <= t <= 1).
func cubicInterpolate(y0, y1, y2, y3, t float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*t*t*t + a1*t*t + a2*t + a3
}
