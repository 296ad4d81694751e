// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer PCM readers to audio.Source.
package pcm

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// Reader is the part of the go-audio wav and aiff decoders a Source
// needs. It is an interface so tests can fake it.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source reads integer PCM from a Reader and normalizes it to float32.
type Source struct {
	dec      Reader
	format   *goaudio.Format
	bitDepth int
	closer   io.Closer
	intBuf   *goaudio.IntBuffer

	scale, offset float32
	exhausted     bool
}

// NewSource returns a Source over dec. format must carry the sample
// rate and channel count. unsigned8 marks 8-bit data stored as unsigned
// bytes, as WAV does. The optional closer is closed by Close.
func NewSource(dec Reader, format *goaudio.Format, bitDepth int, unsigned8 bool, closer io.Closer) *Source {
	s := &Source{
		dec:      dec,
		format:   format,
		bitDepth: bitDepth,
		closer:   closer,
		scale:    fullScale(bitDepth),
	}
	if unsigned8 && bitDepth == 8 {
		s.offset = 128
	}
	return s
}

func fullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

// Supported reports whether bitDepth can be normalized.
func Supported(bitDepth int) bool {
	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	}
	return false
}

func (s *Source) SampleRate() int { return s.format.SampleRate }
func (s *Source) Channels() int   { return s.format.NumChannels }

func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ReadSamples fills dst with normalized samples. A short read without
// error is the end of the data and is reported as io.EOF.
func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.exhausted {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, len(dst)),
			Format:         s.format,
			SourceBitDepth: s.bitDepth,
		}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	for i := range n {
		dst[i] = (float32(s.intBuf.Data[i]) - s.offset) / s.scale
	}

	switch {
	case err == io.EOF:
		s.exhausted = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	case err != nil:
		return n, err
	case n < len(dst):
		s.exhausted = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}

	return n, nil
}

// Seekable returns r as an io.ReadSeeker, reading it into memory when
// it cannot seek. The go-audio decoders need to seek.
func Seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}
