// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMapper converts a source to a different channel count.
//
// Downmixing to mono averages every source channel. Other downmixes keep
// the first channels. Upmixing from mono copies the single channel to
// every output; other upmixes repeat source channels in order.
type ChannelMapper struct {
	src Source
	out int
	tmp []float32
}

func NewChannelMapper(src Source, channels int) *ChannelMapper {
	return &ChannelMapper{
		src: src,
		out: channels,
		tmp: make([]float32, 4096),
	}
}

// NewMonoMixer is a ChannelMapper that averages down to one channel.
func NewMonoMixer(src Source) *ChannelMapper {
	return NewChannelMapper(src, 1)
}

func (m *ChannelMapper) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMapper) Channels() int   { return m.out }
func (m *ChannelMapper) BufSize() int    { return m.src.BufSize() }

func (m *ChannelMapper) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *ChannelMapper) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.out != 0 {
		return 0, ErrInvalidDstSize
	}

	in := m.src.Channels()
	if in == m.out {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.out
	need := frames * in
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	got := n / in

	switch {
	case m.out == 1:
		scale := 1 / float32(in)
		for f := range got {
			var sum float32
			for _, v := range m.tmp[f*in : f*in+in] {
				sum += v
			}
			dst[f] = sum * scale
		}
	default:
		for f := range got {
			src := m.tmp[f*in : f*in+in]
			out := dst[f*m.out : f*m.out+m.out]
			for c := range out {
				out[c] = src[c%in]
			}
		}
	}

	return got * m.out, err
}
