// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"
	"io"

	goaiff "github.com/go-audio/aiff"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/formats/internal/pcm"
)

type Decoder struct{}

// Decode parses the COMM chunk of r. AIFF samples are signed and big
// endian; go-audio handles the byte order. When r is an io.Closer,
// closing the returned Source closes r.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcm.Seekable(r)
	if err != nil {
		return nil, fmt.Errorf("reading aiff data: %w", err)
	}

	dec := goaiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	depth := int(dec.BitDepth)
	if !pcm.Supported(depth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		return nil, ErrUnsupportedAiffLayout
	}

	closer, _ := r.(io.Closer)

	return pcm.NewSource(dec, format, depth, false, closer), nil
}
