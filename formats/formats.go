// SPDX-License-Identifier: EPL-2.0

// Package formats wires the decoders under formats/ into an
// audio.Registry keyed by file extension.
package formats

import (
	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/formats/aiff"
	"github.com/ik5/soundstream/formats/mp3"
	"github.com/ik5/soundstream/formats/vorbis"
	"github.com/ik5/soundstream/formats/wav"
)

// Register adds every known decoder to r.
func Register(r *audio.Registry) {
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
}

// NewRegistry returns a registry holding every known decoder.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	Register(r)
	return r
}
