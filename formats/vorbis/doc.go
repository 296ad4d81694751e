// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams through
// github.com/jfreymuth/oggvorbis.
//
// Vorbis decodes to float natively, so samples are handed over without
// conversion. Reads are trimmed to whole frames; a dst shorter than one
// frame reads nothing.
//
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 1024*src.Channels())
//	n, err := src.ReadSamples(buf)
package vorbis
