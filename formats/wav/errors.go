// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrUnsupportedBitDepth  = errors.New("unsupported WAV bit depth")

	// ErrRecorderClosed is returned by Write after Close.
	ErrRecorderClosed = errors.New("wav recorder closed")
	// ErrInvalidRecorder is returned for a non-positive rate or channel count.
	ErrInvalidRecorder = errors.New("invalid wav recorder format")
)
