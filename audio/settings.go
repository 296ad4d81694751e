// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Default stream format, CD quality with a short device buffer.
const (
	DefaultSampleRate = 44100
	DefaultFrames     = 256
	DefaultChannels   = 2
)

// Settings describes one direction of a running stream.
type Settings struct {
	// SampleRate in Hz.
	SampleRate int `mapstructure:"sample_rate"`
	// Frames per buffer. A frame holds one sample per channel.
	Frames int `mapstructure:"frames"`
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels int `mapstructure:"channels"`
}

// DefaultSettings returns 44100 Hz, 256 frames, 2 channels.
func DefaultSettings() Settings {
	return Settings{
		SampleRate: DefaultSampleRate,
		Frames:     DefaultFrames,
		Channels:   DefaultChannels,
	}
}

// BufferSize is the length of one interleaved buffer in samples.
func (s Settings) BufferSize() int {
	return s.Frames * s.Channels
}

// Validate reports the first non-positive field.
func (s Settings) Validate() error {
	switch {
	case s.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidSettings, s.SampleRate)
	case s.Frames <= 0:
		return fmt.Errorf("%w: frames %d", ErrInvalidSettings, s.Frames)
	case s.Channels <= 0:
		return fmt.Errorf("%w: channels %d", ErrInvalidSettings, s.Channels)
	}

	return nil
}

func (s Settings) String() string {
	return fmt.Sprintf("%dHz/%dfr/%dch", s.SampleRate, s.Frames, s.Channels)
}
