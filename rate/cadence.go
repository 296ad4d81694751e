// SPDX-License-Identifier: EPL-2.0

package rate

import (
	"fmt"
	"math"

	"github.com/ik5/soundstream/audio"
)

// Mode selects how a Cadence is interpreted.
type Mode int

const (
	ModePerBuffer Mode = iota
	ModeHz
	ModeFrames
)

func (m Mode) String() string {
	switch m {
	case ModeHz:
		return "hz"
	case ModeFrames:
		return "frames"
	default:
		return "per-buffer"
	}
}

// Cadence is a requested update rate. The zero value is one update per
// device buffer.
type Cadence struct {
	mode     Mode
	hz       float64
	frames   int
	explicit bool
}

// Hz requests about hz updates per second.
func Hz(hz float64) Cadence {
	return Cadence{mode: ModeHz, hz: hz}
}

// Frames requests windows of exactly n frames.
func Frames(n int) Cadence {
	return Cadence{mode: ModeFrames, frames: n}
}

// PerBuffer splits each device buffer into n windows. n must be 1 or a
// positive multiple of two.
func PerBuffer(n int) Cadence {
	return Cadence{mode: ModePerBuffer, frames: n, explicit: true}
}

// Mode returns how c is interpreted.
func (c Cadence) Mode() Mode { return c.mode }

func (c Cadence) divisor() int {
	if !c.explicit {
		return 1
	}
	return c.frames
}

// Validate checks c on its own, without a device.
func (c Cadence) Validate() error {
	switch c.mode {
	case ModeHz:
		if !(c.hz > 0) || math.IsInf(c.hz, 0) {
			return fmt.Errorf("%w: update rate %v Hz must be positive", ErrInvalidCadence, c.hz)
		}
	case ModeFrames:
		if c.frames <= 0 {
			return fmt.Errorf("%w: update frames %d must be positive", ErrInvalidCadence, c.frames)
		}
	default:
		d := c.divisor()
		if d <= 0 || (d != 1 && d%2 != 0) {
			return fmt.Errorf("%w: updates per buffer %d must be 1 or a positive multiple of two", ErrInvalidCadence, d)
		}
	}

	return nil
}

// TargetFrames returns the user window size in frames for dev.
func (c Cadence) TargetFrames(dev audio.Settings) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if dev.SampleRate <= 0 || dev.Frames <= 0 {
		return 0, fmt.Errorf("%w: device %v", ErrInvalidCadence, dev)
	}

	var target int

	switch c.mode {
	case ModeHz:
		bufferHz := float64(dev.SampleRate) / float64(dev.Frames)
		perBuffer := c.hz / bufferHz
		target = int(math.Round(float64(dev.Frames) / perBuffer))
	case ModeFrames:
		target = c.frames
	default:
		target = dev.Frames / c.divisor()
	}

	if target < 1 {
		return 0, fmt.Errorf("%w: %v resolves to %d frames", ErrInvalidCadence, c, target)
	}
	if target != dev.Frames && target > dev.Frames/2 {
		return 0, fmt.Errorf("%w: %v resolves to %d frames, must equal %d or be at most %d",
			ErrInvalidCadence, c, target, dev.Frames, dev.Frames/2)
	}

	return target, nil
}

// Window returns dev with Frames replaced by the target window size.
func (c Cadence) Window(dev audio.Settings) (audio.Settings, error) {
	frames, err := c.TargetFrames(dev)
	if err != nil {
		return audio.Settings{}, err
	}

	dev.Frames = frames
	return dev, nil
}

func (c Cadence) String() string {
	switch c.mode {
	case ModeHz:
		return fmt.Sprintf("%gHz", c.hz)
	case ModeFrames:
		return fmt.Sprintf("%d frames", c.frames)
	default:
		return fmt.Sprintf("%d per buffer", c.divisor())
	}
}

// IsZero reports whether c is the default cadence.
func (c Cadence) IsZero() bool {
	return c == Cadence{}
}
