// SPDX-License-Identifier: EPL-2.0

package soundstream

import (
	"log/slog"
	"math"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/rate"
)

// DirectionConfig selects the device of one stream direction.
type DirectionConfig struct {
	// Device is a device index from Host.Devices. nil picks the host
	// default.
	Device *int `mapstructure:"device"`
	// Channels is clamped to what the device supports. Zero means
	// stereo, or mono on a mono device.
	Channels int `mapstructure:"channels"`
	// Latency defaults to the device's low latency.
	Latency time.Duration `mapstructure:"latency"`
}

// Config describes a stream to open. Zero fields take defaults; a zero
// Config opens a duplex stream on the default devices at their default
// rate, with 256 frame buffers and one update per buffer.
type Config struct {
	// SampleRate in Hz. Zero uses the default device rate.
	SampleRate int `mapstructure:"sample_rate"`

	// FramesPerBuffer fixes the device buffer size. BufferHz instead
	// derives it from the sample rate. At most one may be set.
	FramesPerBuffer int     `mapstructure:"frames_per_buffer"`
	BufferHz        float64 `mapstructure:"buffer_hz"`

	// Input and Output enable the directions. Leaving both nil enables
	// both with defaults.
	Input  *DirectionConfig `mapstructure:"input"`
	Output *DirectionConfig `mapstructure:"output"`

	// The update cadence. At most one may be set; none means one update
	// per device buffer.
	UpdateHz         float64 `mapstructure:"update_hz"`
	UpdateFrames     int     `mapstructure:"update_frames"`
	UpdatesPerBuffer int     `mapstructure:"updates_per_buffer"`

	Flags device.Flags `mapstructure:"flags"`

	// PollInterval is the blocking driver's sleep between empty polls.
	// Zero busy-polls.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	Logger  *slog.Logger     `mapstructure:"-"`
	OnError func(error)      `mapstructure:"-"`
	Now     func() time.Time `mapstructure:"-"`
}

// DefaultConfig returns an explicit duplex stereo stream at 44100 Hz
// with 256 frame buffers.
func DefaultConfig() Config {
	return Config{
		SampleRate:      audio.DefaultSampleRate,
		FramesPerBuffer: audio.DefaultFrames,
		Input:           &DirectionConfig{Channels: audio.DefaultChannels},
		Output:          &DirectionConfig{Channels: audio.DefaultChannels},
	}
}

// Validate checks every field that can be checked without a device.
// Errors are *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.SampleRate < 0:
		return configErr("SampleRate", "must not be negative", nil)
	case c.FramesPerBuffer < 0:
		return configErr("FramesPerBuffer", "must not be negative", nil)
	case c.BufferHz < 0 || math.IsNaN(c.BufferHz) || math.IsInf(c.BufferHz, 0):
		return configErr("BufferHz", "must be a positive number", nil)
	case c.FramesPerBuffer > 0 && c.BufferHz > 0:
		return configErr("BufferHz", "conflicts with FramesPerBuffer", nil)
	case c.PollInterval < 0:
		return configErr("PollInterval", "must not be negative", nil)
	}

	for _, d := range []struct {
		name string
		cfg  *DirectionConfig
	}{{"Input", c.Input}, {"Output", c.Output}} {
		if d.cfg == nil {
			continue
		}

		switch {
		case d.cfg.Device != nil && *d.cfg.Device < 0:
			return configErr(d.name+".Device", "must not be negative", nil)
		case d.cfg.Channels < 0:
			return configErr(d.name+".Channels", "must not be negative", nil)
		case d.cfg.Latency < 0:
			return configErr(d.name+".Latency", "must not be negative", nil)
		}
	}

	field, cadence, err := c.cadence()
	if err != nil {
		return err
	}
	if err := cadence.Validate(); err != nil {
		return configErr(field, "is not a usable cadence", err)
	}

	// With both sizes known the window can be checked now.
	if c.SampleRate > 0 && (c.FramesPerBuffer > 0 || c.BufferHz > 0) {
		frames, err := c.frames(c.SampleRate)
		if err != nil {
			return err
		}

		dev := audio.Settings{SampleRate: c.SampleRate, Frames: frames, Channels: 1}
		if _, err := cadence.TargetFrames(dev); err != nil {
			return configErr(field, "does not fit the device buffer", err)
		}
	}

	return nil
}

// cadence returns the configured cadence and the field it came from.
func (c Config) cadence() (string, rate.Cadence, error) {
	var (
		field   string
		cadence rate.Cadence
		set     int
	)

	if c.UpdateHz != 0 {
		field, cadence = "UpdateHz", rate.Hz(c.UpdateHz)
		set++
	}
	if c.UpdateFrames != 0 {
		field, cadence = "UpdateFrames", rate.Frames(c.UpdateFrames)
		set++
	}
	if c.UpdatesPerBuffer != 0 {
		field, cadence = "UpdatesPerBuffer", rate.PerBuffer(c.UpdatesPerBuffer)
		set++
	}

	if set > 1 {
		return "", rate.Cadence{}, configErr(field, "conflicts with another update cadence", nil)
	}
	if set == 0 {
		field = "UpdatesPerBuffer"
	}

	return field, cadence, nil
}

// frames resolves the device buffer size for sampleRate.
func (c Config) frames(sampleRate int) (int, error) {
	switch {
	case c.FramesPerBuffer > 0:
		return c.FramesPerBuffer, nil
	case c.BufferHz > 0:
		frames := int(math.Round(float64(sampleRate) / c.BufferHz))
		if frames < 1 {
			return 0, configErr("BufferHz", "leaves less than one frame per buffer", nil)
		}
		return frames, nil
	}

	return audio.DefaultFrames, nil
}
