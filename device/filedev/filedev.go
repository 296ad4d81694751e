// SPDX-License-Identifier: EPL-2.0

package filedev

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/formats"
)

// Device indexes.
const (
	InputIndex  = 0
	OutputIndex = 1
)

const (
	defaultLatency = 10 * time.Millisecond
	// backlogBuffers is how many device buffers each direction holds
	// before input overflows or output stops taking data.
	backlogBuffers = 4
)

// Options configures a Host.
type Options struct {
	// Input is the audio file read by the "file-in" device. Empty
	// leaves the host without an input device.
	Input string
	// Output is the WAV file written by the "file-out" device. Empty
	// leaves the host without an output device.
	Output string

	// Registry picks the input decoder by extension. nil means
	// formats.NewRegistry().
	Registry *audio.Registry

	// SampleRate is the devices' default rate. Zero uses the rate of
	// the input file, then audio.DefaultSampleRate.
	SampleRate int
	// Channels caps both devices. Zero uses the input file's channel
	// count for "file-in" and audio.DefaultChannels for "file-out".
	Channels int

	// Unpaced serves input and drains output as fast as they are asked
	// for instead of at the sample rate.
	Unpaced bool
	// Loop rewinds the input file at its end.
	Loop bool
	// StopAtEOF ends the input at the end of the file: blocking reads
	// fail with io.EOF and a callback stream stops. Otherwise the input
	// continues with silence.
	StopAtEOF bool

	// Now defaults to time.Now. It paces both directions.
	Now func() time.Time
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Host is a device.Host over files. It is safe for concurrent use.
type Host[I, O audio.Sample] struct {
	opts Options
	log  *slog.Logger

	mu    sync.Mutex
	inits int
	probe *probe
}

// probe is what the input file's header says.
type probe struct {
	sampleRate int
	channels   int
}

// New returns a Host for opts.
func New[I, O audio.Sample](opts Options) *Host[I, O] {
	if opts.Registry == nil {
		opts.Registry = formats.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Host[I, O]{
		opts: opts,
		log:  log.With("driver", "file"),
	}
}

func (h *Host[I, O]) Name() string { return "file" }

func (h *Host[I, O]) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.inits++
	return nil
}

func (h *Host[I, O]) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inits == 0 {
		return device.ErrNotInitialized
	}
	h.inits--
	return nil
}

func (h *Host[I, O]) initialized() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inits == 0 {
		return device.ErrNotInitialized
	}
	return nil
}

func (h *Host[I, O]) Devices() ([]device.Info, error) {
	var infos []device.Info

	if h.opts.Input != "" {
		in, err := h.DefaultInputDevice()
		if err != nil {
			return nil, err
		}
		infos = append(infos, in)
	}

	if h.opts.Output != "" {
		out, err := h.DefaultOutputDevice()
		if err != nil {
			return nil, err
		}
		infos = append(infos, out)
	}

	if infos == nil {
		if err := h.initialized(); err != nil {
			return nil, err
		}
	}

	return infos, nil
}

func (h *Host[I, O]) DefaultInputDevice() (device.Info, error) {
	if err := h.initialized(); err != nil {
		return device.Info{}, err
	}
	if h.opts.Input == "" {
		return device.Info{}, fmt.Errorf("%w: no input file", device.ErrInvalidDevice)
	}

	p, err := h.probeInput()
	if err != nil {
		return device.Info{}, err
	}

	return device.Info{
		Index:                   InputIndex,
		Name:                    "file-in",
		MaxInputChannels:        h.channels(p.channels),
		DefaultSampleRate:       float64(h.sampleRate(p)),
		DefaultLowInputLatency:  defaultLatency,
		DefaultHighInputLatency: backlogBuffers * defaultLatency,
	}, nil
}

func (h *Host[I, O]) DefaultOutputDevice() (device.Info, error) {
	if err := h.initialized(); err != nil {
		return device.Info{}, err
	}
	if h.opts.Output == "" {
		return device.Info{}, fmt.Errorf("%w: no output file", device.ErrInvalidDevice)
	}

	var p probe
	if h.opts.Input != "" {
		var err error
		if p, err = h.probeInput(); err != nil {
			return device.Info{}, err
		}
	}

	return device.Info{
		Index:                    OutputIndex,
		Name:                     "file-out",
		MaxOutputChannels:        h.channels(audio.DefaultChannels),
		DefaultSampleRate:        float64(h.sampleRate(p)),
		DefaultLowOutputLatency:  defaultLatency,
		DefaultHighOutputLatency: backlogBuffers * defaultLatency,
	}, nil
}

func (h *Host[I, O]) channels(fallback int) int {
	if h.opts.Channels > 0 {
		return h.opts.Channels
	}
	return fallback
}

func (h *Host[I, O]) sampleRate(p probe) int {
	switch {
	case h.opts.SampleRate > 0:
		return h.opts.SampleRate
	case p.sampleRate > 0:
		return p.sampleRate
	}
	return audio.DefaultSampleRate
}

// probeInput decodes the input header once.
func (h *Host[I, O]) probeInput() (probe, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.probe != nil {
		return *h.probe, nil
	}

	src, err := h.decode()
	if err != nil {
		return probe{}, err
	}
	defer src.Close()

	h.probe = &probe{sampleRate: src.SampleRate(), channels: src.Channels()}
	return *h.probe, nil
}

// decode opens the input file. Closing the Source closes the file.
func (h *Host[I, O]) decode() (audio.Source, error) {
	dec, ok := h.opts.Registry.ForPath(h.opts.Input)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrNoDecoder, h.opts.Input, h.opts.Registry.Formats())
	}

	f, err := os.Open(h.opts.Input)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decoding %q: %w", h.opts.Input, err)
	}

	return src, nil
}

// Open opens a stream on "file-in", "file-out" or both. A nil cb opens
// a blocking stream.
func (h *Host[I, O]) Open(p device.OpenParams, cb device.Callback[I, O]) (device.Stream[I, O], error) {
	if err := h.initialized(); err != nil {
		return nil, err
	}

	if err := h.check(p); err != nil {
		return nil, err
	}

	return newStream(h, p, cb)
}

func (h *Host[I, O]) check(p device.OpenParams) error {
	switch {
	case p.Input == nil && p.Output == nil:
		return fmt.Errorf("%w: no direction", device.ErrInvalidChannelCount)
	case p.SampleRate <= 0 || p.FramesPerBuffer <= 0:
		return fmt.Errorf("%w: %d Hz, %d frames", audio.ErrInvalidSettings, p.SampleRate, p.FramesPerBuffer)
	}

	if sp := p.Input; sp != nil {
		if h.opts.Input == "" || sp.Device != InputIndex {
			return fmt.Errorf("%w: %d is not an input device", device.ErrInvalidDevice, sp.Device)
		}
		if sp.Channels < 1 {
			return fmt.Errorf("%w: %d input channels", device.ErrInvalidChannelCount, sp.Channels)
		}
	}

	if sp := p.Output; sp != nil {
		if h.opts.Output == "" || sp.Device != OutputIndex {
			return fmt.Errorf("%w: %d is not an output device", device.ErrInvalidDevice, sp.Device)
		}
		if sp.Channels < 1 {
			return fmt.Errorf("%w: %d output channels", device.ErrInvalidChannelCount, sp.Channels)
		}
	}

	return nil
}
