// SPDX-License-Identifier: EPL-2.0

package soundstream

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/rate"
	"github.com/ik5/soundstream/stream"
)

// Open validates cfg and opens a blocking stream on host. On failure
// nothing is left open.
func Open[I, O audio.Sample](host device.Host[I, O], cfg Config) (*stream.Blocking[I, O], error) {
	var b *stream.Blocking[I, O]

	err := start(host, cfg, nil, func(dev device.Stream[I, O], p plan) error {
		var err error
		b, err = stream.NewBlocking(host, dev, stream.Options{
			Input:        p.in,
			Output:       p.out,
			Cadence:      p.cadence,
			Logger:       p.log,
			OnError:      cfg.OnError,
			Now:          cfg.Now,
			PollInterval: cfg.PollInterval,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// OpenCallback validates cfg and opens a stream on host that calls fn
// once per device buffer. The update cadence fields are ignored. On
// failure nothing is left open.
func OpenCallback[I, O audio.Sample](host device.Host[I, O], cfg Config, fn stream.Callback[I, O]) (*stream.NonBlocking[I, O], error) {
	if fn == nil {
		return nil, configErr("callback", "must not be nil", nil)
	}

	var n *stream.NonBlocking[I, O]

	adapt := func(p plan) device.Callback[I, O] {
		return stream.Adapt(fn, p.in, p.out)
	}

	err := start(host, cfg, adapt, func(dev device.Stream[I, O], p plan) error {
		n = stream.NewNonBlocking(host, dev, p.log)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

// ListDevices returns the devices of host.
func ListDevices[I, O audio.Sample](host device.Host[I, O]) ([]device.Info, error) {
	if err := host.Initialize(); err != nil {
		return nil, device.Wrap("initialize", err)
	}
	defer terminate(slog.Default(), host)

	infos, err := host.Devices()
	return infos, device.Wrap("devices", err)
}

// plan is a Config resolved against the host's devices.
type plan struct {
	params  device.OpenParams
	in, out *audio.Settings
	cadence rate.Cadence
	log     *slog.Logger
}

// start brackets the device calls shared by both open modes. wrap turns
// the opened stream into a handle; when it fails the stream is released.
func start[I, O audio.Sample](
	host device.Host[I, O],
	cfg Config,
	callback func(plan) device.Callback[I, O],
	wrap func(device.Stream[I, O], plan) error,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := host.Initialize(); err != nil {
		return device.Wrap("initialize", err)
	}

	p, err := resolve(host, cfg, audio.FormatOf[I](), audio.FormatOf[O]())
	if err != nil {
		log := cfg.Logger
		if log == nil {
			log = slog.Default()
		}
		terminate(log, host)
		return err
	}

	p.log.Debug("opening stream",
		"host", host.Name(),
		"sample_rate", p.params.SampleRate,
		"frames", p.params.FramesPerBuffer,
		"flags", p.params.Flags,
		"cadence", p.cadence)

	var cb device.Callback[I, O]
	if callback != nil {
		cb = callback(p)
	}

	dev, err := host.Open(p.params, cb)
	if err != nil {
		terminate(p.log, host)
		return device.Wrap("open", err)
	}

	if err := dev.Start(); err != nil {
		release(p.log, host, dev)
		return device.Wrap("start", err)
	}

	if err := wrap(dev, p); err != nil {
		release(p.log, host, dev)
		return err
	}

	return nil
}

func terminate[I, O audio.Sample](log *slog.Logger, host device.Host[I, O]) {
	if err := host.Terminate(); err != nil {
		log.Error("terminating host", "host", host.Name(), "err", err)
	}
}

func release[I, O audio.Sample](log *slog.Logger, host device.Host[I, O], dev device.Stream[I, O]) {
	if err := stream.Release(host, dev); err != nil {
		log.Error("releasing a stream that failed to open", "err", err)
	}
}

func resolve[I, O audio.Sample](host device.Host[I, O], cfg Config, inFmt, outFmt audio.Format) (plan, error) {
	p := plan{log: cfg.Logger}
	if p.log == nil {
		p.log = slog.Default()
	}

	inCfg, outCfg := cfg.Input, cfg.Output
	if inCfg == nil && outCfg == nil {
		inCfg, outCfg = &DirectionConfig{}, &DirectionConfig{}
	}

	var (
		inInfo, outInfo device.Info
		err             error
	)

	if inCfg != nil {
		if inInfo, err = pick(host, inCfg.Device, host.DefaultInputDevice); err != nil {
			return plan{}, device.Wrap("input device", err)
		}
		if inInfo.MaxInputChannels < 1 {
			return plan{}, device.Wrap("input device",
				fmt.Errorf("%w: %q has no input channels", device.ErrInvalidChannelCount, inInfo.Name))
		}

		p.params.Input = &device.StreamParams{
			Device:   inInfo.Index,
			Channels: channels(inCfg.Channels, inInfo.MaxInputChannels),
			Format:   inFmt,
			Latency:  latency(inCfg.Latency, inInfo.DefaultLowInputLatency),
		}
	}

	if outCfg != nil {
		if outInfo, err = pick(host, outCfg.Device, host.DefaultOutputDevice); err != nil {
			return plan{}, device.Wrap("output device", err)
		}
		if outInfo.MaxOutputChannels < 1 {
			return plan{}, device.Wrap("output device",
				fmt.Errorf("%w: %q has no output channels", device.ErrInvalidChannelCount, outInfo.Name))
		}

		p.params.Output = &device.StreamParams{
			Device:   outInfo.Index,
			Channels: channels(outCfg.Channels, outInfo.MaxOutputChannels),
			Format:   outFmt,
			Latency:  latency(outCfg.Latency, outInfo.DefaultLowOutputLatency),
		}
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		info := inInfo
		if inCfg == nil {
			info = outInfo
		}
		sampleRate = int(math.Round(info.DefaultSampleRate))
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}

	frames, err := cfg.frames(sampleRate)
	if err != nil {
		return plan{}, err
	}

	p.params.SampleRate = sampleRate
	p.params.FramesPerBuffer = frames
	p.params.Flags = cfg.Flags

	field, cadence, err := cfg.cadence()
	if err != nil {
		return plan{}, err
	}
	p.cadence = cadence

	if sp := p.params.Input; sp != nil {
		p.in = &audio.Settings{SampleRate: sampleRate, Frames: frames, Channels: sp.Channels}
	}
	if sp := p.params.Output; sp != nil {
		p.out = &audio.Settings{SampleRate: sampleRate, Frames: frames, Channels: sp.Channels}
	}

	dev := audio.Settings{SampleRate: sampleRate, Frames: frames, Channels: 1}
	if _, err := cadence.TargetFrames(dev); err != nil {
		return plan{}, configErr(field, "does not fit the device buffer", err)
	}

	return p, nil
}

// pick returns the device with the given index, or the default one.
func pick(host interface{ Devices() ([]device.Info, error) }, index *int, fallback func() (device.Info, error)) (device.Info, error) {
	if index == nil {
		return fallback()
	}

	infos, err := host.Devices()
	if err != nil {
		return device.Info{}, err
	}

	for _, info := range infos {
		if info.Index == *index {
			return info, nil
		}
	}

	return device.Info{}, fmt.Errorf("%w: no device %d", device.ErrInvalidDevice, *index)
}

func channels(requested, available int) int {
	if requested == 0 {
		return min(audio.DefaultChannels, available)
	}
	return min(requested, available)
}

func latency(requested, fallback time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	return fallback
}
