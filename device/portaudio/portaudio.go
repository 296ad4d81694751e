// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	pa "github.com/gordonklaus/portaudio"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
)

// Host drives the default PortAudio host API.
type Host[I, O audio.Sample] struct {
	log *slog.Logger

	mu      sync.Mutex
	devices []*pa.DeviceInfo
}

// New returns a Host logging to log, or to slog.Default when nil.
func New[I, O audio.Sample](log *slog.Logger) *Host[I, O] {
	if log == nil {
		log = slog.Default()
	}
	return &Host[I, O]{log: log.With("driver", "portaudio")}
}

func (h *Host[I, O]) Name() string { return "portaudio" }

// Initialize and Terminate nest the way Pa_Initialize and Pa_Terminate
// do.
func (h *Host[I, O]) Initialize() error { return paErr(pa.Initialize()) }
func (h *Host[I, O]) Terminate() error  { return paErr(pa.Terminate()) }

func (h *Host[I, O]) Devices() ([]device.Info, error) {
	devs, err := h.refresh()
	if err != nil {
		return nil, err
	}

	infos := make([]device.Info, len(devs))
	for i, d := range devs {
		infos[i] = info(d)
	}
	return infos, nil
}

func (h *Host[I, O]) refresh() ([]*pa.DeviceInfo, error) {
	devs, err := pa.Devices()
	if err != nil {
		return nil, paErr(err)
	}

	h.mu.Lock()
	h.devices = devs
	h.mu.Unlock()

	return devs, nil
}

func (h *Host[I, O]) DefaultInputDevice() (device.Info, error) {
	d, err := pa.DefaultInputDevice()
	if err != nil {
		return device.Info{}, fmt.Errorf("%w: %w", device.ErrInvalidDevice, paErr(err))
	}
	return info(d), nil
}

func (h *Host[I, O]) DefaultOutputDevice() (device.Info, error) {
	d, err := pa.DefaultOutputDevice()
	if err != nil {
		return device.Info{}, fmt.Errorf("%w: %w", device.ErrInvalidDevice, paErr(err))
	}
	return info(d), nil
}

func info(d *pa.DeviceInfo) device.Info {
	return device.Info{
		Index:                    d.Index,
		Name:                     d.Name,
		MaxInputChannels:         d.MaxInputChannels,
		MaxOutputChannels:        d.MaxOutputChannels,
		DefaultSampleRate:        d.DefaultSampleRate,
		DefaultLowInputLatency:   d.DefaultLowInputLatency,
		DefaultLowOutputLatency:  d.DefaultLowOutputLatency,
		DefaultHighInputLatency:  d.DefaultHighInputLatency,
		DefaultHighOutputLatency: d.DefaultHighOutputLatency,
	}
}

// lookup finds the PortAudio device with index.
func (h *Host[I, O]) lookup(index int) (*pa.DeviceInfo, error) {
	h.mu.Lock()
	devs := h.devices
	h.mu.Unlock()

	if devs == nil {
		var err error
		if devs, err = h.refresh(); err != nil {
			return nil, err
		}
	}

	for _, d := range devs {
		if d.Index == index {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: no device %d", device.ErrInvalidDevice, index)
}

// Open opens a PortAudio stream. Blocking streams read and write through
// buffers bound at open time; callback streams run cb on PortAudio's
// thread.
func (h *Host[I, O]) Open(p device.OpenParams, cb device.Callback[I, O]) (device.Stream[I, O], error) {
	if p.Input == nil && p.Output == nil {
		return nil, fmt.Errorf("%w: no direction", device.ErrInvalidChannelCount)
	}

	params := pa.StreamParameters{
		SampleRate:      float64(p.SampleRate),
		FramesPerBuffer: p.FramesPerBuffer,
		Flags:           flags(p.Flags),
	}

	s := &Stream[I, O]{log: h.log}

	if sp := p.Input; sp != nil {
		if err := supported(sp.Format); err != nil {
			return nil, err
		}
		d, err := h.lookup(sp.Device)
		if err != nil {
			return nil, err
		}
		params.Input = pa.StreamDeviceParameters{Device: d, Channels: sp.Channels, Latency: sp.Latency}
		s.inCh = sp.Channels
	}

	if sp := p.Output; sp != nil {
		if err := supported(sp.Format); err != nil {
			return nil, err
		}
		d, err := h.lookup(sp.Device)
		if err != nil {
			return nil, err
		}
		params.Output = pa.StreamDeviceParameters{Device: d, Channels: sp.Channels, Latency: sp.Latency}
		s.outCh = sp.Channels
	}

	var err error
	if cb == nil {
		s.stream, err = pa.OpenStream(params, s.buffers()...)
	} else {
		s.cb = cb
		s.signals = make(chan device.Signal, 1)
		s.stream, err = pa.OpenStream(params, s.callback())
	}
	if err != nil {
		return nil, paErr(err)
	}

	s.log.Debug("portaudio stream opened",
		"sample_rate", p.SampleRate,
		"frames", p.FramesPerBuffer,
		"input_channels", s.inCh,
		"output_channels", s.outCh,
		"callback", cb != nil)

	return s, nil
}

func supported(f audio.Format) error {
	switch f {
	case audio.FormatFloat32, audio.FormatInt32, audio.FormatInt16, audio.FormatInt8, audio.FormatUint8:
		return nil
	}
	return fmt.Errorf("%w: %v", device.ErrUnsupportedFormat, f)
}

func flags(f device.Flags) pa.StreamFlags {
	var out pa.StreamFlags
	for _, m := range []struct {
		from device.Flags
		to   pa.StreamFlags
	}{
		{device.ClipOff, pa.ClipOff},
		{device.DitherOff, pa.DitherOff},
		{device.NeverDropInput, pa.NeverDropInput},
		{device.PrimeOutputBuffersUsingCallback, pa.PrimeOutputBuffersUsingCallback},
	} {
		if f&m.from != 0 {
			out |= m.to
		}
	}
	return out
}

func status(f pa.StreamCallbackFlags) device.StatusFlags {
	var out device.StatusFlags
	for _, m := range []struct {
		from pa.StreamCallbackFlags
		to   device.StatusFlags
	}{
		{pa.InputUnderflow, device.InputUnderflow},
		{pa.InputOverflow, device.InputOverflow},
		{pa.OutputUnderflow, device.OutputUnderflow},
		{pa.OutputOverflow, device.OutputOverflow},
		{pa.PrimingOutput, device.PrimingOutput},
	} {
		if f&m.from != 0 {
			out |= m.to
		}
	}
	return out
}

// paErr maps PortAudio's overflow and underflow codes to the device
// package errors.
func paErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pa.InputOverflowed):
		return fmt.Errorf("%w: %w", device.ErrInputOverflowed, err)
	case errors.Is(err, pa.OutputUnderflowed):
		return fmt.Errorf("%w: %w", device.ErrOutputUnderflowed, err)
	case errors.Is(err, pa.NotInitialized):
		return fmt.Errorf("%w: %w", device.ErrNotInitialized, err)
	case errors.Is(err, pa.StreamIsStopped):
		return fmt.Errorf("%w: %w", device.ErrNotStarted, err)
	}
	return err
}

// Stream is a device.Stream over a PortAudio stream.
type Stream[I, O audio.Sample] struct {
	stream *pa.Stream
	log    *slog.Logger

	inCh, outCh int

	// in and out are the buffers bound to a blocking stream. Read and
	// Write point them at the caller's slice.
	in  []I
	out []O

	cb      device.Callback[I, O]
	signal  atomic.Int32
	signals chan device.Signal
	watch   sync.WaitGroup

	active atomic.Bool
	closed atomic.Bool
}

func (s *Stream[I, O]) buffers() []any {
	var bufs []any
	if s.inCh > 0 {
		bufs = append(bufs, &s.in)
	}
	if s.outCh > 0 {
		bufs = append(bufs, &s.out)
	}
	return bufs
}

// callback returns a function with the signature gordonklaus/portaudio
// expects for the stream's directions.
func (s *Stream[I, O]) callback() any {
	switch {
	case s.inCh > 0 && s.outCh > 0:
		return func(in []I, out []O, t pa.StreamCallbackTimeInfo, f pa.StreamCallbackFlags) {
			s.invoke(in, out, len(out)/s.outCh, t, f)
		}
	case s.inCh > 0:
		return func(in []I, t pa.StreamCallbackTimeInfo, f pa.StreamCallbackFlags) {
			s.invoke(in, nil, len(in)/s.inCh, t, f)
		}
	default:
		return func(out []O, t pa.StreamCallbackTimeInfo, f pa.StreamCallbackFlags) {
			s.invoke(nil, out, len(out)/s.outCh, t, f)
		}
	}
}

func (s *Stream[I, O]) invoke(in []I, out []O, frames int, t pa.StreamCallbackTimeInfo, f pa.StreamCallbackFlags) {
	if device.Signal(s.signal.Load()) != device.Continue {
		audio.FillSilence(out)
		return
	}

	sig := s.cb(in, out, device.CallbackInfo{Frames: frames, Time: t.CurrentTime, Flags: status(f)})
	if sig == device.Continue {
		return
	}

	s.signal.Store(int32(sig))
	select {
	case s.signals <- sig:
	default:
	}
}

// watcher stops the stream once the callback has asked for it.
func (s *Stream[I, O]) watcher() {
	defer s.watch.Done()

	sig, ok := <-s.signals
	if !ok {
		return
	}

	var err error
	if sig == device.Abort {
		err = s.stream.Abort()
	} else {
		err = s.stream.Stop()
	}
	s.active.Store(false)

	if err != nil {
		s.log.Error("stopping stream after callback", "signal", sig, "err", err)
	}
}

func (s *Stream[I, O]) Start() error {
	if s.closed.Load() {
		return device.ErrClosed
	}

	s.signal.Store(int32(device.Continue))
	if err := s.stream.Start(); err != nil {
		return paErr(err)
	}
	s.active.Store(true)

	if s.cb != nil {
		s.watch.Add(1)
		go s.watcher()
	}

	return nil
}

func (s *Stream[I, O]) Stop() error {
	return s.halt(s.stream.Stop)
}

func (s *Stream[I, O]) Abort() error {
	return s.halt(s.stream.Abort)
}

func (s *Stream[I, O]) halt(fn func() error) error {
	if s.closed.Load() {
		return device.ErrClosed
	}
	if !s.active.Swap(false) {
		return nil
	}

	s.signal.Store(int32(device.Abort))
	err := fn()

	if s.cb != nil {
		select {
		case s.signals <- device.Abort:
		default:
		}
		s.watch.Wait()
	}

	return paErr(err)
}

func (s *Stream[I, O]) Close() error {
	if s.closed.Load() {
		return nil
	}
	if err := s.Stop(); err != nil {
		s.log.Warn("stopping stream before close", "err", err)
	}

	s.closed.Store(true)
	if s.signals != nil {
		close(s.signals)
		s.watch.Wait()
	}

	return paErr(s.stream.Close())
}

func (s *Stream[I, O]) IsActive() (bool, error) {
	if s.closed.Load() {
		return false, device.ErrClosed
	}
	return s.active.Load(), nil
}

func (s *Stream[I, O]) ReadAvailable() (int, error) {
	if s.inCh == 0 {
		return 0, device.ErrNoInput
	}
	n, err := s.stream.AvailableToRead()
	return n, paErr(err)
}

func (s *Stream[I, O]) WriteAvailable() (int, error) {
	if s.outCh == 0 {
		return 0, device.ErrNoOutput
	}
	n, err := s.stream.AvailableToWrite()
	return n, paErr(err)
}

// Read blocks until dst is full. The stream reads as many frames as the
// bound buffer holds, so dst is bound for the duration of the call.
func (s *Stream[I, O]) Read(dst []I) error {
	if s.inCh == 0 {
		return device.ErrNoInput
	}
	s.in = dst
	return paErr(s.stream.Read())
}

func (s *Stream[I, O]) Write(src []O) error {
	if s.outCh == 0 {
		return device.ErrNoOutput
	}
	s.out = src
	return paErr(s.stream.Write())
}
