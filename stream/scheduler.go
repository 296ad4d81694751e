// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/rate"
	"github.com/ik5/soundstream/ring"
)

type phase int

const (
	awaitInput phase = iota
	awaitOutput
	awaitUpdate
)

// Options configures a Scheduler.
type Options struct {
	// Input and Output describe the device buffers of each direction.
	// A nil one omits that direction.
	Input  *audio.Settings
	Output *audio.Settings

	// Cadence sets the window size of both directions.
	Cadence rate.Cadence

	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// OnError is called once with the error that ended the stream.
	OnError func(error)
	// Now defaults to time.Now.
	Now func() time.Time
	// PollInterval is how long to sleep when the device has nothing
	// ready. Zero yields the processor instead.
	PollInterval time.Duration
}

// Stats counts what a Scheduler has done so far.
type Stats struct {
	Events         int
	OutputsSkipped int
	FramesRead     int
	FramesWritten  int
	Overflows      int
	Underflows     int

	// InputHighWater and OutputHighWater are the most samples ever
	// queued in each direction.
	InputHighWater  int
	OutputHighWater int
}

// Scheduler drives a blocking device.Stream and decides which event
// comes next. It is not safe for concurrent use.
type Scheduler[I, O audio.Sample] struct {
	dev device.Stream[I, O]

	hasIn, hasOut bool
	inDev, outDev audio.Settings
	inWin, outWin audio.Settings

	in       *ring.Accumulator[I]
	out      *ring.Accumulator[O]
	readBuf  []I
	writeBuf []O
	window   windowSlot[O]
	lent     bool

	phase phase
	last  time.Time
	now   func() time.Time
	poll  time.Duration

	log     *slog.Logger
	onError func(error)

	// draining is set once the input reported io.EOF. No more input is
	// read; the queued windows are delivered and the stream then ends
	// with endErr.
	draining bool
	endErr   error

	done   bool
	failed bool
	err    error
	stats  Stats
}

// NewScheduler returns a Scheduler over dev, which must already be
// started. The first update is measured from this call.
func NewScheduler[I, O audio.Sample](dev device.Stream[I, O], opts Options) (*Scheduler[I, O], error) {
	if opts.Input == nil && opts.Output == nil {
		return nil, ErrNoDirection
	}

	s := &Scheduler[I, O]{
		dev:     dev,
		now:     opts.Now,
		poll:    opts.PollInterval,
		log:     opts.Logger,
		onError: opts.OnError,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	if opts.Input != nil {
		win, err := windowFor(*opts.Input, opts.Cadence)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}

		s.hasIn = true
		s.inDev, s.inWin = *opts.Input, win
		size := ring.Reservation(s.inDev.Frames, s.inDev.Channels, win.Frames)
		s.in = ring.New[I](size)
		s.readBuf = make([]I, size)
	}

	if opts.Output != nil {
		win, err := windowFor(*opts.Output, opts.Cadence)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}

		s.hasOut = true
		s.outDev, s.outWin = *opts.Output, win
		s.out = ring.New[O](ring.Reservation(s.outDev.Frames, s.outDev.Channels, win.Frames))
		s.writeBuf = make([]O, s.outDev.BufferSize())
		s.window.buf = make([]O, win.BufferSize())
	}

	if s.hasIn && s.hasOut {
		switch {
		case s.inDev.SampleRate != s.outDev.SampleRate:
			return nil, fmt.Errorf("%w: %d and %d", ErrRateMismatch, s.inDev.SampleRate, s.outDev.SampleRate)
		case s.inDev.Frames != s.outDev.Frames:
			return nil, fmt.Errorf("%w: %d and %d", ErrFramesMismatch, s.inDev.Frames, s.outDev.Frames)
		}
	}

	s.phase = s.first()
	s.last = s.now()

	return s, nil
}

func windowFor(dev audio.Settings, c rate.Cadence) (audio.Settings, error) {
	if err := dev.Validate(); err != nil {
		return audio.Settings{}, err
	}
	return c.Window(dev)
}

// Next returns the next event. It returns false once the stream has
// ended; Err reports why.
func (s *Scheduler[I, O]) Next(ctx context.Context) (Event[I, O], bool) {
	if s.done {
		return Event[I, O]{}, false
	}

	s.commit()

	for {
		if err := ctx.Err(); err != nil {
			s.stop(err)
			return Event[I, O]{}, false
		}

		if err := s.pump(); err != nil {
			s.fail(err)
			return Event[I, O]{}, false
		}

		if ev, ok := s.decide(); ok {
			s.stats.Events++
			return ev, true
		}

		if s.draining && s.in.Len() < s.inWin.BufferSize() {
			s.finish(ctx)
			return Event[I, O]{}, false
		}

		s.wait(ctx)
	}
}

// finish writes the queued output and ends the stream after the input
// ran out.
func (s *Scheduler[I, O]) finish(ctx context.Context) {
	if err := s.flush(ctx); err != nil {
		s.fail(err)
		return
	}

	s.log.Debug("input ended",
		"events", s.stats.Events,
		"frames_read", s.stats.FramesRead,
		"frames_written", s.stats.FramesWritten,
		"input_left", s.in.Len())
	s.stop(s.endErr)
}

// flush writes everything queued for output, padding the last device
// buffer with silence. It gives up without error when ctx is done or
// the device has not taken the output within twice its play time.
func (s *Scheduler[I, O]) flush(ctx context.Context) error {
	if !s.hasOut || s.out.Len() == 0 {
		return nil
	}

	queued := time.Duration(s.out.Len()/s.outDev.Channels) * time.Second / time.Duration(s.outDev.SampleRate)
	ctx, cancel := context.WithTimeout(ctx, 2*queued+50*time.Millisecond)
	defer cancel()

	if rem := s.out.Len() % len(s.writeBuf); rem != 0 {
		pad := make([]O, len(s.writeBuf)-rem)
		audio.FillSilence(pad)
		s.out.Append(pad...)
	}

	for s.out.Len() > 0 {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.pumpOutput(); err != nil {
			return err
		}
		if s.out.Len() > 0 {
			s.wait(ctx)
		}
	}

	return nil
}

// closeOutput commits a window the caller filled but did not hand
// back, and writes the queued output unless the stream already failed.
func (s *Scheduler[I, O]) closeOutput() error {
	if s.done && s.failed {
		return nil
	}
	if !s.done {
		s.commit()
	}

	return s.flush(context.Background())
}

// Err returns the error that ended the stream, or nil.
func (s *Scheduler[I, O]) Err() error { return s.err }

// Stats returns a snapshot of the counters.
func (s *Scheduler[I, O]) Stats() Stats { return s.stats }

// InputSettings returns the input window format, if there is an input.
func (s *Scheduler[I, O]) InputSettings() (audio.Settings, bool) {
	return s.inWin, s.hasIn
}

// OutputSettings returns the output window format, if there is an
// output.
func (s *Scheduler[I, O]) OutputSettings() (audio.Settings, bool) {
	return s.outWin, s.hasOut
}

// Buffered returns the samples currently queued in each direction.
func (s *Scheduler[I, O]) Buffered() (in, out int) {
	if s.hasIn {
		in = s.in.Len()
	}
	if s.hasOut {
		out = s.out.Len()
	}
	return in, out
}

// commit queues the window handed out by the last Output event.
func (s *Scheduler[I, O]) commit() {
	if !s.lent {
		return
	}

	s.window.revoke()
	s.lent = false
	s.out.Append(s.window.buf...)
	s.stats.OutputHighWater = max(s.stats.OutputHighWater, s.out.Len())
}

func (s *Scheduler[I, O]) pump() error {
	if s.hasIn {
		if err := s.pumpInput(); err != nil {
			return err
		}
	}
	if s.hasOut {
		return s.pumpOutput()
	}
	return nil
}

func (s *Scheduler[I, O]) pumpInput() error {
	if s.draining {
		return nil
	}

	avail, err := s.dev.ReadAvailable()
	if err != nil {
		return s.inputErr("read available", err)
	}

	frames := min(avail, s.in.CapacityRemaining()/s.inDev.Channels)
	if frames <= 0 {
		return nil
	}

	buf := s.readBuf[:frames*s.inDev.Channels]
	if err := s.dev.Read(buf); err != nil {
		if errors.Is(err, io.EOF) {
			return s.inputErr("read", err)
		}
		if err := s.glitch("read", err); err != nil {
			return err
		}
	}

	s.in.Append(buf...)
	s.stats.FramesRead += frames
	s.stats.InputHighWater = max(s.stats.InputHighWater, s.in.Len())

	return nil
}

func (s *Scheduler[I, O]) pumpOutput() error {
	avail, err := s.dev.WriteAvailable()
	if err != nil {
		return s.glitch("write available", err)
	}

	for avail >= s.outDev.Frames && s.out.Len() >= len(s.writeBuf) {
		s.out.TakeFrontInto(s.writeBuf)
		if err := s.dev.Write(s.writeBuf); err != nil {
			if err := s.glitch("write", err); err != nil {
				return err
			}
		}

		avail -= s.outDev.Frames
		s.stats.FramesWritten += s.outDev.Frames
	}

	return nil
}

// inputErr starts draining on io.EOF and otherwise handles err as a
// glitch.
func (s *Scheduler[I, O]) inputErr(op string, err error) error {
	if !errors.Is(err, io.EOF) {
		return s.glitch(op, err)
	}

	s.draining = true
	s.endErr = device.Wrap(op, err)
	s.log.Debug("input reached its end", "queued", s.in.Len())

	return nil
}

// glitch logs and counts an overflow or underflow and returns nil, or
// wraps any other error for op.
func (s *Scheduler[I, O]) glitch(op string, err error) error {
	if !device.Recoverable(err) {
		return device.Wrap(op, err)
	}

	if errors.Is(err, device.ErrInputOverflowed) {
		s.stats.Overflows++
	} else {
		s.stats.Underflows++
	}
	s.log.Warn("device glitch", "op", op, "err", err)

	return nil
}

func (s *Scheduler[I, O]) decide() (Event[I, O], bool) {
	switch s.phase {
	case awaitInput:
		n := s.inWin.BufferSize()
		if s.in.Len() < n {
			return Event[I, O]{}, false
		}

		s.phase = s.afterInput()
		return Event[I, O]{Kind: KindInput, Input: s.in.TakeFront(n), Settings: s.inWin}, true

	case awaitOutput:
		if s.out.Len() > len(s.writeBuf) {
			if !s.hasIn {
				return Event[I, O]{}, false
			}

			s.stats.OutputsSkipped++
			s.phase = awaitUpdate
			return s.decide()
		}

		audio.FillSilence(s.window.buf)
		s.lent = true
		s.phase = awaitUpdate
		return Event[I, O]{Kind: KindOutput, Output: s.window.lend(), Settings: s.outWin}, true

	default:
		now := s.now()
		delta := now.Sub(s.last)
		s.last = now

		s.phase = s.first()
		return Event[I, O]{Kind: KindUpdate, Delta: delta}, true
	}
}

func (s *Scheduler[I, O]) first() phase {
	if s.hasIn {
		return awaitInput
	}
	return awaitOutput
}

func (s *Scheduler[I, O]) afterInput() phase {
	if s.hasOut {
		return awaitOutput
	}
	return awaitUpdate
}

func (s *Scheduler[I, O]) wait(ctx context.Context) {
	if s.poll <= 0 {
		runtime.Gosched()
		return
	}

	t := time.NewTimer(s.poll)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// stop ends the sequence with err and expires any lent window.
func (s *Scheduler[I, O]) stop(err error) {
	if s.done {
		return
	}

	s.done = true
	s.err = err
	if s.lent {
		s.window.revoke()
		s.lent = false
	}
}

func (s *Scheduler[I, O]) fail(err error) {
	s.stop(err)
	s.failed = true
	s.log.Error("stream failed", "err", err, "events", s.stats.Events)

	if s.onError != nil {
		s.onError(err)
	}
}
