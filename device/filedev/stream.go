// SPDX-License-Identifier: EPL-2.0

package filedev

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/formats/wav"
)

// Stream is a device.Stream over the host's files.
type Stream[I, O audio.Sample] struct {
	host *Host[I, O]
	log  *slog.Logger

	rate    int
	frames  int
	inCh    int
	outCh   int
	backlog int // frames
	cb      device.Callback[I, O]

	mu sync.Mutex

	src     audio.Source
	eof     bool
	inWave  []float32
	outWave []float32

	rec  *wav.Recorder
	file *os.File

	start    time.Time
	inBase   int // frames due before the current start
	outBase  int
	consumed int // input frames handed out or dropped
	produced int // output frames recorded, silence gaps included
	wrote    bool

	overflowed  bool
	underflowed bool

	active atomic.Bool
	closed bool

	stop chan struct{}
	done chan struct{}
}

func newStream[I, O audio.Sample](h *Host[I, O], p device.OpenParams, cb device.Callback[I, O]) (*Stream[I, O], error) {
	s := &Stream[I, O]{
		host:    h,
		rate:    p.SampleRate,
		frames:  p.FramesPerBuffer,
		backlog: backlogBuffers * p.FramesPerBuffer,
		cb:      cb,
	}

	log := h.log
	if p.Input != nil {
		s.inCh = p.Input.Channels
		log = log.With("input", h.opts.Input)

		if err := s.openInput(); err != nil {
			return nil, err
		}
	}

	if p.Output != nil {
		s.outCh = p.Output.Channels
		log = log.With("output", h.opts.Output)

		if err := s.openOutput(); err != nil {
			if s.src != nil {
				_ = s.src.Close()
			}
			return nil, err
		}
	}

	s.log = log
	s.log.Debug("file stream opened",
		"sample_rate", s.rate,
		"frames", s.frames,
		"input_channels", s.inCh,
		"output_channels", s.outCh,
		"paced", !h.opts.Unpaced)

	return s, nil
}

// openInput decodes the input file and conforms it to the stream rate
// and channel count.
func (s *Stream[I, O]) openInput() error {
	src, err := s.host.decode()
	if err != nil {
		return err
	}

	if src.SampleRate() != s.rate {
		src = audio.NewResampler(src, s.rate)
	}
	if src.Channels() != s.inCh {
		src = audio.NewChannelMapper(src, s.inCh)
	}

	s.src = src
	s.eof = false
	return nil
}

func (s *Stream[I, O]) openOutput() error {
	f, err := os.Create(s.host.opts.Output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	rec, err := wav.NewRecorder(f, s.rate, s.outCh)
	if err != nil {
		_ = f.Close()
		return err
	}

	s.file, s.rec = f, rec
	return nil
}

func (s *Stream[I, O]) paced() bool { return !s.host.opts.Unpaced }

// due returns the frames the clock has run through since Start.
func (s *Stream[I, O]) due() int {
	elapsed := s.host.opts.Now().Sub(s.start)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed * time.Duration(s.rate) / time.Second)
}

func (s *Stream[I, O]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return device.ErrClosed
	}
	if s.active.Load() {
		return nil
	}

	s.start = s.host.opts.Now()
	s.inBase = s.consumed
	s.outBase = s.produced
	s.active.Store(true)

	if s.cb != nil {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.run(s.stop, s.done)
	}

	return nil
}

// Stop halts the stream. In callback mode it waits for the callback
// goroutine to return.
func (s *Stream[I, O]) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return device.ErrClosed
	}
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.active.Store(false)
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	return nil
}

// Abort is Stop; nothing is queued that could be discarded.
func (s *Stream[I, O]) Abort() error { return s.Stop() }

// Close stops the stream, closes the input and finalizes the recording.
func (s *Stream[I, O]) Close() error {
	if err := s.Stop(); errors.Is(err, device.ErrClosed) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	var errs []error
	if s.src != nil {
		errs = append(errs, s.src.Close())
	}
	if s.rec != nil {
		errs = append(errs, s.rec.Close())
		errs = append(errs, s.file.Close())
	}

	s.log.Debug("file stream closed", "frames_read", s.consumed, "frames_written", s.produced)

	return errors.Join(errs...)
}

func (s *Stream[I, O]) IsActive() (bool, error) {
	return s.active.Load(), nil
}

// ReadAvailable returns the frames the clock has made due. Input that
// piles up past the backlog is dropped and the next Read reports
// device.ErrInputOverflowed. With StopAtEOF, the end of the file is
// io.EOF.
func (s *Stream[I, O]) ReadAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.inCh, device.ErrNoInput); err != nil {
		return 0, err
	}
	if s.eof && s.host.opts.StopAtEOF {
		return 0, io.EOF
	}

	if !s.paced() {
		return s.backlog, nil
	}

	avail := s.inBase + s.due() - s.consumed
	if avail > s.backlog {
		drop := avail - s.backlog
		if err := s.discard(drop); err != nil {
			return 0, err
		}
		s.overflowed = true
		avail = s.backlog
	}

	return avail, nil
}

// WriteAvailable returns the room left in the output backlog. When the
// clock has played past everything written, the gap is recorded as
// silence and the next Write reports device.ErrOutputUnderflowed.
func (s *Stream[I, O]) WriteAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.outCh, device.ErrNoOutput); err != nil {
		return 0, err
	}

	return s.room()
}

func (s *Stream[I, O]) room() (int, error) {
	if !s.paced() {
		return s.backlog, nil
	}

	played := s.outBase + s.due()
	if gap := played - s.produced; gap > 0 {
		if s.wrote {
			if err := s.silence(gap); err != nil {
				return 0, err
			}
			s.underflowed = true
		}
		s.produced = played
	}

	return s.backlog - (s.produced - played), nil
}

// Read fills dst, waiting for the clock when fewer frames are due.
func (s *Stream[I, O]) Read(dst []I) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.inCh, device.ErrNoInput); err != nil {
		return err
	}
	if len(dst)%s.inCh != 0 {
		return fmt.Errorf("%w: read of %d samples with %d channels", audio.ErrInvalidDstSize, len(dst), s.inCh)
	}

	frames := len(dst) / s.inCh
	if s.paced() {
		s.waitFor(frames, func() int { return s.inBase + s.due() - s.consumed })
	}

	if _, err := s.pull(dst); err != nil {
		return err
	}
	s.consumed += frames

	if s.overflowed {
		s.overflowed = false
		return device.ErrInputOverflowed
	}
	return nil
}

// Write records src, waiting for the clock when the backlog is full.
func (s *Stream[I, O]) Write(src []O) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(s.outCh, device.ErrNoOutput); err != nil {
		return err
	}
	if len(src)%s.outCh != 0 {
		return fmt.Errorf("%w: write of %d samples with %d channels", audio.ErrInvalidDstSize, len(src), s.outCh)
	}

	frames := len(src) / s.outCh
	if s.paced() {
		if _, err := s.room(); err != nil {
			return err
		}
		s.waitFor(frames, func() int { return s.backlog - (s.produced - s.outBase - s.due()) })
	}

	if err := s.record(src); err != nil {
		return err
	}
	s.produced += frames
	s.wrote = true

	if s.underflowed {
		s.underflowed = false
		return device.ErrOutputUnderflowed
	}
	return nil
}

func (s *Stream[I, O]) usable(channels int, missing error) error {
	if s.closed {
		return device.ErrClosed
	}
	if channels == 0 {
		return missing
	}
	return nil
}

// waitFor sleeps with the lock released until ready reports at least
// frames frames.
func (s *Stream[I, O]) waitFor(frames int, ready func() int) {
	for {
		short := frames - ready()
		if short <= 0 || !s.active.Load() {
			return
		}

		s.mu.Unlock()
		time.Sleep(time.Duration(short) * time.Second / time.Duration(s.rate))
		s.mu.Lock()
	}
}

// pull fills dst with the next input frames. Past the end of the file
// dst is filled with silence, or the file is rewound when looping. It
// reports whether the end was reached.
func (s *Stream[I, O]) pull(dst []I) (bool, error) {
	if cap(s.inWave) < len(dst) {
		s.inWave = make([]float32, len(dst))
	}
	wave := s.inWave[:len(dst)]

	got := 0
	rewound := false

	for got < len(wave) && !s.eof {
		n, err := s.src.ReadSamples(wave[got:])
		got += n
		if n > 0 {
			rewound = false
		}

		switch {
		case err == nil && n > 0:
			continue
		case err != nil && !errors.Is(err, io.EOF):
			return false, fmt.Errorf("reading input: %w", err)
		case s.host.opts.Loop && !rewound:
			if err := s.rewind(); err != nil {
				return false, err
			}
			rewound = true
		default:
			s.eof = true
			s.log.Debug("input file ended", "frames", s.consumed+got/s.inCh)
		}
	}

	clear(wave[got:])
	audio.FromWaves(dst, wave)

	return s.eof, nil
}

func (s *Stream[I, O]) rewind() error {
	if err := s.src.Close(); err != nil {
		s.log.Warn("closing input before rewind", "err", err)
	}
	return s.openInput()
}

// discard drops frames of input.
func (s *Stream[I, O]) discard(frames int) error {
	scratch := make([]I, min(frames, s.frames)*s.inCh)

	for frames > 0 {
		n := min(frames, s.frames)
		if _, err := s.pull(scratch[:n*s.inCh]); err != nil {
			return err
		}
		s.consumed += n
		frames -= n
	}

	return nil
}

func (s *Stream[I, O]) record(src []O) error {
	if cap(s.outWave) < len(src) {
		s.outWave = make([]float32, len(src))
	}
	wave := s.outWave[:len(src)]
	audio.ToWaves(wave, src)

	return s.rec.Write(wave)
}

// silence records frames of silence into the output.
func (s *Stream[I, O]) silence(frames int) error {
	if cap(s.outWave) < s.frames*s.outCh {
		s.outWave = make([]float32, s.frames*s.outCh)
	}

	for frames > 0 {
		n := min(frames, s.frames)
		wave := s.outWave[:n*s.outCh]
		clear(wave)
		if err := s.rec.Write(wave); err != nil {
			return err
		}
		frames -= n
	}

	return nil
}
