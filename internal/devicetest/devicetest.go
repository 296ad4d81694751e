// SPDX-License-Identifier: EPL-2.0

// Package devicetest provides a scripted device.Host for tests.
//
// Input produced by a Stream is deterministic: sample i of the stream
// (counting interleaved samples from zero) is Gen(i). Output is recorded
// verbatim. Availability grows by a fixed amount on every poll and
// failures can be injected on the Nth call of any operation.
package devicetest

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
)

// ErrWouldBlock is returned by Read or Write when the caller asked for
// more frames than the scripted availability allows.
var ErrWouldBlock = errors.New("devicetest: operation would block")

// Host is a scripted device.Host.
type Host[I, O audio.Sample] struct {
	mu sync.Mutex

	// InitErr, TermErr and OpenErr are returned by the matching call.
	InitErr error
	TermErr error
	OpenErr error

	// DeviceList is returned by Devices. Index 0 is the default for
	// both directions.
	DeviceList []device.Info

	// Setup runs on every stream before Open returns it.
	Setup func(s *Stream[I, O])

	inits   int
	terms   int
	streams []*Stream[I, O]
}

// NewHost returns a Host with one stereo device at 44100 Hz.
func NewHost[I, O audio.Sample]() *Host[I, O] {
	return &Host[I, O]{
		DeviceList: []device.Info{{
			Index:                   0,
			Name:                    "mock",
			MaxInputChannels:        2,
			MaxOutputChannels:       2,
			DefaultSampleRate:       44100,
			DefaultLowInputLatency:  5 * time.Millisecond,
			DefaultLowOutputLatency: 5 * time.Millisecond,
		}},
	}
}

func (h *Host[I, O]) Name() string { return "mock" }

func (h *Host[I, O]) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.InitErr != nil {
		return h.InitErr
	}
	h.inits++
	return nil
}

func (h *Host[I, O]) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.terms++
	return h.TermErr
}

// Balance is Initialize calls minus Terminate calls.
func (h *Host[I, O]) Balance() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.inits - h.terms
}

func (h *Host[I, O]) Devices() ([]device.Info, error) {
	return h.DeviceList, nil
}

func (h *Host[I, O]) DefaultInputDevice() (device.Info, error) {
	if len(h.DeviceList) == 0 {
		return device.Info{}, device.ErrInvalidDevice
	}
	return h.DeviceList[0], nil
}

func (h *Host[I, O]) DefaultOutputDevice() (device.Info, error) {
	return h.DefaultInputDevice()
}

func (h *Host[I, O]) Open(p device.OpenParams, cb device.Callback[I, O]) (device.Stream[I, O], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	if p.Input == nil && p.Output == nil {
		return nil, device.ErrInvalidChannelCount
	}

	s := newStream(p, cb)
	if h.Setup != nil {
		h.Setup(s)
	}
	h.streams = append(h.streams, s)

	return s, nil
}

// Last returns the most recently opened stream, or nil.
func (h *Host[I, O]) Last() *Stream[I, O] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.streams) == 0 {
		return nil
	}
	return h.streams[len(h.streams)-1]
}

// Stream is a scripted device.Stream.
type Stream[I, O audio.Sample] struct {
	mu sync.Mutex

	// Params the stream was opened with.
	Params   device.OpenParams
	callback device.Callback[I, O]
	inCh     int
	outCh    int

	// InputPerPoll frames arrive on every ReadAvailable call.
	InputPerPoll int
	// InputFrames ends the input after that many frames: once they have
	// all been read, ReadAvailable returns io.EOF. Zero never ends.
	InputFrames int
	// OutputPerPoll frames of room free up on every WriteAvailable call,
	// bounded by OutputRoomMax.
	OutputPerPoll int
	OutputRoomMax int

	// Gen produces input sample i.
	Gen func(i int) I

	// StartErr, StopErr and CloseErr are returned by the matching call.
	StartErr error
	StopErr  error
	CloseErr error

	pending int // input frames waiting at the device
	room    int // output frames that can be written
	nextIn  int

	read    []I
	written []O

	calls    map[string]int
	failures map[string]map[int]error

	active atomic.Bool
	closed bool
	stops  int
	aborts int
	closes int
	cbTime time.Duration
}

func newStream[I, O audio.Sample](p device.OpenParams, cb device.Callback[I, O]) *Stream[I, O] {
	s := &Stream[I, O]{
		Params:        p,
		callback:      cb,
		InputPerPoll:  p.FramesPerBuffer,
		OutputPerPoll: p.FramesPerBuffer,
		OutputRoomMax: 4 * p.FramesPerBuffer,
		Gen:           func(i int) I { return I(i % 100) },
		calls:         make(map[string]int),
		failures:      make(map[string]map[int]error),
	}

	if p.Input != nil {
		s.inCh = p.Input.Channels
	}
	if p.Output != nil {
		s.outCh = p.Output.Channels
	}

	return s
}

// Operation names accepted by FailAt and Calls.
const (
	OpReadAvailable  = "read-available"
	OpWriteAvailable = "write-available"
	OpRead           = "read"
	OpWrite          = "write"
)

// FailAt makes the nth (1-based) call of op return err.
func (s *Stream[I, O]) FailAt(op string, n int, err error) *Stream[I, O] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures[op] == nil {
		s.failures[op] = make(map[int]error)
	}
	s.failures[op][n] = err

	return s
}

// Calls returns how many times op was called.
func (s *Stream[I, O]) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[op]
}

// call counts op and returns its injected failure, if any.
func (s *Stream[I, O]) call(op string) error {
	s.calls[op]++
	if s.closed {
		return device.ErrClosed
	}

	return s.failures[op][s.calls[op]]
}

func (s *Stream[I, O]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return device.ErrClosed
	}
	if s.StartErr != nil {
		return s.StartErr
	}
	s.active.Store(true)
	return nil
}

func (s *Stream[I, O]) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stops++
	s.active.Store(false)
	return s.StopErr
}

func (s *Stream[I, O]) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.aborts++
	s.active.Store(false)
	return nil
}

func (s *Stream[I, O]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++
	s.closed = true
	s.active.Store(false)
	return s.CloseErr
}

func (s *Stream[I, O]) IsActive() (bool, error) {
	return s.active.Load(), nil
}

func (s *Stream[I, O]) ReadAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inCh == 0 {
		return 0, device.ErrNoInput
	}
	if err := s.call(OpReadAvailable); err != nil {
		return 0, err
	}

	arrive := s.InputPerPoll
	if s.InputFrames > 0 {
		left := s.InputFrames - s.nextIn/s.inCh - s.pending
		if left <= 0 && s.pending == 0 {
			return 0, io.EOF
		}
		arrive = min(arrive, left)
	}

	s.pending += arrive
	return s.pending, nil
}

func (s *Stream[I, O]) WriteAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outCh == 0 {
		return 0, device.ErrNoOutput
	}
	if err := s.call(OpWriteAvailable); err != nil {
		return 0, err
	}

	s.room = min(s.room+s.OutputPerPoll, s.OutputRoomMax)
	return s.room, nil
}

func (s *Stream[I, O]) Read(dst []I) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inCh == 0 {
		return device.ErrNoInput
	}
	err := s.call(OpRead)
	if err != nil && !device.Recoverable(err) {
		return err
	}

	// An overflow still delivers the requested frames.
	if ferr := s.fill(dst); ferr != nil {
		return ferr
	}

	return err
}

func (s *Stream[I, O]) fill(dst []I) error {
	if len(dst)%s.inCh != 0 {
		return fmt.Errorf("devicetest: read of %d samples is not whole %d channel frames", len(dst), s.inCh)
	}

	frames := len(dst) / s.inCh
	if frames > s.pending {
		return fmt.Errorf("%w: read %d frames with %d pending", ErrWouldBlock, frames, s.pending)
	}

	for i := range dst {
		dst[i] = s.Gen(s.nextIn + i)
	}
	s.nextIn += len(dst)
	s.pending -= frames
	s.read = append(s.read, dst...)

	return nil
}

func (s *Stream[I, O]) Write(src []O) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outCh == 0 {
		return device.ErrNoOutput
	}
	err := s.call(OpWrite)
	if err != nil && !device.Recoverable(err) {
		return err
	}
	if len(src)%s.outCh != 0 {
		return fmt.Errorf("devicetest: write of %d samples is not whole %d channel frames", len(src), s.outCh)
	}

	frames := len(src) / s.outCh
	if frames > s.room {
		return fmt.Errorf("%w: write %d frames with room for %d", ErrWouldBlock, frames, s.room)
	}

	// An underflow still accepts the frames.
	s.room -= frames
	s.written = append(s.written, src...)

	return err
}

// ReadLog returns every sample handed out by Read.
func (s *Stream[I, O]) ReadLog() []I {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]I(nil), s.read...)
}

// Written returns every sample accepted by Write, or filled by the
// callback in callback mode.
func (s *Stream[I, O]) Written() []O {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]O(nil), s.written...)
}

// Closed reports whether Close was called.
func (s *Stream[I, O]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Counts returns how many times Stop, Abort and Close were called.
func (s *Stream[I, O]) Counts() (stops, aborts, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stops, s.aborts, s.closes
}

// ErrNoCallback is returned by Drive on a blocking stream.
var ErrNoCallback = errors.New("devicetest: stream has no callback")

// Drive invokes the callback n times as the driver would, advancing the
// stream clock by step each time. It stops early when the callback
// returns Complete or Abort, and returns the signals it received.
func (s *Stream[I, O]) Drive(n int, step time.Duration, flags device.StatusFlags) ([]device.Signal, error) {
	if s.callback == nil {
		return nil, ErrNoCallback
	}

	frames := s.Params.FramesPerBuffer

	var in []I
	if s.inCh > 0 {
		in = make([]I, frames*s.inCh)
	}
	var out []O
	if s.outCh > 0 {
		out = make([]O, frames*s.outCh)
	}

	var signals []device.Signal

	for range n {
		if !s.active.Load() {
			break
		}

		s.mu.Lock()
		for i := range in {
			in[i] = s.Gen(s.nextIn + i)
		}
		s.nextIn += len(in)
		s.read = append(s.read, in...)
		info := device.CallbackInfo{Frames: frames, Time: s.cbTime, Flags: flags}
		s.cbTime += step
		s.mu.Unlock()

		sig := s.callback(in, out, info)
		signals = append(signals, sig)

		s.mu.Lock()
		s.written = append(s.written, out...)
		s.mu.Unlock()

		if sig != device.Continue {
			s.active.Store(false)
			break
		}
	}

	return signals, nil
}
