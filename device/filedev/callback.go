// SPDX-License-Identifier: EPL-2.0

package filedev

import (
	"time"

	"github.com/ik5/soundstream/device"
)

// run calls the callback once per device buffer until stop is closed,
// the callback returns Complete or Abort, or the input ends with
// StopAtEOF. Paced streams tick at the buffer period.
func (s *Stream[I, O]) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer s.active.Store(false)

	var tick <-chan time.Time
	if s.paced() {
		t := time.NewTicker(time.Duration(s.frames) * time.Second / time.Duration(s.rate))
		defer t.Stop()
		tick = t.C
	}

	var in []I
	if s.inCh > 0 {
		in = make([]I, s.frames*s.inCh)
	}
	var out []O
	if s.outCh > 0 {
		out = make([]O, s.frames*s.outCh)
	}

	info := device.CallbackInfo{Frames: s.frames}

	for n := 0; ; n++ {
		if tick != nil {
			select {
			case <-stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-stop:
				return
			default:
			}
		}

		info.Time = time.Duration(n) * time.Duration(s.frames) * time.Second / time.Duration(s.rate)

		ended, err := s.input(in)
		if err != nil {
			s.log.Error("callback stream input failed", "err", err)
			return
		}

		sig := s.cb(in, out, info)

		if err := s.output(out); err != nil {
			s.log.Error("callback stream output failed", "err", err)
			return
		}

		switch {
		case sig != device.Continue:
			s.log.Debug("callback stream finished", "signal", sig, "buffers", n+1)
			return
		case ended:
			s.log.Debug("callback stream input ended", "buffers", n+1)
			return
		}
	}
}

// input fills in for one callback. It reports whether the stream should
// end after this buffer.
func (s *Stream[I, O]) input(in []I) (bool, error) {
	if in == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eof, err := s.pull(in)
	if err != nil {
		return false, err
	}
	s.consumed += s.frames

	return eof && s.host.opts.StopAtEOF, nil
}

func (s *Stream[I, O]) output(out []O) error {
	if out == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.record(out); err != nil {
		return err
	}
	s.produced += s.frames
	return nil
}
