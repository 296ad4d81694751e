// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
)

// Result tells the driver what to do after a Callback.
type Result int

const (
	Continue Result = iota
	// Complete stops once the queued output has played.
	Complete
	// Abort stops immediately.
	Abort
)

func (r Result) signal() device.Signal {
	switch r {
	case Complete:
		return device.Complete
	case Abort:
		return device.Abort
	}
	return device.Continue
}

func (r Result) String() string { return r.signal().String() }

// Buffers is passed to a Callback. The same value is reused on every
// call; In and Out alias driver memory and are only valid during it.
type Buffers[I, O audio.Sample] struct {
	In         []I
	InSettings audio.Settings

	// Out starts silent.
	Out         []O
	OutSettings audio.Settings

	// Delta is the stream time since the previous call, zero on the
	// first.
	Delta time.Duration
	Flags device.StatusFlags
}

// Callback processes one device buffer. It runs on the driver's
// goroutine and must not block or allocate.
type Callback[I, O audio.Sample] func(b *Buffers[I, O]) Result

type adapter[I, O audio.Sample] struct {
	fn            Callback[I, O]
	bufs          Buffers[I, O]
	hasIn, hasOut bool
	last          time.Duration
	started       bool
}

// Adapt turns fn into a device.Callback for a stream with the given
// input and output formats, either of which may be nil.
func Adapt[I, O audio.Sample](fn Callback[I, O], in, out *audio.Settings) device.Callback[I, O] {
	a := &adapter[I, O]{fn: fn, hasIn: in != nil, hasOut: out != nil}
	if in != nil {
		a.bufs.InSettings = *in
	}
	if out != nil {
		a.bufs.OutSettings = *out
	}

	return a.call
}

func (a *adapter[I, O]) call(in []I, out []O, info device.CallbackInfo) device.Signal {
	b := &a.bufs
	b.In, b.Out, b.Flags = in, out, info.Flags

	if info.Frames > 0 {
		if a.hasIn {
			b.InSettings.Frames = info.Frames
		}
		if a.hasOut {
			b.OutSettings.Frames = info.Frames
		}
	}

	if a.started {
		b.Delta = info.Time - a.last
	} else {
		b.Delta = 0
		a.started = true
	}
	a.last = info.Time

	audio.FillSilence(out)

	return a.fn(b).signal()
}

// NonBlocking is a stream driven by the device callback.
type NonBlocking[I, O audio.Sample] struct {
	dev     device.Stream[I, O]
	closed  atomic.Bool
	closer  *closer
	cleanup runtime.Cleanup
}

// NewNonBlocking takes ownership of a started callback dev opened on
// host.
func NewNonBlocking[I, O audio.Sample](host device.Host[I, O], dev device.Stream[I, O], log *slog.Logger) *NonBlocking[I, O] {
	log = streamLogger(log, host.Name(), "callback")

	n := &NonBlocking[I, O]{
		dev:    dev,
		closer: newCloser(host, dev, log),
	}
	n.cleanup = guard(n, n.closer)

	log.Debug("stream opened")

	return n
}

// IsActive reports whether the driver is still calling back. It is false
// after the callback returned Complete or Abort. Safe for concurrent use.
func (n *NonBlocking[I, O]) IsActive() (bool, error) {
	if n.closed.Load() {
		return false, device.ErrClosed
	}

	active, err := n.dev.IsActive()
	return active, device.Wrap("is active", err)
}

// Wait polls IsActive every poll until the stream stops or ctx is done.
func (n *NonBlocking[I, O]) Wait(ctx context.Context, poll time.Duration) error {
	t := time.NewTicker(poll)
	defer t.Stop()

	for {
		active, err := n.IsActive()
		if err != nil {
			return err
		}
		if !active {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Close stops the stream and releases the device. Later calls return
// nil.
func (n *NonBlocking[I, O]) Close() error {
	n.cleanup.Stop()
	n.closed.Store(true)

	return n.closer.close()
}
