// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"iter"
	"runtime"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
)

// Blocking is a pull based stream. It owns the device stream and the
// host initialization it was opened with.
type Blocking[I, O audio.Sample] struct {
	sched   *Scheduler[I, O]
	closer  *closer
	cleanup runtime.Cleanup
}

// NewBlocking wraps a started blocking dev opened on host. If it fails
// the caller still owns dev and host.
func NewBlocking[I, O audio.Sample](host device.Host[I, O], dev device.Stream[I, O], opts Options) (*Blocking[I, O], error) {
	opts.Logger = streamLogger(opts.Logger, host.Name(), "blocking")

	sched, err := NewScheduler(dev, opts)
	if err != nil {
		return nil, err
	}

	b := &Blocking[I, O]{
		sched:  sched,
		closer: newCloser(host, dev, opts.Logger),
	}
	b.cleanup = guard(b, b.closer)

	opts.Logger.Debug("stream opened",
		"input", sched.inWin, "output", sched.outWin, "cadence", opts.Cadence)

	return b, nil
}

// Next blocks until the next event. It returns false when the stream
// failed, ctx was cancelled or the stream was closed.
func (b *Blocking[I, O]) Next(ctx context.Context) (Event[I, O], bool) {
	return b.sched.Next(ctx)
}

// Events ranges over Next until it returns false.
func (b *Blocking[I, O]) Events(ctx context.Context) iter.Seq[Event[I, O]] {
	return func(yield func(Event[I, O]) bool) {
		for {
			ev, ok := b.sched.Next(ctx)
			if !ok || !yield(ev) {
				return
			}
		}
	}
}

// Err returns why the event sequence ended: a device error, the
// context error, device.ErrClosed, or nil while it is running.
func (b *Blocking[I, O]) Err() error { return b.sched.Err() }

// Stats returns a snapshot of the scheduler counters.
func (b *Blocking[I, O]) Stats() Stats { return b.sched.Stats() }

// InputSettings returns the input window format, if there is an input.
func (b *Blocking[I, O]) InputSettings() (audio.Settings, bool) {
	return b.sched.InputSettings()
}

// OutputSettings returns the output window format, if there is an
// output.
func (b *Blocking[I, O]) OutputSettings() (audio.Settings, bool) {
	return b.sched.OutputSettings()
}

// Close ends the event sequence, writes the output still queued and
// releases the device. The stream is released even when Close returns an
// error; later calls return nil.
func (b *Blocking[I, O]) Close() error {
	b.cleanup.Stop()

	if err := b.sched.closeOutput(); err != nil {
		b.sched.log.Warn("writing queued output on close", "err", err)
	}
	b.sched.stop(device.ErrClosed)

	return b.closer.close()
}
