// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
)

// Release stops and closes dev, then terminates host. Every step runs
// even when an earlier one fails; the errors are joined.
func Release[I, O audio.Sample](host device.Host[I, O], dev device.Stream[I, O]) error {
	var errs []error

	if dev != nil {
		if active, err := dev.IsActive(); err == nil && active {
			errs = append(errs, device.Wrap("stop", dev.Stop()))
		}
		errs = append(errs, device.Wrap("close", dev.Close()))
	}
	errs = append(errs, device.Wrap("terminate", host.Terminate()))

	return errors.Join(errs...)
}

// closer runs release at most once.
type closer struct {
	once    sync.Once
	release func() error
	log     *slog.Logger
}

func newCloser[I, O audio.Sample](host device.Host[I, O], dev device.Stream[I, O], log *slog.Logger) *closer {
	return &closer{
		release: func() error { return Release(host, dev) },
		log:     log,
	}
}

// close returns the release error on the first call and nil after.
func (c *closer) close() error {
	var err error

	c.once.Do(func() {
		err = c.release()
		c.log.Debug("stream closed", "err", err)
	})

	return err
}

// guard closes c once owner becomes unreachable.
func guard[T any](owner *T, c *closer) runtime.Cleanup {
	return runtime.AddCleanup(owner, func(c *closer) {
		if err := c.close(); err != nil {
			c.log.Error("closing unreachable stream", "err", err)
		}
	}, c)
}

func streamLogger(base *slog.Logger, host, mode string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}

	return base.With("stream_id", uuid.NewString(), "host", host, "mode", mode)
}
