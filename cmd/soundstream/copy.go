// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/soundstream"
	"github.com/ik5/soundstream/device/filedev"
	"github.com/ik5/soundstream/stream"
)

type copyFlags struct {
	in, out  string
	unpaced  bool
	duration time.Duration
}

func newCopyCmd(a *app) *cobra.Command {
	var f copyFlags

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy input to output through a blocking stream",
		Long: `Copy opens a duplex blocking stream and writes every input window back to
the output. With the file backend it converts --in to a 16-bit WAV file at
--out, in real time unless --unpaced is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCopy(cmd.Context(), a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.in, "in", "", "input file (file backend)")
	fl.StringVar(&f.out, "out", "", "output WAV file (file backend)")
	fl.BoolVar(&f.unpaced, "unpaced", false, "run the file backend as fast as possible")
	fl.DurationVar(&f.duration, "duration", 0, "stop after this long (0 runs to the end of the input)")
	fl.Float64("update-hz", 0, "updates per second")
	fl.Int("update-frames", 0, "frames per update")
	fl.Int("updates-per-buffer", 0, "updates per device buffer")
	a.bind("stream.update_hz", fl.Lookup("update-hz"))
	a.bind("stream.update_frames", fl.Lookup("update-frames"))
	a.bind("stream.updates_per_buffer", fl.Lookup("updates-per-buffer"))

	return cmd
}

func runCopy(ctx context.Context, a *app, f copyFlags) error {
	log := slog.Default().With("cmd", "copy")

	host, err := a.host(filedev.Options{
		Input:     f.in,
		Output:    f.out,
		Unpaced:   f.unpaced,
		StopAtEOF: true,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	cfg := a.conf.Stream
	cfg.Logger = log

	b, err := soundstream.Open(host, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error("closing stream", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}

	if err := pipe(ctx, b); err != nil {
		return err
	}

	st := b.Stats()
	log.Info("copy finished",
		"frames_read", st.FramesRead,
		"frames_written", st.FramesWritten,
		"overflows", st.Overflows,
		"underflows", st.Underflows)

	return nil
}

// pipe writes each input window to the next output window until the
// stream ends. The end of the input and ctx ending are not errors.
func pipe(ctx context.Context, b *stream.Blocking[float32, float32]) error {
	var (
		last []float32
		inCh int
	)

	for ev := range b.Events(ctx) {
		switch ev.Kind {
		case stream.KindInput:
			last, inCh = ev.Input, ev.Settings.Channels
		case stream.KindOutput:
			outCh := ev.Settings.Channels
			if err := ev.Output.Fill(func(buf []float32) { remix(buf, last, outCh, inCh) }); err != nil {
				return err
			}
		}
	}

	switch err := b.Err(); {
	case err == nil, errors.Is(err, io.EOF),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	default:
		return err
	}
}

// remix copies the frames of src into dst. Output channels past the last
// input channel repeat it, extra input channels are dropped.
func remix(dst, src []float32, dstCh, srcCh int) {
	if dstCh == srcCh || srcCh <= 0 || dstCh <= 0 {
		copy(dst, src)
		return
	}

	frames := min(len(dst)/dstCh, len(src)/srcCh)
	for f := range frames {
		in := src[f*srcCh : (f+1)*srcCh]
		out := dst[f*dstCh : (f+1)*dstCh]
		for c := range out {
			out[c] = in[min(c, srcCh-1)]
		}
	}
}
