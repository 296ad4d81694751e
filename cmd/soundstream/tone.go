// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/soundstream"
	"github.com/ik5/soundstream/device/filedev"
	"github.com/ik5/soundstream/stream"
)

type toneFlags struct {
	freq     float64
	gain     float64
	duration time.Duration
	out      string
	unpaced  bool
}

func newToneCmd(a *app) *cobra.Command {
	f := toneFlags{freq: 440, gain: 0.5, duration: 2 * time.Second}

	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Play a sine tone from a stream callback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTone(cmd.Context(), a, f)
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.freq, "freq", f.freq, "tone frequency in Hz")
	fl.Float64Var(&f.gain, "gain", f.gain, "amplitude between 0 and 1")
	fl.DurationVar(&f.duration, "duration", f.duration, "tone length")
	fl.StringVar(&f.out, "out", "tone.wav", "output WAV file (file backend)")
	fl.BoolVar(&f.unpaced, "unpaced", false, "render the file backend as fast as possible")

	return cmd
}

func runTone(ctx context.Context, a *app, f toneFlags) error {
	switch {
	case f.freq <= 0 || math.IsNaN(f.freq):
		return errors.New("--freq must be positive")
	case f.gain < 0 || f.gain > 1:
		return errors.New("--gain must be between 0 and 1")
	case f.duration <= 0:
		return errors.New("--duration must be positive")
	}

	log := slog.Default().With("cmd", "tone")

	host, err := a.host(filedev.Options{Output: f.out, Unpaced: f.unpaced, Logger: log})
	if err != nil {
		return err
	}

	cfg := a.conf.Stream
	cfg.Logger = log
	cfg.Input = nil
	if cfg.Output == nil {
		cfg.Output = &soundstream.DirectionConfig{}
	}

	gen := &sine{freq: f.freq, gain: f.gain, length: f.duration}

	n, err := soundstream.OpenCallback(host, cfg, gen.fill)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Error("closing stream", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = n.Wait(ctx, 10*time.Millisecond)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// sine fills output buffers with a tone on every channel and completes
// after length of stream time.
type sine struct {
	freq, gain float64
	length     time.Duration

	phase   float64
	elapsed time.Duration
}

func (s *sine) fill(b *stream.Buffers[float32, float32]) stream.Result {
	set := b.OutSettings
	if set.Channels <= 0 || set.SampleRate <= 0 {
		return stream.Abort
	}

	step := 2 * math.Pi * s.freq / float64(set.SampleRate)
	frames := len(b.Out) / set.Channels

	for i := range frames {
		v := float32(s.gain * math.Sin(s.phase))
		frame := b.Out[i*set.Channels : (i+1)*set.Channels]
		for c := range frame {
			frame[c] = v
		}

		s.phase += step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}

	s.elapsed += time.Duration(frames) * time.Second / time.Duration(set.SampleRate)
	if s.elapsed >= s.length {
		return stream.Complete
	}
	return stream.Continue
}
