// SPDX-License-Identifier: EPL-2.0

package soundstream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ik5/soundstream"
	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
	"github.com/ik5/soundstream/internal/devicetest"
	"github.com/ik5/soundstream/rate"
	"github.com/ik5/soundstream/stream"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intp(v int) *int { return &v }

func TestOpen_Defaults(t *testing.T) {
	t.Parallel()

	host := devicetest.NewHost[float32, int16]()
	s, err := soundstream.Open(host, soundstream.Config{Logger: quiet()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	p := host.Last().Params
	if p.Input == nil || p.Output == nil {
		t.Fatalf("Open() with no directions did not open duplex: %+v", p)
	}
	if p.SampleRate != 44100 || p.FramesPerBuffer != 256 {
		t.Errorf("rate/frames = %d/%d, want 44100/256", p.SampleRate, p.FramesPerBuffer)
	}
	if p.Input.Channels != 2 || p.Output.Channels != 2 {
		t.Errorf("channels = %d/%d, want 2/2", p.Input.Channels, p.Output.Channels)
	}
	if p.Input.Format != audio.FormatFloat32 || p.Output.Format != audio.FormatInt16 {
		t.Errorf("formats = %v/%v, want float32/int16", p.Input.Format, p.Output.Format)
	}
	if p.Input.Latency != 5*time.Millisecond {
		t.Errorf("input latency = %v, want the device default", p.Input.Latency)
	}

	in, ok := s.InputSettings()
	if !ok || in != audio.DefaultSettings() {
		t.Errorf("InputSettings() = %v, %v", in, ok)
	}
}

func TestOpen_Resolution(t *testing.T) {
	t.Parallel()

	devices := []device.Info{
		{Index: 0, Name: "mic", MaxInputChannels: 1, DefaultSampleRate: 48000, DefaultLowInputLatency: 3 * time.Millisecond},
		{Index: 1, Name: "card", MaxInputChannels: 8, MaxOutputChannels: 8, DefaultSampleRate: 96000},
		{Index: 2, Name: "odd", MaxInputChannels: 2, MaxOutputChannels: 2},
	}

	tests := []struct {
		name       string
		cfg        soundstream.Config
		wantRate   int
		wantFrames int
		wantCh     int
		wantDevice int
	}{
		{"default device rate", soundstream.Config{Input: &soundstream.DirectionConfig{}}, 48000, 256, 1, 0},
		{"channels clamped", soundstream.Config{Input: &soundstream.DirectionConfig{Channels: 4}}, 48000, 256, 1, 0},
		{"selected device", soundstream.Config{Input: &soundstream.DirectionConfig{Device: intp(1), Channels: 6}}, 96000, 256, 6, 1},
		{"stereo by default", soundstream.Config{Input: &soundstream.DirectionConfig{Device: intp(1)}}, 96000, 256, 2, 1},
		{"rate fallback", soundstream.Config{Input: &soundstream.DirectionConfig{Device: intp(2)}}, 44100, 256, 2, 2},
		{"buffer hz", soundstream.Config{SampleRate: 48000, BufferHz: 187.5, Input: &soundstream.DirectionConfig{}}, 48000, 256, 1, 0},
		{"explicit frames", soundstream.Config{SampleRate: 22050, FramesPerBuffer: 1024, Input: &soundstream.DirectionConfig{}}, 22050, 1024, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := devicetest.NewHost[float32, float32]()
			host.DeviceList = devices

			tt.cfg.Logger = quiet()
			s, err := soundstream.Open(host, tt.cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			p := host.Last().Params
			if p.Output != nil {
				t.Error("opened an output that was not asked for")
			}
			if p.SampleRate != tt.wantRate || p.FramesPerBuffer != tt.wantFrames {
				t.Errorf("rate/frames = %d/%d, want %d/%d", p.SampleRate, p.FramesPerBuffer, tt.wantRate, tt.wantFrames)
			}
			if p.Input.Channels != tt.wantCh || p.Input.Device != tt.wantDevice {
				t.Errorf("channels/device = %d/%d, want %d/%d", p.Input.Channels, p.Input.Device, tt.wantCh, tt.wantDevice)
			}
		})
	}
}

func TestOpen_Cadence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  soundstream.Config
		want int
	}{
		{"once per buffer", soundstream.Config{}, 256},
		{"four per buffer", soundstream.Config{UpdatesPerBuffer: 4}, 64},
		{"explicit frames", soundstream.Config{UpdateFrames: 100}, 100},
		{"by frequency", soundstream.Config{UpdateHz: 1000}, 44},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.cfg.Logger = quiet()
			tt.cfg.Output = &soundstream.DirectionConfig{}

			s, err := soundstream.Open(devicetest.NewHost[float32, float32](), tt.cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			out, _ := s.OutputSettings()
			if out.Frames != tt.want {
				t.Errorf("window = %d frames, want %d", out.Frames, tt.want)
			}
		})
	}
}

func TestOpen_ConfigErrorsTouchNoDevice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  soundstream.Config
	}{
		{"odd division", soundstream.Config{UpdatesPerBuffer: 3}},
		{"two cadences", soundstream.Config{UpdateHz: 10, UpdatesPerBuffer: 2}},
		{"negative channels", soundstream.Config{Input: &soundstream.DirectionConfig{Channels: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := devicetest.NewHost[float32, float32]()
			host.InitErr = errors.New("must not be called")

			_, err := soundstream.Open(host, tt.cfg)
			if !errors.Is(err, soundstream.ErrInvalidConfiguration) {
				t.Errorf("Open() error = %v, want ErrInvalidConfiguration", err)
			}
			if host.Last() != nil {
				t.Error("a stream was opened for an invalid configuration")
			}
		})
	}
}

func TestOpen_CadenceResolvedAgainstDevice(t *testing.T) {
	t.Parallel()

	// The rate comes from the device, so this is only caught after
	// querying it.
	host := devicetest.NewHost[float32, float32]()
	_, err := soundstream.Open(host, soundstream.Config{UpdateHz: 100, Logger: quiet()})

	var ce *soundstream.ConfigError
	if !errors.As(err, &ce) || ce.Field != "UpdateHz" || !errors.Is(err, rate.ErrInvalidCadence) {
		t.Fatalf("Open() error = %v, want an UpdateHz ConfigError", err)
	}
	if host.Last() != nil {
		t.Error("a stream was opened")
	}
	if n := host.Balance(); n != 0 {
		t.Errorf("host balance = %d, want 0", n)
	}
}

func TestOpen_DeviceErrorsReleaseEverything(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	tests := []struct {
		name   string
		setup  func(h *devicetest.Host[float32, float32])
		cfg    soundstream.Config
		wantOp string
		want   error
	}{
		{
			name:   "initialize",
			setup:  func(h *devicetest.Host[float32, float32]) { h.InitErr = errBoom },
			wantOp: "initialize",
			want:   errBoom,
		},
		{
			name:   "open",
			setup:  func(h *devicetest.Host[float32, float32]) { h.OpenErr = errBoom },
			wantOp: "open",
			want:   errBoom,
		},
		{
			name: "start",
			setup: func(h *devicetest.Host[float32, float32]) {
				h.Setup = func(s *devicetest.Stream[float32, float32]) { s.StartErr = errBoom }
			},
			wantOp: "start",
			want:   errBoom,
		},
		{
			name:   "unknown device",
			cfg:    soundstream.Config{Output: &soundstream.DirectionConfig{Device: intp(7)}},
			wantOp: "output device",
			want:   device.ErrInvalidDevice,
		},
		{
			name: "no input channels",
			setup: func(h *devicetest.Host[float32, float32]) {
				h.DeviceList = []device.Info{{Name: "speaker", MaxOutputChannels: 2}}
			},
			cfg:    soundstream.Config{Input: &soundstream.DirectionConfig{}},
			wantOp: "input device",
			want:   device.ErrInvalidChannelCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := devicetest.NewHost[float32, float32]()
			if tt.setup != nil {
				tt.setup(host)
			}

			tt.cfg.Logger = quiet()
			_, err := soundstream.Open(host, tt.cfg)

			var de *device.Error
			if !errors.As(err, &de) || de.Op != tt.wantOp || !errors.Is(err, tt.want) {
				t.Fatalf("Open() error = %v, want %s: %v", err, tt.wantOp, tt.want)
			}
			if n := host.Balance(); n != 0 {
				t.Errorf("host balance = %d, want 0", n)
			}
			if s := host.Last(); s != nil && !s.Closed() {
				t.Error("stream left open")
			}
		})
	}
}

func TestOpen_FailureLogsTerminateError(t *testing.T) {
	t.Parallel()

	errOpen := errors.New("open failed")
	errTerm := errors.New("terminate failed")

	tests := []struct {
		name  string
		setup func(h *devicetest.Host[float32, float32])
		cfg   soundstream.Config
	}{
		{
			name:  "open",
			setup: func(h *devicetest.Host[float32, float32]) { h.OpenErr = errOpen },
		},
		{
			name: "resolve",
			cfg:  soundstream.Config{Output: &soundstream.DirectionConfig{Device: intp(7)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := devicetest.NewHost[float32, float32]()
			host.TermErr = errTerm
			if tt.setup != nil {
				tt.setup(host)
			}

			var logs bytes.Buffer
			tt.cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))

			if _, err := soundstream.Open(host, tt.cfg); err == nil {
				t.Fatal("Open() succeeded, want error")
			}
			if !strings.Contains(logs.String(), errTerm.Error()) {
				t.Errorf("log = %q, want the terminate error", logs.String())
			}
		})
	}
}

func TestOpen_FlagsPassedThrough(t *testing.T) {
	t.Parallel()

	host := devicetest.NewHost[float32, float32]()
	flags := device.ClipOff | device.NeverDropInput

	s, err := soundstream.Open(host, soundstream.Config{Flags: flags, Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if got := host.Last().Params.Flags; got != flags {
		t.Errorf("Flags = %v, want %v", got, flags)
	}
}

func TestOpen_Stream(t *testing.T) {
	t.Parallel()

	host := devicetest.NewHost[float32, float32]()
	s, err := soundstream.Open(host, soundstream.Config{UpdatesPerBuffer: 2, Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	want := []stream.Kind{stream.KindInput, stream.KindOutput, stream.KindUpdate}

	for i := range 30 {
		ev, ok := s.Next(ctx)
		if !ok {
			t.Fatalf("Next() ended after %d events: %v", i, s.Err())
		}
		if ev.Kind != want[i%3] {
			t.Fatalf("event %d = %v, want %v", i, ev.Kind, want[i%3])
		}
		if ev.Kind == stream.KindInput && len(ev.Input) != 256 {
			t.Fatalf("input window = %d samples, want 256", len(ev.Input))
		}
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := host.Balance(); n != 0 {
		t.Errorf("host balance = %d after Close, want 0", n)
	}
}

func TestOpenCallback(t *testing.T) {
	t.Parallel()

	host := devicetest.NewHost[int16, int16]()

	var deltas []time.Duration
	n, err := soundstream.OpenCallback(host, soundstream.Config{Logger: quiet()},
		func(b *stream.Buffers[int16, int16]) stream.Result {
			deltas = append(deltas, b.Delta)
			copy(b.Out, b.In)
			if len(deltas) == 3 {
				return stream.Abort
			}
			return stream.Continue
		})
	if err != nil {
		t.Fatalf("OpenCallback() error = %v", err)
	}

	if active, _ := n.IsActive(); !active {
		t.Fatal("stream not active after open")
	}

	signals, err := host.Last().Drive(5, 10*time.Millisecond, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(signals) != 3 || signals[2] != device.Abort {
		t.Errorf("signals = %v", signals)
	}
	if len(deltas) != 3 || deltas[0] != 0 || deltas[2] != 10*time.Millisecond {
		t.Errorf("deltas = %v", deltas)
	}
	if active, _ := n.IsActive(); active {
		t.Error("stream still active after Abort")
	}

	if err := n.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if b := host.Balance(); b != 0 {
		t.Errorf("host balance = %d, want 0", b)
	}
}

func TestOpenCallback_NilCallback(t *testing.T) {
	t.Parallel()

	_, err := soundstream.OpenCallback[float32, float32](devicetest.NewHost[float32, float32](), soundstream.Config{}, nil)
	if !errors.Is(err, soundstream.ErrInvalidConfiguration) {
		t.Errorf("OpenCallback(nil) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestListDevices(t *testing.T) {
	t.Parallel()

	host := devicetest.NewHost[float32, float32]()
	infos, err := soundstream.ListDevices(host)
	if err != nil {
		t.Fatal(err)
	}

	if len(infos) != 1 || infos[0].Name != "mock" {
		t.Errorf("ListDevices() = %+v", infos)
	}
	if n := host.Balance(); n != 0 {
		t.Errorf("host balance = %d, want 0", n)
	}
}

// Not parallel: replaces the default logger.
func TestListDevices_LogsTerminateError(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var logs bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))

	host := devicetest.NewHost[float32, float32]()
	host.TermErr = errors.New("terminate failed")

	if _, err := soundstream.ListDevices(host); err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if !strings.Contains(logs.String(), "terminate failed") {
		t.Errorf("log = %q, want the terminate error", logs.String())
	}
}
