// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/formats/wav"
	"github.com/ik5/soundstream/stream"
)

// run executes the root command. Not parallel: it replaces the default
// logger.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "none"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func writeWAV(t *testing.T, path string, rate, channels int, samples []float32) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rec, err := wav.NewRecorder(f, rate, channels)
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Write(samples); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
}

func readWAV(t *testing.T, path string) ([]float32, audio.Source) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	src, err := wav.Decoder{}.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = src.Close() })

	var out []float32
	buf := make([]float32, 512)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			return out, src
		}
	}
}

func TestCopyCommand(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in.wav"), filepath.Join(dir, "out.wav")

	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 8))
	}
	writeWAV(t, in, 8000, 1, samples)

	if _, err := run(t, "copy", "--in", in, "--out", out, "--unpaced",
		"--frames-per-buffer", "100", "--updates-per-buffer", "2"); err != nil {
		t.Fatalf("copy error = %v", err)
	}

	// The mono input is copied to both channels of the stereo output.
	got, src := readWAV(t, out)
	if src.SampleRate() != 8000 || src.Channels() != 2 {
		t.Errorf("format = %d Hz %d ch, want 8000 Hz 2 ch", src.SampleRate(), src.Channels())
	}
	frames := len(got) / 2
	if frames < len(samples)/2 {
		t.Fatalf("recorded %d frames of %d", frames, len(samples))
	}
	for i := range min(frames, len(samples)) {
		l, r := got[2*i], got[2*i+1]
		if math.Abs(float64(l-samples[i])) > 1e-3 || l != r {
			t.Fatalf("frame %d = %v, %v, want %v on both channels", i, l, r, samples[i])
		}
	}
}

func TestCopyCommand_MissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.wav")

	if _, err := run(t, "copy", "--in", "missing.wav", "--out", out, "--unpaced"); err == nil {
		t.Error("copy with a missing input succeeded, want error")
	}
}

func TestToneCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tone.wav")

	if _, err := run(t, "tone", "--out", out, "--unpaced",
		"--duration", "100ms", "--sample-rate", "8000", "--frames-per-buffer", "80"); err != nil {
		t.Fatalf("tone error = %v", err)
	}

	got, src := readWAV(t, out)
	if src.SampleRate() != 8000 || src.Channels() != 2 {
		t.Errorf("format = %d Hz %d ch, want 8000 Hz 2 ch", src.SampleRate(), src.Channels())
	}
	if frames := len(got) / 2; frames < 800 {
		t.Errorf("recorded %d frames, want at least 800", frames)
	}

	var peak float32
	for _, v := range got {
		peak = max(peak, v)
	}
	if peak < 0.45 || peak > 0.55 {
		t.Errorf("peak = %v, want about 0.5", peak)
	}
}

func TestToneCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"freq", []string{"--freq", "0"}},
		{"gain", []string{"--gain", "2"}},
		{"duration", []string{"--duration", "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, append([]string{"tone"}, tt.args...)...); err == nil {
				t.Errorf("tone %v succeeded, want error", tt.args)
			}
		})
	}
}

func TestDevicesCommand(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.wav")
	writeWAV(t, in, 22050, 1, make([]float32, 100))

	out, err := run(t, "devices", "--in", in, "--out", "out.wav")
	if err != nil {
		t.Fatalf("devices error = %v", err)
	}

	for _, want := range []string{"file: 2 devices", "file-in", "file-out", "22050 Hz"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestUnknownBackend(t *testing.T) {
	if _, err := run(t, "--backend", "jack", "devices"); err == nil ||
		!strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("error = %v, want unknown backend", err)
	}
}

func TestRemix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		src          []float32
		dstCh, srcCh int
		want         []float32
	}{
		{"same", []float32{1, 2, 3, 4}, 2, 2, []float32{1, 2, 3, 4}},
		{"mono to stereo", []float32{1, 2}, 2, 1, []float32{1, 1, 2, 2}},
		{"stereo to mono", []float32{1, 2, 3, 4}, 1, 2, []float32{1, 3, 0, 0}},
		{"short source", []float32{5}, 2, 1, []float32{5, 5, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dst := make([]float32, 4)
			remix(dst, tt.src, tt.dstCh, tt.srcCh)

			for i := range dst {
				if dst[i] != tt.want[i] {
					t.Fatalf("remix() = %v, want %v", dst, tt.want)
				}
			}
		})
	}
}

func TestSine(t *testing.T) {
	t.Parallel()

	s := &sine{freq: 1000, gain: 1, length: 10 * time.Millisecond}
	b := &stream.Buffers[float32, float32]{
		Out:         make([]float32, 2*40),
		OutSettings: audio.Settings{SampleRate: 8000, Frames: 40, Channels: 2},
	}

	var results []stream.Result
	for range 2 {
		results = append(results, s.fill(b))
	}

	if results[0] != stream.Continue || results[1] != stream.Complete {
		t.Errorf("results = %v, want [continue complete]", results)
	}

	// Eight samples per period at 1 kHz and 8 kHz.
	for i := 0; i < len(b.Out); i += 2 {
		if b.Out[i] != b.Out[i+1] {
			t.Fatalf("frame %d = %v, %v, want equal channels", i/2, b.Out[i], b.Out[i+1])
		}
	}
	if math.Abs(float64(b.Out[2*2]-1)) > 1e-6 {
		t.Errorf("frame 2 = %v, want the peak 1", b.Out[4])
	}
}
