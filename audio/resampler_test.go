// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/internal/audiotest"
)

func readAll(t *testing.T, src audio.Source, bufSize int) []float32 {
	t.Helper()

	buf := make([]float32, bufSize)
	var out []float32

	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	r := audio.NewResampler(audiotest.NewSilentSource(44100, 2, 1000), 8000)

	if r.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", r.SampleRate())
	}
	if r.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", r.Channels())
	}
}

func TestResampler_SameRatePassThrough(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 1, 100, 0.5)
	got := readAll(t, audio.NewResampler(src, 8000), 64)

	if len(got) != 100 {
		t.Fatalf("read %d samples, want 100", len(got))
	}
	for i, v := range got {
		if v != 0.5 {
			t.Fatalf("got[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestResampler_Lengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		from, to  int
		frames    int
		want      int
		tolerance int
	}{
		{"downsample 44100 to 8000", 44100, 8000, 44100, 8000, 100},
		{"upsample 8000 to 44100", 8000, 44100, 8000, 44100, 500},
		{"upsample 44100 to 48000", 44100, 48000, 4410, 4800, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSineSource(tt.from, 1, tt.frames, 440)
			got := readAll(t, audio.NewResampler(src, tt.to), 1024)

			if len(got) < tt.want-tt.tolerance || len(got) > tt.want+tt.tolerance {
				t.Errorf("resampled %d samples, want ≈%d (±%d)", len(got), tt.want, tt.tolerance)
			}
			for i, s := range got {
				if s < -1.5 || s > 1.5 {
					t.Fatalf("got[%d] = %v, outside [-1.5, 1.5]", i, s)
				}
			}
		})
	}
}

func TestResampler_StereoPreserved(t *testing.T) {
	t.Parallel()

	src := audiotest.NewChannelSource(16000, 2, 1600)
	got := readAll(t, audio.NewResampler(src, 22050), 220)

	if len(got)%2 != 0 {
		t.Fatalf("odd sample count %d", len(got))
	}
	for f := 0; f < len(got); f += 2 {
		if math.Abs(float64(got[f]-0.1)) > 1e-4 || math.Abs(float64(got[f+1]-0.2)) > 1e-4 {
			t.Fatalf("frame %d = [%v %v], want [0.1 0.2]", f/2, got[f], got[f+1])
		}
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	r := audio.NewResampler(audiotest.NewSilentSource(44100, 2, 10), 8000)

	if _, err := r.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_VeryShortSource(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 1, 2, 0.25)
	got := readAll(t, audio.NewResampler(src, 16000), 16)

	if len(got) == 0 {
		t.Fatal("no samples from a two frame source")
	}
}

func TestResampler_EmptySource(t *testing.T) {
	t.Parallel()

	r := audio.NewResampler(audiotest.NewSilentSource(8000, 1, 0), 16000)

	n, err := r.ReadSamples(make([]float32, 16))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestResampler_PropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := audiotest.NewSilentSource(8000, 1, 1000).FailAfter(100, boom)
	r := audio.NewResampler(src, 16000)

	buf := make([]float32, 64)
	for range 100 {
		if _, err := r.ReadSamples(buf); err != nil {
			if !errors.Is(err, boom) {
				t.Fatalf("ReadSamples() error = %v, want boom", err)
			}
			return
		}
	}

	t.Fatal("error never surfaced")
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(8000, 1, 10)
	if err := audio.NewResampler(src, 16000).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !src.Closed() {
		t.Error("Close() did not close the source")
	}
}

func BenchmarkResampler_Downsample(b *testing.B) {
	buf := make([]float32, 1024)

	b.ReportAllocs()

	for range b.N {
		r := audio.NewResampler(audiotest.NewSineSource(44100, 2, 4410, 440), 16000)
		for {
			if _, err := r.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
