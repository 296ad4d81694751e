// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// mockMP3Reader serves little endian int16 PCM like gomp3.Decoder.
type mockMP3Reader struct {
	data []byte
	err  error
}

func newMockReader(samples ...int16) *mockMP3Reader {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, samples)
	return &mockMP3Reader{data: buf.Bytes()}
}

func (m *mockMP3Reader) SampleRate() int { return 44100 }

func (m *mockMP3Reader) Read(p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.data) == 0 {
		return 0, io.EOF
	}

	n := copy(p, m.data)
	m.data = m.data[n:]
	if len(m.data) == 0 {
		return n, io.EOF
	}
	return n, nil
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := &source{dec: newMockReader(0, 16384, -16384, -32768, 8192, -8192), sampleRate: 44100}
	dst := make([]float32, 4)

	n, err := src.ReadSamples(dst)
	if n != 4 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v, want 4, nil", n, err)
	}

	want := []float32{0, 0.5, -0.5, -1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, dst[i], want[i])
		}
	}

	// The last read carries io.EOF with data; it is held back a call.
	if n, err := src.ReadSamples(dst); n != 2 || err != nil {
		t.Errorf("ReadSamples() = %d, %v, want 2, nil", n, err)
	}
	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestSource_PropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt frame")
	src := &source{dec: &mockMP3Reader{err: boom}}

	if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	src := &source{dec: newMockReader(), sampleRate: 32000, buf: make([]byte, 8192)}

	if src.SampleRate() != 32000 || src.Channels() != 2 {
		t.Errorf("format = %d Hz, %d ch, want 32000 Hz, 2 ch", src.SampleRate(), src.Channels())
	}
	if src.BufSize() != 4096 {
		t.Errorf("BufSize() = %d, want 4096", src.BufSize())
	}
	if n, err := src.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = %d, %v", n, err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not MP3 data")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); err == nil {
			t.Errorf("Decode(%q) error = nil, want error", data)
		}
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	pcm := make([]int16, 4096)
	buf := make([]float32, 1024)

	b.ReportAllocs()

	for range b.N {
		src := &source{dec: newMockReader(pcm...), buf: make([]byte, 2048)}
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
