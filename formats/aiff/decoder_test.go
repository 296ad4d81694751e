// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// extended encodes rate as an 80 bit IEEE 754 extended float.
func extended(rate uint32) []byte {
	exp := uint16(16383 + 31)
	m := uint64(rate) << 32
	for m&(1<<63) == 0 {
		m <<= 1
		exp--
	}

	out := make([]byte, 10)
	binary.BigEndian.PutUint16(out[0:2], exp)
	binary.BigEndian.PutUint64(out[2:10], m)
	return out
}

// createAIFFFile builds a FORM/AIFF file holding a COMM and a SSND chunk.
func createAIFFFile(channels uint16, rate uint32, bitDepth uint16, samples []int16) []byte {
	data := new(bytes.Buffer)
	_ = binary.Write(data, binary.BigEndian, samples)

	comm := new(bytes.Buffer)
	_ = binary.Write(comm, binary.BigEndian, channels)
	_ = binary.Write(comm, binary.BigEndian, uint32(len(samples)/int(channels)))
	_ = binary.Write(comm, binary.BigEndian, bitDepth)
	comm.Write(extended(rate))

	body := new(bytes.Buffer)
	body.WriteString("AIFF")
	body.WriteString("COMM")
	_ = binary.Write(body, binary.BigEndian, uint32(comm.Len()))
	body.Write(comm.Bytes())
	body.WriteString("SSND")
	_ = binary.Write(body, binary.BigEndian, uint32(8+data.Len()))
	_ = binary.Write(body, binary.BigEndian, uint32(0)) // offset
	_ = binary.Write(body, binary.BigEndian, uint32(0)) // block size
	body.Write(data.Bytes())

	out := new(bytes.Buffer)
	out.WriteString("FORM")
	_ = binary.Write(out, binary.BigEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

func TestDecoder_PCM16(t *testing.T) {
	t.Parallel()

	data := createAIFFFile(2, 8000, 16, []int16{0, 16384, -16384, -32768})

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 8000 || src.Channels() != 2 {
		t.Errorf("format = %d Hz, %d ch, want 8000 Hz, 2 ch", src.SampleRate(), src.Channels())
	}

	dst := make([]float32, 8)
	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	want := []float32{0, 0.5, -0.5, -1}
	if n != len(want) {
		t.Fatalf("ReadSamples() = %d, want %d", n, len(want))
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, dst[i], want[i])
		}
	}

	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() at end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotAiffFile},
		{"not aiff", []byte("This is not AIFF data"), ErrNotAiffFile},
		{"12 bit", createAIFFFile(1, 8000, 12, make([]int16, 4)), ErrUnsupportedBitDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtended(t *testing.T) {
	t.Parallel()

	// 44100 Hz as it appears in every CD rate AIFF header.
	want := []byte{0x40, 0x0E, 0xAC, 0x44, 0, 0, 0, 0, 0, 0}
	if got := extended(44100); !bytes.Equal(got, want) {
		t.Errorf("extended(44100) = % x, want % x", got, want)
	}
}
