// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"sync"
	"testing"
)

type stubDecoder struct {
	name string
}

func (d *stubDecoder) Decode(io.Reader) (Source, error) {
	return nil, io.ErrUnexpectedEOF
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &stubDecoder{name: "wav"}
	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok || got != decoder {
		t.Fatalf("Get(wav) = %v, %v", got, ok)
	}

	if _, ok := registry.Get("flac"); ok {
		t.Error("Get(flac) returned ok for an unregistered format")
	}
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("MP3", &stubDecoder{name: "mp3"})

	if _, ok := registry.Get("mp3"); !ok {
		t.Error("Get(mp3) failed for a format registered as MP3")
	}
}

func TestRegistry_ForPath(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wav := &stubDecoder{name: "wav"}
	ogg := &stubDecoder{name: "ogg"}
	registry.Register("wav", wav)
	registry.Register("ogg", ogg)

	tests := []struct {
		path   string
		want   Decoder
		wantOK bool
	}{
		{"voice.wav", wav, true},
		{"/tmp/Music.OGG", ogg, true},
		{"noext", nil, false},
		{"song.flac", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, ok := registry.ForPath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ForPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ForPath(%q) returned the wrong decoder", tt.path)
			}
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, f := range []string{"ogg", "aiff", "wav"} {
		registry.Register(f, &stubDecoder{name: f})
	}

	if got := registry.Formats(); !slices.Equal(got, []string{"aiff", "ogg", "wav"}) {
		t.Errorf("Formats() = %v", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Register(string(rune('a'+i)), &stubDecoder{})
			registry.Get("a")
		}()
	}
	wg.Wait()

	if n := len(registry.Formats()); n != 8 {
		t.Errorf("Formats() has %d entries, want 8", n)
	}
}
