// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	if s.SampleRate != 44100 || s.Frames != 256 || s.Channels != 2 {
		t.Fatalf("DefaultSettings() = %+v", s)
	}
	if s.BufferSize() != 512 {
		t.Errorf("BufferSize() = %d, want 512", s.BufferSize())
	}
	if s.String() != "44100Hz/256fr/2ch" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"default", DefaultSettings(), false},
		{"mono", Settings{SampleRate: 8000, Frames: 1, Channels: 1}, false},
		{"zero rate", Settings{Frames: 256, Channels: 2}, true},
		{"negative frames", Settings{SampleRate: 44100, Frames: -1, Channels: 2}, true},
		{"zero channels", Settings{SampleRate: 44100, Frames: 256}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Validate() error = %v, want ErrInvalidSettings", err)
			}
		})
	}
}
