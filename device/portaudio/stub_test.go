// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package portaudio

import (
	"errors"
	"testing"

	"github.com/ik5/soundstream/device"
)

func TestStub_Unavailable(t *testing.T) {
	t.Parallel()

	var h device.Host[float32, int16] = New[float32, int16](nil)

	if h.Name() != "portaudio" {
		t.Errorf("Name() = %q, want portaudio", h.Name())
	}
	if err := h.Initialize(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Initialize() error = %v, want %v", err, ErrUnavailable)
	}
	if _, err := h.Devices(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Devices() error = %v, want %v", err, ErrUnavailable)
	}
	if _, err := h.Open(device.OpenParams{}, nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open() error = %v, want %v", err, ErrUnavailable)
	}
}
