// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package portaudio

import (
	"log/slog"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/device"
)

// Host reports ErrUnavailable from every call.
type Host[I, O audio.Sample] struct{}

// New returns a Host that is never available.
func New[I, O audio.Sample](*slog.Logger) *Host[I, O] { return &Host[I, O]{} }

func (*Host[I, O]) Name() string      { return "portaudio" }
func (*Host[I, O]) Initialize() error { return ErrUnavailable }
func (*Host[I, O]) Terminate() error  { return ErrUnavailable }

func (*Host[I, O]) Devices() ([]device.Info, error) { return nil, ErrUnavailable }

func (*Host[I, O]) DefaultInputDevice() (device.Info, error) {
	return device.Info{}, ErrUnavailable
}

func (*Host[I, O]) DefaultOutputDevice() (device.Info, error) {
	return device.Info{}, ErrUnavailable
}

func (*Host[I, O]) Open(device.OpenParams, device.Callback[I, O]) (device.Stream[I, O], error) {
	return nil, ErrUnavailable
}
