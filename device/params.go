// SPDX-License-Identifier: EPL-2.0

package device

import (
	"strings"
	"time"

	"github.com/ik5/soundstream/audio"
)

// Info describes one device of a host.
type Info struct {
	Index                    int
	Name                     string
	MaxInputChannels         int
	MaxOutputChannels        int
	DefaultSampleRate        float64
	DefaultLowInputLatency   time.Duration
	DefaultLowOutputLatency  time.Duration
	DefaultHighInputLatency  time.Duration
	DefaultHighOutputLatency time.Duration
}

// StreamParams configures one direction of a stream.
type StreamParams struct {
	Device   int
	Channels int
	Format   audio.Format
	Latency  time.Duration
}

// OpenParams configures a stream. A nil Input or Output omits that
// direction; at least one must be set.
type OpenParams struct {
	Input           *StreamParams
	Output          *StreamParams
	SampleRate      int
	FramesPerBuffer int
	Flags           Flags
}

// Flags modify stream behaviour. The values follow PortAudio.
type Flags uint

const (
	NoFlag    Flags = 0
	ClipOff   Flags = 1 << (iota - 1)
	DitherOff
	NeverDropInput
	PrimeOutputBuffersUsingCallback
)

func (f Flags) String() string {
	if f == NoFlag {
		return "none"
	}

	var parts []string
	for _, fl := range []struct {
		f    Flags
		name string
	}{
		{ClipOff, "clip-off"},
		{DitherOff, "dither-off"},
		{NeverDropInput, "never-drop-input"},
		{PrimeOutputBuffersUsingCallback, "prime-output"},
	} {
		if f&fl.f != 0 {
			parts = append(parts, fl.name)
		}
	}

	return strings.Join(parts, "|")
}

// StatusFlags are passed to a Callback to report driver conditions
// since the previous call.
type StatusFlags uint

const (
	InputUnderflow StatusFlags = 1 << iota
	InputOverflow
	OutputUnderflow
	OutputOverflow
	PrimingOutput
)

// Has reports whether every bit of flag is set.
func (s StatusFlags) Has(flag StatusFlags) bool { return s&flag == flag }

// Signal is a Callback's verdict on the stream.
type Signal int

const (
	// Continue keeps calling back.
	Continue Signal = iota
	// Complete stops after the buffers already queued have played.
	Complete
	// Abort stops as soon as possible, discarding queued buffers.
	Abort
)

func (s Signal) String() string {
	switch s {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	case Abort:
		return "abort"
	}

	return "unknown"
}

// CallbackInfo accompanies each callback invocation.
type CallbackInfo struct {
	// Frames in this invocation's buffers.
	Frames int
	// Time is the stream clock when the callback was invoked.
	Time  time.Duration
	Flags StatusFlags
}
