// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"time"

	"github.com/ik5/soundstream/audio"
)

// Kind tags an Event.
type Kind int

const (
	KindInput Kind = iota + 1
	KindOutput
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindUpdate:
		return "update"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one step of a stream. Only the fields of its Kind are set.
type Event[I, O audio.Sample] struct {
	Kind Kind

	// Input is one window of interleaved input samples. The caller owns
	// it.
	Input []I

	// Output must be filled before the next call to Next.
	Output Window[O]

	// Settings describes the Input or Output window.
	Settings audio.Settings

	// Delta is the time since the previous update, or since the stream
	// started for the first one.
	Delta time.Duration
}

func (e Event[I, O]) String() string {
	switch e.Kind {
	case KindInput, KindOutput:
		return fmt.Sprintf("%s %v", e.Kind, e.Settings)
	case KindUpdate:
		return fmt.Sprintf("%s %v", e.Kind, e.Delta)
	}

	return e.Kind.String()
}
