// SPDX-License-Identifier: EPL-2.0

package rate_test

import (
	"fmt"

	"github.com/ik5/soundstream/audio"
	"github.com/ik5/soundstream/rate"
)

func ExampleCadence_TargetFrames() {
	dev := audio.DefaultSettings()

	for _, c := range []rate.Cadence{rate.PerBuffer(4), rate.Hz(1000), rate.Frames(32)} {
		frames, err := c.TargetFrames(dev)
		fmt.Println(c, frames, err)
	}

	_, err := rate.PerBuffer(3).TargetFrames(dev)
	fmt.Println(err)
	// Output:
	// 4 per buffer 64 <nil>
	// 1000Hz 44 <nil>
	// 32 frames 32 <nil>
	// invalid update cadence: updates per buffer 3 must be 1 or a positive multiple of two
}
