// SPDX-License-Identifier: EPL-2.0

// Command soundstream copies, generates and inspects audio streams.
//
//	soundstream copy --in voice.mp3 --out voice.wav --unpaced
//	soundstream tone --freq 440 --duration 2s --backend portaudio
//	soundstream devices --backend file --in voice.mp3
//
// Settings come from flags, then SOUNDSTREAM_* environment variables,
// then the config file given by --config.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
