// SPDX-License-Identifier: EPL-2.0

// Package rate resolves the caller's update cadence against a device's
// native buffer size.
//
// A Cadence is expressed one of three ways:
//
//	rate.Hz(1000)      // about 1000 updates per second
//	rate.Frames(64)    // exactly 64 frames per update
//	rate.PerBuffer(4)  // each device buffer split in four
//
// TargetFrames turns a Cadence into a window size in frames for a given
// device. The window must either equal the device buffer or be at most
// half of it; anything in between cannot be tiled with fixed-size
// windows and is rejected with ErrInvalidCadence.
//
// In Hz mode the device buffer rate is sample_rate/frames. The window is
// frames divided by the number of updates per buffer, rounded to the
// nearest frame:
//
//	// 44100 Hz, 256 frames: buffer rate ≈ 172.27 Hz
//	rate.Hz(1000).TargetFrames(s) // round(256 / 5.805) = 44
package rate
