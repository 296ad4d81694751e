// SPDX-License-Identifier: EPL-2.0

// Package ring provides Accumulator, a generic double-ended sample queue.
//
// An Accumulator buffers interleaved samples between a device and its
// consumer. Samples are appended at the back and always removed from the
// front, in whole windows:
//
//	acc := ring.New[float32](ring.Reservation(256, 2, 64))
//	acc.Append(deviceBuffer...)
//	if acc.Len() >= 128 {
//	    window := acc.TakeFront(128)
//	}
//
// Storage is reserved up front so that steady-state traffic never
// reallocates. Appending past the reservation grows the buffer and keeps
// the queued order.
//
// An Accumulator is not safe for concurrent use. It is owned by exactly
// one scheduler and touched only from the goroutine driving it.
package ring
