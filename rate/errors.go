// SPDX-License-Identifier: EPL-2.0

package rate

import "errors"

var (
	// ErrInvalidCadence is returned for any cadence that cannot be
	// scheduled against the device.
	ErrInvalidCadence = errors.New("invalid update cadence")
)
