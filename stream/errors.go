// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrWindowExpired is returned by a Window used after the scheduler
	// moved on.
	ErrWindowExpired = errors.New("output window expired")

	ErrNoDirection    = errors.New("stream needs an input or an output")
	ErrRateMismatch   = errors.New("input and output sample rates differ")
	ErrFramesMismatch = errors.New("input and output buffer sizes differ")
)
