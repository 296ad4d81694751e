// SPDX-License-Identifier: EPL-2.0

package filedev

import "errors"

// ErrNoDecoder is returned when no decoder is registered for the input
// file's extension.
var ErrNoDecoder = errors.New("no decoder for input file")
