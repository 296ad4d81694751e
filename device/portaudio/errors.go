// SPDX-License-Identifier: EPL-2.0

package portaudio

import "errors"

// ErrUnavailable is returned by a Host built without the portaudio tag.
var ErrUnavailable = errors.New("portaudio support not built; rebuild with -tags portaudio")
