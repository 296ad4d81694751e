// SPDX-License-Identifier: EPL-2.0

package soundstream

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration matches every *ConfigError.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports a Config field that cannot be used.
type ConfigError struct {
	Field  string
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("soundstream: %s: %s %s", ErrInvalidConfiguration, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfiguration}
	}
	return []error{ErrInvalidConfiguration, e.Err}
}

func configErr(field, reason string, err error) error {
	return &ConfigError{Field: field, Reason: reason, Err: err}
}
