// SPDX-License-Identifier: EPL-2.0

/*
Package stream turns a device.Stream with a fixed buffer size into a
sequence of events at a cadence chosen by the caller.

# Events

A Scheduler emits exactly one Event per call to Next:

  - KindInput carries one input window, owned by the caller.
  - KindOutput carries a Window to be filled before the next call.
  - KindUpdate carries the time elapsed since the previous update.

The cycle is Input, Output, Update for duplex streams, Input, Update for
input only streams and Output, Update for output only streams. An
Output event is skipped in duplex mode while enough output is already
queued.

# Output windows

A Window is a borrow token for scheduler storage. It is valid until the
next call that advances the scheduler; after that Fill and Copy return
ErrWindowExpired and leave the storage alone. The samples written into
a window are queued for the device in order, and a partial device
buffer is carried until it is complete.

# Errors

Overflow and underflow reported by the device are logged, counted in
Stats and retried. Any other device error ends the sequence: it is
logged once, passed once to the OnError hook and returned by Err.

# Callback mode

Adapt wraps a Callback into a device.Callback that is invoked once per
device buffer on the driver's goroutine. It does not allocate.
*/
package stream
