// SPDX-License-Identifier: EPL-2.0

package stream

import "github.com/ik5/soundstream/audio"

// windowSlot is the storage behind every Window of a scheduler. gen
// moves forward each time the scheduler takes the storage back.
type windowSlot[O audio.Sample] struct {
	buf []O
	gen uint64
}

// Window is a borrow token for one output window.
type Window[O audio.Sample] struct {
	slot *windowSlot[O]
	gen  uint64
}

func (s *windowSlot[O]) lend() Window[O] {
	return Window[O]{slot: s, gen: s.gen}
}

func (s *windowSlot[O]) revoke() {
	s.gen++
}

// Valid reports whether the window can still be written.
func (w Window[O]) Valid() bool {
	return w.slot != nil && w.slot.gen == w.gen
}

// Len is the window size in samples, or 0 once it expired.
func (w Window[O]) Len() int {
	if !w.Valid() {
		return 0
	}
	return len(w.slot.buf)
}

// Fill calls fn with the window storage. The storage starts out silent
// and must not be retained after fn returns.
func (w Window[O]) Fill(fn func(buf []O)) error {
	if !w.Valid() {
		return ErrWindowExpired
	}

	fn(w.slot.buf)
	return nil
}

// Copy copies src into the start of the window and returns the number
// of samples copied.
func (w Window[O]) Copy(src []O) (int, error) {
	if !w.Valid() {
		return 0, ErrWindowExpired
	}

	return copy(w.slot.buf, src), nil
}
