// SPDX-License-Identifier: EPL-2.0

package audio

import "math"

// Sample is the set of PCM sample types a stream can carry.
//
// Every Sample converts to and from a normalized float32 wave in
// [-1, 1]. The wave is the interchange format between sample types.
// It is lossy for 32-bit integers and for round trips through unsigned
// types, where silence sits at the half-scale point instead of zero.
type Sample interface {
	float32 | float64 | int8 | int16 | int32 | uint8 | uint16 | uint32
}

// ToWave converts s to a wave value.
//
// Signed integers divide by their maximum. Unsigned integers are
// mapped so that 0 is -1 and the maximum is 1.
func ToWave[S Sample](s S) float32 {
	switch v := any(s).(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int8:
		return float32(v) / math.MaxInt8
	case int16:
		return float32(v) / math.MaxInt16
	case int32:
		return float32(float64(v) / math.MaxInt32)
	case uint8:
		return float32(v)/math.MaxUint8*2 - 1
	case uint16:
		return float32(v)/math.MaxUint16*2 - 1
	case uint32:
		return float32(float64(v)/math.MaxUint32*2 - 1)
	}

	return 0
}

// FromWave converts a wave value to S. Integer targets clamp w to
// [-1, 1] first.
func FromWave[S Sample](w float32) S {
	var zero S

	switch any(zero).(type) {
	case float32:
		return S(w)
	case float64:
		return S(float64(w))
	}

	x := float64(clampWave(w))

	switch any(zero).(type) {
	case int8:
		return S(int8(math.MaxInt8 * x))
	case int16:
		return S(int16(math.MaxInt16 * x))
	case int32:
		return S(int32(math.MaxInt32 * x))
	case uint8:
		const half = math.MaxUint8 / 2
		return S(uint8(half + half*x))
	case uint16:
		const half = math.MaxUint16 / 2
		return S(uint16(half + half*x))
	case uint32:
		const half = math.MaxUint32 / 2
		return S(uint32(half + half*x))
	}

	return zero
}

// Convert maps a sample between types through the wave representation.
func Convert[D, S Sample](s S) D {
	return FromWave[D](ToWave(s))
}

// MulAmp scales s by amp.
func MulAmp[S Sample](s S, amp float32) S {
	return FromWave[S](ToWave(s) * amp)
}

// Silence returns the sample value representing zero amplitude.
func Silence[S Sample]() S {
	return FromWave[S](0)
}

// FillSilence overwrites dst with silence.
func FillSilence[S Sample](dst []S) {
	silent := Silence[S]()

	var zero S
	if silent == zero {
		clear(dst)
		return
	}

	for i := range dst {
		dst[i] = silent
	}
}

// ToWaves converts src into dst and returns the number of samples
// written, which is the shorter of the two lengths.
func ToWaves[S Sample](dst []float32, src []S) int {
	n := min(len(dst), len(src))

	if f, ok := any(src).([]float32); ok {
		return copy(dst, f[:n])
	}

	for i := range n {
		dst[i] = ToWave(src[i])
	}

	return n
}

// FromWaves converts src into dst and returns the number of samples
// written, which is the shorter of the two lengths.
func FromWaves[S Sample](dst []S, src []float32) int {
	n := min(len(dst), len(src))

	if f, ok := any(dst).([]float32); ok {
		return copy(f, src[:n])
	}

	for i := range n {
		dst[i] = FromWave[S](src[i])
	}

	return n
}

func clampWave(w float32) float32 {
	if w > 1 {
		return 1
	} else if w < -1 {
		return -1
	}

	return w
}
