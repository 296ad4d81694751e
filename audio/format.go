// SPDX-License-Identifier: EPL-2.0

package audio

// Format names the in-memory representation of a sample.
type Format int

const (
	FormatUnknown Format = iota
	FormatFloat32
	FormatFloat64
	FormatInt8
	FormatInt16
	FormatInt32
	FormatUint8
	FormatUint16
	FormatUint32
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatFloat32: "float32",
	FormatFloat64: "float64",
	FormatInt8:    "int8",
	FormatInt16:   "int16",
	FormatInt32:   "int32",
	FormatUint8:   "uint8",
	FormatUint16:  "uint16",
	FormatUint32:  "uint32",
}

// FormatOf returns the Format of S.
func FormatOf[S Sample]() Format {
	var zero S

	switch any(zero).(type) {
	case float32:
		return FormatFloat32
	case float64:
		return FormatFloat64
	case int8:
		return FormatInt8
	case int16:
		return FormatInt16
	case int32:
		return FormatInt32
	case uint8:
		return FormatUint8
	case uint16:
		return FormatUint16
	case uint32:
		return FormatUint32
	}

	return FormatUnknown
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}

	return formatNames[f]
}

// BitDepth is the storage size of one sample in bits.
func (f Format) BitDepth() int {
	switch f {
	case FormatInt8, FormatUint8:
		return 8
	case FormatInt16, FormatUint16:
		return 16
	case FormatFloat32, FormatInt32, FormatUint32:
		return 32
	case FormatFloat64:
		return 64
	}

	return 0
}

// IsFloat reports whether f is a floating point format.
func (f Format) IsFloat() bool {
	return f == FormatFloat32 || f == FormatFloat64
}
