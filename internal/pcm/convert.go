// ABOUTME: Sample format conversion for device submission
// ABOUTME: Saturating float/int16 conversions to the device transport format
package pcm

import (
	"encoding/binary"
	"math"
)

// Format is the transport sample format negotiated with the output device.
type Format int

const (
	FormatInt16 Format = iota
	FormatInt32
	FormatFloat32
)

// String returns a human readable format name.
func (f Format) String() string {
	switch f {
	case FormatInt16:
		return "int16"
	case FormatInt32:
		return "int32"
	case FormatFloat32:
		return "float32"
	}
	return "unknown"
}

// BytesPerSample returns the encoded size of one sample.
func (f Format) BytesPerSample() int {
	if f == FormatInt16 {
		return 2
	}
	return 4
}

// Pick selects the transport format for a device: float32 when supported,
// else 32-bit fixed point, else 16-bit integer as the universal fallback.
// The choice is made once per session, not per chunk.
func Pick(supportsFloat32, supportsFixed32 bool) Format {
	if supportsFloat32 {
		return FormatFloat32
	}
	if supportsFixed32 {
		return FormatInt32
	}
	return FormatInt16
}

// FloatToInt16 converts one normalized sample to 16-bit with a saturating
// clamp. Scaling is by 2^15 so that -1.0 maps to -32768 and +1.0 saturates
// to 32767 instead of wrapping.
func FloatToInt16(s float32) int16 {
	v := float64(s) * (1 << 15)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// FloatToInt32 converts one normalized sample to 32-bit fixed point with a
// saturating clamp. Upmix decoders can emit samples well outside [-1, 1], so
// the clamp is mandatory, not defensive.
func FloatToInt32(s float32) int32 {
	v := float64(s) * (1 << 31)
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// Int16ToFloat normalizes a 16-bit sample into [-1, 1] by the maximum
// representable 16-bit magnitude.
func Int16ToFloat(s int16) float32 {
	return float32(s) / float32(math.MaxInt16)
}

// Int16ToInt32 widens a 16-bit sample to the full 32-bit fixed point range.
func Int16ToInt32(s int16) int32 {
	const ratio = math.MaxInt32 / math.MaxInt16
	return int32(s) * ratio
}

// AppendFloats encodes float samples into dst in the given transport format,
// little endian, and returns the extended slice.
func AppendFloats(dst []byte, samples []float32, f Format) []byte {
	switch f {
	case FormatFloat32:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
		}
	case FormatInt32:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(FloatToInt32(s)))
		}
	default:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(FloatToInt16(s)))
		}
	}
	return dst
}

// AppendInt16s encodes native 16-bit samples into dst in the given transport
// format, little endian, and returns the extended slice.
func AppendInt16s(dst []byte, samples []int16, f Format) []byte {
	switch f {
	case FormatFloat32:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(Int16ToFloat(s)))
		}
	case FormatInt32:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(Int16ToInt32(s)))
		}
	default:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
		}
	}
	return dst
}

// ToFloats decodes little endian transport bytes back into normalized float
// samples. Device backends that carry float32 internally use this to accept
// any negotiated format.
func ToFloats(data []byte, f Format, dst []float32) []float32 {
	switch f {
	case FormatFloat32:
		n := len(data) / 4
		for i := 0; i < n; i++ {
			dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	case FormatInt32:
		n := len(data) / 4
		for i := 0; i < n; i++ {
			v := int32(binary.LittleEndian.Uint32(data[i*4:]))
			dst = append(dst, float32(float64(v)/(1<<31)))
		}
	default:
		n := len(data) / 2
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			dst = append(dst, Int16ToFloat(v))
		}
	}
	return dst
}
