// Package bfloat16 implements the bfloat16 (brain floating point) element type.
//
// BFloat16 keeps the sign and 8-bit exponent of an IEEE 754 float32 and
// truncates the mantissa to 7 bits, so it covers the float32 range with
// reduced precision. The API mirrors github.com/x448/float16.
package bfloat16

import (
	"math"
	"strconv"
)

// BFloat16 is a 16-bit brain floating point value stored as its raw bits.
type BFloat16 uint16

// Float32 returns the exact float32 value of f.
func (f BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(f) << 16)
}

// Bits returns the IEEE bit pattern of f.
func (f BFloat16) Bits() uint16 {
	return uint16(f)
}

// IsNaN reports whether f is a NaN.
func (f BFloat16) IsNaN() bool {
	return f&0x7f80 == 0x7f80 && f&0x007f != 0
}

// String implements fmt.Stringer.
func (f BFloat16) String() string {
	return strconv.FormatFloat(float64(f.Float32()), 'f', -1, 32)
}

// Frombits returns the BFloat16 with the given bit pattern.
func Frombits(u16 uint16) BFloat16 {
	return BFloat16(u16)
}

// FromFloat32 rounds x to the nearest BFloat16, ties to even.
// NaN inputs stay NaN (quiet bit forced) instead of rounding into infinity.
func FromFloat32(x float32) BFloat16 {
	bits := math.Float32bits(x)
	if bits&0x7fffffff > 0x7f800000 {
		return BFloat16(bits>>16 | 0x0040)
	}
	lsb := (bits >> 16) & 1
	bits += 0x7fff + lsb
	return BFloat16(bits >> 16)
}

// FromFloat64 converts x to float32 first and then to BFloat16.
func FromFloat64(x float64) BFloat16 {
	return FromFloat32(float32(x))
}

// Inf returns positive infinity for sign >= 0 and negative infinity otherwise.
func Inf(sign int) BFloat16 {
	if sign >= 0 {
		return 0x7f80
	}
	return 0xff80
}

// NaN returns a quiet NaN.
func NaN() BFloat16 {
	return 0x7fc0
}
