package cast

import (
	"math"
	"strconv"

	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/bfloat16"
)

type integer interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64
}

type float interface {
	float32 | float64
}

type number interface {
	integer | float
}

// half is a 16-bit float encoding that widens exactly to float32.
type half interface {
	float16.Float16 | bfloat16.BFloat16
	Float32() float32
}

// floatTextPrecision is the number of significant digits used when
// formatting floating point values, matching numpy's default.
const floatTextPrecision = 8

func isFloat[T number]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}

func isSigned[T number]() bool {
	var zero T
	return zero-1 < zero
}

// floatToInt narrows f to the integer kind D. NaN becomes 0; other values
// truncate toward zero, saturate to the 64-bit intermediate and then wrap
// modulo 2^N into D, independent of GOARCH.
func floatToInt[D number](f float64) D {
	switch {
	case math.IsNaN(f):
		return 0
	case isSigned[D]() || f < 0:
		var i int64
		switch {
		case f >= 0x1p63:
			i = math.MaxInt64
		case f < -0x1p63:
			i = math.MinInt64
		default:
			i = int64(f)
		}
		return D(i)
	default:
		var u uint64
		if f >= 0x1p64 {
			u = math.MaxUint64
		} else {
			u = uint64(f)
		}
		return D(u)
	}
}

// FormatFloat renders v the way the Cast operator writes floats to text:
// "NaN", "INF", "-INF", or up to 8 significant digits in %g style.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	return strconv.FormatFloat(v, 'g', floatTextPrecision, 64)
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// numberFormatter picks the text rule for T once so the per-element loop
// carries no type checks.
func numberFormatter[T number]() func(T) string {
	switch {
	case isFloat[T]():
		return func(v T) string { return FormatFloat(float64(v)) }
	case isSigned[T]():
		return func(v T) string { return strconv.FormatInt(int64(v), 10) }
	default:
		return func(v T) string { return strconv.FormatUint(uint64(v), 10) }
	}
}

// numberParser picks the widest prefix parser for T's category and narrows
// its result.
func numberParser[T number]() func(string) (T, error) {
	switch {
	case isFloat[T]():
		return func(s string) (T, error) {
			f, err := parseFloatPrefix(s)
			if err != nil {
				return 0, err
			}
			return T(f), nil
		}
	case isSigned[T]():
		return func(s string) (T, error) {
			i, err := parseIntPrefix(s)
			if err != nil {
				return 0, err
			}
			return T(i), nil
		}
	default:
		return func(s string) (T, error) {
			u, err := parseUintPrefix(s)
			if err != nil {
				return 0, err
			}
			return T(u), nil
		}
	}
}

// parseBool treats bool as an unsigned integer: any non-zero value is true.
func parseBool(s string) (bool, error) {
	u, err := parseUintPrefix(s)
	if err != nil {
		return false, err
	}
	return u != 0, nil
}

// halfParser parses into float32 first, then rounds to the half encoding.
func halfParser[H half](encode func(float32) H) func(string) (H, error) {
	parse := numberParser[float32]()
	return func(s string) (H, error) {
		f, err := parse(s)
		if err != nil {
			var zero H
			return zero, err
		}
		return encode(f), nil
	}
}
