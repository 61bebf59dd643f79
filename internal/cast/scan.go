package cast

import (
	"math"
	"strconv"
	"strings"
)

// Text is read the way the C library's strtoll/strtoull/strtod read it:
// leading whitespace is skipped and the longest numeric prefix is
// converted. Anything after the prefix is ignored. Input without a single
// digit is a syntax error and a prefix that does not fit 64 bits is a
// range error, both as *strconv.NumError.

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c|0x20 && c|0x20 <= 'f')
}

func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func syntaxError(fn, s string) error {
	return &strconv.NumError{Func: fn, Num: s, Err: strconv.ErrSyntax}
}

// intPrefix returns the optional sign and the run of decimal digits that
// open s after whitespace. num is empty when there are no digits.
func intPrefix(s string) (num string, neg bool) {
	s = skipSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j == i {
		return "", neg
	}
	return s[:j], neg
}

// parseIntPrefix reads a signed 64-bit integer.
func parseIntPrefix(s string) (int64, error) {
	num, _ := intPrefix(s)
	if num == "" {
		return 0, syntaxError("ParseInt", s)
	}
	return strconv.ParseInt(num, 10, 64)
}

// parseUintPrefix reads an unsigned 64-bit integer. A leading '-' negates
// the magnitude modulo 2^64, so "-1" is the largest uint64.
func parseUintPrefix(s string) (uint64, error) {
	num, neg := intPrefix(s)
	if num == "" {
		return 0, syntaxError("ParseUint", s)
	}
	if num[0] == '+' || num[0] == '-' {
		num = num[1:]
	}
	u, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		u = -u
	}
	return u, nil
}

// parseFloatPrefix reads a float64: decimal with optional exponent,
// hexadecimal with optional binary exponent, or inf/infinity/nan in any
// case, each with an optional sign. Overflow is a range error.
func parseFloatPrefix(s string) (float64, error) {
	t := skipSpace(s)
	i := 0
	sign := 1
	if i < len(t) && (t[i] == '+' || t[i] == '-') {
		if t[i] == '-' {
			sign = -1
		}
		i++
	}
	rest := t[i:]
	switch {
	case hasPrefixFold(rest, "inf"):
		return math.Inf(sign), nil
	case hasPrefixFold(rest, "nan"):
		return math.NaN(), nil
	}

	num := hexFloatPrefix(t, i)
	if num == "" {
		num = decimalFloatPrefix(t, i)
	}
	if num == "" {
		return 0, syntaxError("ParseFloat", s)
	}
	return strconv.ParseFloat(num, 64)
}

// decimalFloatPrefix returns t[:end] for the decimal number starting at i,
// or "" when no mantissa digit follows.
func decimalFloatPrefix(t string, i int) string {
	j, digits := i, 0
	for j < len(t) && isDigit(t[j]) {
		j++
		digits++
	}
	if j < len(t) && t[j] == '.' {
		j++
		for j < len(t) && isDigit(t[j]) {
			j++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	if j < len(t) && t[j]|0x20 == 'e' {
		if end := exponentEnd(t, j+1); end > 0 {
			j = end
		}
	}
	return t[:j]
}

// hexFloatPrefix returns the "0x" number starting at i with a binary
// exponent appended when the text has none, or "" when no hex digit
// follows the prefix.
func hexFloatPrefix(t string, i int) string {
	if len(t)-i < 2 || t[i] != '0' || t[i+1]|0x20 != 'x' {
		return ""
	}
	j, digits := i+2, 0
	for j < len(t) && isHexDigit(t[j]) {
		j++
		digits++
	}
	if j < len(t) && t[j] == '.' {
		j++
		for j < len(t) && isHexDigit(t[j]) {
			j++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	if j < len(t) && t[j]|0x20 == 'p' {
		if end := exponentEnd(t, j+1); end > 0 {
			return t[:end]
		}
	}
	return t[:j] + "p0"
}

// exponentEnd returns the index after the signed digit run at i, or 0 when
// there is no digit.
func exponentEnd(t string, i int) int {
	if i < len(t) && (t[i] == '+' || t[i] == '-') {
		i++
	}
	j := i
	for j < len(t) && isDigit(t[j]) {
		j++
	}
	if j == i {
		return 0
	}
	return j
}
