package binjson

import (
	"math"
	"strconv"
	"strings"
)

// maxExact is the largest magnitude a float64 holds without precision loss.
// Int64-tagged magnitudes above it decode as decimal strings.
const maxExact = 1 << 53

// two64 is 2^64 as a float64; integral floats below it fit a uint64 magnitude.
const two64 = 18446744073709551616.0

// Number is either an exact integer (sign plus 64-bit magnitude) or a float64
// with a fractional part, an infinity or NaN. Integral floats are always held
// in integer form, so Float(3) and Int(3) are the same Number.
type Number struct {
	mag   uint64
	f     float64
	neg   bool
	float bool
}

func intNumber(neg bool, mag uint64) Number {
	return Number{neg: neg && mag != 0, mag: mag}
}

func floatNumber(f float64) Number {
	if !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f) && math.Abs(f) < two64 {
		return intNumber(f < 0, uint64(math.Abs(f)))
	}
	return Number{f: f, float: true}
}

// IsInteger reports whether n is held as an exact integer.
func (n Number) IsInteger() bool { return !n.float }

// IsNaN reports whether n is a NaN float.
func (n Number) IsNaN() bool { return n.float && math.IsNaN(n.f) }

// Negative reports whether n is below zero. Zero is never negative.
func (n Number) Negative() bool {
	if n.float {
		return n.f < 0
	}
	return n.neg
}

// Magnitude is the absolute value of an integer Number; zero for floats.
func (n Number) Magnitude() uint64 {
	if n.float {
		return 0
	}
	return n.mag
}

// Int64 returns n as an int64 when it is an integer inside the int64 range.
func (n Number) Int64() (int64, bool) {
	if n.float {
		return 0, false
	}
	if n.neg {
		if n.mag > 1<<63 {
			return 0, false
		}
		return -int64(n.mag-1) - 1, true
	}
	if n.mag > math.MaxInt64 {
		return 0, false
	}
	return int64(n.mag), true
}

// Uint64 returns n as a uint64 when it is a non-negative integer.
func (n Number) Uint64() (uint64, bool) {
	if n.float || n.neg {
		return 0, false
	}
	return n.mag, true
}

// Float64 returns n as a float64, rounding large integers.
func (n Number) Float64() float64 {
	if n.float {
		return n.f
	}
	f := float64(n.mag)
	if n.neg {
		return -f
	}
	return f
}

func (n Number) String() string {
	if n.float {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	if n.neg {
		return "-" + strconv.FormatUint(n.mag, 10)
	}
	return strconv.FormatUint(n.mag, 10)
}

// Equal compares numerically. NaN is not equal to itself.
func (n Number) Equal(o Number) bool {
	if n.float || o.float {
		return n.float && o.float && n.f == o.f
	}
	return n.neg == o.neg && n.mag == o.mag
}

// ParseNumber parses a JSON number literal. Integers keep their exact 64-bit
// magnitude; anything else goes through float64.
func ParseNumber(s string) (Number, error) {
	if neg, mag, ok := parseInteger(s); ok {
		return intNumber(neg, mag), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, err
	}
	return floatNumber(f), nil
}

// parseInteger matches ^-?[0-9]+$ and reports false when the magnitude
// does not fit a uint64.
func parseInteger(s string) (neg bool, mag uint64, ok bool) {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return false, 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false, 0, false
		}
	}
	mag, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return false, 0, false
	}
	return len(digits) != len(s), mag, true
}
