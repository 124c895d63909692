// Package math holds the small numeric helpers the engine shares.
package math

import (
	stdmath "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Round rounds half up, so -2.5 becomes -2 and 2.5 becomes 3.
func Round[T constraints.Float](v T) T {
	return T(stdmath.Floor(float64(v) + 0.5))
}

// Truncate drops the fractional part of a size. Negative sizes become 0.
func Truncate[T constraints.Float](v T) int {
	if v <= 0 || stdmath.IsNaN(float64(v)) {
		return 0
	}
	return int(v)
}

// Lerp interpolates linearly between a and b.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Mod is the floating point remainder of x/y, with the sign of x.
func Mod[T constraints.Float](x, y T) T {
	return T(stdmath.Mod(float64(x), float64(y)))
}
