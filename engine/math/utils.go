package math

import (
	"math/bits"

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

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func IsPowerOfTwo[T constraints.Unsigned](v T) bool {
	return v != 0 && v&(v-1) == 0
}

// Align rounds operand up to the next multiple of granularity, which must
// be a power of two.
func Align[T constraints.Unsigned](operand, granularity T) T {
	return (operand + (granularity - 1)) &^ (granularity - 1)
}

// MipLevels is the length of the full mip chain for a width x height image:
// floor(log2(max(width, height))) + 1. Zero sized images have no levels.
func MipLevels(width, height uint32) uint32 {
	m := Max(width, height)
	if m == 0 {
		return 0
	}
	return uint32(bits.Len32(m))
}
