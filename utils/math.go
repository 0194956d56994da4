package utils

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// MinInt returns the smaller of two ints.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clamp restricts n to [lo, hi].
func Clamp[T constraints.Ordered](n, lo, hi T) T {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
