package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrDegenerateRay is returned when a ray direction has no length.
var ErrDegenerateRay = errors.New("degenerate ray direction")

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// VectorComponent returns v along axis 0 (X), 1 (Y) or 2 (Z).
func VectorComponent(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// VectorToArray returns the components of v as an array indexed by axis.
func VectorToArray(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// ArrayToVector is the inverse of VectorToArray.
func ArrayToVector(a [3]float64) r3.Vector {
	return r3.Vector{X: a[0], Y: a[1], Z: a[2]}
}

// NormalizeDirection returns dir scaled to unit length. A zero, NaN or infinite direction
// returns ErrDegenerateRay.
func NormalizeDirection(dir r3.Vector) (r3.Vector, error) {
	n := dir.Norm()
	if !(n > 0) || math.IsInf(n, 0) {
		return r3.Vector{}, errors.Wrapf(ErrDegenerateRay, "direction %v", dir)
	}
	return dir.Mul(1 / n), nil
}
