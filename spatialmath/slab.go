package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// ParallelEpsilon is the magnitude below which a unit-direction component is treated as zero:
// the ray is parallel to that axis' pair of slab planes and never crosses a voxel face on it.
// Intersection and traversal both classify components through AxisDirection so they agree.
const ParallelEpsilon = 1e-12

// AxisPriority is the order in which axes win ties when a ray crosses faces on several axes at
// the same distance (it passes exactly through a voxel edge or corner): x, then y, then z.
var AxisPriority = [3]int{0, 1, 2}

// AxisStep classifies one direction component.
type AxisStep struct {
	// Step is +1 or -1 along the axis, or 0 when the ray is parallel to it.
	Step int
	// Inv is 1/component, or +Inf when Step is 0.
	Inv float64
}

// Parallel reports whether the ray never crosses a face on this axis.
func (s AxisStep) Parallel() bool {
	return s.Step == 0
}

// AxisDirection classifies a unit-direction component d.
func AxisDirection(d float64) AxisStep {
	switch {
	case math.Abs(d) < ParallelEpsilon:
		return AxisStep{Step: 0, Inv: math.Inf(1)}
	case d > 0:
		return AxisStep{Step: 1, Inv: 1 / d}
	default:
		return AxisStep{Step: -1, Inv: 1 / d}
	}
}

// AxisSteps classifies every component of a unit direction.
func AxisSteps(dir r3.Vector) [3]AxisStep {
	return [3]AxisStep{AxisDirection(dir.X), AxisDirection(dir.Y), AxisDirection(dir.Z)}
}

// Interval is the range of ray distances [Entry, Exit] spent inside a box. A negative Entry
// means the ray origin is already inside.
type Interval struct {
	Entry float64
	Exit  float64
}

// Length returns the distance covered by the interval in front of the origin.
func (iv Interval) Length() float64 {
	return iv.Exit - math.Max(iv.Entry, 0)
}

// Contains reports whether t lies in the closed interval.
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Entry && t <= iv.Exit
}

// IntersectSlabs intersects the ray origin + t*dir with the box [-half, +half] centred on the
// local origin. dir must already be unit length. Faces are inclusive, so a ray grazing a face
// or edge hits with Entry == Exit.
func IntersectSlabs(origin, dir r3.Vector, half [3]float64) (Interval, bool) {
	o := VectorToArray(origin)
	steps := AxisSteps(dir)
	iv := Interval{Entry: math.Inf(-1), Exit: math.Inf(1)}
	for _, axis := range AxisPriority {
		s := steps[axis]
		if s.Parallel() {
			if o[axis] < -half[axis] || o[axis] > half[axis] {
				return Interval{}, false
			}
			continue
		}
		t1 := (-half[axis] - o[axis]) * s.Inv
		t2 := (half[axis] - o[axis]) * s.Inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > iv.Entry {
			iv.Entry = t1
		}
		if t2 < iv.Exit {
			iv.Exit = t2
		}
		if iv.Entry > iv.Exit {
			return Interval{}, false
		}
	}
	if iv.Exit < 0 {
		return Interval{}, false
	}
	return iv, true
}
