package voxel

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/latim/voxnav/spatialmath"
)

// ExitKind tells why a traversal stopped.
type ExitKind int

const (
	// ExitNone means the traversal has more segments.
	ExitNone ExitKind = iota
	// ExitSolid means the ray reached the far face of the solid.
	ExitSolid
	// ExitLimit means the caller's distance limit was reached inside the solid.
	ExitLimit
	// ExitMiss means the ray never entered the solid.
	ExitMiss
)

func (k ExitKind) String() string {
	switch k {
	case ExitNone:
		return "none"
	case ExitSolid:
		return "solid-exit"
	case ExitLimit:
		return "limit"
	case ExitMiss:
		return "miss"
	default:
		return "unknown"
	}
}

// Segment is the part of a ray inside one voxel. Entry and Exit are distances from the ray origin.
type Segment struct {
	Voxel  Index
	Flat   int
	Entry  float64
	Exit   float64
	Length float64
}

// Traversal walks a ray voxel by voxel (Amanatides-Woo style stepping). It is single use: call
// Next until it returns false, then read Exit. A Traversal holds no references to shared mutable
// state, so any number may run concurrently over the same Solid.
type Traversal struct {
	solid *Solid

	idx    [3]int
	step   [3]int
	tMax   [3]float64
	tDelta [3]float64

	start float64
	end   float64
	tExit float64
	t     float64
	count int
	exit  ExitKind
}

// Traverse starts a walk of the local ray origin + t*dir over the interval returned by the slab
// test for this solid. dir must be unit length. limit caps the walked distance; pass math.Inf(1)
// for none. The walk starts at max(iv.Entry, 0).
func (s *Solid) Traverse(origin, dir r3.Vector, iv spatialmath.Interval, limit float64) *Traversal {
	t := &Traversal{solid: s, exit: ExitNone}
	t.start = math.Max(iv.Entry, 0)
	t.tExit = iv.Exit
	t.end = math.Min(iv.Exit, limit)
	t.t = t.start
	if s.total == 0 || t.tExit < t.start {
		t.exit = ExitSolid
		return t
	}
	if !(t.end > t.start) {
		t.exit = ExitLimit
		if t.end >= t.tExit {
			t.exit = ExitSolid
		}
		return t
	}

	half := s.obb.HalfSize()
	o := spatialmath.VectorToArray(origin)
	d := spatialmath.VectorToArray(dir)
	steps := spatialmath.AxisSteps(dir)
	for axis := 0; axis < 3; axis++ {
		size := s.sizes[axis]
		g := o[axis] + d[axis]*t.start + half[axis]
		st := steps[axis]
		var i int
		switch st.Step {
		case 1:
			i = int(math.Floor(g / size))
		case -1:
			// a point exactly on a face belongs to the voxel the ray is moving into
			i = int(math.Ceil(g/size)) - 1
		default:
			i = int(math.Floor(g / size))
		}
		i = clampIndex(i, s.counts[axis])
		t.idx[axis] = i
		t.step[axis] = st.Step

		switch st.Step {
		case 1:
			t.tMax[axis] = t.start + (float64(i+1)*size-g)*st.Inv
			t.tDelta[axis] = size * st.Inv
		case -1:
			t.tMax[axis] = t.start + (float64(i)*size-g)*st.Inv
			t.tDelta[axis] = -size * st.Inv
		default:
			t.tMax[axis] = math.Inf(1)
			t.tDelta[axis] = math.Inf(1)
		}
		if t.tMax[axis] < t.start {
			t.tMax[axis] = t.start
		}
	}
	return t
}

// TraverseWorld intersects a world ray with the solid and starts a traversal of it. A ray that
// misses returns a traversal that is already finished with ExitMiss.
func (s *Solid) TraverseWorld(origin, dir r3.Vector, limit float64) (*Traversal, error) {
	unit, err := spatialmath.NormalizeDirection(dir)
	if err != nil {
		return nil, err
	}
	lo := s.obb.ToLocal(origin)
	ld := s.obb.ToLocalDirection(unit)
	iv, hit := s.obb.IntersectLocal(lo, ld)
	if !hit {
		return &Traversal{solid: s, exit: ExitMiss}, nil
	}
	return s.Traverse(lo, ld, iv, limit), nil
}

// nextAxis returns the axis whose face is crossed first; ties go to the earlier axis in
// spatialmath.AxisPriority.
func (t *Traversal) nextAxis() int {
	best := spatialmath.AxisPriority[0]
	for _, axis := range spatialmath.AxisPriority[1:] {
		if t.tMax[axis] < t.tMax[best] {
			best = axis
		}
	}
	return best
}

// Next returns the next segment, or false once the ray has left the solid or hit the limit.
func (t *Traversal) Next() (Segment, bool) {
	if t.exit != ExitNone {
		return Segment{}, false
	}
	cur := indexFromArray(t.idx)
	seg := Segment{Voxel: cur, Flat: cur.Flat(t.solid.counts), Entry: t.t}

	axis := t.nextAxis()
	if tNext := t.tMax[axis]; tNext >= t.end {
		seg.Exit = t.end
		if t.end < t.tExit {
			t.exit = ExitLimit
		} else {
			t.exit = ExitSolid
		}
	} else {
		seg.Exit = tNext
		t.idx[axis] += t.step[axis]
		t.tMax[axis] += t.tDelta[axis]
		if t.idx[axis] < 0 || t.idx[axis] >= t.solid.counts[axis] {
			t.exit = ExitSolid
		}
	}
	seg.Length = seg.Exit - seg.Entry
	t.t = seg.Exit
	t.count++
	return seg, true
}

// Exit returns why the traversal stopped, or ExitNone while segments remain.
func (t *Traversal) Exit() ExitKind {
	return t.exit
}

// Done reports whether Next will return no more segments.
func (t *Traversal) Done() bool {
	return t.exit != ExitNone
}

// Current returns the voxel the next segment will be in. It is only meaningful while !Done().
func (t *Traversal) Current() Index {
	return indexFromArray(t.idx)
}

// Count returns the number of segments emitted so far.
func (t *Traversal) Count() int {
	return t.count
}

// Start returns the distance at which the walk began.
func (t *Traversal) Start() float64 {
	return t.start
}

// Distance returns the distance from the ray origin reached so far.
func (t *Traversal) Distance() float64 {
	return t.t
}

// Collect drains t and returns every remaining segment.
func Collect(t *Traversal) []Segment {
	var segs []Segment
	for {
		seg, ok := t.Next()
		if !ok {
			return segs
		}
		segs = append(segs, seg)
	}
}
