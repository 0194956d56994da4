package navigator

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/latim/voxnav/spatialmath"
	"github.com/latim/voxnav/voxel"
)

// PushDistance is how far a particle is moved past a boundary before it is located again, so that
// a point on a shared face is assigned to the solid it is entering.
const PushDistance = 1e-6

// NoMaterial is reported for solids registered without a material table.
const NoMaterial = -1

// BoundaryKind is the kind of the next geometric boundary along a ray.
type BoundaryKind int

const (
	// NoBoundary means the ray meets nothing.
	NoBoundary BoundaryKind = iota
	// VoxelCrossing is a face between two voxels of the same solid.
	VoxelCrossing
	// SolidExit is the far face of the current solid.
	SolidExit
	// SolidEntry is the near face of a solid the particle is not inside yet.
	SolidEntry
)

func (k BoundaryKind) String() string {
	switch k {
	case NoBoundary:
		return "none"
	case VoxelCrossing:
		return "voxel-crossing"
	case SolidExit:
		return "solid-exit"
	case SolidEntry:
		return "solid-entry"
	default:
		return "unknown"
	}
}

// Boundary describes the next boundary met by a ray.
//
// For VoxelCrossing and SolidExit, Voxel is the voxel being left and Material its material. For
// SolidEntry they describe the first voxel entered. Next is only set for VoxelCrossing.
type Boundary struct {
	Kind     BoundaryKind
	Distance float64
	Solid    SolidID
	Voxel    voxel.Index
	Flat     int
	Material int
	Next     voxel.Index
}

func noBoundary() Boundary {
	return Boundary{Kind: NoBoundary, Distance: math.Inf(1), Solid: NoSolid, Material: NoMaterial}
}

// NextBoundary returns the next boundary of a particle at point moving along dir. With
// current == NoSolid it is the nearest solid entry; otherwise it is the next voxel face or the
// exit face of current.
func (r *Registry) NextBoundary(point, dir r3.Vector, current SolidID) (Boundary, error) {
	unit, err := spatialmath.NormalizeDirection(dir)
	if err != nil {
		return Boundary{}, err
	}
	if current == NoSolid {
		return r.distanceToIn(point, unit), nil
	}
	e, ok := r.entries[current]
	if !ok {
		return Boundary{}, errors.Wrapf(ErrUnknownSolid, "solid %d", current)
	}
	return e.nextBoundary(current, point, unit), nil
}

// DistanceToIn returns the nearest solid entry of a particle at point moving along dir. Solids
// the ray only grazes are ignored; distance ties go to the earlier registered solid.
func (r *Registry) DistanceToIn(point, dir r3.Vector) (Boundary, error) {
	unit, err := spatialmath.NormalizeDirection(dir)
	if err != nil {
		return Boundary{}, err
	}
	return r.distanceToIn(point, unit), nil
}

func (r *Registry) distanceToIn(point, unit r3.Vector) Boundary {
	best := noBoundary()
	for _, id := range r.order {
		e := r.entries[id]
		obb := e.solid.OBB()
		lo := obb.ToLocal(point)
		ld := obb.ToLocalDirection(unit)
		iv, hit := obb.IntersectLocal(lo, ld)
		if !hit {
			continue
		}
		start := math.Max(iv.Entry, 0)
		if !(iv.Exit > start) || !(start < best.Distance) {
			continue
		}
		trav := e.solid.Traverse(lo, ld, iv, math.Inf(1))
		first := trav.Current()
		flat := first.Flat(e.solid.Counts())
		best = Boundary{
			Kind:     SolidEntry,
			Distance: start,
			Solid:    id,
			Voxel:    first,
			Flat:     flat,
			Material: e.materialAt(flat),
		}
	}
	return best
}

func (e *entry) nextBoundary(id SolidID, point, unit r3.Vector) Boundary {
	obb := e.solid.OBB()
	lo := obb.ToLocal(point)
	ld := obb.ToLocalDirection(unit)
	iv, hit := obb.IntersectLocal(lo, ld)
	if !hit {
		b := noBoundary()
		b.Solid = id
		return b
	}

	trav := e.solid.Traverse(lo, ld, iv, math.Inf(1))
	seg, ok := trav.Next()
	if !ok {
		if iv.Entry > 0 {
			// grazes the box ahead without entering it
			b := noBoundary()
			b.Solid = id
			return b
		}
		// already on the exit face
		idx, _ := e.solid.VoxelAt(lo)
		flat := idx.Flat(e.solid.Counts())
		return Boundary{
			Kind:     SolidExit,
			Distance: math.Max(iv.Exit, 0),
			Solid:    id,
			Voxel:    idx,
			Flat:     flat,
			Material: e.materialAt(flat),
		}
	}
	b := Boundary{
		Kind:     VoxelCrossing,
		Distance: seg.Exit,
		Solid:    id,
		Voxel:    seg.Voxel,
		Flat:     seg.Flat,
		Material: e.materialAt(seg.Flat),
	}
	if iv.Entry > 0 {
		b.Kind = SolidEntry
		b.Distance = seg.Entry
		return b
	}
	if trav.Done() {
		b.Kind = SolidExit
	} else {
		b.Next = trav.Current()
	}
	return b
}

// Advance moves a particle at point along dir past boundary b and locates it again. A particle
// with no boundary ahead is left where it is and reported outside every solid.
func (r *Registry) Advance(point, dir r3.Vector, b Boundary) (r3.Vector, SolidID, error) {
	unit, err := spatialmath.NormalizeDirection(dir)
	if err != nil {
		return point, NoSolid, err
	}
	if b.Kind == NoBoundary {
		return point, NoSolid, nil
	}
	next := point.Add(unit.Mul(b.Distance + PushDistance))
	return next, r.Locate(next), nil
}
