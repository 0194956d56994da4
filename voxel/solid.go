// Package voxel describes voxelized solids (a regular grid placed in the world by an oriented
// bounding box) and walks rays through their voxels.
package voxel

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/latim/voxnav/spatialmath"
	"github.com/latim/voxnav/utils"
)

// ErrConfiguration marks a structurally invalid solid or scene. It is returned at setup time and
// is never corrected silently.
var ErrConfiguration = errors.New("invalid voxelized solid configuration")

func newConfigurationError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// Solid is the immutable descriptor of one voxelized solid: grid resolution, voxel size and the
// oriented bounding box that places the grid in the world. The box half extents are always
// counts*sizes/2 and cannot be set independently.
type Solid struct {
	id     int
	counts [3]int
	sizes  [3]float64
	total  int
	obb    *spatialmath.OBB
}

// NewSolid validates the grid and builds its bounding box. The grid is centred on the placement
// pose, with voxel (0,0,0) at the most negative local corner.
func NewSolid(id int, counts [3]int, sizes r3.Vector, placement spatialmath.Pose) (*Solid, error) {
	sz := spatialmath.VectorToArray(sizes)
	var errs error
	total := 1
	for axis := 0; axis < 3; axis++ {
		if counts[axis] < 0 {
			errs = multierr.Append(errs,
				newConfigurationError("solid %d: voxel count on axis %s is negative (%d)", id, axisName(axis), counts[axis]))
		}
		if !(sz[axis] > 0) || math.IsInf(sz[axis], 0) {
			errs = multierr.Append(errs,
				newConfigurationError("solid %d: voxel size on axis %s must be positive and finite (%v)", id, axisName(axis), sz[axis]))
		}
	}
	if errs != nil {
		return nil, errs
	}
	for axis := 0; axis < 3; axis++ {
		if counts[axis] != 0 && total > math.MaxInt32/counts[axis] {
			return nil, newConfigurationError("solid %d: voxel grid %v is too large", id, counts)
		}
		total *= counts[axis]
	}

	half := r3.Vector{
		X: float64(counts[0]) * sz[0] / 2,
		Y: float64(counts[1]) * sz[1] / 2,
		Z: float64(counts[2]) * sz[2] / 2,
	}
	obb, err := spatialmath.NewOBB(placement, half)
	if err != nil {
		return nil, newConfigurationError("solid %d: %v", id, err)
	}
	return &Solid{id: id, counts: counts, sizes: sz, total: total, obb: obb}, nil
}

// NewSolidFromTotal is NewSolid for metadata that also records the voxel total, which must match
// the product of the per-axis counts.
func NewSolidFromTotal(id, total int, counts [3]int, sizes r3.Vector, placement spatialmath.Pose) (*Solid, error) {
	s, err := NewSolid(id, counts, sizes, placement)
	if err != nil {
		return nil, err
	}
	if s.total != total {
		return nil, newConfigurationError("solid %d: voxel total %d does not match %dx%dx%d = %d",
			id, total, counts[0], counts[1], counts[2], s.total)
	}
	return s, nil
}

func axisName(axis int) string {
	return [3]string{"x", "y", "z"}[axis]
}

// String returns a human readable string that represents the solid.
func (s *Solid) String() string {
	return fmt.Sprintf("solid %d: %dx%dx%d voxels of %.3gx%.3gx%.3g | %v",
		s.id, s.counts[0], s.counts[1], s.counts[2], s.sizes[0], s.sizes[1], s.sizes[2], s.obb)
}

// ID returns the solid identifier.
func (s *Solid) ID() int {
	return s.id
}

// Counts returns the number of voxels along each local axis.
func (s *Solid) Counts() [3]int {
	return s.counts
}

// Sizes returns the physical size of one voxel along each local axis.
func (s *Solid) Sizes() r3.Vector {
	return spatialmath.ArrayToVector(s.sizes)
}

// NumVoxels returns nx*ny*nz.
func (s *Solid) NumVoxels() int {
	return s.total
}

// OBB returns the bounding box of the grid.
func (s *Solid) OBB() *spatialmath.OBB {
	return s.obb
}

// HalfExtents returns half the physical extent of the grid.
func (s *Solid) HalfExtents() r3.Vector {
	return spatialmath.ArrayToVector(s.obb.HalfSize())
}

// Extent returns the physical extent of the grid along each local axis.
func (s *Solid) Extent() r3.Vector {
	return s.HalfExtents().Mul(2)
}

// Valid reports whether idx addresses a voxel of this grid.
func (s *Solid) Valid(idx Index) bool {
	return idx.X >= 0 && idx.X < s.counts[0] &&
		idx.Y >= 0 && idx.Y < s.counts[1] &&
		idx.Z >= 0 && idx.Z < s.counts[2]
}

// VoxelAt returns the voxel containing a local point. Points on the outer faces belong to the
// boundary voxel; points outside the box report false.
func (s *Solid) VoxelAt(local r3.Vector) (Index, bool) {
	if s.total == 0 || !s.obb.ContainsLocal(local) {
		return Index{}, false
	}
	half := s.obb.HalfSize()
	p := spatialmath.VectorToArray(local)
	var idx [3]int
	for axis := 0; axis < 3; axis++ {
		i := int(math.Floor((p[axis] + half[axis]) / s.sizes[axis]))
		idx[axis] = clampIndex(i, s.counts[axis])
	}
	return indexFromArray(idx), true
}

// VoxelCenter returns the world position of the centre of a voxel.
func (s *Solid) VoxelCenter(idx Index) r3.Vector {
	half := s.obb.HalfSize()
	a := idx.array()
	var local [3]float64
	for axis := 0; axis < 3; axis++ {
		local[axis] = (float64(a[axis])+0.5)*s.sizes[axis] - half[axis]
	}
	return s.obb.ToWorld(spatialmath.ArrayToVector(local))
}

func clampIndex(i, n int) int {
	return utils.Clamp(i, 0, n-1)
}
