package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// OBB is an oriented bounding box: a box of the given half size centred on the origin of its
// own local frame, placed in the world by a rigid pose. The rotation and the inverse transform
// are computed once at construction; an OBB is immutable and safe for concurrent use.
type OBB struct {
	pose     Pose
	inverse  Pose
	center   r3.Vector
	halfSize [3]float64

	rot      *RotationMatrix // local -> world
	invRot   *RotationMatrix // world -> local
	invTrans r3.Vector
}

// NewOBB instantiates an OBB placed by pose with the given half size. Negative half sizes are not
// allowed; zero is (an empty grid still has a degenerate box).
func NewOBB(pose Pose, halfSize r3.Vector) (*OBB, error) {
	if halfSize.X < 0 || halfSize.Y < 0 || halfSize.Z < 0 {
		return nil, errors.Errorf("box half size must be non-negative, got %v", halfSize)
	}
	if pose == nil {
		pose = NewZeroPose()
	}
	rot := pose.Orientation().RotationMatrix()
	invRot := rot.Transpose()
	center := pose.Point()
	return &OBB{
		pose:     pose,
		inverse:  PoseInverse(pose),
		center:   center,
		halfSize: VectorToArray(halfSize),
		rot:      rot,
		invRot:   invRot,
		invTrans: invRot.Mul(center).Mul(-1),
	}, nil
}

// String returns a human readable string that represents the box.
func (b *OBB) String() string {
	return fmt.Sprintf("Type: OBB | Position: X:%.1f, Y:%.1f, Z:%.1f | Dims: X:%.1f, Y:%.1f, Z:%.1f",
		b.center.X, b.center.Y, b.center.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Pose returns the local-to-world pose of the box.
func (b *OBB) Pose() Pose {
	return b.pose
}

// InversePose returns the cached world-to-local pose of the box.
func (b *OBB) InversePose() Pose {
	return b.inverse
}

// HalfSize returns the half extents along the local axes.
func (b *OBB) HalfSize() [3]float64 {
	return b.halfSize
}

// RotationMatrix returns the cached local-to-world rotation.
func (b *OBB) RotationMatrix() *RotationMatrix {
	return b.rot
}

// ToLocal maps a world point into the box frame.
func (b *OBB) ToLocal(p r3.Vector) r3.Vector {
	return b.invRot.Mul(p).Add(b.invTrans)
}

// ToLocalDirection rotates a world direction into the box frame. Length is preserved.
func (b *OBB) ToLocalDirection(d r3.Vector) r3.Vector {
	return b.invRot.Mul(d)
}

// ToWorld maps a point in the box frame into the world.
func (b *OBB) ToWorld(p r3.Vector) r3.Vector {
	return b.rot.Mul(p).Add(b.center)
}

// ToWorldDirection rotates a direction in the box frame into the world. Length is preserved.
func (b *OBB) ToWorldDirection(d r3.Vector) r3.Vector {
	return b.rot.Mul(d)
}

// ContainsLocal reports whether a local point is inside the box, faces included.
func (b *OBB) ContainsLocal(p r3.Vector) bool {
	return p.X >= -b.halfSize[0] && p.X <= b.halfSize[0] &&
		p.Y >= -b.halfSize[1] && p.Y <= b.halfSize[1] &&
		p.Z >= -b.halfSize[2] && p.Z <= b.halfSize[2]
}

// Contains reports whether a world point is inside the box, faces included.
func (b *OBB) Contains(p r3.Vector) bool {
	return b.ContainsLocal(b.ToLocal(p))
}

// IntersectLocal runs the slab test for a ray already expressed in the box frame with a unit direction.
func (b *OBB) IntersectLocal(origin, dir r3.Vector) (Interval, bool) {
	return IntersectSlabs(origin, dir, b.halfSize)
}

// Intersect returns the distances along the world ray at which it enters and leaves the box.
// The direction is normalized first, so distances are lengths. A miss is reported through the
// bool, not as an error; only a zero-length direction is an error.
func (b *OBB) Intersect(origin, dir r3.Vector) (Interval, bool, error) {
	unit, err := NormalizeDirection(dir)
	if err != nil {
		return Interval{}, false, err
	}
	iv, hit := b.IntersectLocal(b.ToLocal(origin), b.ToLocalDirection(unit))
	return iv, hit, nil
}
