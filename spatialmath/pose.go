package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a rigid transform (rotation then translation, no scale) in 3D space.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type rigidPose struct {
	point r3.Vector
	q     quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return &rigidPose{q: quat.Number{Real: 1}}
}

// NewPose returns a pose placed at point with the given orientation. A nil orientation is no rotation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return &rigidPose{point: point, q: quat.Number{Real: 1}}
	}
	return &rigidPose{point: point, q: NewQuaternion(o.Quaternion()).Quaternion()}
}

// NewPoseFromPoint returns a pose that translates by point and does not rotate.
func NewPoseFromPoint(point r3.Vector) Pose {
	return NewPose(point, nil)
}

// NewPoseFromOrientation returns a pose that rotates by o about the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

func (p *rigidPose) Point() r3.Vector {
	return p.point
}

func (p *rigidPose) Orientation() Orientation {
	q := quaternion(p.q)
	return &q
}

func (p *rigidPose) String() string {
	aa := QuatToR4AA(p.q)
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f TH:%.4f RX:%.3f RY:%.3f RZ:%.3f}",
		p.point.X, p.point.Y, p.point.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

// Compose returns a ∘ b, the pose that first applies b and then a.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	rm := QuatToRotationMatrix(qa)
	return &rigidPose{
		point: a.Point().Add(rm.Mul(b.Point())),
		q:     quat.Mul(qa, b.Orientation().Quaternion()),
	}
}

// PoseInverse returns the pose that undoes p.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation().Quaternion())
	rm := QuatToRotationMatrix(inv)
	return &rigidPose{
		point: rm.Mul(p.Point()).Mul(-1),
		q:     inv,
	}
}

// PoseBetween returns the pose that takes a to b, so that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same, within epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// PoseToMatrix returns the homogeneous 4x4 column-major matrix of p, as consumed by renderers.
func PoseToMatrix(p Pose) mgl64.Mat4 {
	rm := p.Orientation().RotationMatrix()
	t := p.Point()
	var m mgl64.Mat4
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m.Set(row, col, rm.At(row, col))
		}
	}
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	m.Set(3, 3, 1)
	return m
}
