// Package spatialmath defines the rigid transforms and oriented boxes used to place voxelized
// solids in a scene, and the ray/box slab test shared by intersection and traversal.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/latim/voxnav/utils"
)

// Orientation is an interface used to express the different parameterizations of the orientation
// of a voxelized solid in 3D Euclidean space.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
	RotationMatrix() *RotationMatrix
}

// quaternion is a unit quaternion orientation.
type quaternion quat.Number

// NewZeroOrientation returns an orientatation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// NewQuaternion returns the orientation described by q. q is normalized; a zero quaternion is
// treated as no rotation.
func NewQuaternion(q quat.Number) Orientation {
	n := Norm(q)
	if n == 0 {
		return NewZeroOrientation()
	}
	nq := quaternion(quat.Scale(1/n, q))
	return &nq
}

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// EulerAngles returns orientation in Euler angle representation.
func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(q.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// OrientationAlmostEqual will return a bool describing whether 2 poses have approximately the same orientation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// OrientationBetween returns the orientation representing the difference between the two given Orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
	return &q
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage,
// so q and -q compare equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	if utils.Float64AlmostEqual(a.Real, b.Real, tol) && utils.Float64AlmostEqual(a.Imag, b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, b.Jmag, tol) && utils.Float64AlmostEqual(a.Kmag, b.Kmag, tol) {
		return true
	}
	// q and -q are the same rotation
	return utils.Float64AlmostEqual(a.Real, -b.Real, tol) && utils.Float64AlmostEqual(a.Imag, -b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, -b.Jmag, tol) && utils.Float64AlmostEqual(a.Kmag, -b.Kmag, tol)
}

// Norm returns the norm of the quaternion.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	denom := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return R4AA{Theta: angle, RX: 0, RY: 0, RZ: 1}
	}
	return R4AA{Theta: angle, RX: q.Imag / denom, RY: q.Jmag / denom, RZ: q.Kmag / denom}
}
