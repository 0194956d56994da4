package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 row-major values. It does not
// check orthonormality.
func NewRotationMatrix(m [9]float64) *RotationMatrix {
	return &RotationMatrix{mat: m}
}

// QuatToRotationMatrix converts a quat to a Rotation Matrix.
// reference: https://github.com/go-gl/mathgl/blob/592312d8590acb0686c14740dcf60e2f32d9c618/mgl64/quat.go#L168
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	if n := Norm(q); n != 0 && n != 1 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	x2, y2, z2 := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return &RotationMatrix{[9]float64{
		1 - 2*(y2+z2), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(x2+z2), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(x2+y2),
	}}
}

// At returns the float corresponding to the element at the specified location.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the a 3 element vector corresponding to the specified row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[row*3], Y: rm.mat[row*3+1], Z: rm.mat[row*3+2]}
}

// Col returns the a 3 element vector corresponding to the specified column.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Mul returns rm * v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	m := &rm.mat
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns the transpose, which for a rotation is also its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := &rm.mat
	return &RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}
