package config

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/latim/voxnav/spatialmath"
)

// Translation is a vector in scene units (millimeters unless the scene says otherwise).
type Translation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector returns t as an r3.Vector.
func (t Translation) Vector() r3.Vector {
	return r3.Vector{X: t.X, Y: t.Y, Z: t.Z}
}

// OrientationConfig is a rotation of TH degrees around the axis (X, Y, Z). The zero value is
// the identity rotation.
type OrientationConfig struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	TH float64 `json:"th"`
}

// IsIdentity reports whether o does not rotate.
func (o OrientationConfig) IsIdentity() bool {
	return o.TH == 0
}

// Orientation converts o to a spatialmath orientation.
func (o OrientationConfig) Orientation() (spatialmath.Orientation, error) {
	if o.IsIdentity() {
		return spatialmath.NewZeroOrientation(), nil
	}
	axis := r3.Vector{X: o.X, Y: o.Y, Z: o.Z}
	norm := axis.Norm()
	if !(norm > 0) || math.IsInf(norm, 0) || math.IsNaN(o.TH) || math.IsInf(o.TH, 0) {
		return nil, errors.Errorf("invalid orientation: axis (%v, %v, %v) angle %v", o.X, o.Y, o.Z, o.TH)
	}
	return &spatialmath.R4AA{
		Theta: o.TH * math.Pi / 180,
		RX:    o.X / norm,
		RY:    o.Y / norm,
		RZ:    o.Z / norm,
	}, nil
}

// Pose returns the placement described by a translation and an orientation.
func Pose(t Translation, o OrientationConfig) (spatialmath.Pose, error) {
	orientation, err := o.Orientation()
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPose(t.Vector(), orientation), nil
}
