package kinematics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/dqkinematics/dqmath"
)

// HolonomicBase is a planar mobile base with configuration (x, y, phi): a
// translation in the plane followed by a heading rotation about z. It exists
// to compose into whole bodies; wheel-level models live elsewhere.
type HolonomicBase struct {
	name   string
	base   dualquat.Number
	limits []Limit
}

// NewHolonomicBase returns a base at the origin with unbounded position limits
// and heading limited to [-pi, pi].
func NewHolonomicBase(name string) *HolonomicBase {
	return &HolonomicBase{
		name:   name,
		base:   dqmath.Identity(),
		limits: []Limit{unlimited(), unlimited(), {Min: -math.Pi, Max: math.Pi}},
	}
}

// Name returns the base's name.
func (hb *HolonomicBase) Name() string { return hb.name }

// DoF returns 3: planar position and heading.
func (hb *HolonomicBase) DoF() int { return 3 }

// Limits returns a copy of the configuration ranges.
func (hb *HolonomicBase) Limits() []Limit { return append([]Limit{}, hb.limits...) }

// SetLimits replaces the configuration ranges.
func (hb *HolonomicBase) SetLimits(limits []Limit) error {
	if len(limits) != 3 {
		return NewDimensionMismatchError(len(limits), 3)
	}
	hb.limits = append([]Limit{}, limits...)
	return nil
}

// BaseFrame returns the frame the plane is expressed in.
func (hb *HolonomicBase) BaseFrame() dualquat.Number { return hb.base }

// SetBaseFrame replaces the frame the plane is expressed in.
func (hb *HolonomicBase) SetBaseFrame(x dualquat.Number) error {
	if !dqmath.IsUnit(x, unitTol) {
		return newFrameNotUnitError("base frame")
	}
	hb.base = x
	return nil
}

// RawFKM returns the in-plane pose of the base, without the base frame.
func (hb *HolonomicBase) RawFKM(q []float64) (dualquat.Number, error) {
	if len(q) != 3 {
		return dualquat.Number{}, NewDimensionMismatchError(len(q), 3)
	}
	x, y, phi := q[0], q[1], q[2]
	c, s := math.Cos(phi/2), math.Sin(phi/2)
	return dualquat.Number{
		Real: quat.Number{Real: c, Kmag: s},
		Dual: quat.Number{Imag: (x*c + y*s) / 2, Jmag: (y*c - x*s) / 2},
	}, nil
}

// FKM returns the framed pose of the base.
func (hb *HolonomicBase) FKM(q []float64) (dualquat.Number, error) {
	raw, err := hb.RawFKM(q)
	if err != nil {
		return dualquat.Number{}, err
	}
	return dualquat.Mul(hb.base, raw), nil
}

// RawPoseJacobian returns the closed-form 8x3 Jacobian of RawFKM.
func (hb *HolonomicBase) RawPoseJacobian(q []float64) (*mat.Dense, error) {
	if len(q) != 3 {
		return nil, NewDimensionMismatchError(len(q), 3)
	}
	x, y, phi := q[0], q[1], q[2]
	c, s := math.Cos(phi/2), math.Sin(phi/2)
	return mat.NewDense(8, 3, []float64{
		0, 0, -s / 2,
		0, 0, 0,
		0, 0, 0,
		0, 0, c / 2,
		0, 0, 0,
		c / 2, s / 2, (y*c - x*s) / 4,
		-s / 2, c / 2, -(y*s + x*c) / 4,
		0, 0, 0,
	}), nil
}

// PoseJacobian returns the framed 8x3 Jacobian.
func (hb *HolonomicBase) PoseJacobian(q []float64) (*mat.Dense, error) {
	raw, err := hb.RawPoseJacobian(q)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(8, 3, nil)
	out.Mul(dqmath.Hamiplus8(hb.base), raw)
	return out, nil
}

// RawPoseJacobianDerivative returns the closed-form time derivative of
// RawPoseJacobian along qdot.
func (hb *HolonomicBase) RawPoseJacobianDerivative(q, qdot []float64) (*mat.Dense, error) {
	if len(q) != 3 {
		return nil, NewDimensionMismatchError(len(q), 3)
	}
	if len(qdot) != 3 {
		return nil, NewDimensionMismatchError(len(qdot), 3)
	}
	x, y, phi := q[0], q[1], q[2]
	xd, yd, phid := qdot[0], qdot[1], qdot[2]
	c, s := math.Cos(phi/2), math.Sin(phi/2)
	cd, sd := -s*phid/2, c*phid/2
	return mat.NewDense(8, 3, []float64{
		0, 0, -sd / 2,
		0, 0, 0,
		0, 0, 0,
		0, 0, cd / 2,
		0, 0, 0,
		cd / 2, sd / 2, (yd*c + y*cd - xd*s - x*sd) / 4,
		-sd / 2, cd / 2, -(yd*s + y*sd + xd*c + x*cd) / 4,
		0, 0, 0,
	}), nil
}

// PoseJacobianDerivative returns the framed derivative; the base frame is
// constant so its operator passes through d/dt.
func (hb *HolonomicBase) PoseJacobianDerivative(q, qdot []float64) (*mat.Dense, error) {
	raw, err := hb.RawPoseJacobianDerivative(q, qdot)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(8, 3, nil)
	out.Mul(dqmath.Hamiplus8(hb.base), raw)
	return out, nil
}

// LinkPoses returns the base frame and the framed pose.
func (hb *HolonomicBase) LinkPoses(q []float64) ([]dualquat.Number, error) {
	pose, err := hb.FKM(q)
	if err != nil {
		return nil, err
	}
	return []dualquat.Number{hb.base, pose}, nil
}
