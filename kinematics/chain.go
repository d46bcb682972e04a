// Package kinematics models serial manipulators and whole-body chains with
// unit dual quaternion poses. Chains are described by DH or MDH parameter
// tables, evaluated through forward kinematics, and differentiated through
// 8xn pose Jacobians and their time derivatives.
package kinematics

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
)

// Chain is the capability contract every kinematic segment satisfies, from a
// single serial manipulator to a planar base to a whole body of them.
// Configurations are plain float64 slices of length DoF. Setters mutate the
// chain in place and are not safe to call concurrently with other methods.
type Chain interface {
	// Name returns the segment's name, possibly empty.
	Name() string
	// DoF returns the dimension of the configuration space.
	DoF() int
	// Limits returns the DoF configuration ranges.
	Limits() []Limit
	// FKM returns the framed pose of the end of the chain at configuration q.
	FKM(q []float64) (dualquat.Number, error)
	// PoseJacobian returns the 8xDoF matrix mapping configuration velocities
	// to the time derivative of Vec8(FKM(q)).
	PoseJacobian(q []float64) (*mat.Dense, error)
	// PoseJacobianDerivative returns the time derivative of PoseJacobian along
	// the configuration velocity qdot.
	PoseJacobianDerivative(q, qdot []float64) (*mat.Dense, error)
	// BaseFrame returns the frame the chain starts from.
	BaseFrame() dualquat.Number
	// SetBaseFrame replaces the frame the chain starts from. The frame must be
	// a unit dual quaternion.
	SetBaseFrame(x dualquat.Number) error
	// LinkPoses returns the framed pose at each link boundary, ordered from
	// the base. The last pose must equal FKM(q); renderers draw these
	// directly.
	LinkPoses(q []float64) ([]dualquat.Number, error)
}

// unitTol bounds how far base, effector, and fixed frames may drift from unit
// norm before setters reject them.
const unitTol = 1e-10

// RandomConfiguration returns a configuration drawn uniformly within c's
// limits. Unbounded limits are clamped to [-pi, pi]. A nil rnd falls back to a
// fixed seed.
func RandomConfiguration(c Chain, rnd *rand.Rand) []float64 {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	limits := c.Limits()
	q := make([]float64, 0, len(limits))
	for _, l := range limits {
		lo, hi := l.Min, l.Max
		if math.IsInf(lo, -1) {
			lo = -math.Pi
		}
		if math.IsInf(hi, 1) {
			hi = math.Pi
		}
		q = append(q, lo+rnd.Float64()*(hi-lo))
	}
	return q
}
