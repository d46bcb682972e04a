package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/dqkinematics/dqmath"
)

// RawPoseJacobian returns the 8xDoF matrix mapping joint velocities to the
// time derivative of Vec8(RawFKM(q)).
func (m *SerialManipulator) RawPoseJacobian(q []float64) (*mat.Dense, error) {
	if len(q) != len(m.joints) {
		return nil, NewDimensionMismatchError(len(q), len(m.joints))
	}
	return m.rawPoseJacobian(q, len(m.joints)), nil
}

// RawPoseJacobianTo returns the 8xupTo Jacobian of the partial chain ending at
// link upTo.
func (m *SerialManipulator) RawPoseJacobianTo(q []float64, upTo int) (*mat.Dense, error) {
	if err := m.checkBound(q, upTo); err != nil {
		return nil, err
	}
	return m.rawPoseJacobian(q, upTo), nil
}

// PoseJacobian returns the Jacobian of FKM: the raw Jacobian with the constant
// base and effector frames folded in through their Hamilton operators.
func (m *SerialManipulator) PoseJacobian(q []float64) (*mat.Dense, error) {
	raw, err := m.RawPoseJacobian(q)
	if err != nil {
		return nil, err
	}
	return m.frameJacobian(raw), nil
}

// RawPoseJacobianDerivative returns the time derivative of RawPoseJacobian
// along the joint velocity qdot.
func (m *SerialManipulator) RawPoseJacobianDerivative(q, qdot []float64) (*mat.Dense, error) {
	n := len(m.joints)
	if len(q) != n {
		return nil, NewDimensionMismatchError(len(q), n)
	}
	if len(qdot) != n {
		return nil, NewDimensionMismatchError(len(qdot), n)
	}
	return m.rawPoseJacobianDerivative(q, qdot, n), nil
}

// RawPoseJacobianDerivativeTo is the bounded form of
// RawPoseJacobianDerivative, covering the partial chain ending at link upTo.
func (m *SerialManipulator) RawPoseJacobianDerivativeTo(q, qdot []float64, upTo int) (*mat.Dense, error) {
	if err := m.checkBound(q, upTo); err != nil {
		return nil, err
	}
	if len(qdot) != len(q) {
		return nil, NewDimensionMismatchError(len(qdot), len(q))
	}
	return m.rawPoseJacobianDerivative(q, qdot, upTo), nil
}

// PoseJacobianDerivative returns the time derivative of PoseJacobian along
// qdot. The frames are constant, so their operators pass through d/dt.
func (m *SerialManipulator) PoseJacobianDerivative(q, qdot []float64) (*mat.Dense, error) {
	raw, err := m.RawPoseJacobianDerivative(q, qdot)
	if err != nil {
		return nil, err
	}
	return m.frameJacobian(raw), nil
}

func (m *SerialManipulator) frameJacobian(raw *mat.Dense) *mat.Dense {
	ops := mat.NewDense(8, 8, nil)
	ops.Mul(dqmath.Hamiplus8(m.base), dqmath.Haminus8(m.effector))
	_, cols := raw.Dims()
	out := mat.NewDense(8, cols, nil)
	out.Mul(ops, raw)
	return out
}

// rawPoseJacobian walks the chain once. Column i is vec8(z_i ⊗ x_eff) where
// z_i = (1/2)·x_prefix ⊗ w_i ⊗ conjquat(x_prefix) conjugates joint i's twist
// through the links before it, and x_eff is the partial chain's pose.
func (m *SerialManipulator) rawPoseJacobian(q []float64, upTo int) *mat.Dense {
	xEff := m.rawFKMTo(q, upTo)
	out := mat.NewDense(8, upTo, nil)
	x := dqmath.Identity()
	for i := 0; i < upTo; i++ {
		w := m.convention.MotionGenerator(m.joints[i])
		z := dualquat.Scale(0.5, dualquat.Mul(dualquat.Mul(x, w), dualquat.ConjQuat(x)))
		out.SetCol(i, dqmath.Vec8(dualquat.Mul(z, xEff)))
		x = dualquat.Mul(x, m.convention.LinkTransform(m.joints[i], q[i]))
	}
	return out
}

// rawPoseJacobianDerivative differentiates each Jacobian column. The running
// sum s accumulates qdot_k·z_k for the links already folded into the prefix x,
// so the prefix velocity is always s⊗x and no partial Jacobian is recomputed.
func (m *SerialManipulator) rawPoseJacobianDerivative(q, qdot []float64, upTo int) *mat.Dense {
	c8 := dqmath.Conj8()
	zs := make([]dualquat.Number, upTo)
	zdots := make([]*mat.VecDense, upTo)

	x := dqmath.Identity()
	var s dualquat.Number
	for i := 0; i < upTo; i++ {
		w := m.convention.MotionGenerator(m.joints[i])
		xc := dualquat.ConjQuat(x)
		zs[i] = dualquat.Scale(0.5, dualquat.Mul(dualquat.Mul(x, w), xc))

		zdot := mat.NewVecDense(8, nil)
		if i > 0 {
			// zdot_i = (1/2)(xdot⊗w⊗conj(x) + x⊗w⊗conj(xdot))
			op := mat.NewDense(8, 8, nil)
			op.Mul(dqmath.Hamiplus8(dualquat.Mul(x, w)), c8)
			op.Add(op, dqmath.Haminus8(dualquat.Mul(w, xc)))
			op.Scale(0.5, op)
			xdot := dualquat.Mul(s, x)
			zdot.MulVec(op, mat.NewVecDense(8, dqmath.Vec8(xdot)))
		}
		zdots[i] = zdot

		s = dualquat.Add(s, dualquat.Scale(qdot[i], zs[i]))
		x = dualquat.Mul(x, m.convention.LinkTransform(m.joints[i], q[i]))
	}

	xEff := x
	hmEff := dqmath.Haminus8(xEff)
	vecEffDot := mat.NewVecDense(8, dqmath.Vec8(dualquat.Mul(s, xEff)))

	out := mat.NewDense(8, upTo, nil)
	col := mat.NewVecDense(8, nil)
	tmp := mat.NewVecDense(8, nil)
	for i := 0; i < upTo; i++ {
		col.MulVec(hmEff, zdots[i])
		tmp.MulVec(dqmath.Hamiplus8(zs[i]), vecEffDot)
		col.AddVec(col, tmp)
		out.SetCol(i, col.RawVector().Data)
	}
	return out
}

// RotationJacobian returns the 4xn block of a pose Jacobian driving the
// rotation quaternion: its first four rows.
func RotationJacobian(poseJacobian *mat.Dense) (*mat.Dense, error) {
	rows, cols := poseJacobian.Dims()
	if rows != 8 {
		return nil, fmt.Errorf("%w: pose jacobian must have 8 rows, got %dx%d",
			ErrInvalidParameterShape, rows, cols)
	}
	out := mat.NewDense(4, cols, nil)
	out.Copy(poseJacobian.Slice(0, 4, 0, cols))
	return out, nil
}

// TranslationJacobian returns the 4xn map from configuration velocities to the
// derivative of the translation quaternion (0, tx, ty, tz), given a pose
// Jacobian and the pose it was evaluated at.
func TranslationJacobian(poseJacobian *mat.Dense, pose dualquat.Number) (*mat.Dense, error) {
	rows, cols := poseJacobian.Dims()
	if rows != 8 {
		return nil, fmt.Errorf("%w: pose jacobian must have 8 rows, got %dx%d",
			ErrInvalidParameterShape, rows, cols)
	}
	// t = 2·dual⊗conj(real), so tdot splits across the two Jacobian blocks.
	left := mat.NewDense(4, cols, nil)
	left.Mul(dqmath.Haminus4(quat.Conj(pose.Real)), poseJacobian.Slice(4, 8, 0, cols))
	rightOp := mat.NewDense(4, 4, nil)
	rightOp.Mul(dqmath.Hamiplus4(pose.Dual), dqmath.Conj4())
	right := mat.NewDense(4, cols, nil)
	right.Mul(rightOp, poseJacobian.Slice(0, 4, 0, cols))
	out := mat.NewDense(4, cols, nil)
	out.Add(left, right)
	out.Scale(2, out)
	return out, nil
}
