package kinematics

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"

	"github.com/viam-labs/dqkinematics/dqmath"
)

// fdJacobian differentiates a pose evaluation entrywise with central
// differences. eval must tolerate the full configuration even when cols covers
// only a prefix of it.
func fdJacobian(eval func([]float64) dualquat.Number, q []float64, cols int) *mat.Dense {
	out := mat.NewDense(8, cols, nil)
	for c := 0; c < cols; c++ {
		for r := 0; r < 8; r++ {
			rIdx, cIdx := r, c
			out.Set(r, c, fd.Derivative(func(v float64) float64 {
				qq := append([]float64{}, q...)
				qq[cIdx] = v
				return dqmath.Vec8(eval(qq))[rIdx]
			}, q[c], &fd.Settings{Formula: fd.Central}))
		}
	}
	return out
}

func TestPoseJacobianFiniteDifference(t *testing.T) {
	r := rand.New(rand.NewSource(20))
	for _, c := range []Convention{DH, MDH} {
		m := randomManipulator(t, c, 4, r)
		test.That(t, m.SetBaseFrame(randomUnitFrame(r)), test.ShouldBeNil)
		test.That(t, m.SetEffectorFrame(randomUnitFrame(r)), test.ShouldBeNil)

		q := RandomConfiguration(m, r)
		jac, err := m.PoseJacobian(q)
		test.That(t, err, test.ShouldBeNil)
		rows, cols := jac.Dims()
		test.That(t, rows, test.ShouldEqual, 8)
		test.That(t, cols, test.ShouldEqual, 4)

		want := fdJacobian(func(qq []float64) dualquat.Number {
			pose, err := m.FKM(qq)
			test.That(t, err, test.ShouldBeNil)
			return pose
		}, q, 4)
		test.That(t, mat.EqualApprox(jac, want, 1e-6), test.ShouldBeTrue)
	}
}

func TestRawPoseJacobianToFiniteDifference(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	m := randomManipulator(t, MDH, 4, r)
	q := RandomConfiguration(m, r)

	jac, err := m.RawPoseJacobianTo(q, 2)
	test.That(t, err, test.ShouldBeNil)
	rows, cols := jac.Dims()
	test.That(t, rows, test.ShouldEqual, 8)
	test.That(t, cols, test.ShouldEqual, 2)

	want := fdJacobian(func(qq []float64) dualquat.Number {
		pose, err := m.RawFKMTo(qq, 2)
		test.That(t, err, test.ShouldBeNil)
		return pose
	}, q, 2)
	test.That(t, mat.EqualApprox(jac, want, 1e-6), test.ShouldBeTrue)
}

func TestPoseJacobianDerivativeFiniteDifference(t *testing.T) {
	r := rand.New(rand.NewSource(22))
	for _, c := range []Convention{DH, MDH} {
		m := randomManipulator(t, c, 4, r)
		test.That(t, m.SetBaseFrame(randomUnitFrame(r)), test.ShouldBeNil)
		test.That(t, m.SetEffectorFrame(randomUnitFrame(r)), test.ShouldBeNil)

		q := RandomConfiguration(m, r)
		qdot := RandomConfiguration(m, r)
		jdot, err := m.PoseJacobianDerivative(q, qdot)
		test.That(t, err, test.ShouldBeNil)

		for ri := 0; ri < 8; ri++ {
			for ci := 0; ci < 4; ci++ {
				rIdx, cIdx := ri, ci
				want := fd.Derivative(func(tt float64) float64 {
					qq := make([]float64, len(q))
					for i := range q {
						qq[i] = q[i] + tt*qdot[i]
					}
					jac, err := m.PoseJacobian(qq)
					test.That(t, err, test.ShouldBeNil)
					return jac.At(rIdx, cIdx)
				}, 0, &fd.Settings{Formula: fd.Central})
				test.That(t, jdot.At(ri, ci), test.ShouldAlmostEqual, want, 1e-4)
			}
		}
	}
}

func TestRawPoseJacobianDerivativeToFiniteDifference(t *testing.T) {
	r := rand.New(rand.NewSource(23))
	m := randomManipulator(t, DH, 4, r)
	q := RandomConfiguration(m, r)
	qdot := RandomConfiguration(m, r)

	jdot, err := m.RawPoseJacobianDerivativeTo(q, qdot, 3)
	test.That(t, err, test.ShouldBeNil)
	rows, cols := jdot.Dims()
	test.That(t, rows, test.ShouldEqual, 8)
	test.That(t, cols, test.ShouldEqual, 3)

	for ri := 0; ri < 8; ri++ {
		for ci := 0; ci < 3; ci++ {
			rIdx, cIdx := ri, ci
			want := fd.Derivative(func(tt float64) float64 {
				qq := make([]float64, len(q))
				for i := range q {
					qq[i] = q[i] + tt*qdot[i]
				}
				jac, err := m.RawPoseJacobianTo(qq, 3)
				test.That(t, err, test.ShouldBeNil)
				return jac.At(rIdx, cIdx)
			}, 0, &fd.Settings{Formula: fd.Central})
			test.That(t, jdot.At(ri, ci), test.ShouldAlmostEqual, want, 1e-4)
		}
	}
}

func TestPoseJacobianDerivativeZeroVelocity(t *testing.T) {
	r := rand.New(rand.NewSource(24))
	m := randomManipulator(t, MDH, 3, r)
	q := RandomConfiguration(m, r)

	jdot, err := m.PoseJacobianDerivative(q, []float64{0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(jdot, mat.NewDense(8, 3, nil)), test.ShouldBeTrue)
}

func TestPrismaticChainKeepsRotationFixed(t *testing.T) {
	// A chain of prismatic joints never changes its rotation, so the rotation
	// block of its Jacobian vanishes.
	joints := []Joint{
		{Alpha: 0.3, A: 0.1, Type: Prismatic},
		{Alpha: -0.7, A: 0.4, Type: Prismatic},
	}
	m, err := NewSerialManipulatorFromJoints(MDH, joints)
	test.That(t, err, test.ShouldBeNil)

	jac, err := m.PoseJacobian([]float64{0.2, 0.5})
	test.That(t, err, test.ShouldBeNil)
	rot, err := RotationJacobian(jac)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(rot, mat.NewDense(4, 2, nil), 1e-12), test.ShouldBeTrue)
}

func TestRotationJacobian(t *testing.T) {
	r := rand.New(rand.NewSource(25))
	m := randomManipulator(t, DH, 3, r)
	q := RandomConfiguration(m, r)
	jac, err := m.PoseJacobian(q)
	test.That(t, err, test.ShouldBeNil)

	rot, err := RotationJacobian(jac)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(rot, jac.Slice(0, 4, 0, 3)), test.ShouldBeTrue)

	_, err = RotationJacobian(mat.NewDense(4, 3, nil))
	test.That(t, errors.Is(err, ErrInvalidParameterShape), test.ShouldBeTrue)
}

func TestTranslationJacobianFiniteDifference(t *testing.T) {
	r := rand.New(rand.NewSource(26))
	m := randomManipulator(t, MDH, 4, r)
	test.That(t, m.SetBaseFrame(randomUnitFrame(r)), test.ShouldBeNil)
	q := RandomConfiguration(m, r)

	pose, err := m.FKM(q)
	test.That(t, err, test.ShouldBeNil)
	jac, err := m.PoseJacobian(q)
	test.That(t, err, test.ShouldBeNil)
	jt, err := TranslationJacobian(jac, pose)
	test.That(t, err, test.ShouldBeNil)
	rows, cols := jt.Dims()
	test.That(t, rows, test.ShouldEqual, 4)
	test.That(t, cols, test.ShouldEqual, 4)

	for ci := 0; ci < 4; ci++ {
		test.That(t, jt.At(0, ci), test.ShouldAlmostEqual, 0, 1e-9)
		for axis := 0; axis < 3; axis++ {
			cIdx, aIdx := ci, axis
			want := fd.Derivative(func(v float64) float64 {
				qq := append([]float64{}, q...)
				qq[cIdx] = v
				p, err := m.FKM(qq)
				test.That(t, err, test.ShouldBeNil)
				tr := dqmath.Translation(p)
				return []float64{tr.X, tr.Y, tr.Z}[aIdx]
			}, q[ci], &fd.Settings{Formula: fd.Central})
			test.That(t, jt.At(axis+1, ci), test.ShouldAlmostEqual, want, 1e-6)
		}
	}

	_, err = TranslationJacobian(mat.NewDense(4, 3, nil), pose)
	test.That(t, errors.Is(err, ErrInvalidParameterShape), test.ShouldBeTrue)
}
