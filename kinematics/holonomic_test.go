package kinematics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/dqkinematics/dqmath"
)

func TestHolonomicBasePose(t *testing.T) {
	hb := NewHolonomicBase("base")
	test.That(t, hb.Name(), test.ShouldEqual, "base")
	test.That(t, hb.DoF(), test.ShouldEqual, 3)

	pose, err := hb.FKM([]float64{0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose, test.ShouldResemble, dqmath.Identity())

	x, y, phi := 1.5, -0.5, math.Pi/3
	pose, err = hb.FKM([]float64{x, y, phi})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dqmath.IsUnit(pose, 1e-12), test.ShouldBeTrue)

	rot := quat.Number{Real: math.Cos(phi / 2), Kmag: math.Sin(phi / 2)}
	want := dqmath.FromPose(rot, r3.Vector{X: x, Y: y})
	test.That(t, dqmath.AlmostEqual(pose, want, 1e-15), test.ShouldBeTrue)

	tr := dqmath.Translation(pose)
	test.That(t, tr.X, test.ShouldAlmostEqual, x, 1e-12)
	test.That(t, tr.Y, test.ShouldAlmostEqual, y, 1e-12)
	test.That(t, tr.Z, test.ShouldAlmostEqual, 0, 1e-12)
}

func TestHolonomicBaseJacobianFiniteDifference(t *testing.T) {
	r := rand.New(rand.NewSource(50))
	hb := NewHolonomicBase("base")
	test.That(t, hb.SetBaseFrame(randomUnitFrame(r)), test.ShouldBeNil)

	q := RandomConfiguration(hb, r)
	qdot := RandomConfiguration(hb, r)

	jac, err := hb.PoseJacobian(q)
	test.That(t, err, test.ShouldBeNil)
	want := fdJacobian(func(qq []float64) dualquat.Number {
		pose, err := hb.FKM(qq)
		test.That(t, err, test.ShouldBeNil)
		return pose
	}, q, 3)
	test.That(t, mat.EqualApprox(jac, want, 1e-6), test.ShouldBeTrue)

	jdot, err := hb.PoseJacobianDerivative(q, qdot)
	test.That(t, err, test.ShouldBeNil)
	for ri := 0; ri < 8; ri++ {
		for ci := 0; ci < 3; ci++ {
			rIdx, cIdx := ri, ci
			wantEntry := fd.Derivative(func(tt float64) float64 {
				qq := make([]float64, len(q))
				for i := range q {
					qq[i] = q[i] + tt*qdot[i]
				}
				j, err := hb.PoseJacobian(qq)
				test.That(t, err, test.ShouldBeNil)
				return j.At(rIdx, cIdx)
			}, 0, &fd.Settings{Formula: fd.Central})
			test.That(t, jdot.At(ri, ci), test.ShouldAlmostEqual, wantEntry, 1e-4)
		}
	}
}

func TestHolonomicBaseLimits(t *testing.T) {
	hb := NewHolonomicBase("base")
	limits := hb.Limits()
	test.That(t, len(limits), test.ShouldEqual, 3)
	test.That(t, math.IsInf(limits[0].Min, -1), test.ShouldBeTrue)
	test.That(t, math.IsInf(limits[1].Max, 1), test.ShouldBeTrue)
	test.That(t, limits[2], test.ShouldResemble, Limit{Min: -math.Pi, Max: math.Pi})

	want := []Limit{{Min: -2, Max: 2}, {Min: -3, Max: 3}, {Min: -1, Max: 1}}
	test.That(t, hb.SetLimits(want), test.ShouldBeNil)
	test.That(t, hb.Limits(), test.ShouldResemble, want)

	err := hb.SetLimits(want[:2])
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
}

func TestHolonomicBaseLinkPoses(t *testing.T) {
	r := rand.New(rand.NewSource(51))
	hb := NewHolonomicBase("base")
	base := randomUnitFrame(r)
	test.That(t, hb.SetBaseFrame(base), test.ShouldBeNil)

	q := RandomConfiguration(hb, r)
	poses, err := hb.LinkPoses(q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(poses), test.ShouldEqual, 2)
	test.That(t, poses[0], test.ShouldResemble, base)

	pose, err := hb.FKM(q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses[1], test.ShouldResemble, pose)
}

func TestHolonomicBaseErrors(t *testing.T) {
	hb := NewHolonomicBase("base")

	_, err := hb.FKM([]float64{0, 0})
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
	_, err = hb.PoseJacobian([]float64{0, 0, 0, 0})
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
	_, err = hb.PoseJacobianDerivative([]float64{0, 0, 0}, []float64{0})
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)

	err = hb.SetBaseFrame(dualquat.Scale(2, dqmath.Identity()))
	test.That(t, errors.Is(err, ErrFrameNotUnit), test.ShouldBeTrue)
}
