package kinematics

import (
	"math"

	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Convention is a Denavit-Hartenberg parameterization variant. Serial chains
// share all of their FKM and Jacobian machinery across variants; only the two
// operations here differ between them.
type Convention interface {
	// Name returns "DH" or "MDH".
	Name() string
	// LinkTransform returns the unit dual quaternion of joint j displaced by
	// the joint variable q.
	LinkTransform(j Joint, q float64) dualquat.Number
	// MotionGenerator returns the constant twist w of joint j. The partial
	// derivative of a link transform x with respect to its joint variable is
	// (1/2)·w⊗x when w is expressed in the frame the link starts from.
	MotionGenerator(j Joint) dualquat.Number
}

// The two supported conventions.
var (
	// DH is the standard convention: each link is
	// Rot_z(theta)·Trans_z(d)·Trans_x(a)·Rot_x(alpha).
	DH Convention = dhConvention{}
	// MDH is the modified (proximal) convention: each link is
	// Rot_x(alpha)·Trans_x(a)·Rot_z(theta)·Trans_z(d).
	MDH Convention = mdhConvention{}
)

// displace applies the joint variable to the parameter it drives.
func displace(j Joint, q float64) (theta, d float64) {
	theta, d = j.Theta, j.D
	if j.Type == Prismatic {
		d += q
	} else {
		theta += q
	}
	return theta, d
}

type dhConvention struct{}

func (dhConvention) Name() string { return "DH" }

func (dhConvention) LinkTransform(j Joint, q float64) dualquat.Number {
	theta, d := displace(j, q)
	ct, st := math.Cos(theta/2), math.Sin(theta/2)
	ca, sa := math.Cos(j.Alpha/2), math.Sin(j.Alpha/2)
	a2, d2 := j.A/2, d/2
	h1 := ct * ca
	h2 := ct * sa
	h3 := st * sa
	h4 := st * ca
	return dualquat.Number{
		Real: quat.Number{Real: h1, Imag: h2, Jmag: h3, Kmag: h4},
		Dual: quat.Number{
			Real: -a2*h2 - d2*h4,
			Imag: a2*h1 - d2*h3,
			Jmag: a2*h4 + d2*h2,
			Kmag: -a2*h3 + d2*h1,
		},
	}
}

func (dhConvention) MotionGenerator(j Joint) dualquat.Number {
	// The joint variable acts first in the link product, so the twist is the
	// plain z axis: a rotation about it or a translation along it.
	if j.Type == Prismatic {
		return dualquat.Number{Dual: quat.Number{Kmag: 1}}
	}
	return dualquat.Number{Real: quat.Number{Kmag: 1}}
}

type mdhConvention struct{}

func (mdhConvention) Name() string { return "MDH" }

func (mdhConvention) LinkTransform(j Joint, q float64) dualquat.Number {
	theta, d := displace(j, q)
	ct, st := math.Cos(theta/2), math.Sin(theta/2)
	ca, sa := math.Cos(j.Alpha/2), math.Sin(j.Alpha/2)
	a2, d2 := j.A/2, d/2
	h1 := ca * ct
	h2 := sa * ct
	h3 := -sa * st
	h4 := ca * st
	return dualquat.Number{
		Real: quat.Number{Real: h1, Imag: h2, Jmag: h3, Kmag: h4},
		Dual: quat.Number{
			Real: -a2*h2 - d2*h4,
			Imag: a2*h1 + d2*h3,
			Jmag: -a2*h4 - d2*h2,
			Kmag: a2*h3 + d2*h1,
		},
	}
}

func (mdhConvention) MotionGenerator(j Joint) dualquat.Number {
	// Rot_x(alpha)·Trans_x(a) precedes the joint variable, so the z axis is
	// conjugated through that screw.
	sa, ca := math.Sin(j.Alpha), math.Cos(j.Alpha)
	if j.Type == Prismatic {
		return dualquat.Number{Dual: quat.Number{Jmag: -sa, Kmag: ca}}
	}
	return dualquat.Number{
		Real: quat.Number{Jmag: -sa, Kmag: ca},
		Dual: quat.Number{Jmag: -j.A * ca, Kmag: -j.A * sa},
	}
}
