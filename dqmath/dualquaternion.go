// Package dqmath provides the unit dual quaternion helpers that the kinematics
// package builds on. The algebra itself comes from gonum's num/quat and
// num/dualquat; this package adds pose construction and extraction, unit
// checks, the 8-vector layout, Hamilton operator matrices, and conversions to
// and from homogeneous transforms.
package dqmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Identity returns the multiplicative identity, representing a zero
// displacement.
func Identity() dualquat.Number {
	return dualquat.Number{Real: quat.Number{Real: 1}}
}

// FromRotation returns the dual quaternion of a pure rotation.
func FromRotation(r quat.Number) dualquat.Number {
	return dualquat.Number{Real: r}
}

// FromTranslation returns the dual quaternion of a pure translation.
func FromTranslation(t r3.Vector) dualquat.Number {
	return dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{Imag: t.X / 2, Jmag: t.Y / 2, Kmag: t.Z / 2},
	}
}

// FromPose returns the dual quaternion rotating by r and then translating the
// result by t, i.e. r + (ε/2)·t·r. The rotation should be a unit quaternion.
func FromPose(r quat.Number, t r3.Vector) dualquat.Number {
	tq := quat.Number{Imag: t.X, Jmag: t.Y, Kmag: t.Z}
	return dualquat.Number{Real: r, Dual: quat.Scale(0.5, quat.Mul(tq, r))}
}

// Rotation returns the rotation of a unit dual quaternion.
func Rotation(h dualquat.Number) quat.Number {
	return h.Real
}

// Translation returns the translation of a unit dual quaternion. Multiplying
// by the combined conjugate cancels the rotation and leaves the translation,
// already doubled, in the dual part.
func Translation(h dualquat.Number) r3.Vector {
	t := dualquat.Mul(h, dualquat.Conj(h)).Dual
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// IsUnit reports whether h is a unit dual quaternion within tol: the real part
// has unit norm and the real and dual parts are orthogonal.
func IsUnit(h dualquat.Number, tol float64) bool {
	return scalar.EqualWithinAbs(quat.Abs(h.Real), 1, tol) &&
		scalar.EqualWithinAbs(quatDot(h.Real, h.Dual), 0, tol)
}

// Normalize returns the closest unit dual quaternion to h, rescaling the real
// part and projecting the dual part onto its orthogonal complement. The result
// is NaN if the real part of h has zero norm.
func Normalize(h dualquat.Number) dualquat.Number {
	n := quat.Abs(h.Real)
	r := quat.Scale(1/n, h.Real)
	d := quat.Scale(1/n, h.Dual)
	d = quat.Sub(d, quat.Scale(quatDot(r, d), r))
	return dualquat.Number{Real: r, Dual: d}
}

// AlmostEqual reports whether a and b match componentwise within tol.
func AlmostEqual(a, b dualquat.Number, tol float64) bool {
	return quatAlmostEqual(a.Real, b.Real, tol) && quatAlmostEqual(a.Dual, b.Dual, tol)
}

// PoseAlmostEqual reports whether a and b represent the same displacement
// within tol. A unit dual quaternion and its negation encode the same pose.
func PoseAlmostEqual(a, b dualquat.Number, tol float64) bool {
	return AlmostEqual(a, b, tol) || AlmostEqual(a, dualquat.Scale(-1, b), tol)
}

// Vec8 returns the 8-vector form of h, laid out as
// (w, x, y, z, dw, dx, dy, dz).
func Vec8(h dualquat.Number) []float64 {
	return []float64{
		h.Real.Real, h.Real.Imag, h.Real.Jmag, h.Real.Kmag,
		h.Dual.Real, h.Dual.Imag, h.Dual.Jmag, h.Dual.Kmag,
	}
}

// FromVec8 is the inverse of Vec8. It panics if v does not have length 8.
func FromVec8(v []float64) dualquat.Number {
	if len(v) != 8 {
		panic("dqmath: vec8 must have length 8")
	}
	return dualquat.Number{
		Real: quat.Number{Real: v[0], Imag: v[1], Jmag: v[2], Kmag: v[3]},
		Dual: quat.Number{Real: v[4], Imag: v[5], Jmag: v[6], Kmag: v[7]},
	}
}

// ToMat4 converts a unit dual quaternion to the equivalent homogeneous
// transform.
func ToMat4(h dualquat.Number) mgl64.Mat4 {
	r := h.Real
	rot := mgl64.Quat{W: r.Real, V: mgl64.Vec3{r.Imag, r.Jmag, r.Kmag}}.Mat4()
	t := Translation(h)
	return mgl64.Translate3D(t.X, t.Y, t.Z).Mul4(rot)
}

// FromMat4 converts a homogeneous transform with an orthonormal rotation block
// to a unit dual quaternion.
func FromMat4(m mgl64.Mat4) dualquat.Number {
	q := mgl64.Mat4ToQuat(m)
	r := quat.Number{Real: q.W, Imag: q.V.X(), Jmag: q.V.Y(), Kmag: q.V.Z()}
	return FromPose(r, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)})
}

func quatDot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

func quatAlmostEqual(a, b quat.Number, tol float64) bool {
	return scalar.EqualWithinAbs(a.Real, b.Real, tol) &&
		scalar.EqualWithinAbs(a.Imag, b.Imag, tol) &&
		scalar.EqualWithinAbs(a.Jmag, b.Jmag, tol) &&
		scalar.EqualWithinAbs(a.Kmag, b.Kmag, tol)
}
