package dqmath

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Hamilton operators turn quaternion products into matrix-vector products:
// vec(a⊗b) equals Hamiplus(a)·vec(b) and also Haminus(b)·vec(a). Jacobian
// assembly leans on them to move constant factors out of chain products.

// Hamiplus4 returns the 4x4 matrix of left multiplication by q.
func Hamiplus4(q quat.Number) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		q.Real, -q.Imag, -q.Jmag, -q.Kmag,
		q.Imag, q.Real, -q.Kmag, q.Jmag,
		q.Jmag, q.Kmag, q.Real, -q.Imag,
		q.Kmag, -q.Jmag, q.Imag, q.Real,
	})
}

// Haminus4 returns the 4x4 matrix of right multiplication by q.
func Haminus4(q quat.Number) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		q.Real, -q.Imag, -q.Jmag, -q.Kmag,
		q.Imag, q.Real, q.Kmag, -q.Jmag,
		q.Jmag, -q.Kmag, q.Real, q.Imag,
		q.Kmag, q.Jmag, -q.Imag, q.Real,
	})
}

// Hamiplus8 returns the 8x8 matrix of left multiplication by h, block lower
// triangular in the 4x4 operators of its parts.
func Hamiplus8(h dualquat.Number) *mat.Dense {
	out := mat.NewDense(8, 8, nil)
	setHamiltonBlocks(out, Hamiplus4(h.Real), Hamiplus4(h.Dual))
	return out
}

// Haminus8 returns the 8x8 matrix of right multiplication by h.
func Haminus8(h dualquat.Number) *mat.Dense {
	out := mat.NewDense(8, 8, nil)
	setHamiltonBlocks(out, Haminus4(h.Real), Haminus4(h.Dual))
	return out
}

// Conj4 returns the diagonal matrix C4 with vec(conj(q)) = C4·vec(q).
func Conj4() *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i, s := range []float64{1, -1, -1, -1} {
		out.Set(i, i, s)
	}
	return out
}

// Conj8 returns the diagonal matrix C8 with vec(conjquat(h)) = C8·vec(h),
// conjugating the real and dual parts alike.
func Conj8() *mat.Dense {
	out := mat.NewDense(8, 8, nil)
	for i, s := range []float64{1, -1, -1, -1, 1, -1, -1, -1} {
		out.Set(i, i, s)
	}
	return out
}

func setHamiltonBlocks(dst, real, dual *mat.Dense) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			v := real.At(i, j)
			dst.Set(i, j, v)
			dst.Set(i+4, j+4, v)
			dst.Set(i+4, j, dual.At(i, j))
		}
	}
}
