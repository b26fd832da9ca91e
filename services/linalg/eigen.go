// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package linalg

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// ErrNotHermitian is returned when a Hermitian routine receives a matrix
// that is not Hermitian.
var ErrNotHermitian = errors.New("matrix is not Hermitian")

// ErrEigenFailed is returned when the eigensolver does not converge.
var ErrEigenFailed = errors.New("eigendecomposition failed")

// RealEmbedding returns the 2n x 2n real symmetric matrix [[X, -Y], [Y, X]]
// of a Hermitian H = X + iY. Each eigenvalue of H appears twice in the
// embedding.
func RealEmbedding(h *Matrix) *mat.SymDense {
	n := h.rows
	s := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Average the two triangles so small asymmetries do not leak in.
			v := (h.At(i, j) + cmplx.Conj(h.At(j, i))) / 2
			x, y := real(v), imag(v)
			s.SetSym(i, j, x)
			s.SetSym(n+i, n+j, x)
			s.SetSym(i, n+j, -y)
			s.SetSym(j, n+i, y)
		}
	}
	return s
}

// EigenvaluesHermitian returns the eigenvalues of h in ascending order.
func EigenvaluesHermitian(h *Matrix) ([]float64, error) {
	if !h.IsHermitian(hermTol(h)) {
		return nil, ErrNotHermitian
	}
	if h.rows == 0 {
		return nil, nil
	}
	var es mat.EigenSym
	if !es.Factorize(RealEmbedding(h), false) {
		return nil, ErrEigenFailed
	}
	all := es.Values(nil)
	out := make([]float64, h.rows)
	for i := range out {
		out[i] = (all[2*i] + all[2*i+1]) / 2
	}
	return out, nil
}

// EigenHermitian returns the eigenvalues of h in ascending order and a
// unitary whose columns are the matching eigenvectors.
//
// Description:
//
//	The real embedding doubles every eigenvalue. Its eigenvectors (u; v)
//	map to complex vectors u + iv, and each cluster of 2k real vectors
//	spans a k-dimensional complex eigenspace. A pivoted Gram-Schmidt pass
//	per cluster picks an orthonormal complex basis of that space.
func EigenHermitian(h *Matrix) ([]float64, *Matrix, error) {
	if !h.IsHermitian(hermTol(h)) {
		return nil, nil, ErrNotHermitian
	}
	n := h.rows
	if n == 0 {
		return nil, New(0, 0), nil
	}
	var es mat.EigenSym
	if !es.Factorize(RealEmbedding(h), true) {
		return nil, nil, ErrEigenFailed
	}
	all := es.Values(nil)
	var ev mat.Dense
	es.VectorsTo(&ev)

	scale := math.Max(1, h.MaxAbs())
	vals := make([]float64, 0, n)
	vecs := New(n, n)
	col := 0

	for start := 0; start < 2*n; {
		end := start + 1
		for end < 2*n && all[end]-all[start] <= 1e-8*scale {
			end++
		}
		cands := make([][]complex128, 0, end-start)
		for c := start; c < end; c++ {
			z := make([]complex128, n)
			for i := 0; i < n; i++ {
				z[i] = complex(ev.At(i, c), ev.At(n+i, c))
			}
			cands = append(cands, z)
		}
		want := (end - start + 1) / 2
		if col+want > n {
			want = n - col
		}
		var lambda float64
		for c := start; c < end; c++ {
			lambda += all[c]
		}
		lambda /= float64(end - start)
		for _, z := range pivotedGramSchmidt(cands, want) {
			for i := 0; i < n; i++ {
				vecs.Set(i, col, z[i])
			}
			vals = append(vals, lambda)
			col++
		}
		start = end
	}
	if col != n {
		return nil, nil, ErrEigenFailed
	}
	return vals, vecs, nil
}

// pivotedGramSchmidt returns up to k orthonormal vectors from cands, always
// taking the candidate with the largest remaining norm.
func pivotedGramSchmidt(cands [][]complex128, k int) [][]complex128 {
	out := make([][]complex128, 0, k)
	for len(out) < k {
		best, bestNorm := -1, 0.0
		for i, c := range cands {
			if nrm := vecNorm(c); nrm > bestNorm {
				best, bestNorm = i, nrm
			}
		}
		if best < 0 || bestNorm < 1e-10 {
			break
		}
		q := make([]complex128, len(cands[best]))
		for i, v := range cands[best] {
			q[i] = v / complex(bestNorm, 0)
		}
		out = append(out, q)
		for _, c := range cands {
			var dot complex128
			for i := range c {
				dot += cmplx.Conj(q[i]) * c[i]
			}
			for i := range c {
				c[i] -= dot * q[i]
			}
		}
	}
	return out
}

func vecNorm(v []complex128) float64 {
	var s float64
	for _, x := range v {
		s += real(x)*real(x) + imag(x)*imag(x)
	}
	return math.Sqrt(s)
}

func hermTol(h *Matrix) float64 {
	return 1e-8 * math.Max(1, h.MaxAbs())
}

// MinEigenvalue returns the smallest eigenvalue of a Hermitian matrix.
func MinEigenvalue(h *Matrix) (float64, error) {
	vals, err := EigenvaluesHermitian(h)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, nil
	}
	return vals[0], nil
}

// FromEigen rebuilds V diag(vals) V^dagger.
func FromEigen(vals []float64, v *Matrix) *Matrix {
	n := v.rows
	d := New(n, n)
	for i, l := range vals {
		d.Set(i, i, complex(l, 0))
	}
	return v.Mul(d).Mul(v.H())
}

// TraceNorm returns the sum of absolute eigenvalues of a Hermitian matrix.
func TraceNorm(h *Matrix) (float64, error) {
	vals, err := EigenvaluesHermitian(h)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, v := range vals {
		s += math.Abs(v)
	}
	return s, nil
}
