// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sdp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// blockEntry is the restriction of a constraint matrix to one diagonal
// block.
type blockEntry struct {
	block int
	m     *mat.Dense
}

// Standard is a Problem reduced to the block-diagonal form
//
//	max Tr(C X)  s.t. Tr(A_i X) = a_i, X ⪰ 0
//	min aᵀz      s.t. Σ z_i A_i − C = Z ⪰ 0
//
// where the second (dual) program is the original problem after equality
// elimination: z are free coordinates of the affine solution set of the
// equalities and every Hermitian block has been replaced by a real
// symmetric one.
type Standard struct {
	BlockSizes []int
	C          []*mat.Dense
	A          [][]blockEntry
	Obj        []float64
	Offset     float64

	// Margin is true for feasibility problems solved as
	// max t s.t. F(z) − tI ⪰ 0, t ≤ 1. The margin is the last variable.
	Margin bool

	// Verdict is set when compilation alone decides the problem.
	Verdict Status

	flip float64
	y0   []float64
	null *mat.Dense
	keep []int
}

const (
	hermitianTol = 1e-8
	zeroTol      = 1e-14
	rankTol      = 1e-10
)

// Compile reduces p to standard form.
func Compile(p *Problem) (*Standard, error) {
	const op = "sdp.Compile"
	if p.err != nil {
		return nil, qerr.Parameter(op, "problem %q: %v", p.name, p.err)
	}
	st := &Standard{flip: 1, Verdict: StatusUnknown}
	if p.sense == Maximize {
		st.flip = -1
	}

	y0, null, ok := eliminateEqualities(p)
	if !ok {
		st.Verdict = StatusInfeasible
		return st, nil
	}
	st.y0, st.null = y0, null
	nfree := 0
	if null != nil {
		_, nfree = null.Dims()
	}

	// Objective in free coordinates.
	c := make([]float64, p.nvars)
	for k, v := range p.objective.terms {
		c[k] = real(v)
	}
	obj := make([]float64, nfree)
	for j := 0; j < nfree; j++ {
		var s float64
		for k := 0; k < p.nvars; k++ {
			s += null.At(k, j) * c[k]
		}
		obj[j] = st.flip * s
	}
	off := real(p.objective.c)
	for k := range y0 {
		off += c[k] * y0[k]
	}
	st.Offset = st.flip * off

	perVar := make([][]blockEntry, nfree)
	for _, con := range p.psd {
		f0, fs, err := compileBlock(con, y0, null)
		if err != nil {
			return nil, qerr.Parameter(op, "problem %q: %v", p.name, err)
		}
		b := len(st.BlockSizes)
		n, _ := f0.Dims()
		st.BlockSizes = append(st.BlockSizes, n)
		negF0 := mat.NewDense(n, n, nil)
		negF0.Scale(-1, f0)
		st.C = append(st.C, negF0)
		for j, f := range fs {
			if f != nil {
				perVar[j] = append(perVar[j], blockEntry{block: b, m: f})
			}
		}
	}

	for j := 0; j < nfree; j++ {
		if len(perVar[j]) == 0 {
			if math.Abs(obj[j]) > 1e-12 && p.sense != Find {
				st.Verdict = StatusUnbounded
				return st, nil
			}
			continue
		}
		st.keep = append(st.keep, j)
		st.A = append(st.A, perVar[j])
		if p.sense != Find {
			st.Obj = append(st.Obj, obj[j])
		} else {
			st.Obj = append(st.Obj, 0)
		}
	}

	if p.sense == Find {
		if len(st.BlockSizes) == 0 {
			st.Verdict = StatusFeasible
			return st, nil
		}
		st.Offset = 0
		var margin []blockEntry
		for b, n := range st.BlockSizes {
			negI := mat.NewDense(n, n, nil)
			for i := 0; i < n; i++ {
				negI.Set(i, i, -1)
			}
			margin = append(margin, blockEntry{block: b, m: negI})
		}
		// t ≤ 1
		b := len(st.BlockSizes)
		st.BlockSizes = append(st.BlockSizes, 1)
		st.C = append(st.C, mat.NewDense(1, 1, []float64{-1}))
		margin = append(margin, blockEntry{block: b, m: mat.NewDense(1, 1, []float64{-1})})
		st.A = append(st.A, margin)
		st.Obj = append(st.Obj, -1)
		st.Margin = true
	}
	return st, nil
}

// NumVars returns the number of standard-form variables.
func (st *Standard) NumVars() int { return len(st.A) }

// Dim returns the total size of the block-diagonal matrices.
func (st *Standard) Dim() int {
	var n int
	for _, b := range st.BlockSizes {
		n += b
	}
	return n
}

// Recover maps standard-form variables back to the problem's scalars.
func (st *Standard) Recover(z []float64) []float64 {
	y := append([]float64(nil), st.y0...)
	for idx, j := range st.keep {
		for k := range y {
			y[k] += st.null.At(k, j) * z[idx]
		}
	}
	return y
}

// ConstantFeasible reports whether F0 = −C is PSD in every block. It is
// the whole question when no variables survive elimination.
func (st *Standard) ConstantFeasible(tol float64) bool {
	for _, c := range st.C {
		n, _ := c.Dims()
		s := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				s.SetSym(i, j, -(c.At(i, j)+c.At(j, i))/2)
			}
		}
		var es mat.EigenSym
		if !es.Factorize(s, false) {
			return false
		}
		if es.Values(nil)[0] < -tol {
			return false
		}
	}
	return true
}

// eliminateEqualities returns a particular solution y0 and a nullspace basis
// of the equality system, or ok=false if the system is inconsistent.
func eliminateEqualities(p *Problem) (y0 []float64, null *mat.Dense, ok bool) {
	nv := p.nvars
	y0 = make([]float64, nv)
	if nv == 0 {
		for _, e := range p.eq {
			if e.expr.c.MaxAbs() > 1e-9 {
				return nil, nil, false
			}
		}
		return y0, nil, true
	}

	var rows [][]float64
	var rhs []float64
	for _, e := range p.eq {
		r, c := e.expr.Dims()
		coef := make(map[int]*linalg.Matrix, len(e.expr.terms))
		for _, k := range e.expr.Vars() {
			coef[k] = e.expr.dense(k)
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				re := make([]float64, nv)
				im := make([]float64, nv)
				var nzRe, nzIm bool
				for k, m := range coef {
					v := m.At(i, j)
					re[k], im[k] = real(v), imag(v)
					nzRe = nzRe || re[k] != 0
					nzIm = nzIm || im[k] != 0
				}
				cv := e.expr.c.At(i, j)
				if nzRe || real(cv) != 0 {
					rows = append(rows, re)
					rhs = append(rhs, -real(cv))
				}
				if nzIm || imag(cv) != 0 {
					rows = append(rows, im)
					rhs = append(rhs, -imag(cv))
				}
			}
		}
	}

	if len(rows) == 0 {
		null = mat.NewDense(nv, nv, nil)
		for i := 0; i < nv; i++ {
			null.Set(i, i, 1)
		}
		return y0, null, true
	}

	a := mat.NewDense(len(rows), nv, nil)
	for i, r := range rows {
		a.SetRow(i, r)
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, nil, false
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rank := 0
	if len(s) > 0 {
		cut := rankTol * math.Max(1, s[0]) * float64(max(len(rows), nv))
		for _, sv := range s {
			if sv > cut {
				rank++
			}
		}
	}
	for i := 0; i < rank; i++ {
		var ub float64
		for r := range rows {
			ub += u.At(r, i) * rhs[r]
		}
		ub /= s[i]
		for k := 0; k < nv; k++ {
			y0[k] += v.At(k, i) * ub
		}
	}

	var resid, bnorm float64
	for r, row := range rows {
		var ay float64
		for k, x := range row {
			ay += x * y0[k]
		}
		resid += (ay - rhs[r]) * (ay - rhs[r])
		bnorm += rhs[r] * rhs[r]
	}
	if math.Sqrt(resid) > 1e-7*(1+math.Sqrt(bnorm)) {
		return nil, nil, false
	}

	nfree := nv - rank
	if nfree == 0 {
		return y0, nil, true
	}
	null = mat.NewDense(nv, nfree, nil)
	for j := 0; j < nfree; j++ {
		for k := 0; k < nv; k++ {
			null.Set(k, j, v.At(k, rank+j))
		}
	}
	return y0, null, true
}

// compileBlock evaluates one PSD constraint at y0 and along each nullspace
// direction, returning real symmetric blocks.
func compileBlock(con psdConstraint, y0 []float64, null *mat.Dense) (*mat.Dense, []*mat.Dense, error) {
	expr := con.expr
	n, _ := expr.Dims()
	scale := math.Max(1, expr.c.MaxAbs())

	coef := make(map[int]*linalg.Matrix, len(expr.terms))
	for _, k := range expr.Vars() {
		m := expr.dense(k)
		if !m.IsHermitian(hermitianTol * math.Max(1, m.MaxAbs())) {
			return nil, nil, fmt.Errorf("constraint %q is not Hermitian", con.name)
		}
		coef[k] = m
	}
	if !expr.c.IsHermitian(hermitianTol * scale) {
		return nil, nil, fmt.Errorf("constraint %q is not Hermitian", con.name)
	}

	f0 := expr.c.Clone()
	for k, m := range coef {
		if y0[k] != 0 {
			f0 = f0.Add(m.Scale(complex(y0[k], 0)))
		}
	}

	nfree := 0
	if null != nil {
		_, nfree = null.Dims()
	}
	dirs := make([]*linalg.Matrix, nfree)
	for j := 0; j < nfree; j++ {
		var acc *linalg.Matrix
		for k, m := range coef {
			w := null.At(k, j)
			if w == 0 {
				continue
			}
			if acc == nil {
				acc = linalg.New(n, n)
			}
			acc = acc.Add(m.Scale(complex(w, 0)))
		}
		if acc != nil && acc.MaxAbs() > zeroTol {
			dirs[j] = acc
		}
	}

	isReal := isRealMatrix(f0)
	for _, d := range dirs {
		if d != nil && !isRealMatrix(d) {
			isReal = false
			break
		}
	}

	fs := make([]*mat.Dense, nfree)
	for j, d := range dirs {
		if d != nil {
			fs[j] = toRealBlock(d, isReal)
		}
	}
	return toRealBlock(f0, isReal), fs, nil
}

func isRealMatrix(m *linalg.Matrix) bool {
	r, c := m.Dims()
	tol := zeroTol * math.Max(1, m.MaxAbs())
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(imag(m.At(i, j))) > tol {
				return false
			}
		}
	}
	return true
}

// toRealBlock returns the Hermitian part of m as a real symmetric block,
// embedding it as [[X, −Y], [Y, X]] unless realOnly is set.
func toRealBlock(m *linalg.Matrix, realOnly bool) *mat.Dense {
	n, _ := m.Dims()
	herm := func(i, j int) complex128 {
		return (m.At(i, j) + cmplx.Conj(m.At(j, i))) / 2
	}
	if realOnly {
		out := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				out.Set(i, j, real(herm(i, j)))
			}
		}
		return out
	}
	out := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := herm(i, j)
			out.Set(i, j, real(v))
			out.Set(n+i, n+j, real(v))
			out.Set(i, n+j, -imag(v))
			out.Set(n+i, j, imag(v))
		}
	}
	return out
}
