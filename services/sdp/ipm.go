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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ipm is an infeasible-start primal-dual path following method.
//
// Description:
//
//	Each iteration solves the HKM Newton system through the Schur
//	complement M_ij = Tr(A_i X A_j Z⁻¹), first for the affine scaling
//	(predictor) direction, then with Mehrotra's centering and second order
//	correction. Step lengths keep X and Z positive definite.
//
//	Infeasibility is reported from approximate Farkas certificates:
//	X ⪰ 0 with A(X) ≈ 0 and Tr(CX) > 0 proves the minimization infeasible,
//	a ray y with aᵀy → −∞ and Σ y_i A_i ⪰ 0 proves it unbounded.
type ipm struct {
	cfg Config
}

const (
	stepFraction = 0.95
	certTol      = 1e-8
)

func (s *ipm) name() string { return "ipm" }

// blockMat is a block-diagonal symmetric matrix.
type blockMat []*mat.Dense

func scaledIdentity(sizes []int, v float64) blockMat {
	out := make(blockMat, len(sizes))
	for b, n := range sizes {
		d := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			d.Set(i, i, v)
		}
		out[b] = d
	}
	return out
}

func zeroBlocks(sizes []int) blockMat { return scaledIdentity(sizes, 0) }

func (b blockMat) clone() blockMat {
	out := make(blockMat, len(b))
	for i, m := range b {
		out[i] = mat.DenseCopyOf(m)
	}
	return out
}

// dot returns Σ_b Σ_ij b_ij o_ij.
func (b blockMat) dot(o blockMat) float64 {
	var s float64
	for k, m := range b {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				s += m.At(i, j) * o[k].At(i, j)
			}
		}
	}
	return s
}

func (b blockMat) norm() float64 { return math.Sqrt(b.dot(b)) }

// axpy sets b += alpha * o.
func (b blockMat) axpy(alpha float64, o blockMat) {
	for k, m := range b {
		var t mat.Dense
		t.Scale(alpha, o[k])
		m.Add(m, &t)
	}
}

func (b blockMat) mul(o blockMat) blockMat {
	out := make(blockMat, len(b))
	for k := range b {
		var d mat.Dense
		d.Mul(b[k], o[k])
		out[k] = &d
	}
	return out
}

func (b blockMat) symmetrize() {
	for _, m := range b {
		n, _ := m.Dims()
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				v := (m.At(i, j) + m.At(j, i)) / 2
				m.Set(i, j, v)
				m.Set(j, i, v)
			}
		}
	}
}

func toSym(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return s
}

// entryDot returns Tr(A B) for a symmetric A given by its block entries.
func entryDot(es []blockEntry, b blockMat) float64 {
	var s float64
	for _, e := range es {
		r, c := e.m.Dims()
		bm := b[e.block]
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := e.m.At(i, j); v != 0 {
					s += v * bm.At(i, j)
				}
			}
		}
	}
	return s
}

func entryNorm(es []blockEntry) float64 {
	var s float64
	for _, e := range es {
		n := mat.Norm(e.m, 2)
		s += n * n
	}
	return math.Sqrt(s)
}

// adjoint returns Σ_i y_i A_i.
func adjoint(st *Standard, y []float64) blockMat {
	out := zeroBlocks(st.BlockSizes)
	for i, es := range st.A {
		if y[i] == 0 {
			continue
		}
		for _, e := range es {
			var t mat.Dense
			t.Scale(y[i], e.m)
			out[e.block].Add(out[e.block], &t)
		}
	}
	return out
}

func vecNorm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// maxStep returns the largest α with X + α dX ⪰ 0, or +Inf.
func maxStep(x, dx blockMat) float64 {
	alpha := math.Inf(1)
	for k := range x {
		var ch mat.Cholesky
		if !ch.Factorize(toSym(x[k])) {
			return 0
		}
		var l, li mat.TriDense
		ch.LTo(&l)
		if err := li.InverseTri(&l); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return 0
			}
		}
		var t mat.Dense
		t.Product(&li, dx[k], li.T())
		var es mat.EigenSym
		if !es.Factorize(toSym(&t), false) {
			return 0
		}
		if lmin := es.Values(nil)[0]; lmin < 0 {
			alpha = math.Min(alpha, -1/lmin)
		}
	}
	return alpha
}

type schur struct {
	chol  *mat.Cholesky
	dense *mat.Dense
}

func (s *schur) solve(rhs []float64) ([]float64, error) {
	b := mat.NewVecDense(len(rhs), append([]float64(nil), rhs...))
	var x mat.VecDense
	if s.chol != nil {
		if err := s.chol.SolveVecTo(&x, b); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return nil, err
			}
		}
	} else if err := x.SolveVec(s.dense, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	out := make([]float64, len(rhs))
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// buildSchur forms M_ij = Tr(A_i X A_j Z⁻¹) and factors it.
func buildSchur(st *Standard, x, zinv blockMat) *schur {
	m := st.NumVars()
	sym := mat.NewSymDense(m, nil)
	for j, ej := range st.A {
		g := make(map[int]*mat.Dense, len(ej))
		for _, e := range ej {
			var t mat.Dense
			t.Product(x[e.block], e.m, zinv[e.block])
			g[e.block] = &t
		}
		for i := 0; i <= j; i++ {
			var v float64
			for _, e := range st.A[i] {
				gm, ok := g[e.block]
				if !ok {
					continue
				}
				r, c := e.m.Dims()
				for p := 0; p < r; p++ {
					for q := 0; q < c; q++ {
						if a := e.m.At(p, q); a != 0 {
							v += a * gm.At(q, p)
						}
					}
				}
			}
			sym.SetSym(i, j, v)
		}
	}

	var ch mat.Cholesky
	if ch.Factorize(sym) {
		return &schur{chol: &ch}
	}
	var maxDiag float64
	for i := 0; i < m; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(sym.At(i, i)))
	}
	reg := mat.NewSymDense(m, nil)
	reg.CopySym(sym)
	for i := 0; i < m; i++ {
		reg.SetSym(i, i, reg.At(i, i)+1e-12*math.Max(1, maxDiag))
	}
	if ch.Factorize(reg) {
		return &schur{chol: &ch}
	}
	return &schur{dense: mat.DenseCopyOf(sym)}
}

func (s *ipm) solveStandard(ctx context.Context, st *Standard) (*rawResult, error) {
	log := s.cfg.logger()
	sizes := st.BlockSizes
	m := st.NumVars()
	n := float64(st.Dim())
	c := blockMat(st.C)
	a := st.Obj

	normC := c.norm()
	normA := vecNorm(a)
	xi, eta := math.Max(10, math.Sqrt(n)), math.Max(10, math.Sqrt(n))
	eta = math.Max(eta, normC)
	for i, es := range st.A {
		na := entryNorm(es)
		xi = math.Max(xi, math.Sqrt(n)*(1+math.Abs(a[i]))/(1+na))
		eta = math.Max(eta, na)
	}
	x := scaledIdentity(sizes, xi)
	z := scaledIdentity(sizes, eta)
	y := make([]float64, m)

	tol := s.cfg.Tolerance
	var relgap, pinf, dinf float64
	iter := 0
	for ; iter < s.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rp := make([]float64, m)
		ax := make([]float64, m)
		for i, es := range st.A {
			ax[i] = entryDot(es, x)
			rp[i] = a[i] - ax[i]
		}
		rd := c.clone()
		rd.axpy(-1, adjoint(st, y))
		rd.axpy(1, z)

		pobj := c.dot(x)
		var dobj float64
		for i := range y {
			dobj += a[i] * y[i]
		}
		mu := x.dot(z) / n
		relgap = math.Abs(dobj-pobj) / (1 + math.Abs(pobj) + math.Abs(dobj))
		pinf = vecNorm(rp) / (1 + normA)
		dinf = rd.norm() / (1 + normC)

		log.Debug("ipm iteration",
			slog.Int("iter", iter),
			slog.Float64("pobj", pobj),
			slog.Float64("dobj", dobj),
			slog.Float64("gap", relgap),
			slog.Float64("pinf", pinf),
			slog.Float64("dinf", dinf),
		)

		if relgap < tol && pinf < tol && dinf < tol {
			ipmIterations.Observe(float64(iter))
			return &rawResult{status: StatusOptimal, z: y, iterations: iter}, nil
		}
		if pobj > 0 && vecNorm(ax)/pobj < certTol {
			ipmIterations.Observe(float64(iter))
			return &rawResult{status: StatusInfeasible, detail: "primal ray", iterations: iter}, nil
		}
		if dobj < 0 && (normC+rd.norm())/(-dobj) < certTol {
			ipmIterations.Observe(float64(iter))
			return &rawResult{status: StatusUnbounded, detail: "dual ray", iterations: iter}, nil
		}

		zinv := make(blockMat, len(z))
		for k := range z {
			var ch mat.Cholesky
			if !ch.Factorize(toSym(z[k])) {
				return &rawResult{status: StatusUnknown, detail: "slack lost definiteness", iterations: iter}, nil
			}
			var inv mat.SymDense
			if err := ch.InverseTo(&inv); err != nil {
				var cond mat.Condition
				if !errors.As(err, &cond) {
					return nil, fmt.Errorf("inverting slack block %d: %w", k, err)
				}
			}
			zinv[k] = mat.DenseCopyOf(&inv)
		}
		sch := buildSchur(st, x, zinv)
		xz := x.mul(z)
		xrd := x.mul(rd)

		direction := func(rc blockMat) (blockMat, []float64, blockMat, error) {
			w := rc.clone()
			w.axpy(1, xrd)
			w = w.mul(zinv)
			rhs := make([]float64, m)
			for i, es := range st.A {
				rhs[i] = entryDot(es, w) - rp[i]
			}
			dy, err := sch.solve(rhs)
			if err != nil {
				return nil, nil, nil, err
			}
			dz := adjoint(st, dy)
			dz.axpy(-1, rd)
			dx := rc.clone()
			dx.axpy(-1, x.mul(dz))
			dx = dx.mul(zinv)
			dx.symmetrize()
			return dx, dy, dz, nil
		}

		// Predictor.
		rc := xz.clone()
		for _, b := range rc {
			b.Scale(-1, b)
		}
		dxa, _, dza, err := direction(rc)
		if err != nil {
			return nil, fmt.Errorf("predictor: %w", err)
		}
		ap := math.Min(1, maxStep(x, dxa))
		ad := math.Min(1, maxStep(z, dza))
		xa := x.clone()
		xa.axpy(ap, dxa)
		za := z.clone()
		za.axpy(ad, dza)
		muAff := xa.dot(za) / n
		sigma := math.Min(1, math.Max(0, math.Pow(muAff/mu, 3)))

		// Corrector.
		rc = scaledIdentity(sizes, sigma*mu)
		rc.axpy(-1, xz)
		rc.axpy(-1, dxa.mul(dza))
		dx, dy, dz, err := direction(rc)
		if err != nil {
			return nil, fmt.Errorf("corrector: %w", err)
		}
		ap = math.Min(1, stepFraction*maxStep(x, dx))
		ad = math.Min(1, stepFraction*maxStep(z, dz))
		if ap < 1e-12 && ad < 1e-12 {
			break
		}
		x.axpy(ap, dx)
		z.axpy(ad, dz)
		for i := range y {
			y[i] += ad * dy[i]
		}
		x.symmetrize()
		z.symmetrize()
	}

	ipmIterations.Observe(float64(iter))
	if relgap < 1e-5 && pinf < 1e-5 && dinf < 1e-5 {
		return &rawResult{status: StatusOptimal, detail: "reduced accuracy", z: y, iterations: iter}, nil
	}
	return &rawResult{
		status:     StatusUnknown,
		detail:     fmt.Sprintf("stopped after %d iterations (gap %.2e, pinf %.2e, dinf %.2e)", iter, relgap, pinf, dinf),
		iterations: iter,
	}, nil
}
