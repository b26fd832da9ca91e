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

	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// Sense is the optimization direction of a Problem.
type Sense int

const (
	// Find asks only whether the constraints are satisfiable.
	Find Sense = iota
	// Minimize minimizes the real part of the objective.
	Minimize
	// Maximize maximizes the real part of the objective.
	Maximize
)

func (s Sense) String() string {
	switch s {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return "find"
	}
}

type psdConstraint struct {
	name string
	expr *Matrix
}

type eqConstraint struct {
	name string
	expr *Matrix // expr == 0
}

// Problem is a semidefinite program over real scalar variables.
//
// Description:
//
//	Matrix variables are built from real scalars: an n x n Hermitian
//	variable uses n² of them, an r x c complex variable 2rc. Constraints
//	are linear matrix inequalities (expr ⪰ 0, expr Hermitian) and affine
//	equalities. A Problem is built once and solved once; it is not safe
//	for concurrent mutation.
//
// Example:
//
//	p := sdp.NewProblem("robustness")
//	s := p.Hermitian("sigma", 2)
//	p.PSD("sigma_psd", s)
//	p.SetObjective(sdp.Minimize, s.Trace())
type Problem struct {
	name      string
	nvars     int
	varNames  []string
	psd       []psdConstraint
	eq        []eqConstraint
	sense     Sense
	objective Scalar
	err       error
}

// NewProblem creates an empty feasibility problem.
func NewProblem(name string) *Problem {
	return &Problem{name: name, sense: Find, objective: Const(0)}
}

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// NumScalars returns the number of real scalar variables.
func (p *Problem) NumScalars() int { return p.nvars }

// NumConstraints returns the number of PSD and equality constraints.
func (p *Problem) NumConstraints() int { return len(p.psd) + len(p.eq) }

// Sense returns the optimization direction.
func (p *Problem) Sense() Sense { return p.sense }

func (p *Problem) alloc(name string, n int) int {
	base := p.nvars
	for k := 0; k < n; k++ {
		p.varNames = append(p.varNames, fmt.Sprintf("%s[%d]", name, k))
	}
	p.nvars += n
	return base
}

// Real declares a real scalar variable.
func (p *Problem) Real(name string) Scalar {
	k := p.alloc(name, 1)
	return Scalar{terms: map[int]complex128{k: 1}}
}

// Hermitian declares an n x n Hermitian matrix variable.
func (p *Problem) Hermitian(name string, n int) *Matrix {
	base := p.alloc(name, n*n)
	m := ZeroMatrix(n, n)
	k := base
	for i := 0; i < n; i++ {
		m.terms[k] = []cell{{i, i, 1}}
		k++
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.terms[k] = []cell{{i, j, 1}, {j, i, 1}}
			m.terms[k+1] = []cell{{i, j, 1i}, {j, i, -1i}}
			k += 2
		}
	}
	return m
}

// Complex declares an r x c matrix variable with independent real and
// imaginary parts.
func (p *Problem) Complex(name string, r, c int) *Matrix {
	base := p.alloc(name, 2*r*c)
	m := ZeroMatrix(r, c)
	k := base
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.terms[k] = []cell{{i, j, 1}}
			m.terms[k+1] = []cell{{i, j, 1i}}
			k += 2
		}
	}
	return m
}

// PSD adds the constraint expr ⪰ 0. expr must be square; Hermiticity is
// checked when the problem is compiled.
func (p *Problem) PSD(name string, expr *Matrix) {
	if r, c := expr.Dims(); r != c {
		p.setErr(fmt.Errorf("constraint %q: PSD expression is %dx%d", name, r, c))
		return
	}
	p.psd = append(p.psd, psdConstraint{name: name, expr: expr})
}

// PSDBetween adds hi - lo ⪰ 0.
func (p *Problem) PSDBetween(name string, hi, lo *Matrix) {
	p.PSD(name, hi.Sub(lo))
}

// NonNegative adds Re(s) ≥ 0.
func (p *Problem) NonNegative(name string, s Scalar) {
	p.PSD(name, ScaledConstant(s.Real(), linalg.Identity(1)))
}

// Equal adds a == b element-wise.
func (p *Problem) Equal(name string, a, b *Matrix) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		p.setErr(fmt.Errorf("constraint %q: equality shapes %dx%d and %dx%d", name, ar, ac, br, bc))
		return
	}
	p.eq = append(p.eq, eqConstraint{name: name, expr: a.Sub(b)})
}

// EqualScalar adds a == b.
func (p *Problem) EqualScalar(name string, a, b Scalar) {
	id := linalg.Identity(1)
	p.Equal(name, ScaledConstant(a, id), ScaledConstant(b, id))
}

// SetObjective sets the direction and objective. The real part of obj is
// optimized.
func (p *Problem) SetObjective(sense Sense, obj Scalar) {
	p.sense = sense
	p.objective = obj.Real()
}

func (p *Problem) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first construction error, if any.
func (p *Problem) Err() error { return p.err }
