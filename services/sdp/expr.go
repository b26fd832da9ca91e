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
	"math/cmplx"
	"sort"

	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// ==============================================================================
// Affine scalars
// ==============================================================================

// Scalar is an affine expression c + Σ_k coef_k y_k over the real scalar
// variables y of a Problem. Coefficients may be complex, so a Scalar can
// represent quantities such as Tr(F σ) for a complex matrix variable σ.
type Scalar struct {
	c     complex128
	terms map[int]complex128
}

// Const returns the constant scalar v.
func Const(v complex128) Scalar { return Scalar{c: v} }

// ConstPart returns the constant term.
func (s Scalar) ConstPart() complex128 { return s.c }

// IsConstant reports whether s has no variable terms.
func (s Scalar) IsConstant() bool {
	for _, v := range s.terms {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s Scalar) clone() Scalar {
	out := Scalar{c: s.c, terms: make(map[int]complex128, len(s.terms))}
	for k, v := range s.terms {
		out.terms[k] = v
	}
	return out
}

// Add returns s + o.
func (s Scalar) Add(o Scalar) Scalar {
	out := s.clone()
	out.c += o.c
	for k, v := range o.terms {
		out.terms[k] += v
	}
	return out
}

// Sub returns s - o.
func (s Scalar) Sub(o Scalar) Scalar { return s.Add(o.Scale(-1)) }

// Scale returns f * s.
func (s Scalar) Scale(f complex128) Scalar {
	out := Scalar{c: s.c * f, terms: make(map[int]complex128, len(s.terms))}
	for k, v := range s.terms {
		out.terms[k] = v * f
	}
	return out
}

// Real returns the real part of s. Variables are real, so this keeps the
// real part of every coefficient.
func (s Scalar) Real() Scalar {
	out := Scalar{c: complex(real(s.c), 0), terms: make(map[int]complex128, len(s.terms))}
	for k, v := range s.terms {
		out.terms[k] = complex(real(v), 0)
	}
	return out
}

// Eval evaluates s at y.
func (s Scalar) Eval(y []float64) complex128 {
	v := s.c
	for k, c := range s.terms {
		v += c * complex(y[k], 0)
	}
	return v
}

// SumScalars returns the sum of ss.
func SumScalars(ss ...Scalar) Scalar {
	out := Const(0)
	for _, s := range ss {
		out = out.Add(s)
	}
	return out
}

// ==============================================================================
// Affine matrices
// ==============================================================================

type cell struct {
	i, j int
	v    complex128
}

// Matrix is an affine matrix expression C + Σ_k y_k A_k where each A_k is
// kept as a sparse list of cells.
type Matrix struct {
	rows, cols int
	c          *linalg.Matrix
	terms      map[int][]cell
}

// Constant lifts a numeric matrix into an expression.
func Constant(m *linalg.Matrix) *Matrix {
	r, c := m.Dims()
	return &Matrix{rows: r, cols: c, c: m.Clone(), terms: map[int][]cell{}}
}

// ZeroMatrix returns the r x c zero expression.
func ZeroMatrix(r, c int) *Matrix {
	return &Matrix{rows: r, cols: c, c: linalg.New(r, c), terms: map[int][]cell{}}
}

// ScaledIdentity returns s * I_n for an affine scalar s.
func ScaledIdentity(s Scalar, n int) *Matrix {
	return ScaledConstant(s, linalg.Identity(n))
}

// ScaledConstant returns s * m for an affine scalar s and numeric m.
func ScaledConstant(s Scalar, m *linalg.Matrix) *Matrix {
	out := Constant(m.Scale(s.c))
	r, c := m.Dims()
	for k, f := range s.terms {
		if f == 0 {
			continue
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := m.At(i, j); v != 0 {
					out.terms[k] = append(out.terms[k], cell{i, j, f * v})
				}
			}
		}
	}
	return out
}

// Dims returns the expression shape.
func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }

// ConstPart returns a copy of the constant term.
func (m *Matrix) ConstPart() *linalg.Matrix { return m.c.Clone() }

// IsConstant reports whether the expression has no variable terms.
func (m *Matrix) IsConstant() bool {
	for _, cs := range m.terms {
		for _, c := range cs {
			if c.v != 0 {
				return false
			}
		}
	}
	return true
}

// Vars returns the sorted indices of the variables the expression uses.
func (m *Matrix) Vars() []int {
	out := make([]int, 0, len(m.terms))
	for k := range m.terms {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (m *Matrix) clone() *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, c: m.c.Clone(), terms: make(map[int][]cell, len(m.terms))}
	for k, cs := range m.terms {
		out.terms[k] = append([]cell(nil), cs...)
	}
	return out
}

func (m *Matrix) mustMatch(o *Matrix, op string) {
	if m.rows != o.rows || m.cols != o.cols {
		panic(fmt.Sprintf("sdp: %s shape mismatch %dx%d vs %dx%d", op, m.rows, m.cols, o.rows, o.cols))
	}
}

// Add returns m + o.
func (m *Matrix) Add(o *Matrix) *Matrix {
	m.mustMatch(o, "Add")
	out := m.clone()
	out.c = out.c.Add(o.c)
	for k, cs := range o.terms {
		out.terms[k] = append(out.terms[k], cs...)
	}
	return out
}

// Sub returns m - o.
func (m *Matrix) Sub(o *Matrix) *Matrix { return m.Add(o.Scale(-1)) }

// AddConst returns m + c.
func (m *Matrix) AddConst(c *linalg.Matrix) *Matrix { return m.Add(Constant(c)) }

// Scale returns f * m.
func (m *Matrix) Scale(f complex128) *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, c: m.c.Scale(f), terms: make(map[int][]cell, len(m.terms))}
	for k, cs := range m.terms {
		sc := make([]cell, len(cs))
		for i, c := range cs {
			sc[i] = cell{c.i, c.j, c.v * f}
		}
		out.terms[k] = sc
	}
	return out
}

// H returns the conjugate transpose of m.
func (m *Matrix) H() *Matrix {
	out := &Matrix{rows: m.cols, cols: m.rows, c: m.c.H(), terms: make(map[int][]cell, len(m.terms))}
	for k, cs := range m.terms {
		hc := make([]cell, len(cs))
		for i, c := range cs {
			hc[i] = cell{c.j, c.i, cmplx.Conj(c.v)}
		}
		out.terms[k] = hc
	}
	return out
}

// Trace returns Tr(m).
func (m *Matrix) Trace() Scalar {
	s := Scalar{c: m.c.Trace(), terms: map[int]complex128{}}
	for k, cs := range m.terms {
		for _, c := range cs {
			if c.i == c.j {
				s.terms[k] += c.v
			}
		}
	}
	return s
}

// TraceWith returns Tr(f m) for a numeric f.
func (m *Matrix) TraceWith(f *linalg.Matrix) Scalar {
	s := Scalar{c: f.InnerTrace(m.c), terms: map[int]complex128{}}
	for k, cs := range m.terms {
		for _, c := range cs {
			// Tr(f m) = Σ_ij f_ji m_ij
			s.terms[k] += f.At(c.j, c.i) * c.v
		}
	}
	return s
}

// dense returns the numeric coefficient matrix of variable k.
func (m *Matrix) dense(k int) *linalg.Matrix {
	out := linalg.New(m.rows, m.cols)
	for _, c := range m.terms[k] {
		out.Set(c.i, c.j, out.At(c.i, c.j)+c.v)
	}
	return out
}

// Eval evaluates the expression at y.
func (m *Matrix) Eval(y []float64) *linalg.Matrix {
	out := m.c.Clone()
	for k, cs := range m.terms {
		for _, c := range cs {
			out.Set(c.i, c.j, out.At(c.i, c.j)+c.v*complex(y[k], 0))
		}
	}
	return out
}

// Sum returns the sum of ms. It panics on an empty list.
func Sum(ms ...*Matrix) *Matrix {
	out := ms[0]
	for _, m := range ms[1:] {
		out = out.Add(m)
	}
	return out
}

// Blocks assembles a block matrix from a grid of expressions. Every block in
// a grid row must have the same number of rows, every block in a grid
// column the same number of columns.
func Blocks(grid [][]*Matrix) (*Matrix, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("empty block grid")
	}
	rowH := make([]int, len(grid))
	colW := make([]int, len(grid[0]))
	for bi, row := range grid {
		if len(row) != len(colW) {
			return nil, fmt.Errorf("block row %d has %d blocks, want %d", bi, len(row), len(colW))
		}
		for bj, b := range row {
			r, c := b.Dims()
			if bj == 0 {
				rowH[bi] = r
			} else if r != rowH[bi] {
				return nil, fmt.Errorf("block (%d,%d) has %d rows, want %d", bi, bj, r, rowH[bi])
			}
			if bi == 0 {
				colW[bj] = c
			} else if c != colW[bj] {
				return nil, fmt.Errorf("block (%d,%d) has %d cols, want %d", bi, bj, c, colW[bj])
			}
		}
	}
	var total, totalC int
	for _, h := range rowH {
		total += h
	}
	for _, w := range colW {
		totalC += w
	}

	out := ZeroMatrix(total, totalC)
	r0 := 0
	for bi, row := range grid {
		c0 := 0
		for bj, b := range row {
			for i := 0; i < rowH[bi]; i++ {
				for j := 0; j < colW[bj]; j++ {
					out.c.Set(r0+i, c0+j, b.c.At(i, j))
				}
			}
			for k, cs := range b.terms {
				for _, c := range cs {
					out.terms[k] = append(out.terms[k], cell{r0 + c.i, c0 + c.j, c.v})
				}
			}
			c0 += colW[bj]
		}
		r0 += rowH[bi]
	}
	return out, nil
}
