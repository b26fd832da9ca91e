// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package linalg provides the dense complex matrices used for quantum states,
// assemblage blocks and measurement operators.
//
// Description:
//
//	Matrix is a row-major complex128 matrix. Products go through gonum's
//	cblas128 implementation; Hermitian eigendecompositions go through
//	gonum's real symmetric solver on the real embedding
//
//	  H = X + iY  ->  [[X, -Y], [Y, X]]
//
//	Every operation returns a new Matrix. Receivers are never modified
//	except by Set, which exists for builders.
//
// Thread Safety:
//
//	A Matrix is safe for concurrent reads. Set is not synchronized.
package linalg

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

// DefaultTolerance is the absolute tolerance used by predicates such as
// IsHermitian when the caller has no better value.
const DefaultTolerance = 1e-9

// Matrix is a dense complex matrix stored row-major.
type Matrix struct {
	rows, cols int
	data       []complex128
}

// New returns a rows x cols zero matrix.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("linalg: negative dimension %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

// Zeros returns an n x n zero matrix.
func Zeros(n int) *Matrix { return New(n, n) }

// Identity returns the n x n identity.
func Identity(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// FromRows builds a matrix from a slice of rows. All rows must have the same
// length.
func FromRows(rows [][]complex128) (*Matrix, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	c := len(rows[0])
	m := New(len(rows), c)
	for i, r := range rows {
		if len(r) != c {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(r), c)
		}
		copy(m.data[i*c:(i+1)*c], r)
	}
	return m, nil
}

// MustFromRows is FromRows for literals in tests and constants.
func MustFromRows(rows [][]complex128) *Matrix {
	m, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }

// IsSquare reports whether the matrix is square.
func (m *Matrix) IsSquare() bool { return m.rows == m.cols }

// At returns element (i, j).
func (m *Matrix) At(i, j int) complex128 { return m.data[i*m.cols+j] }

// Set sets element (i, j).
func (m *Matrix) Set(i, j int, v complex128) { m.data[i*m.cols+j] = v }

// Rows returns a deep copy of the matrix as a slice of rows.
func (m *Matrix) Rows() [][]complex128 {
	out := make([][]complex128, m.rows)
	for i := range out {
		out[i] = append([]complex128(nil), m.data[i*m.cols:(i+1)*m.cols]...)
	}
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{rows: m.rows, cols: m.cols, data: append([]complex128(nil), m.data...)}
}

func (m *Matrix) sameShape(o *Matrix, op string) {
	if m.rows != o.rows || m.cols != o.cols {
		panic(fmt.Sprintf("linalg: %s shape mismatch %dx%d vs %dx%d", op, m.rows, m.cols, o.rows, o.cols))
	}
}

// Add returns m + o.
func (m *Matrix) Add(o *Matrix) *Matrix {
	m.sameShape(o, "Add")
	out := m.Clone()
	for i, v := range o.data {
		out.data[i] += v
	}
	return out
}

// Sub returns m - o.
func (m *Matrix) Sub(o *Matrix) *Matrix {
	m.sameShape(o, "Sub")
	out := m.Clone()
	for i, v := range o.data {
		out.data[i] -= v
	}
	return out
}

// Scale returns s * m.
func (m *Matrix) Scale(s complex128) *Matrix {
	out := m.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	return out
}

// Mul returns the matrix product m * o.
func (m *Matrix) Mul(o *Matrix) *Matrix {
	if m.cols != o.rows {
		panic(fmt.Sprintf("linalg: Mul shape mismatch %dx%d * %dx%d", m.rows, m.cols, o.rows, o.cols))
	}
	out := New(m.rows, o.cols)
	if m.rows == 0 || o.cols == 0 || m.cols == 0 {
		return out
	}
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, m.general(), o.general(), 0, out.general())
	return out
}

func (m *Matrix) general() cblas128.General {
	return cblas128.General{Rows: m.rows, Cols: m.cols, Stride: m.cols, Data: m.data}
}

// H returns the conjugate transpose.
func (m *Matrix) H() *Matrix {
	out := New(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = cmplx.Conj(m.data[i*m.cols+j])
		}
	}
	return out
}

// T returns the transpose.
func (m *Matrix) T() *Matrix {
	out := New(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// Trace returns the sum of the diagonal.
func (m *Matrix) Trace() complex128 {
	var t complex128
	for i := 0; i < m.rows && i < m.cols; i++ {
		t += m.data[i*m.cols+i]
	}
	return t
}

// InnerTrace returns Tr(m * o) without forming the product.
func (m *Matrix) InnerTrace(o *Matrix) complex128 {
	if m.cols != o.rows || m.rows != o.cols {
		panic(fmt.Sprintf("linalg: InnerTrace shape mismatch %dx%d, %dx%d", m.rows, m.cols, o.rows, o.cols))
	}
	var t complex128
	for i := 0; i < m.rows; i++ {
		for k := 0; k < m.cols; k++ {
			t += m.data[i*m.cols+k] * o.data[k*o.cols+i]
		}
	}
	return t
}

// MaxAbs returns the largest element modulus.
func (m *Matrix) MaxAbs() float64 {
	var mx float64
	for _, v := range m.data {
		if a := cmplx.Abs(v); a > mx {
			mx = a
		}
	}
	return mx
}

// Equal reports whether m and o have the same shape and all elements agree
// within tol.
func (m *Matrix) Equal(o *Matrix, tol float64) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i, v := range m.data {
		if cmplx.Abs(v-o.data[i]) > tol {
			return false
		}
	}
	return true
}

// IsHermitian reports whether m equals its conjugate transpose within tol.
func (m *Matrix) IsHermitian(tol float64) bool {
	if !m.IsSquare() {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i; j < m.cols; j++ {
			if cmplx.Abs(m.At(i, j)-cmplx.Conj(m.At(j, i))) > tol {
				return false
			}
		}
	}
	return true
}

// IsFinite reports whether every element is finite.
func (m *Matrix) IsFinite() bool {
	for _, v := range m.data {
		if math.IsNaN(real(v)) || math.IsNaN(imag(v)) || math.IsInf(real(v), 0) || math.IsInf(imag(v), 0) {
			return false
		}
	}
	return true
}

// Sum returns the element-wise sum of ms. It panics on an empty list.
func Sum(ms ...*Matrix) *Matrix {
	out := ms[0].Clone()
	for _, m := range ms[1:] {
		out.sameShape(m, "Sum")
		for i, v := range m.data {
			out.data[i] += v
		}
	}
	return out
}

// String formats the matrix one row per line.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(" ")
			}
			v := m.At(i, j)
			fmt.Fprintf(&sb, "%.6g%+.6gi", real(v), imag(v))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
