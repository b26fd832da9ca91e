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

import "fmt"

// PauliX returns sigma_x.
func PauliX() *Matrix { return MustFromRows([][]complex128{{0, 1}, {1, 0}}) }

// PauliY returns sigma_y.
func PauliY() *Matrix { return MustFromRows([][]complex128{{0, -1i}, {1i, 0}}) }

// PauliZ returns sigma_z.
func PauliZ() *Matrix { return MustFromRows([][]complex128{{1, 0}, {0, -1}}) }

// Paulis returns sigma_x, sigma_y, sigma_z in that order.
func Paulis() [3]*Matrix { return [3]*Matrix{PauliX(), PauliY(), PauliZ()} }

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b *Matrix) *Matrix {
	out := New(a.rows*b.rows, a.cols*b.cols)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for k := 0; k < b.rows; k++ {
				for l := 0; l < b.cols; l++ {
					out.Set(i*b.rows+k, j*b.cols+l, av*b.At(k, l))
				}
			}
		}
	}
	return out
}

// PartialTraceFirst traces out the first subsystem of a (dA*dB)-dimensional
// operator, returning a dB x dB operator.
func PartialTraceFirst(rho *Matrix, dA, dB int) (*Matrix, error) {
	if rho.rows != dA*dB || rho.cols != dA*dB {
		return nil, fmt.Errorf("partial trace: got %dx%d, want %dx%d", rho.rows, rho.cols, dA*dB, dA*dB)
	}
	out := New(dB, dB)
	for a := 0; a < dA; a++ {
		for i := 0; i < dB; i++ {
			for j := 0; j < dB; j++ {
				out.data[i*dB+j] += rho.At(a*dB+i, a*dB+j)
			}
		}
	}
	return out, nil
}

// PartialTraceSecond traces out the second subsystem, returning a dA x dA
// operator.
func PartialTraceSecond(rho *Matrix, dA, dB int) (*Matrix, error) {
	if rho.rows != dA*dB || rho.cols != dA*dB {
		return nil, fmt.Errorf("partial trace: got %dx%d, want %dx%d", rho.rows, rho.cols, dA*dB, dA*dB)
	}
	out := New(dA, dA)
	for i := 0; i < dA; i++ {
		for j := 0; j < dA; j++ {
			var s complex128
			for b := 0; b < dB; b++ {
				s += rho.At(i*dB+b, j*dB+b)
			}
			out.data[i*dA+j] = s
		}
	}
	return out, nil
}

// TraceDistance returns ½‖a − b‖₁ for Hermitian a and b.
func TraceDistance(a, b *Matrix) (float64, error) {
	n, err := TraceNorm(a.Sub(b))
	if err != nil {
		return 0, err
	}
	return n / 2, nil
}

// BlochVector returns (Tr ρσx, Tr ρσy, Tr ρσz) of a 2x2 operator.
func BlochVector(rho *Matrix) ([3]float64, error) {
	if rho.rows != 2 || rho.cols != 2 {
		return [3]float64{}, fmt.Errorf("bloch vector: got %dx%d, want 2x2", rho.rows, rho.cols)
	}
	var r [3]float64
	for i, p := range Paulis() {
		r[i] = real(rho.InnerTrace(p))
	}
	return r, nil
}
