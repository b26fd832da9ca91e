// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assemblage

import (
	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// PauliMeasurement returns Alice's projector ½(I − (−1)^a P_x) ⊗ I for
// outcome a ∈ {0, 1} and Pauli setting x ∈ {0, 1, 2} (X, Y, Z).
func PauliMeasurement(a, x int) (*linalg.Matrix, error) {
	const op = "assemblage.PauliMeasurement"
	if a < 0 || a > 1 || x < 0 || x > 2 {
		return nil, qerr.Parameter(op, "want a in {0,1} and x in {0,1,2}, got a=%d x=%d", a, x)
	}
	sign := complex(1, 0)
	if a == 1 {
		sign = -1
	}
	p := linalg.Paulis()[x]
	proj := linalg.Identity(2).Sub(p.Scale(sign)).Scale(0.5)
	return linalg.Kron(proj, linalg.Identity(2)), nil
}

// FromTwoQubitState builds Bob's assemblage σ_{a|x} = Tr_A[(M_{a|x} ⊗ I) ρ]
// for Alice measuring the three Pauli observables on a two-qubit state.
func FromTwoQubitState(rho *linalg.Matrix) (*Dense, error) {
	const op = "assemblage.FromTwoQubitState"
	if rho == nil {
		return nil, qerr.Dimension(op, "nil state")
	}
	if r, c := rho.Dims(); r != 4 || c != 4 {
		return nil, qerr.Dimension(op, "state is %dx%d, want a 4x4 two-qubit density matrix", r, c)
	}
	blocks := make([][]*linalg.Matrix, 3)
	for x := 0; x < 3; x++ {
		blocks[x] = make([]*linalg.Matrix, 2)
		for a := 0; a < 2; a++ {
			m, err := PauliMeasurement(a, x)
			if err != nil {
				return nil, err
			}
			sigma, err := linalg.PartialTraceFirst(m.Mul(rho), 2, 2)
			if err != nil {
				return nil, qerr.Dimension(op, "%v", err)
			}
			blocks[x][a] = sigma
		}
	}
	return NewDense(blocks)
}

// BellState returns |Φ+⟩⟨Φ+| with |Φ+⟩ = (|00⟩ + |11⟩)/√2.
func BellState() *linalg.Matrix {
	m := linalg.New(4, 4)
	for _, i := range []int{0, 3} {
		for _, j := range []int{0, 3} {
			m.Set(i, j, 0.5)
		}
	}
	return m
}

// Werner returns p |Φ+⟩⟨Φ+| + (1 − p) I/4.
func Werner(p float64) *linalg.Matrix {
	return BellState().Scale(complex(p, 0)).Add(linalg.Identity(4).Scale(complex((1-p)/4, 0)))
}
