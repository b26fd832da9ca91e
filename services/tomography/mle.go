// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tomography post-processes reconstructed density matrices.
package tomography

import (
	"math"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// NearestPSD rescales a Hermitian matrix to the closest density matrix in
// the maximum-likelihood sense (Smolin, Gambetta and Smith, PRL 108,
// 070502).
//
// Description:
//
//	Eigenvalues are visited in ascending order. Each one below epsilon is
//	set to zero and its value is spread evenly over the eigenvalues not yet
//	visited. The matrix is rebuilt from the surviving positive eigenvalues
//	and the original eigenvectors, then normalized to unit trace.
//
// Inputs:
//   - rho: Hermitian N x N matrix, N >= 2.
//   - epsilon: Threshold, >= 0. A positive epsilon also drops small
//     positive eigenvalues.
//
// Outputs:
//   - *linalg.Matrix: Positive semidefinite with trace one.
//   - error: ErrDimension for bad shapes, ErrParameter for a negative
//     epsilon, a non-Hermitian rho or a result with zero trace.
func NearestPSD(rho *linalg.Matrix, epsilon float64) (*linalg.Matrix, error) {
	const op = "tomography.NearestPSD"
	if rho == nil {
		return nil, qerr.Dimension(op, "nil matrix")
	}
	n, c := rho.Dims()
	if n != c || n < 2 {
		return nil, qerr.Dimension(op, "matrix is %dx%d, want N x N with N >= 2", n, c)
	}
	if epsilon < 0 || math.IsNaN(epsilon) {
		return nil, qerr.Parameter(op, "epsilon must be non-negative, got %g", epsilon)
	}
	vals, vecs, err := linalg.EigenHermitian(rho)
	if err != nil {
		return nil, qerr.Parameter(op, "%v", err)
	}

	for j := 0; j < n; j++ {
		if vals[j] >= epsilon {
			continue
		}
		tmp := vals[j]
		vals[j] = 0
		for k := j + 1; k < n; k++ {
			vals[k] += tmp / float64(n-(j+1))
		}
	}
	for j := range vals {
		if vals[j] < 0 {
			vals[j] = 0
		}
	}

	out := linalg.FromEigen(vals, vecs)
	tr := real(out.Trace())
	if tr <= 0 {
		return nil, qerr.Parameter(op, "no eigenvalue survives epsilon %g", epsilon)
	}
	return out.Scale(complex(1/tr, 0)), nil
}
