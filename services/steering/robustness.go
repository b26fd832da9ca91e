// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package steering

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

// Robustness computes the steering robustness
//
//	min Σ_λ Tr σ_λ − 1
//	s.t. σ_λ ⪰ 0, Σ_λ D(a|x,λ) σ_λ ⪰ σ_{a|x} for all a, x.
//
// The value is 0 exactly when the assemblage has a local hidden state model.
func Robustness(ctx context.Context, solver sdp.Solver, d *assemblage.Dense, opts ...Option) (*Result, error) {
	const op = "steering.Robustness"
	o := buildOptions(opts)
	ctx, span := startSpan(ctx, op, d)
	defer span.End()

	det, err := strategies(d)
	if err != nil {
		return nil, err
	}

	p := sdp.NewProblem("robustness")
	sigmas := make([]*sdp.Matrix, det.Count())
	for l := range sigmas {
		sigmas[l] = p.Hermitian(fmt.Sprintf("sigma_lambda%d", l), d.Dim())
		p.PSD(fmt.Sprintf("sigma_lambda%d_psd", l), sigmas[l])
	}
	for x := 0; x < d.Settings(); x++ {
		for a := 0; a < d.Outcomes(); a++ {
			p.PSDBetween(fmt.Sprintf("cover_%d|%d", a, x), localSum(det, sigmas, x, a), sdp.Constant(d.Block(x, a)))
		}
	}
	p.SetObjective(sdp.Minimize, sdp.Sum(sigmas...).Trace().Sub(sdp.Const(1)))

	sol, err := solveOptimal(ctx, op, solver, p, span)
	if err != nil {
		return nil, err
	}
	o.logger.Info("steering robustness",
		slog.Float64("value", sol.Objective),
		slog.Int("strategies", det.Count()),
		slog.Int("iterations", sol.Iterations),
	)
	return &Result{Value: sol.Objective, Status: sol.Status, Iterations: sol.Iterations}, nil
}

// TemporalRobustness computes the robustness of a (3, 2, 2, 2) temporal
// assemblage.
func TemporalRobustness(ctx context.Context, solver sdp.Solver, blocks [][]*linalg.Matrix, opts ...Option) (*Result, error) {
	d, err := assemblage.NewTemporal(blocks)
	if err != nil {
		return nil, err
	}
	return Robustness(ctx, solver, d, opts...)
}

// SpatialRobustness computes the robustness of the Pauli assemblage of a
// two-qubit state.
func SpatialRobustness(ctx context.Context, solver sdp.Solver, rho *linalg.Matrix, opts ...Option) (*Result, error) {
	d, err := assemblage.FromTwoQubitState(rho)
	if err != nil {
		return nil, err
	}
	return Robustness(ctx, solver, d, opts...)
}
