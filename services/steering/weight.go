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

// Weight computes the steering weight through its dual formulation.
//
// Description:
//
//	max 1 − Re Σ_{a,x} Tr(F_{a|x} σ_{a|x})
//	s.t. F_{a|x} ⪰ 0, Σ_{a,x} D(a|x,λ) F_{a|x} ⪰ I for every λ.
//
//	The value lies in [0, 1]. With WithF the optimal F_{a|x} are returned
//	in Result.F, indexed [x][a], and serve as a steering witness.
//
// Outputs:
//   - *Result: The weight and solver details.
//   - error: ErrSolverStatus when the solver does not reach optimality.
func Weight(ctx context.Context, solver sdp.Solver, d *assemblage.Dense, opts ...Option) (*Result, error) {
	const op = "steering.Weight"
	o := buildOptions(opts)
	ctx, span := startSpan(ctx, op, d)
	defer span.End()

	det, err := strategies(d)
	if err != nil {
		return nil, err
	}

	p := sdp.NewProblem("weight")
	f := make([][]*sdp.Matrix, d.Settings())
	var overlap []sdp.Scalar
	for x := range f {
		f[x] = make([]*sdp.Matrix, d.Outcomes())
		for a := range f[x] {
			f[x][a] = p.Hermitian(fmt.Sprintf("F_%d|%d", a, x), d.Dim())
			p.PSD(fmt.Sprintf("F_%d|%d_psd", a, x), f[x][a])
			overlap = append(overlap, f[x][a].TraceWith(d.Block(x, a)))
		}
	}
	id := sdp.Constant(linalg.Identity(d.Dim()))
	for l := 0; l < det.Count(); l++ {
		terms := make([]*sdp.Matrix, d.Settings())
		for x := range terms {
			terms[x] = f[x][det.Outcome(l, x)]
		}
		p.PSDBetween(fmt.Sprintf("lambda%d", l), sdp.Sum(terms...), id)
	}
	p.SetObjective(sdp.Maximize, sdp.Const(1).Sub(sdp.SumScalars(overlap...)))

	sol, err := solveOptimal(ctx, op, solver, p, span)
	if err != nil {
		return nil, err
	}
	res := &Result{Value: sol.Objective, Status: sol.Status, Iterations: sol.Iterations}
	if o.returnF {
		res.F = make([][]*linalg.Matrix, len(f))
		for x := range f {
			res.F[x] = make([]*linalg.Matrix, len(f[x]))
			for a := range f[x] {
				res.F[x][a] = sol.Value(f[x][a])
			}
		}
	}
	o.logger.Info("steering weight",
		slog.Float64("value", res.Value),
		slog.Int("strategies", det.Count()),
		slog.Bool("witness", o.returnF),
	)
	return res, nil
}

// WeightPrimal computes the steering weight as
//
//	1 − max Σ_λ Tr σ_λ  s.t. σ_λ ⪰ 0, σ_{a|x} ⪰ Σ_λ D(a|x,λ) σ_λ.
//
// It agrees with Weight up to solver tolerance.
func WeightPrimal(ctx context.Context, solver sdp.Solver, d *assemblage.Dense, opts ...Option) (*Result, error) {
	const op = "steering.WeightPrimal"
	o := buildOptions(opts)
	ctx, span := startSpan(ctx, op, d)
	defer span.End()

	det, err := strategies(d)
	if err != nil {
		return nil, err
	}

	p := sdp.NewProblem("weight-primal")
	sigmas := make([]*sdp.Matrix, det.Count())
	for l := range sigmas {
		sigmas[l] = p.Hermitian(fmt.Sprintf("sigma_lambda%d", l), d.Dim())
		p.PSD(fmt.Sprintf("sigma_lambda%d_psd", l), sigmas[l])
	}
	for x := 0; x < d.Settings(); x++ {
		for a := 0; a < d.Outcomes(); a++ {
			p.PSDBetween(fmt.Sprintf("within_%d|%d", a, x), sdp.Constant(d.Block(x, a)), localSum(det, sigmas, x, a))
		}
	}
	p.SetObjective(sdp.Minimize, sdp.Const(1).Sub(sdp.Sum(sigmas...).Trace()))

	sol, err := solveOptimal(ctx, op, solver, p, span)
	if err != nil {
		return nil, err
	}
	o.logger.Info("steering weight (primal)", slog.Float64("value", sol.Objective), slog.Int("strategies", det.Count()))
	return &Result{Value: sol.Objective, Status: sol.Status, Iterations: sol.Iterations}, nil
}

// TemporalWeight computes the weight of a (3, 2, 2, 2) temporal assemblage.
func TemporalWeight(ctx context.Context, solver sdp.Solver, blocks [][]*linalg.Matrix, opts ...Option) (*Result, error) {
	d, err := assemblage.NewTemporal(blocks)
	if err != nil {
		return nil, err
	}
	return Weight(ctx, solver, d, opts...)
}

// SpatialWeight computes the weight of the Pauli assemblage of a two-qubit
// state.
func SpatialWeight(ctx context.Context, solver sdp.Solver, rho *linalg.Matrix, opts ...Option) (*Result, error) {
	d, err := assemblage.FromTwoQubitState(rho)
	if err != nil {
		return nil, err
	}
	return Weight(ctx, solver, d, opts...)
}
