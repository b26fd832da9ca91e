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

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

// Signaling returns the largest trace distance ½‖ρ_x − ρ_x'‖₁ between the
// marginals ρ_x = Σ_a σ_{a|x} over all setting pairs. A single setting
// cannot signal and yields 0.
func Signaling(d *assemblage.Dense) (float64, error) {
	const op = "steering.Signaling"
	marginals := make([]*linalg.Matrix, d.Settings())
	for x := range marginals {
		marginals[x] = d.Marginal(x)
	}
	maximum := 0.0
	for x := 0; x < len(marginals); x++ {
		for y := x + 1; y < len(marginals); y++ {
			td, err := linalg.TraceDistance(marginals[x], marginals[y])
			if err != nil {
				return 0, qerr.Parameter(op, "marginals %d and %d: %v", x, y, err)
			}
			if td > maximum {
				maximum = td
			}
		}
	}
	return maximum, nil
}

// SignalingSDP bounds signaling by the smallest operator dominating every
// marginal:
//
//	min Tr σ − 1  s.t. σ ⪰ Σ_a σ_{a|x} for all x.
//
// For normalized marginals the value is 0 exactly when they coincide.
func SignalingSDP(ctx context.Context, solver sdp.Solver, d *assemblage.Dense, opts ...Option) (*Result, error) {
	const op = "steering.SignalingSDP"
	o := buildOptions(opts)
	ctx, span := startSpan(ctx, op, d)
	defer span.End()

	p := sdp.NewProblem("signaling")
	sigma := p.Hermitian("sigma", d.Dim())
	for x := 0; x < d.Settings(); x++ {
		p.PSDBetween(fmt.Sprintf("dominate_%d", x), sigma, sdp.Constant(d.Marginal(x)))
	}
	p.SetObjective(sdp.Minimize, sigma.Trace().Sub(sdp.Const(1)))

	sol, err := solveOptimal(ctx, op, solver, p, span)
	if err != nil {
		return nil, err
	}
	o.logger.Info("signaling", slog.Float64("value", sol.Objective))
	return &Result{Value: sol.Objective, Status: sol.Status, Iterations: sol.Iterations}, nil
}
