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

// Projection is the no-signaling assemblage closest to an input.
type Projection struct {
	Assemblage *assemblage.Dense

	// Distance is Σ μ_{a|x}, the summed operator-norm bounds on the
	// per-block deviation.
	Distance float64

	Status     sdp.Status
	Iterations int
}

// ProjectNoSignaling finds the closest no-signaling assemblage.
//
// Description:
//
//	min Σ_{a,x} μ_{a|x}
//	s.t. σ_{a|x} ⪰ 0,
//	     −μ_{a|x} I ⪯ σ^in_{a|x} − σ_{a|x} ⪯ μ_{a|x} I,
//	     Σ_a σ_{a|x} = Σ_a σ_{a|x'} for every pair x < x'.
//
// Outputs:
//   - *Projection: The projected assemblage and the objective.
//   - error: ErrSolverStatus when the solver does not reach optimality.
func ProjectNoSignaling(ctx context.Context, solver sdp.Solver, d *assemblage.Dense, opts ...Option) (*Projection, error) {
	const op = "steering.ProjectNoSignaling"
	o := buildOptions(opts)
	ctx, span := startSpan(ctx, op, d)
	defer span.End()

	p := sdp.NewProblem("ns-projection")
	sigma := make([][]*sdp.Matrix, d.Settings())
	marginals := make([]*sdp.Matrix, d.Settings())
	var mus []sdp.Scalar
	for x := range sigma {
		sigma[x] = make([]*sdp.Matrix, d.Outcomes())
		for a := range sigma[x] {
			s := p.Hermitian(fmt.Sprintf("sigma_%d|%d", a, x), d.Dim())
			mu := p.Real(fmt.Sprintf("mu_%d|%d", a, x))
			diff := sdp.Constant(d.Block(x, a)).Sub(s)
			bound := sdp.ScaledIdentity(mu, d.Dim())

			p.PSD(fmt.Sprintf("sigma_%d|%d_psd", a, x), s)
			p.PSDBetween(fmt.Sprintf("upper_%d|%d", a, x), bound, diff)
			p.PSD(fmt.Sprintf("lower_%d|%d", a, x), bound.Add(diff))

			sigma[x][a] = s
			mus = append(mus, mu)
		}
		marginals[x] = sdp.Sum(sigma[x]...)
	}
	for x := 0; x < len(marginals); x++ {
		for y := x + 1; y < len(marginals); y++ {
			p.Equal(fmt.Sprintf("no_signaling_%d_%d", x, y), marginals[x], marginals[y])
		}
	}
	p.SetObjective(sdp.Minimize, sdp.SumScalars(mus...))

	sol, err := solveOptimal(ctx, op, solver, p, span)
	if err != nil {
		return nil, err
	}

	blocks := make([][]*linalg.Matrix, len(sigma))
	for x := range sigma {
		blocks[x] = make([]*linalg.Matrix, len(sigma[x]))
		for a := range sigma[x] {
			blocks[x][a] = sol.Value(sigma[x][a])
		}
	}
	projected, err := assemblage.NewDense(blocks)
	if err != nil {
		return nil, qerr.Status(op, "projected assemblage: %v", err)
	}
	o.logger.Info("no-signaling projection", slog.Float64("distance", sol.Objective))
	return &Projection{
		Assemblage: projected,
		Distance:   sol.Objective,
		Status:     sol.Status,
		Iterations: sol.Iterations,
	}, nil
}
