// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package steering quantifies steering and signaling of single-party
// assemblages σ_{a|x}.
//
// Description:
//
//	Robustness and weight compare an assemblage against the local hidden
//	state assemblages Σ_λ D(a|x,λ) σ_λ built from the deterministic
//	strategies of package lhv. Signaling measures how far the marginals
//	Σ_a σ_{a|x} depend on x, and ProjectNoSignaling finds the closest
//	assemblage whose marginals do not.
//
//	Every entry point builds one SDP, solves it once and returns. Solver
//	statuses other than optimal become ErrSolverStatus errors.
package steering

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/lhv"
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

var (
	tracerOnce     sync.Once
	steeringTracer trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		steeringTracer = otel.Tracer("quawesome/steering")
	})
	return steeringTracer
}

// Result is the value of a steering quantifier.
type Result struct {
	Value      float64
	Status     sdp.Status
	Iterations int

	// F holds the optimal F_{a|x}, indexed [x][a], when requested from
	// Weight.
	F [][]*linalg.Matrix
}

type options struct {
	logger  *slog.Logger
	returnF bool
}

// Option configures a formulation.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithF asks Weight to return the optimal F_{a|x}.
func WithF() Option { return func(o *options) { o.returnF = true } }

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// startSpan opens the span shared by every formulation.
func startSpan(ctx context.Context, name string, d *assemblage.Dense) (context.Context, trace.Span) {
	return getTracer().Start(ctx, name,
		trace.WithAttributes(
			attribute.Int("settings", d.Settings()),
			attribute.Int("outcomes", d.Outcomes()),
			attribute.Int("dim", d.Dim()),
		),
	)
}

// solveOptimal solves p and requires an optimal status.
func solveOptimal(ctx context.Context, op string, solver sdp.Solver, p *sdp.Problem, span trace.Span) (*sdp.Solution, error) {
	sol, err := solver.Solve(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve failed")
		return nil, err
	}
	if sol.Status != sdp.StatusOptimal {
		err := qerr.Status(op, "solver %s returned %s: %s", solver.Name(), sol.Status, sol.Detail)
		span.RecordError(err)
		span.SetStatus(codes.Error, "not optimal")
		return nil, err
	}
	span.SetAttributes(attribute.Float64("value", sol.Objective), attribute.Int("iterations", sol.Iterations))
	span.SetStatus(codes.Ok, "optimal")
	return sol, nil
}

// strategies enumerates the deterministic strategies for d.
func strategies(d *assemblage.Dense) (*lhv.Array, error) {
	return lhv.Generate(d.Settings(), d.Outcomes())
}

// localSum returns Σ_λ D(a|x,λ) σ_λ.
func localSum(det *lhv.Array, sigmas []*sdp.Matrix, x, a int) *sdp.Matrix {
	var terms []*sdp.Matrix
	for l, s := range sigmas {
		if det.At(l, x, a) == 1 {
			terms = append(terms, s)
		}
	}
	return sdp.Sum(terms...)
}
