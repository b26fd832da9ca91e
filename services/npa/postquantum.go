// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package npa

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
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

var (
	tracerOnce sync.Once
	npaTracer  trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		npaTracer = otel.Tracer("quawesome/npa")
	})
	return npaTracer
}

// Result is the outcome of a post-quantum test.
type Result struct {
	// PostQuantum is true when no PSD moment matrix exists.
	PostQuantum bool

	// Status is the solver verdict on the moment matrix feasibility.
	Status sdp.Status

	// Margin is the largest t with Γ − tI ⪰ 0 over all completions Γ.
	Margin float64

	// Moment is the numeric moment matrix; set only with WithMomentMatrix
	// for assemblages that are not post-quantum.
	Moment *linalg.Matrix

	// Variables is the number of free matrix variables.
	Variables int
}

type options struct {
	moment bool
	logger *slog.Logger
}

// Option configures IsPostQuantum.
type Option func(*options)

// WithMomentMatrix requests the numeric moment matrix.
func WithMomentMatrix() Option { return func(o *options) { o.moment = true } }

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// IsPostQuantum decides whether the assemblage admits a PSD moment matrix.
//
// Description:
//
//	A feasible moment matrix means the assemblage is not post-quantum at
//	this level of the hierarchy; an infeasible one means it is. Any other
//	solver status is an ErrSolverStatus error.
func IsPostQuantum(ctx context.Context, solver sdp.Solver, b *assemblage.Bipartite, opts ...Option) (*Result, error) {
	const op = "npa.IsPostQuantum"
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := getTracer().Start(ctx, op,
		trace.WithAttributes(
			attribute.Int("a1", b.A1),
			attribute.Int("a2", b.A2),
			attribute.Int("m1", b.M1),
			attribute.Int("m2", b.M2),
			attribute.Int("dim", b.N),
		),
	)
	defer span.End()

	p := sdp.NewProblem("post-quantum")
	mm, err := BuildMomentMatrix(p, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}
	p.PSD("moment", mm.Expr)

	sol, err := solver.Solve(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve failed")
		return nil, err
	}

	res := &Result{Status: sol.Status, Margin: sol.Objective, Variables: mm.NumVariables()}
	switch sol.Status {
	case sdp.StatusFeasible:
		res.PostQuantum = false
		if o.moment {
			res.Moment = sol.Value(mm.Expr)
		}
	case sdp.StatusInfeasible:
		res.PostQuantum = true
	default:
		err := qerr.Status(op, "solver %s returned %s: %s", solver.Name(), sol.Status, sol.Detail)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no verdict")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("post_quantum", res.PostQuantum), attribute.Int("variables", res.Variables))
	span.SetStatus(codes.Ok, "decided")
	o.logger.Info("post-quantum test",
		slog.Bool("post_quantum", res.PostQuantum),
		slog.String("status", sol.Status.String()),
		slog.Float64("margin", res.Margin),
		slog.Int("variables", res.Variables),
	)
	return res, nil
}

// IsPostQuantumKeyed validates a keyed assemblage and runs IsPostQuantum.
func IsPostQuantumKeyed(ctx context.Context, solver sdp.Solver, in map[string]*linalg.Matrix, opts ...Option) (*Result, error) {
	b, err := assemblage.ReadBipartite(in)
	if err != nil {
		return nil, err
	}
	return IsPostQuantum(ctx, solver, b, opts...)
}
