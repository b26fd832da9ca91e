// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package work computes the work extractable from a qubit assemblage and
// the bound achievable by local hidden state models.
package work

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
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
	tracerOnce sync.Once
	workTracer trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		workTracer = otel.Tracer("quawesome/work")
	})
	return workTracer
}

// degenerate is the Bloch radius (and block trace) below which a block is
// treated as maximally mixed.
const degenerate = 1e-12

// Extraction holds a qubit assemblage and its extraction operators
// F_{a|x} = U† σz U − σz, where U rotates the Bloch vector of σ_{a|x} onto
// the z axis.
//
// Thread Safety: Immutable after New; safe for concurrent use.
type Extraction struct {
	d      *assemblage.Dense
	f      [][]*linalg.Matrix
	logger *slog.Logger
}

// Option configures an Extraction.
type Option func(*Extraction)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option { return func(e *Extraction) { e.logger = l } }

// New builds the extraction operators for d.
//
// Outputs:
//   - *Extraction: Ready for Quantum, Classical and Witness.
//   - error: ErrDimension unless the blocks are 2x2.
func New(d *assemblage.Dense, opts ...Option) (*Extraction, error) {
	const op = "work.New"
	if d == nil {
		return nil, qerr.Dimension(op, "nil assemblage")
	}
	if d.Dim() != 2 {
		return nil, qerr.Dimension(op, "blocks are %dx%d, want 2x2", d.Dim(), d.Dim())
	}
	e := &Extraction{d: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.f = make([][]*linalg.Matrix, d.Settings())
	for x := range e.f {
		e.f[x] = make([]*linalg.Matrix, d.Outcomes())
		for a := range e.f[x] {
			f, err := extractionOperator(d.Block(x, a))
			if err != nil {
				return nil, qerr.Parameter(op, "block [%d][%d]: %v", x, a, err)
			}
			e.f[x][a] = f
		}
	}
	return e, nil
}

// extractionOperator returns U† σz U − σz for the normalized Bloch vector
// of sigma. Blocks with zero trace or zero Bloch vector give the zero
// operator.
func extractionOperator(sigma *linalg.Matrix) (*linalg.Matrix, error) {
	tr := real(sigma.Trace())
	if math.Abs(tr) < degenerate {
		return linalg.Zeros(2), nil
	}
	r, err := linalg.BlochVector(sigma.Scale(complex(1/tr, 0)))
	if err != nil {
		return nil, err
	}
	norm := math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
	if norm < degenerate {
		return linalg.Zeros(2), nil
	}
	theta := math.Acos(math.Max(-1, math.Min(1, r[2]/norm)))
	phi := math.Atan2(r[1], r[0])

	plus := cmplx.Exp(complex(0, phi/2))
	minus := cmplx.Exp(complex(0, -phi/2))
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	u := linalg.MustFromRows([][]complex128{
		{plus * c, minus * s},
		{-plus * s, minus * c},
	})
	z := linalg.PauliZ()
	return u.H().Mul(z).Mul(u).Sub(z), nil
}

// F returns a copy of F_{a|x}.
func (e *Extraction) F(x, a int) *linalg.Matrix { return e.f[x][a].Clone() }

// Quantum returns Re Σ_{a,x} Tr(F_{a|x} σ_{a|x}) / 2M. No solver is
// involved.
func (e *Extraction) Quantum() float64 {
	var w complex128
	for x := range e.f {
		for a := range e.f[x] {
			w += e.f[x][a].InnerTrace(e.d.Block(x, a))
		}
	}
	return real(w) / float64(2*e.d.Settings())
}

// Classical returns the best value a local hidden state model reproducing
// Bob's reduced state can reach:
//
//	max Σ_λ Σ_{a,x} D(a|x,λ) Tr(F_{a|x} σ_λ) / 2M
//	s.t. Σ_λ σ_λ = Σ_a σ_{a|0}, σ_λ ⪰ 0.
func (e *Extraction) Classical(ctx context.Context, solver sdp.Solver) (float64, error) {
	const op = "work.Classical"
	ctx, span := getTracer().Start(ctx, op,
		trace.WithAttributes(
			attribute.Int("settings", e.d.Settings()),
			attribute.Int("outcomes", e.d.Outcomes()),
		),
	)
	defer span.End()

	det, err := lhv.Generate(e.d.Settings(), e.d.Outcomes())
	if err != nil {
		return 0, err
	}

	p := sdp.NewProblem("work-classical")
	sigmas := make([]*sdp.Matrix, det.Count())
	var gain []sdp.Scalar
	for l := range sigmas {
		sigmas[l] = p.Hermitian(fmt.Sprintf("sigma_lambda%d", l), 2)
		p.PSD(fmt.Sprintf("sigma_lambda%d_psd", l), sigmas[l])
		for x := 0; x < e.d.Settings(); x++ {
			gain = append(gain, sigmas[l].TraceWith(e.f[x][det.Outcome(l, x)]))
		}
	}
	p.Equal("reduced_state", sdp.Sum(sigmas...), sdp.Constant(e.d.Marginal(0)))
	p.SetObjective(sdp.Maximize, sdp.SumScalars(gain...))

	sol, err := solver.Solve(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve failed")
		return 0, err
	}
	if sol.Status != sdp.StatusOptimal {
		err := qerr.Status(op, "solver %s returned %s: %s", solver.Name(), sol.Status, sol.Detail)
		span.RecordError(err)
		span.SetStatus(codes.Error, "not optimal")
		return 0, err
	}
	value := sol.Objective / float64(2*e.d.Settings())
	span.SetAttributes(attribute.Float64("value", value))
	span.SetStatus(codes.Ok, "optimal")
	e.logger.Info("classical work bound", slog.Float64("value", value), slog.Int("iterations", sol.Iterations))
	return value, nil
}

// Witness returns max(Quantum − Classical, 0).
func (e *Extraction) Witness(ctx context.Context, solver sdp.Solver) (float64, error) {
	classical, err := e.Classical(ctx, solver)
	if err != nil {
		return 0, err
	}
	return math.Max(e.Quantum()-classical, 0), nil
}
