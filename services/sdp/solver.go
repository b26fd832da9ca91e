// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sdp models and solves semidefinite programs over complex matrices.
//
// Description:
//
//	Problems are written with affine matrix expressions over real scalar
//	variables (Hermitian, complex and real variables), linear matrix
//	inequalities and affine equalities. Compile eliminates the equalities
//	and reduces the problem to a real block-diagonal standard form, which
//	a named backend solves:
//
//	  "ipm"   native primal-dual interior point method (HKM direction,
//	          Mehrotra predictor-corrector)
//	  "csdp"  the external CSDP binary through the SDPA sparse format
//
//	The outcome of every solve is a Status. Callers branch on the status,
//	never on error text.
//
// Thread Safety:
//
//	Solvers are stateless apart from their configuration and may be shared
//	between goroutines. A Problem must not be mutated while it is solved.
package sdp

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// ==============================================================================
// Status
// ==============================================================================

// Status is the solver verdict for a problem.
type Status int

const (
	// StatusUnknown means the solver stopped without a verdict.
	StatusUnknown Status = iota
	// StatusOptimal means an optimum was found within tolerance.
	StatusOptimal
	// StatusFeasible means a feasibility problem has a solution.
	StatusFeasible
	// StatusInfeasible means the constraints cannot be satisfied.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded.
	StatusUnbounded
	// StatusError means the backend failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Solved reports whether the status carries a usable solution.
func (s Status) Solved() bool { return s == StatusOptimal || s == StatusFeasible }

// ==============================================================================
// Solution
// ==============================================================================

// Solution is the result of a solve.
type Solution struct {
	Status Status

	// Detail is backend specific information such as a CSDP exit code.
	Detail string

	// Objective is the optimal objective value in the problem's own sense.
	// For Find problems it is the feasibility margin.
	Objective float64

	Iterations int
	Duration   time.Duration
	Backend    string

	y []float64
}

// Value evaluates a matrix expression at the solution.
func (s *Solution) Value(m *Matrix) *linalg.Matrix {
	if s.y == nil {
		r, c := m.Dims()
		return linalg.New(r, c)
	}
	return m.Eval(s.y)
}

// ScalarValue evaluates a scalar expression at the solution.
func (s *Solution) ScalarValue(v Scalar) complex128 {
	if s.y == nil {
		return v.c
	}
	return v.Eval(s.y)
}

// ==============================================================================
// Configuration
// ==============================================================================

// Config holds backend settings.
type Config struct {
	// Tolerance is the relative gap and infeasibility tolerance.
	Tolerance float64

	// FeasibilityTolerance is the margin below which a feasibility problem
	// is declared infeasible.
	FeasibilityTolerance float64

	// MaxIterations bounds the interior point iterations.
	MaxIterations int

	// CSDPPath is the csdp executable. Empty means "csdp" on PATH.
	CSDPPath string

	// WorkDir holds temporary SDPA files. Empty means os.TempDir.
	WorkDir string

	// Logger receives solver diagnostics. Nil means slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the defaults used by the CLI and the tests.
func DefaultConfig() Config {
	return Config{
		Tolerance:            1e-8,
		FeasibilityTolerance: 1e-6,
		MaxIterations:        100,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) validate(op string) error {
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) {
		return qerr.Parameter(op, "tolerance must be positive, got %g", c.Tolerance)
	}
	if c.FeasibilityTolerance < 0 {
		return qerr.Parameter(op, "feasibility tolerance must be non-negative, got %g", c.FeasibilityTolerance)
	}
	if c.MaxIterations <= 0 {
		return qerr.Parameter(op, "max iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// ==============================================================================
// Solver interface and registry
// ==============================================================================

// Solver solves a Problem.
type Solver interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// backend solves a compiled standard form. z has one entry per standard
// variable.
type backend interface {
	name() string
	solveStandard(ctx context.Context, st *Standard) (*rawResult, error)
}

type rawResult struct {
	status     Status
	detail     string
	z          []float64
	iterations int
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func(Config) backend{
		"ipm":  func(c Config) backend { return &ipm{cfg: c} },
		"csdp": func(c Config) backend { return &csdp{cfg: c} },
	}
)

// Backends returns the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New returns the named solver. Unknown names are parameter errors.
func New(name string, cfg Config) (Solver, error) {
	const op = "sdp.New"
	registryMu.RLock()
	mk, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, qerr.Parameter(op, "unknown solver %q (have %v)", name, Backends())
	}
	if err := cfg.validate(op); err != nil {
		return nil, err
	}
	return &solver{b: mk(cfg), cfg: cfg}, nil
}

// Default returns the native interior point solver with DefaultConfig.
func Default() Solver {
	s, _ := New("ipm", DefaultConfig())
	return s
}

type solver struct {
	b   backend
	cfg Config
}

func (s *solver) Name() string { return s.b.name() }

// Solve compiles p and hands the standard form to the backend.
//
// Description:
//
//	Compilation alone can decide a problem: inconsistent equalities are
//	infeasible, a free direction with non-zero cost is unbounded, and a
//	problem with no remaining variables is a plain PSD check. Otherwise
//	the backend result is mapped back to the problem's scalars.
//
// Outputs:
//
//	*Solution - status and values. Never nil when err is nil.
//	error     - ErrParameter for malformed problems, ErrSolverStatus for
//	            backend failures, or the context error.
func (s *solver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	const op = "sdp.Solve"
	ctx, span := getTracer().Start(ctx, "sdp.Solve",
		trace.WithAttributes(
			attribute.String("backend", s.b.name()),
			attribute.String("problem", p.name),
			attribute.String("sense", p.sense.String()),
			attribute.Int("scalars", p.nvars),
			attribute.Int("constraints", p.NumConstraints()),
		),
	)
	defer span.End()
	start := time.Now()

	st, err := Compile(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compile failed")
		return nil, err
	}

	sol := &Solution{Backend: s.b.name(), Status: st.Verdict}
	switch {
	case st.Verdict != StatusUnknown:
		if st.Verdict == StatusFeasible {
			sol.y = st.Recover(make([]float64, st.NumVars()))
		}
	case st.NumVars() == 0:
		if st.ConstantFeasible(s.cfg.FeasibilityTolerance) {
			sol.Status = StatusOptimal
			sol.Objective = st.flip * st.Offset
			sol.y = st.Recover(nil)
		} else {
			sol.Status = StatusInfeasible
		}
	default:
		raw, err := s.b.solveStandard(ctx, st)
		if err != nil {
			solvesTotal.WithLabelValues(s.b.name(), StatusError.String()).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend failed")
			if ctx.Err() != nil {
				return nil, err
			}
			return nil, qerr.Status(op, "%s backend on %q: %v", s.b.name(), p.name, err)
		}
		sol.Status, sol.Detail, sol.Iterations = raw.status, raw.detail, raw.iterations
		if raw.z != nil {
			var dobj float64
			for i, v := range raw.z {
				dobj += st.Obj[i] * v
			}
			if st.Margin {
				margin := raw.z[len(raw.z)-1]
				sol.Objective = margin
				sol.y = st.Recover(raw.z[:len(raw.z)-1])
				if sol.Status == StatusOptimal {
					if margin >= -s.cfg.FeasibilityTolerance {
						sol.Status = StatusFeasible
					} else {
						sol.Status = StatusInfeasible
					}
				}
			} else {
				sol.Objective = st.flip * (dobj + st.Offset)
				sol.y = st.Recover(raw.z)
			}
		}
	}
	sol.Duration = time.Since(start)

	solvesTotal.WithLabelValues(s.b.name(), sol.Status.String()).Inc()
	solveDuration.WithLabelValues(s.b.name()).Observe(sol.Duration.Seconds())
	span.SetAttributes(
		attribute.String("status", sol.Status.String()),
		attribute.Float64("objective", sol.Objective),
		attribute.Int("iterations", sol.Iterations),
	)
	span.SetStatus(codes.Ok, "solved")

	s.cfg.logger().Debug("sdp solved",
		slog.String("backend", s.b.name()),
		slog.String("problem", p.name),
		slog.String("status", sol.Status.String()),
		slog.Float64("objective", sol.Objective),
		slog.Int("iterations", sol.Iterations),
		slog.Duration("duration", sol.Duration),
	)
	return sol, nil
}

// ==============================================================================
// OTel Tracer Initialization
// ==============================================================================

var (
	tracerOnce sync.Once
	sdpTracer  trace.Tracer
)

// getTracer returns the OTel tracer, initializing it lazily if needed.
//
// Thread Safety: Safe for concurrent use (sync.Once).
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		sdpTracer = otel.Tracer("quawesome/sdp")
	})
	return sdpTracer
}

// String implements fmt.Stringer for log lines.
func (s *Solution) String() string {
	return fmt.Sprintf("%s (objective %.6g, %d iterations)", s.Status, s.Objective, s.Iterations)
}
