// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sdp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

func ipmSolver(t *testing.T) Solver {
	t.Helper()
	s, err := New("ipm", DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestNew_UnknownSolver(t *testing.T) {
	_, err := New("mosek", DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, qerr.ErrParameter))
}

func TestNew_BadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tolerance = -1
	_, err := New("ipm", cfg)
	assert.ErrorIs(t, err, qerr.ErrParameter)
}

func TestBackends(t *testing.T) {
	assert.Equal(t, []string{"csdp", "ipm"}, Backends())
}

func TestIPM_MinEigenvalue(t *testing.T) {
	p := NewProblem("min-eig")
	lambda := p.Real("lambda")
	a := linalg.MustFromRows([][]complex128{{2, 1}, {1, 2}})
	p.PSD("gap", Constant(a).Sub(ScaledIdentity(lambda, 2)))
	p.SetObjective(Maximize, lambda)

	sol, err := ipmSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, sol.Detail)
	assert.InDelta(t, 1.0, sol.Objective, 1e-6)
	assert.InDelta(t, 1.0, real(sol.ScalarValue(lambda)), 1e-6)
}

func TestIPM_ComplexHermitianBound(t *testing.T) {
	rho := linalg.MustFromRows([][]complex128{{0.5, 0.5i}, {-0.5i, 0.5}})
	p := NewProblem("dominate")
	x := p.Hermitian("x", 2)
	p.PSDBetween("dominates", x, Constant(rho))
	p.SetObjective(Minimize, x.Trace())

	sol, err := ipmSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, sol.Detail)
	assert.InDelta(t, 1.0, sol.Objective, 1e-6)
	assert.True(t, sol.Value(x).Equal(rho, 1e-4), "got\n%v", sol.Value(x))
}

func TestIPM_EqualityElimination(t *testing.T) {
	p := NewProblem("trace-one")
	x := p.Hermitian("x", 2)
	p.PSD("x_psd", x)
	p.EqualScalar("trace", x.Trace(), Const(1))
	p.SetObjective(Minimize, x.TraceWith(linalg.PauliZ()))

	sol, err := ipmSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, sol.Detail)
	assert.InDelta(t, -1.0, sol.Objective, 1e-6)
	got := sol.Value(x)
	assert.InDelta(t, 1.0, real(got.At(1, 1)), 1e-4)
}

func TestFind_FeasibleAndInfeasible(t *testing.T) {
	feasible := NewProblem("feasible")
	x := feasible.Hermitian("x", 2)
	feasible.PSD("x_psd", x)
	feasible.EqualScalar("trace", x.Trace(), Const(1))

	sol, err := ipmSolver(t).Solve(context.Background(), feasible)
	require.NoError(t, err)
	assert.Equal(t, StatusFeasible, sol.Status)

	infeasible := NewProblem("infeasible")
	y := infeasible.Hermitian("y", 2)
	infeasible.PSD("y_psd", y)
	infeasible.PSD("y_neg", Constant(linalg.Identity(2).Scale(-1)).Sub(y))

	sol, err = ipmSolver(t).Solve(context.Background(), infeasible)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.InDelta(t, -0.5, sol.Objective, 1e-5)
}

func TestCompile_InconsistentEqualities(t *testing.T) {
	p := NewProblem("inconsistent")
	v := p.Real("v")
	p.EqualScalar("one", v, Const(1))
	p.EqualScalar("two", v, Const(2))
	p.SetObjective(Minimize, v)

	sol, err := ipmSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestCompile_FreeDirectionUnbounded(t *testing.T) {
	p := NewProblem("free")
	v := p.Real("v")
	p.SetObjective(Minimize, v)

	sol, err := ipmSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestCompile_FullyDetermined(t *testing.T) {
	p := NewProblem("fixed")
	v := p.Real("v")
	p.EqualScalar("fix", v, Const(3))
	p.NonNegative("nonneg", v)
	p.SetObjective(Minimize, v.Scale(2))

	sol, err := ipmSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 6.0, sol.Objective, 1e-9)
}

func TestCompile_NonHermitianConstraint(t *testing.T) {
	p := NewProblem("bad")
	c := p.Complex("c", 2, 2)
	p.PSD("c_psd", c)
	_, err := ipmSolver(t).Solve(context.Background(), p)
	assert.ErrorIs(t, err, qerr.ErrParameter)
}

func TestSolve_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProblem("canceled")
	x := p.Hermitian("x", 2)
	p.PSDBetween("dominates", x, Constant(linalg.Identity(2)))
	p.SetObjective(Minimize, x.Trace())

	_, err := ipmSolver(t).Solve(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBlocks_AndHermitianStructure(t *testing.T) {
	p := NewProblem("blocks")
	v := p.Complex("v", 2, 2)
	diag := Constant(linalg.Identity(2))
	m, err := Blocks([][]*Matrix{{diag, v}, {v.H(), diag}})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)

	y := make([]float64, p.NumScalars())
	for i := range y {
		y[i] = float64(i + 1)
	}
	assert.True(t, m.Eval(y).IsHermitian(1e-12))

	_, err = Blocks([][]*Matrix{{diag, ZeroMatrix(3, 2)}})
	assert.Error(t, err)
}

func TestScalar_Algebra(t *testing.T) {
	p := NewProblem("scalars")
	a := p.Real("a")
	b := p.Real("b")
	s := a.Scale(2).Add(b).Sub(Const(1i))
	y := []float64{1.5, -1}
	assert.Equal(t, complex(2, -1), s.Eval(y))
	assert.Equal(t, complex(2, 0), s.Real().Eval(y))
	assert.False(t, s.IsConstant())
	assert.True(t, Const(3).IsConstant())
}
