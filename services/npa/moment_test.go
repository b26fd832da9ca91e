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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

// boxAssemblage returns σ_{ab|xy} = P(ab|xy)·I/2 for a two-outcome,
// two-setting box.
func boxAssemblage(p func(a, b, x, y int) float64) map[string]*linalg.Matrix {
	out := map[string]*linalg.Matrix{}
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for x := 1; x <= 2; x++ {
				for y := 1; y <= 2; y++ {
					k := assemblage.Key{A: a, B: b, X: x, Y: y}
					out[k.String()] = linalg.Identity(2).Scale(complex(p(a, b, x, y)/2, 0))
				}
			}
		}
	}
	return out
}

func prBox(a, b, x, y int) float64 {
	if (a^b) == ((x-1)&(y-1)) {
		return 0.5
	}
	return 0
}

func uniformBox(a, b, x, y int) float64 { return 0.25 }

func TestBuildMomentMatrix_Shape(t *testing.T) {
	b, err := assemblage.ReadBipartite(boxAssemblage(uniformBox))
	require.NoError(t, err)

	p := sdp.NewProblem("moment")
	mm, err := BuildMomentMatrix(p, b)
	require.NoError(t, err)
	assert.Equal(t, 3, mm.N1)
	assert.Equal(t, 3, mm.N2)
	assert.Equal(t, 9, mm.Size())
	r, c := mm.Expr.Dims()
	assert.Equal(t, 18, r)
	assert.Equal(t, 18, c)

	// (0,0) is the total state, diagonal blocks are always fixed.
	for i := 0; i < mm.Size(); i++ {
		assert.Equal(t, KindAssemblage, mm.Kind(i, i))
	}
	assert.Greater(t, mm.NumVariables(), 0)
	assert.Equal(t, p.NumScalars(), mm.NumVariables()*2*2*2)

	// Each variable is declared once and its reverse never separately.
	seen := map[string]bool{}
	for _, tag := range mm.Tags() {
		assert.False(t, seen[tag])
		assert.False(t, seen[ReverseTag(tag)])
		seen[tag] = true
	}
}

func TestBuildMomentMatrix_Hermitian(t *testing.T) {
	b, err := assemblage.ReadBipartite(boxAssemblage(prBox))
	require.NoError(t, err)

	p := sdp.NewProblem("moment")
	mm, err := BuildMomentMatrix(p, b)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	y := make([]float64, p.NumScalars())
	for i := range y {
		y[i] = rng.NormFloat64()
	}
	m := mm.Expr.Eval(y)
	assert.True(t, m.IsHermitian(1e-12))

	// Block-level mirror symmetry of kinds.
	for r := 0; r < mm.Size(); r++ {
		for c := 0; c < mm.Size(); c++ {
			assert.Equal(t, mm.Kind(r, c), mm.Kind(c, r))
		}
	}
}

func TestBuildMomentMatrix_ThreeOutcomes(t *testing.T) {
	in := map[string]*linalg.Matrix{}
	for a := 0; a < 3; a++ {
		for bb := 0; bb < 2; bb++ {
			for x := 1; x <= 2; x++ {
				k := assemblage.Key{A: a, B: bb, X: x, Y: 1}
				in[k.String()] = linalg.Identity(2).Scale(1.0 / 12)
			}
		}
	}
	b, err := assemblage.ReadBipartite(in)
	require.NoError(t, err)

	p := sdp.NewProblem("moment")
	mm, err := BuildMomentMatrix(p, b)
	require.NoError(t, err)
	assert.Equal(t, 5, mm.N1)
	assert.Equal(t, 2, mm.N2)
	// Generators 1 and 2 are outcomes of setting 1: their product vanishes.
	assert.Equal(t, KindZero, mm.Kind(1*2, 2*2))
}

func TestIsPostQuantum(t *testing.T) {
	solver := sdp.Default()
	ctx := context.Background()

	res, err := IsPostQuantumKeyed(ctx, solver, boxAssemblage(prBox))
	require.NoError(t, err)
	assert.True(t, res.PostQuantum)
	assert.Equal(t, sdp.StatusInfeasible, res.Status)
	assert.Nil(t, res.Moment)

	res, err = IsPostQuantumKeyed(ctx, solver, boxAssemblage(uniformBox), WithMomentMatrix())
	require.NoError(t, err)
	assert.False(t, res.PostQuantum)
	assert.Equal(t, sdp.StatusFeasible, res.Status)
	require.NotNil(t, res.Moment)
	assert.True(t, res.Moment.IsHermitian(1e-6))
	min, err := linalg.MinEigenvalue(res.Moment)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, min, -1e-6)
}

func TestIsPostQuantum_ValidationFirst(t *testing.T) {
	in := boxAssemblage(uniformBox)
	delete(in, "1,1|2,2")
	_, err := IsPostQuantumKeyed(context.Background(), sdp.Default(), in)
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
}
