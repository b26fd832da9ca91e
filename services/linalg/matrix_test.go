// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_MulAndH(t *testing.T) {
	a := MustFromRows([][]complex128{{1, 2i}, {3, 4}})
	b := MustFromRows([][]complex128{{0, 1}, {1, 0}})

	got := a.Mul(b)
	assert.True(t, got.Equal(MustFromRows([][]complex128{{2i, 1}, {4, 3}}), 1e-12))

	h := a.H()
	assert.Equal(t, complex(0, -2), h.At(1, 0))
	assert.Equal(t, complex(3, 0), h.At(0, 1))
}

func TestMatrix_TraceAndInnerTrace(t *testing.T) {
	a := MustFromRows([][]complex128{{1, 2}, {3, 4}})
	b := MustFromRows([][]complex128{{5, 6}, {7, 8}})
	assert.Equal(t, complex(5, 0), a.Trace())
	assert.Equal(t, a.Mul(b).Trace(), a.InnerTrace(b))
}

func TestPaulis_AreHermitianAndInvolutive(t *testing.T) {
	for _, p := range Paulis() {
		assert.True(t, p.IsHermitian(1e-12))
		assert.True(t, p.Mul(p).Equal(Identity(2), 1e-12))
	}
}

func TestKronAndPartialTrace(t *testing.T) {
	rhoA := MustFromRows([][]complex128{{0.75, 0.1i}, {-0.1i, 0.25}})
	rhoB := MustFromRows([][]complex128{{0.5, 0.5}, {0.5, 0.5}})
	rho := Kron(rhoA, rhoB)

	gotB, err := PartialTraceFirst(rho, 2, 2)
	require.NoError(t, err)
	assert.True(t, gotB.Equal(rhoB, 1e-12))

	gotA, err := PartialTraceSecond(rho, 2, 2)
	require.NoError(t, err)
	assert.True(t, gotA.Equal(rhoA, 1e-12))

	_, err = PartialTraceFirst(rho, 3, 2)
	assert.Error(t, err)
}

func TestEigenHermitian_Reconstructs(t *testing.T) {
	h := MustFromRows([][]complex128{
		{2, 1 - 1i, 0},
		{1 + 1i, 3, 0.5i},
		{0, -0.5i, 1},
	})
	vals, vecs, err := EigenHermitian(h)
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.True(t, vals[0] <= vals[1] && vals[1] <= vals[2])

	assert.True(t, vecs.H().Mul(vecs).Equal(Identity(3), 1e-8))
	assert.True(t, FromEigen(vals, vecs).Equal(h, 1e-8))

	tr := vals[0] + vals[1] + vals[2]
	assert.InDelta(t, 6.0, tr, 1e-9)
}

func TestEigenHermitian_Degenerate(t *testing.T) {
	vals, vecs, err := EigenHermitian(Identity(3).Scale(2))
	require.NoError(t, err)
	for _, v := range vals {
		assert.InDelta(t, 2.0, v, 1e-12)
	}
	assert.True(t, vecs.H().Mul(vecs).Equal(Identity(3), 1e-8))
}

func TestEigenvalues_NotHermitian(t *testing.T) {
	_, err := EigenvaluesHermitian(MustFromRows([][]complex128{{0, 1}, {0, 0}}))
	assert.ErrorIs(t, err, ErrNotHermitian)
}

func TestTraceDistance(t *testing.T) {
	zero := MustFromRows([][]complex128{{1, 0}, {0, 0}})
	one := MustFromRows([][]complex128{{0, 0}, {0, 1}})
	d, err := TraceDistance(zero, one)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-9)

	d, err = TraceDistance(zero, zero)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-12)
}

func TestBlochVector(t *testing.T) {
	plus := MustFromRows([][]complex128{{0.5, 0.5}, {0.5, 0.5}})
	r, err := BlochVector(plus)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r[0], 1e-12)
	assert.InDelta(t, 0.0, r[1], 1e-12)
	assert.InDelta(t, 0.0, r[2], 1e-12)
	assert.False(t, math.IsNaN(r[0]))
}
