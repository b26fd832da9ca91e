// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tomography

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

func diag(vals ...float64) *linalg.Matrix {
	m := linalg.Zeros(len(vals))
	for i, v := range vals {
		m.Set(i, i, complex(v, 0))
	}
	return m
}

func TestNearestPSD(t *testing.T) {
	tests := []struct {
		name    string
		rho     *linalg.Matrix
		epsilon float64
		want    *linalg.Matrix
	}{
		{
			// -0.1 is spread over the three larger eigenvalues.
			name: "spreads negative mass",
			rho:  diag(-0.1, 0.1, 0.4, 0.6),
			want: diag(0, 1.0/15, 11.0/30, 17.0/30),
		},
		{
			name: "already a state",
			rho:  diag(0.25, 0.75),
			want: diag(0.25, 0.75),
		},
		{
			name:    "epsilon drops small positives",
			rho:     diag(0.05, 0.25, 0.7),
			epsilon: 0.1,
			want:    diag(0, 0.275, 0.725),
		},
		{
			name: "renormalizes",
			rho:  diag(1, 1),
			want: diag(0.5, 0.5),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NearestPSD(tt.rho, tt.epsilon)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want, 1e-9), "got %v", got)
		})
	}
}

func TestNearestPSD_KeepsEigenvectors(t *testing.T) {
	// |+⟩⟨+| with a small negative component along |−⟩.
	plus := linalg.MustFromRows([][]complex128{{0.5, 0.5}, {0.5, 0.5}})
	minus := linalg.MustFromRows([][]complex128{{0.5, -0.5}, {-0.5, 0.5}})
	rho := plus.Scale(1.1).Sub(minus.Scale(0.1))

	got, err := NearestPSD(rho, 0)
	require.NoError(t, err)
	assert.True(t, got.Equal(plus, 1e-9), "got %v", got)
}

func TestNearestPSD_Errors(t *testing.T) {
	_, err := NearestPSD(diag(0.5, 0.5), -1)
	assert.ErrorIs(t, err, qerr.ErrParameter)

	_, err = NearestPSD(diag(1), 0)
	assert.ErrorIs(t, err, qerr.ErrDimension)

	_, err = NearestPSD(linalg.New(2, 3), 0)
	assert.ErrorIs(t, err, qerr.ErrDimension)

	_, err = NearestPSD(linalg.MustFromRows([][]complex128{{1, 1}, {0, 1}}), 0)
	assert.ErrorIs(t, err, qerr.ErrParameter)

	_, err = NearestPSD(diag(-0.5, -0.5), 0)
	assert.ErrorIs(t, err, qerr.ErrParameter)
}
