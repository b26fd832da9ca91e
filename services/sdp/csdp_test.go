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
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdHuang/QuAwesome/services/linalg"
)

func minEigProblem() *Problem {
	p := NewProblem("min-eig")
	lambda := p.Real("lambda")
	a := linalg.MustFromRows([][]complex128{{2, 1}, {1, 2}})
	p.PSD("gap", Constant(a).Sub(ScaledIdentity(lambda, 2)))
	p.SetObjective(Maximize, lambda)
	return p
}

func TestWriteSDPA(t *testing.T) {
	st, err := Compile(minEigProblem())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSDPA(&buf, st))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, "1", lines[0])
	assert.Equal(t, "1", lines[1])
	assert.Equal(t, "2", lines[2])
	assert.Equal(t, "-1", lines[3])
	// C = −A (upper triangle), A_1 = −I.
	assert.Contains(t, lines, "0 1 1 1 -2")
	assert.Contains(t, lines, "0 1 1 2 -1")
	assert.Contains(t, lines, "0 1 2 2 -2")
	assert.Contains(t, lines, "1 1 1 1 -1")
	assert.Contains(t, lines, "1 1 2 2 -1")
	assert.NotContains(t, lines, "0 1 2 1 -1")
}

func TestReadSDPASolution(t *testing.T) {
	y, err := ReadSDPASolution(strings.NewReader("1.000000000000000000e+00 -2.5e-01 \n1 1 1 1 1.0\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -0.25}, y)

	_, err = ReadSDPASolution(strings.NewReader("1.0\n"), 2)
	assert.Error(t, err)

	_, err = ReadSDPASolution(strings.NewReader(""), 1)
	assert.Error(t, err)
}

func TestCSDPStatusMapping(t *testing.T) {
	tests := []struct {
		code int
		want Status
	}{
		{0, StatusOptimal},
		{1, StatusUnbounded},
		{2, StatusInfeasible},
		{3, StatusOptimal},
		{4, StatusUnknown},
		{9, StatusError},
		{42, StatusError},
	}
	for _, tt := range tests {
		got, _ := csdpStatus(tt.code)
		assert.Equal(t, tt.want, got, "code %d", tt.code)
	}
}

func TestCSDP_Solve(t *testing.T) {
	if _, err := exec.LookPath("csdp"); err != nil {
		t.Skip("csdp not installed")
	}
	s, err := New("csdp", DefaultConfig())
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), minEigProblem())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1.0, sol.Objective, 1e-6)
}
