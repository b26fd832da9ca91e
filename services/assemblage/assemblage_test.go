// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assemblage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

func quarterIdentity() *linalg.Matrix { return linalg.Identity(2).Scale(0.25) }

func fullKeys(a1, a2, m1, m2 int) map[string]*linalg.Matrix {
	out := map[string]*linalg.Matrix{}
	for a := 0; a < a1; a++ {
		for b := 0; b < a2; b++ {
			for x := 1; x <= m1; x++ {
				for y := 1; y <= m2; y++ {
					out[Key{a, b, x, y}.String()] = quarterIdentity()
				}
			}
		}
	}
	return out
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey(" 1, 0 | 2 ,1")
	require.NoError(t, err)
	assert.Equal(t, Key{1, 0, 2, 1}, k)
	assert.Equal(t, "1,0|2,1", k.String())

	for _, bad := range []string{"1,0,2,1", "1|2", "a,0|1,1", "0,0|0,1", "-1,0|1,1", "0,0|1"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadBipartite_Valid(t *testing.T) {
	b, err := ReadBipartite(fullKeys(2, 2, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, b.A1)
	assert.Equal(t, 2, b.A2)
	assert.Equal(t, 2, b.M1)
	assert.Equal(t, 2, b.M2)
	assert.Equal(t, 2, b.N)
	assert.Len(t, b.Keys(), 16)
	assert.True(t, b.Total().Equal(linalg.Identity(2), 1e-12))
	assert.True(t, b.MarginalA(0, 2).Equal(linalg.Identity(2).Scale(0.5), 1e-12))
}

func TestReadBipartite_MissingKeyIsNamed(t *testing.T) {
	in := fullKeys(2, 2, 2, 2)
	delete(in, "1,1|2,2")

	_, err := ReadBipartite(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
	assert.Contains(t, err.Error(), `"1,1|2,2"`)
}

func TestReadBipartite_NonContiguous(t *testing.T) {
	in := fullKeys(1, 1, 1, 1)
	in["0,0|3,1"] = quarterIdentity()
	_, err := ReadBipartite(in)
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
	assert.Contains(t, err.Error(), "'x'")
}

func TestReadBipartite_MalformedKey(t *testing.T) {
	in := fullKeys(1, 1, 1, 1)
	in["zero|one"] = quarterIdentity()
	_, err := ReadBipartite(in)
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
}

func TestReadBipartite_Dimensions(t *testing.T) {
	in := fullKeys(2, 1, 1, 1)
	in["1,0|1,1"] = linalg.Identity(3)
	_, err := ReadBipartite(in)
	assert.ErrorIs(t, err, qerr.ErrDimension)

	in = fullKeys(1, 1, 1, 1)
	in["0,0|1,1"] = linalg.Identity(1)
	_, err = ReadBipartite(in)
	assert.ErrorIs(t, err, qerr.ErrDimension)

	_, err = ReadBipartite(nil)
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
}

func TestReadBipartite_CopiesInput(t *testing.T) {
	in := fullKeys(1, 1, 1, 1)
	b, err := ReadBipartite(in)
	require.NoError(t, err)
	in["0,0|1,1"].Set(0, 0, 42)
	assert.Equal(t, complex(0.25, 0), b.Joint(0, 0, 1, 1).At(0, 0))
}

func TestNewDense(t *testing.T) {
	d, err := Uniform(3, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Settings())
	assert.Equal(t, 2, d.Outcomes())
	assert.Equal(t, 2, d.Dim())
	assert.True(t, d.Marginal(1).Equal(linalg.Identity(2).Scale(0.5), 1e-12))

	_, err = NewDense(nil)
	assert.ErrorIs(t, err, qerr.ErrDimension)

	_, err = NewDense([][]*linalg.Matrix{{quarterIdentity()}, {quarterIdentity(), quarterIdentity()}})
	assert.ErrorIs(t, err, qerr.ErrDimension)

	_, err = NewDense([][]*linalg.Matrix{{linalg.New(2, 3)}})
	assert.ErrorIs(t, err, qerr.ErrDimension)
}

func TestNewDense_PrivateCopy(t *testing.T) {
	src := [][]*linalg.Matrix{{quarterIdentity(), quarterIdentity()}}
	d, err := NewDense(src)
	require.NoError(t, err)
	src[0][0].Set(0, 0, 9)
	assert.Equal(t, complex(0.25, 0), d.Block(0, 0).At(0, 0))
}

func TestNewTemporal_Shape(t *testing.T) {
	u, err := Uniform(3, 2, 2)
	require.NoError(t, err)
	_, err = NewTemporal(u.Blocks())
	require.NoError(t, err)

	u2, err := Uniform(2, 2, 2)
	require.NoError(t, err)
	_, err = NewTemporal(u2.Blocks())
	assert.ErrorIs(t, err, qerr.ErrDimension)
}

func TestFromTwoQubitState_Bell(t *testing.T) {
	d, err := FromTwoQubitState(BellState())
	require.NoError(t, err)
	require.Equal(t, 3, d.Settings())

	// Measuring Z on |Φ+⟩ leaves Bob in |0⟩ or |1⟩ with probability ½.
	assert.True(t, d.Block(2, 0).Equal(linalg.MustFromRows([][]complex128{{0, 0}, {0, 0.5}}), 1e-12))
	assert.True(t, d.Block(2, 1).Equal(linalg.MustFromRows([][]complex128{{0.5, 0}, {0, 0}}), 1e-12))
	for x := 0; x < 3; x++ {
		assert.True(t, d.Marginal(x).Equal(linalg.Identity(2).Scale(0.5), 1e-12))
		for a := 0; a < 2; a++ {
			assert.True(t, d.Block(x, a).IsHermitian(1e-12))
		}
	}

	_, err = FromTwoQubitState(linalg.Identity(2))
	assert.ErrorIs(t, err, qerr.ErrDimension)
}

func TestPauliMeasurement_Invalid(t *testing.T) {
	_, err := PauliMeasurement(2, 0)
	assert.ErrorIs(t, err, qerr.ErrParameter)
}

func TestDecode_Bipartite(t *testing.T) {
	doc := `
name: tiny
blocks:
  "0,0|1,1": [[0.5, "0.1+0.2i"], ["0.1-0.2i", 0.5]]
`
	f, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, f.IsBipartite())
	b, err := f.Bipartite()
	require.NoError(t, err)
	assert.Equal(t, complex(0.1, 0.2), b.Joint(0, 0, 1, 1).At(0, 1))
}

func TestDecode_JSONWithRealImag(t *testing.T) {
	doc := `{"name": "json", "settings": [[[[{"real": 0.5, "imag": 0}, 0], [0, 0]], [[0, 0], [0, {"real": 0.5, "imag": 0}]]]]}`
	f, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	d, err := f.Dense()
	require.NoError(t, err)
	assert.Equal(t, 1, d.Settings())
	assert.Equal(t, complex(0.5, 0), d.Block(0, 1).At(1, 1))
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader("name: empty\n"))
	assert.ErrorIs(t, err, qerr.ErrParameter)

	_, err = Decode(strings.NewReader("state: [[\"bogus\"]]\n"))
	assert.ErrorIs(t, err, qerr.ErrParameter)
}

func TestEncodeDecode(t *testing.T) {
	d, err := FromTwoQubitState(Werner(0.8))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "werner", d))
	f, err := Decode(&buf)
	require.NoError(t, err)
	got, err := f.Dense()
	require.NoError(t, err)
	for x := 0; x < 3; x++ {
		for a := 0; a < 2; a++ {
			assert.True(t, got.Block(x, a).Equal(d.Block(x, a), 1e-12))
		}
	}
}
