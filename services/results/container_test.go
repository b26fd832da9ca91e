// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package results

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

func TestListContainer(t *testing.T) {
	l := NewList("a", "b", "c")
	l.Append(6.0)
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, KindList, l.Kind())

	require.NoError(t, l.Set(1, "e"))
	v, err := l.At(1)
	require.NoError(t, err)
	assert.Equal(t, "e", v)

	require.NoError(t, l.Delete(1, 3))
	assert.Equal(t, []any{"a", 6.0}, l.Items())

	_, err = l.At(5)
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
	assert.ErrorIs(t, l.Set(-1, "x"), qerr.ErrIndexValidation)
	assert.ErrorIs(t, l.Delete(1, 0), qerr.ErrIndexValidation)
}

func TestMapContainer(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Put("0", "x"))
	require.NoError(t, m.Put("a", 1.0))
	require.NoError(t, m.Put("b", "y"))
	assert.Equal(t, KindMap, m.Kind())
	assert.Equal(t, []string{"0", "a", "b"}, m.Keys())

	require.NoError(t, m.Delete("a"))
	assert.Equal(t, 2, m.Len())
	_, err := m.Get("a")
	assert.ErrorIs(t, err, qerr.ErrIndexValidation)
	assert.ErrorIs(t, m.Delete("a"), qerr.ErrIndexValidation)
	assert.ErrorIs(t, m.Put("real", 1.0), qerr.ErrParameter)
}

func TestFileName(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC) }

	assert.Equal(t, "run.json", FileName("run", false))
	assert.Equal(t, "run_20240307.json", FileName("run", true))
	assert.Equal(t, "run_20240307.json", FileName("run.json", true))
}

func TestSaveLoadJSON_List(t *testing.T) {
	rho := linalg.MustFromRows([][]complex128{{0.5, 0.5i}, {-0.5i, 0.5}})
	l := NewList(1.5, complex(1, -2), rho, "label", []any{complex(0, 1), 2.0})

	base := filepath.Join(t.TempDir(), "out", "list")
	name, err := SaveJSON(base, l, false)
	require.NoError(t, err)
	assert.Equal(t, base+".json", name)

	c, err := LoadJSON(name)
	require.NoError(t, err)
	got, ok := c.(*ListContainer)
	require.True(t, ok)
	require.Equal(t, 5, got.Len())

	items := got.Items()
	assert.Equal(t, 1.5, items[0])
	assert.Equal(t, complex(1, -2), items[1])
	m, ok := items[2].(*linalg.Matrix)
	require.True(t, ok)
	assert.True(t, m.Equal(rho, 0))
	assert.Equal(t, "label", items[3])
	assert.Equal(t, []any{complex(0, 1), 2.0}, items[4])
}

func TestSaveLoadJSON_Map(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Put("robustness", 0.25))
	require.NoError(t, m.Put("F", []*linalg.Matrix{linalg.PauliZ()}))

	name, err := SaveJSON(filepath.Join(t.TempDir(), "map"), m, true)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(name), "map_")

	c, err := LoadJSON(name)
	require.NoError(t, err)
	got, ok := c.(*MapContainer)
	require.True(t, ok)
	assert.Equal(t, []string{"F", "robustness"}, got.Keys())

	fs, err := got.Get("F")
	require.NoError(t, err)
	list, ok := fs.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.True(t, list[0].(*linalg.Matrix).Equal(linalg.PauliZ(), 0))
}

func TestLoadJSON_Errors(t *testing.T) {
	dir := t.TempDir()
	scalar := filepath.Join(dir, "scalar.json")
	require.NoError(t, os.WriteFile(scalar, []byte("3.5"), 0600))
	_, err := LoadJSON(scalar)
	assert.ErrorIs(t, err, qerr.ErrParameter)

	badMatrix := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badMatrix, []byte(`[{"dims":[2,2],"data":[[{"real":1}]]}]`), 0600))
	_, err = LoadJSON(badMatrix)
	assert.ErrorIs(t, err, qerr.ErrParameter)

	_, err = LoadJSON(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSaveJSON_RejectsReservedNestedKey(t *testing.T) {
	l := NewList(map[string]any{"imag": 1.0})
	_, err := SaveJSON(filepath.Join(t.TempDir(), "x"), l, false)
	assert.ErrorIs(t, err, qerr.ErrParameter)
}
