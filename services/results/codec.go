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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// now is replaced in tests.
var now = time.Now

// complexJSON is the wire form of a complex number.
type complexJSON struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// matrixJSON is the wire form of a matrix.
type matrixJSON struct {
	Dims [2]int          `json:"dims"`
	Data [][]complexJSON `json:"data"`
}

func encodeMatrix(m *linalg.Matrix) matrixJSON {
	r, c := m.Dims()
	out := matrixJSON{Dims: [2]int{r, c}, Data: make([][]complexJSON, r)}
	for i := 0; i < r; i++ {
		out.Data[i] = make([]complexJSON, c)
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			out.Data[i][j] = complexJSON{Real: real(v), Imag: imag(v)}
		}
	}
	return out
}

// encodeValue rewrites complex numbers and matrices into their wire forms,
// recursing through slices and maps. Everything else is left to
// encoding/json.
func encodeValue(v any) (any, error) {
	switch t := v.(type) {
	case complex128:
		return complexJSON{Real: real(t), Imag: imag(t)}, nil
	case complex64:
		return complexJSON{Real: float64(real(t)), Imag: float64(imag(t))}, nil
	case *linalg.Matrix:
		if t == nil {
			return nil, nil
		}
		return encodeMatrix(t), nil
	case []complex128:
		out := make([]complexJSON, len(t))
		for i, c := range t {
			out[i] = complexJSON{Real: real(c), Imag: imag(c)}
		}
		return out, nil
	case []*linalg.Matrix:
		out := make([]any, len(t))
		for i, m := range t {
			e, err := encodeValue(m)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case [][]*linalg.Matrix:
		out := make([]any, len(t))
		for i, row := range t {
			e, err := encodeValue(row)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			e, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = e
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if reserved(k) {
				return nil, fmt.Errorf("key %q is reserved", k)
			}
			e, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = e
		}
		return out, nil
	default:
		return v, nil
	}
}

// decodeValue is the inverse of encodeValue for values produced by
// json.Unmarshal into an any.
func decodeValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if _, hasDims := t["dims"]; hasDims {
			if _, hasData := t["data"]; hasData {
				return decodeMatrix(t)
			}
		}
		_, hasReal := t["real"]
		_, hasImag := t["imag"]
		if hasReal || hasImag {
			return decodeComplex(t)
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			d, err := decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = d
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			d, err := decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = d
		}
		return out, nil
	default:
		return v, nil
	}
}

func decodeComplex(m map[string]any) (complex128, error) {
	re, okR := m["real"].(float64)
	im, okI := m["imag"].(float64)
	if _, present := m["real"]; present && !okR {
		return 0, fmt.Errorf("complex real part is %T", m["real"])
	}
	if _, present := m["imag"]; present && !okI {
		return 0, fmt.Errorf("complex imaginary part is %T", m["imag"])
	}
	return complex(re, im), nil
}

func decodeMatrix(m map[string]any) (*linalg.Matrix, error) {
	dims, ok := m["dims"].([]any)
	if !ok || len(dims) != 2 {
		return nil, fmt.Errorf("matrix dims must be a pair")
	}
	r, okR := dims[0].(float64)
	c, okC := dims[1].(float64)
	if !okR || !okC || r < 0 || c < 0 {
		return nil, fmt.Errorf("matrix dims must be non-negative integers")
	}
	rows, ok := m["data"].([]any)
	if !ok || len(rows) != int(r) {
		return nil, fmt.Errorf("matrix data must have %d rows", int(r))
	}
	out := linalg.New(int(r), int(c))
	for i, row := range rows {
		cells, ok := row.([]any)
		if !ok || len(cells) != int(c) {
			return nil, fmt.Errorf("matrix row %d must have %d entries", i, int(c))
		}
		for j, cell := range cells {
			obj, ok := cell.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("matrix entry (%d,%d) is %T", i, j, cell)
			}
			v, err := decodeComplex(obj)
			if err != nil {
				return nil, fmt.Errorf("matrix entry (%d,%d): %w", i, j, err)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// ==============================================================================
// Files
// ==============================================================================

// FileName returns base + ".json", or base + "_YYYYMMDD.json" with a date
// stamp.
func FileName(base string, dateStamp bool) string {
	base = strings.TrimSuffix(base, ".json")
	if dateStamp {
		return base + "_" + now().Format("20060102") + ".json"
	}
	return base + ".json"
}

// SaveJSON writes c to FileName(base, dateStamp) and returns the path
// written.
func SaveJSON(base string, c Container, dateStamp bool) (string, error) {
	const op = "results.SaveJSON"
	enc, err := c.encoded()
	if err != nil {
		return "", qerr.Parameter(op, "%v", err)
	}
	data, err := json.MarshalIndent(enc, "", "  ")
	if err != nil {
		return "", qerr.Parameter(op, "encode %s container: %v", c.Kind(), err)
	}
	name := FileName(base, dateStamp)
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(name, data, 0640); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// LoadJSON reads a file written by SaveJSON. A top-level array yields a
// *ListContainer, an object a *MapContainer.
func LoadJSON(path string) (Container, error) {
	const op = "results.LoadJSON"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, qerr.Parameter(op, "%s is empty", path)
	}
	switch trimmed[0] {
	case '[':
		var raw []any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, qerr.Parameter(op, "decode %s: %v", path, err)
		}
		items, err := decodeValue(raw)
		if err != nil {
			return nil, qerr.Parameter(op, "decode %s: %v", path, err)
		}
		return NewList(items.([]any)...), nil
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, qerr.Parameter(op, "decode %s: %v", path, err)
		}
		m := NewMap()
		for k, v := range raw {
			d, err := decodeValue(v)
			if err != nil {
				return nil, qerr.Parameter(op, "decode %s: key %q: %v", path, k, err)
			}
			m.items[k] = d
		}
		return m, nil
	default:
		return nil, qerr.Parameter(op, "%s holds neither a list nor a map", path)
	}
}
