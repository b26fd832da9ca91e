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
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// Complex is a complex number as written in assemblage files. It accepts a
// plain number, a string such as "0.5-0.5i", or a {real, imag} mapping.
type Complex complex128

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Complex) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s := strings.ReplaceAll(strings.TrimSpace(node.Value), " ", "")
		s = strings.ReplaceAll(s, "j", "i")
		v, err := strconv.ParseComplex(s, 128)
		if err != nil {
			return fmt.Errorf("line %d: invalid complex number %q", node.Line, node.Value)
		}
		*c = Complex(v)
		return nil
	case yaml.MappingNode:
		var parts struct {
			Real float64 `yaml:"real"`
			Imag float64 `yaml:"imag"`
		}
		if err := node.Decode(&parts); err != nil {
			return err
		}
		*c = Complex(complex(parts.Real, parts.Imag))
		return nil
	default:
		return fmt.Errorf("line %d: expected a complex number", node.Line)
	}
}

// MatrixLiteral is a matrix written as a list of rows.
type MatrixLiteral [][]Complex

// Matrix converts the literal.
func (m MatrixLiteral) Matrix() (*linalg.Matrix, error) {
	rows := make([][]complex128, len(m))
	for i, r := range m {
		rows[i] = make([]complex128, len(r))
		for j, v := range r {
			rows[i][j] = complex128(v)
		}
	}
	return linalg.FromRows(rows)
}

// LiteralOf converts a matrix into its literal form.
func LiteralOf(m *linalg.Matrix) MatrixLiteral {
	rows := m.Rows()
	out := make(MatrixLiteral, len(rows))
	for i, r := range rows {
		out[i] = make([]Complex, len(r))
		for j, v := range r {
			out[i][j] = Complex(v)
		}
	}
	return out
}

// File is an assemblage document. Exactly one of Blocks, Settings or State
// is expected.
//
// Example:
//
//	name: pr-box
//	blocks:
//	  "0,0|1,1": [[0.25, 0], [0, 0.25]]
//	  ...
//
//	name: temporal
//	settings:
//	  - [[[0.5, 0], [0, 0]], [[0, 0], [0, 0.5]]]
//	  ...
//
//	name: werner
//	state: [[0.5, 0, 0, 0.5], ...]
type File struct {
	Name     string                   `yaml:"name"`
	Blocks   map[string]MatrixLiteral `yaml:"blocks,omitempty"`
	Settings [][]MatrixLiteral        `yaml:"settings,omitempty"`
	State    MatrixLiteral            `yaml:"state,omitempty"`
}

// Decode reads a YAML or JSON assemblage document.
func Decode(r io.Reader) (*File, error) {
	const op = "assemblage.Decode"
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, qerr.Parameter(op, "%v", err)
	}
	n := 0
	for _, set := range []bool{f.Blocks != nil, f.Settings != nil, f.State != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, qerr.Parameter(op, "document must define exactly one of blocks, settings or state")
	}
	return &f, nil
}

// Load reads an assemblage document from disk.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}

// IsBipartite reports whether the document holds keyed blocks.
func (f *File) IsBipartite() bool { return f.Blocks != nil }

// Bipartite validates the keyed blocks.
func (f *File) Bipartite() (*Bipartite, error) {
	const op = "assemblage.File.Bipartite"
	if f.Blocks == nil {
		return nil, qerr.Parameter(op, "%s: document has no keyed blocks", f.Name)
	}
	in := make(map[string]*linalg.Matrix, len(f.Blocks))
	for k, lit := range f.Blocks {
		m, err := lit.Matrix()
		if err != nil {
			return nil, qerr.Dimension(op, "block %q: %v", k, err)
		}
		in[k] = m
	}
	return ReadBipartite(in)
}

// Dense returns the single-party assemblage, building it from the state
// when the document holds a two-qubit state.
func (f *File) Dense() (*Dense, error) {
	const op = "assemblage.File.Dense"
	switch {
	case f.State != nil:
		rho, err := f.State.Matrix()
		if err != nil {
			return nil, qerr.Dimension(op, "state: %v", err)
		}
		return FromTwoQubitState(rho)
	case f.Settings != nil:
		blocks := make([][]*linalg.Matrix, len(f.Settings))
		for x, row := range f.Settings {
			blocks[x] = make([]*linalg.Matrix, len(row))
			for a, lit := range row {
				m, err := lit.Matrix()
				if err != nil {
					return nil, qerr.Dimension(op, "block [%d][%d]: %v", x, a, err)
				}
				blocks[x][a] = m
			}
		}
		return NewDense(blocks)
	default:
		return nil, qerr.Parameter(op, "%s: document has no settings or state", f.Name)
	}
}

// Encode writes d as a settings document.
func Encode(w io.Writer, name string, d *Dense) error {
	f := File{Name: name, Settings: make([][]MatrixLiteral, d.Settings())}
	for x := range f.Settings {
		f.Settings[x] = make([]MatrixLiteral, d.Outcomes())
		for a := range f.Settings[x] {
			f.Settings[x][a] = LiteralOf(d.blocks[x][a])
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return err
	}
	return enc.Close()
}

// MarshalYAML implements yaml.Marshaler, writing real numbers plainly and
// complex ones as strings.
func (c Complex) MarshalYAML() (any, error) {
	v := complex128(c)
	if imag(v) == 0 {
		return real(v), nil
	}
	return strconv.FormatComplex(v, 'g', -1, 128), nil
}
