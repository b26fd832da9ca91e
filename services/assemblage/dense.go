// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assemblage holds validated quantum assemblages.
//
// Description:
//
//	An assemblage is a family of unnormalized density operators indexed by
//	outcome and measurement setting. Two shapes are supported:
//
//	  Dense      σ_{a|x}, indexed [x][a] with x, a from 0 (one steered party)
//	  Bipartite  σ_{ab|xy}, keyed "a,b|x,y" with a, b from 0 and x, y from 1
//
//	Both are validated once at construction and hold private copies of
//	their blocks, so the caller's matrices are never modified and the
//	values are safe to share between goroutines.
package assemblage

import (
	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// Dense is a validated single-party assemblage σ_{a|x} of shape (M, A, N, N).
type Dense struct {
	settings, outcomes, dim int
	blocks                  [][]*linalg.Matrix
}

// NewDense validates blocks[x][a] and copies them.
//
// Every setting must list the same number of outcomes and every block must
// be N x N with N >= 2.
func NewDense(blocks [][]*linalg.Matrix) (*Dense, error) {
	const op = "assemblage.NewDense"
	if len(blocks) == 0 {
		return nil, qerr.Dimension(op, "no measurement settings")
	}
	outcomes := len(blocks[0])
	if outcomes == 0 {
		return nil, qerr.Dimension(op, "setting 0 has no outcomes")
	}
	d := &Dense{settings: len(blocks), outcomes: outcomes, blocks: make([][]*linalg.Matrix, len(blocks))}
	for x, row := range blocks {
		if len(row) != outcomes {
			return nil, qerr.Dimension(op, "setting %d has %d outcomes, want %d", x, len(row), outcomes)
		}
		d.blocks[x] = make([]*linalg.Matrix, outcomes)
		for a, m := range row {
			if m == nil {
				return nil, qerr.Dimension(op, "block [%d][%d] is nil", x, a)
			}
			r, c := m.Dims()
			if r < 2 || r != c {
				return nil, qerr.Dimension(op, "block [%d][%d] is %dx%d, want square with N >= 2", x, a, r, c)
			}
			if d.dim == 0 {
				d.dim = r
			} else if r != d.dim {
				return nil, qerr.Dimension(op, "block [%d][%d] is %dx%d, want %dx%d", x, a, r, c, d.dim, d.dim)
			}
			d.blocks[x][a] = m.Clone()
		}
	}
	return d, nil
}

// NewTemporal validates a temporal steering assemblage: three settings
// (X, Y, Z), two outcomes and qubit blocks, i.e. shape (3, 2, 2, 2).
func NewTemporal(blocks [][]*linalg.Matrix) (*Dense, error) {
	const op = "assemblage.NewTemporal"
	d, err := NewDense(blocks)
	if err != nil {
		return nil, err
	}
	if d.settings != 3 || d.outcomes != 2 || d.dim != 2 {
		return nil, qerr.Dimension(op, "shape (%d,%d,%d,%d), want (3,2,2,2)", d.settings, d.outcomes, d.dim, d.dim)
	}
	return d, nil
}

// Settings returns M.
func (d *Dense) Settings() int { return d.settings }

// Outcomes returns A.
func (d *Dense) Outcomes() int { return d.outcomes }

// Dim returns N.
func (d *Dense) Dim() int { return d.dim }

// Block returns a copy of σ_{a|x}.
func (d *Dense) Block(x, a int) *linalg.Matrix { return d.blocks[x][a].Clone() }

// Marginal returns ρ_x = Σ_a σ_{a|x}.
func (d *Dense) Marginal(x int) *linalg.Matrix {
	return linalg.Sum(d.blocks[x]...)
}

// Blocks returns a deep copy of all blocks, indexed [x][a].
func (d *Dense) Blocks() [][]*linalg.Matrix {
	out := make([][]*linalg.Matrix, d.settings)
	for x, row := range d.blocks {
		out[x] = make([]*linalg.Matrix, d.outcomes)
		for a, m := range row {
			out[x][a] = m.Clone()
		}
	}
	return out
}

// Uniform returns the assemblage with every block equal to I/(N·A), the
// maximally mixed state split evenly over outcomes.
func Uniform(settings, outcomes, dim int) (*Dense, error) {
	blocks := make([][]*linalg.Matrix, settings)
	for x := range blocks {
		blocks[x] = make([]*linalg.Matrix, outcomes)
		for a := range blocks[x] {
			blocks[x][a] = linalg.Identity(dim).Scale(complex(1/float64(dim*outcomes), 0))
		}
	}
	return NewDense(blocks)
}
