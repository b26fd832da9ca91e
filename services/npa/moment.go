// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package npa builds NPA moment matrices for bipartite assemblages and
// decides whether an assemblage is post-quantum.
//
// Description:
//
//	Each party has (A−1)·M + 1 generators: the identity and one projector
//	per (outcome, setting) pair, dropping the last outcome of each setting.
//	The moment matrix has one N x N block per pair of generator products
//	(A_i ⊗ B_k, A_j ⊗ B_l); a block is zero, fixed by the assemblage or a
//	free complex matrix variable shared with its Hermitian mirror.
package npa

import (
	"fmt"

	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

// MomentMatrix is the block matrix built for one assemblage.
type MomentMatrix struct {
	// N1 and N2 are the generator counts per party.
	N1, N2 int

	// Dim is the assemblage block dimension.
	Dim int

	// Expr is the assembled matrix expression.
	Expr *sdp.Matrix

	kinds [][]Kind
	tags  []string
	vars  map[string]*sdp.Matrix
}

// GeneratorCount returns (A−1)·M + 1.
func GeneratorCount(outcomes, settings int) int {
	return (outcomes-1)*settings + 1
}

// BuildMomentMatrix declares the free variables of the moment matrix of b
// in p and returns the assembled matrix.
//
// Description:
//
//	Row (i, k) and column (j, l) hold (A_j·A_i) ⊗ (B_l·B_k). Variable cells
//	are deduplicated by tag: a tag already seen reuses its variable, a tag
//	whose reverse was seen reuses the conjugate transpose of that
//	variable, and otherwise a new N x N complex variable is declared. The
//	direct tag is always checked first.
//
// Outputs:
//
//	*MomentMatrix - the block matrix, Hermitian by construction.
//	error         - only for an internal inconsistency in block shapes.
func BuildMomentMatrix(p *sdp.Problem, b *assemblage.Bipartite) (*MomentMatrix, error) {
	n1 := GeneratorCount(b.A1, b.M1)
	n2 := GeneratorCount(b.A2, b.M2)
	mm := &MomentMatrix{N1: n1, N2: n2, Dim: b.N, vars: make(map[string]*sdp.Matrix)}

	size := n1 * n2
	grid := make([][]*sdp.Matrix, size)
	mm.kinds = make([][]Kind, size)
	zero := sdp.ZeroMatrix(b.N, b.N)

	for i := 0; i < n1; i++ {
		for k := 0; k < n2; k++ {
			r := i*n2 + k
			grid[r] = make([]*sdp.Matrix, size)
			mm.kinds[r] = make([]Kind, size)
			for j := 0; j < n1; j++ {
				for l := 0; l < n2; l++ {
					c := j*n2 + l
					alice := NewEntry(j, b.A1).Multiply(NewEntry(i, b.A1))
					bob := NewEntry(l, b.A2).Multiply(NewEntry(k, b.A2))
					e := alice.Combine(bob)
					mm.kinds[r][c] = e.Kind()

					switch e.Kind() {
					case KindZero:
						grid[r][c] = zero
					case KindVariable:
						grid[r][c] = mm.variable(p, e.Tag())
					case KindAssemblage:
						block, err := assemblageBlock(b, e)
						if err != nil {
							return nil, err
						}
						grid[r][c] = block
					}
				}
			}
		}
	}

	expr, err := sdp.Blocks(grid)
	if err != nil {
		return nil, fmt.Errorf("assembling moment matrix: %w", err)
	}
	mm.Expr = expr
	return mm, nil
}

func (mm *MomentMatrix) variable(p *sdp.Problem, tag string) *sdp.Matrix {
	if v, ok := mm.vars[tag]; ok {
		return v
	}
	if v, ok := mm.vars[ReverseTag(tag)]; ok {
		return v.H()
	}
	v := p.Complex(fmt.Sprintf("x_%d", len(mm.tags)), mm.Dim, mm.Dim)
	mm.vars[tag] = v
	mm.tags = append(mm.tags, tag)
	return v
}

func assemblageBlock(b *assemblage.Bipartite, e Entry) (*sdp.Matrix, error) {
	ai, bi, ok := e.AssemblageIndices()
	if !ok {
		return nil, fmt.Errorf("assemblage cell %q is not a single index per party", e.Tag())
	}
	switch {
	case ai == 0 && bi == 0:
		return sdp.Constant(b.Total()), nil
	case ai == 0:
		bb, y := IndexToOutcomeSetting(bi, b.A2)
		return sdp.Constant(b.MarginalB(bb, y)), nil
	case bi == 0:
		a, x := IndexToOutcomeSetting(ai, b.A1)
		return sdp.Constant(b.MarginalA(a, x)), nil
	default:
		a, x := IndexToOutcomeSetting(ai, b.A1)
		bb, y := IndexToOutcomeSetting(bi, b.A2)
		return sdp.Constant(b.Joint(a, bb, x, y)), nil
	}
}

// Kind returns the classification of block (row, col).
func (mm *MomentMatrix) Kind(row, col int) Kind { return mm.kinds[row][col] }

// Size returns the number of block rows, N1·N2.
func (mm *MomentMatrix) Size() int { return mm.N1 * mm.N2 }

// NumVariables returns the number of distinct matrix variables.
func (mm *MomentMatrix) NumVariables() int { return len(mm.tags) }

// Tags returns the variable tags in declaration order.
func (mm *MomentMatrix) Tags() []string { return append([]string(nil), mm.tags...) }
