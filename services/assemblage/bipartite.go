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
	"sort"
	"strconv"
	"strings"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
	"github.com/ytdHuang/QuAwesome/services/linalg"
)

// Key identifies the block σ_{ab|xy}: outcomes a, b count from 0 and
// settings x, y count from 1.
type Key struct {
	A, B, X, Y int
}

// String formats the key as "a,b|x,y".
func (k Key) String() string {
	return fmt.Sprintf("%d,%d|%d,%d", k.A, k.B, k.X, k.Y)
}

// ParseKey parses "a,b|x,y". Whitespace around the numbers is ignored.
func ParseKey(s string) (Key, error) {
	outcome, setting, ok := strings.Cut(s, "|")
	if !ok {
		return Key{}, fmt.Errorf("missing '|'")
	}
	ab := strings.Split(outcome, ",")
	xy := strings.Split(setting, ",")
	if len(ab) != 2 || len(xy) != 2 {
		return Key{}, fmt.Errorf("want two outcomes and two settings")
	}
	var vals [4]int
	for i, f := range []string{ab[0], ab[1], xy[0], xy[1]} {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Key{}, err
		}
		vals[i] = v
	}
	k := Key{A: vals[0], B: vals[1], X: vals[2], Y: vals[3]}
	if k.A < 0 || k.B < 0 || k.X < 1 || k.Y < 1 {
		return Key{}, fmt.Errorf("outcomes must be >= 0 and settings >= 1")
	}
	return k, nil
}

// Bipartite is a validated two-party assemblage {σ_{ab|xy}}.
//
// A1 and A2 are the outcome counts, M1 and M2 the setting counts and N the
// dimension of every block. Blocks are private copies of the input.
type Bipartite struct {
	A1, A2, M1, M2, N int
	blocks            map[Key]*linalg.Matrix
}

// ReadBipartite validates a keyed assemblage.
//
// Description:
//
//	Every key must parse as "a,b|x,y". The values of each index must be
//	contiguous (a and b from 0, x and y from 1) and the full Cartesian
//	product must be present; the first missing key in (a, b, x, y) order is
//	reported. Every block must be square with a common dimension N >= 2.
//
// Outputs:
//
//	*Bipartite - the validated assemblage.
//	error      - ErrIndexValidation for key problems, ErrDimension for
//	             block shape problems.
func ReadBipartite(in map[string]*linalg.Matrix) (*Bipartite, error) {
	const op = "assemblage.ReadBipartite"
	if len(in) == 0 {
		return nil, qerr.Index(op, "empty assemblage")
	}

	raw := make([]string, 0, len(in))
	for s := range in {
		raw = append(raw, s)
	}
	sort.Strings(raw)

	parsed := make(map[Key]string, len(in))
	sets := [4]map[int]bool{{}, {}, {}, {}}
	for _, s := range raw {
		k, err := ParseKey(s)
		if err != nil {
			return nil, qerr.Index(op, "invalid index for assemblage: %q: %v", s, err)
		}
		if prev, dup := parsed[k]; dup {
			return nil, qerr.Index(op, "keys %q and %q name the same block", prev, s)
		}
		parsed[k] = s
		sets[0][k.A] = true
		sets[1][k.B] = true
		sets[2][k.X] = true
		sets[3][k.Y] = true
	}

	names := [4]string{"a", "b", "x", "y"}
	starts := [4]int{0, 0, 1, 1}
	counts := [4]int{}
	for i, set := range sets {
		for v := starts[i]; v < starts[i]+len(set); v++ {
			if !set[v] {
				return nil, qerr.Index(op, "the index '%s' should start from %d and be contiguous", names[i], starts[i])
			}
		}
		counts[i] = len(set)
	}

	b := &Bipartite{A1: counts[0], A2: counts[1], M1: counts[2], M2: counts[3], blocks: make(map[Key]*linalg.Matrix, len(in))}
	for a := 0; a < b.A1; a++ {
		for bb := 0; bb < b.A2; bb++ {
			for x := 1; x <= b.M1; x++ {
				for y := 1; y <= b.M2; y++ {
					k := Key{a, bb, x, y}
					if _, ok := parsed[k]; !ok {
						return nil, qerr.Index(op, "missing assemblage index: %q", k.String())
					}
				}
			}
		}
	}

	for _, s := range raw {
		m := in[s]
		if m == nil {
			return nil, qerr.Dimension(op, "block %q is nil", s)
		}
		r, c := m.Dims()
		if r < 2 || r != c {
			return nil, qerr.Dimension(op, "block %q is %dx%d, want square with N >= 2", s, r, c)
		}
		if b.N == 0 {
			b.N = r
		} else if r != b.N {
			return nil, qerr.Dimension(op, "block %q is %dx%d, want %dx%d", s, r, c, b.N, b.N)
		}
		k, _ := ParseKey(s)
		b.blocks[k] = m.Clone()
	}
	return b, nil
}

// Block returns a copy of σ_{ab|xy}, or nil if the key is out of range.
func (b *Bipartite) Block(k Key) *linalg.Matrix {
	m, ok := b.blocks[k]
	if !ok {
		return nil
	}
	return m.Clone()
}

// block returns the stored block without copying.
func (b *Bipartite) block(a, bb, x, y int) *linalg.Matrix {
	return b.blocks[Key{a, bb, x, y}]
}

// Keys returns all keys in (a, b, x, y) order.
func (b *Bipartite) Keys() []Key {
	out := make([]Key, 0, len(b.blocks))
	for a := 0; a < b.A1; a++ {
		for bb := 0; bb < b.A2; bb++ {
			for x := 1; x <= b.M1; x++ {
				for y := 1; y <= b.M2; y++ {
					out = append(out, Key{a, bb, x, y})
				}
			}
		}
	}
	return out
}

// Total returns Σ_{a,b} σ_{ab|11}.
func (b *Bipartite) Total() *linalg.Matrix {
	out := linalg.New(b.N, b.N)
	for a := 0; a < b.A1; a++ {
		for bb := 0; bb < b.A2; bb++ {
			out = out.Add(b.block(a, bb, 1, 1))
		}
	}
	return out
}

// MarginalB returns Σ_a σ_{ab|1y}, Bob's block for outcome bb of setting y.
func (b *Bipartite) MarginalB(bb, y int) *linalg.Matrix {
	out := linalg.New(b.N, b.N)
	for a := 0; a < b.A1; a++ {
		out = out.Add(b.block(a, bb, 1, y))
	}
	return out
}

// MarginalA returns Σ_b σ_{ab|x1}, Alice's block for outcome a of setting x.
func (b *Bipartite) MarginalA(a, x int) *linalg.Matrix {
	out := linalg.New(b.N, b.N)
	for bb := 0; bb < b.A2; bb++ {
		out = out.Add(b.block(a, bb, x, 1))
	}
	return out
}

// Joint returns a copy of σ_{ab|xy}.
func (b *Bipartite) Joint(a, bb, x, y int) *linalg.Matrix {
	return b.block(a, bb, x, y).Clone()
}
