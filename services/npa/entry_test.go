// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package npa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiply_IdentityReturnsOther(t *testing.T) {
	for _, outcomes := range []int{2, 3, 4} {
		for idx := 0; idx < 7; idx++ {
			e := NewEntry(idx, outcomes)
			left := NewEntry(0, outcomes).Multiply(e)
			right := e.Multiply(NewEntry(0, outcomes))
			assert.Equal(t, e, left)
			assert.Equal(t, e, right)
		}
	}
}

func TestMultiply_SameSettingIsZero(t *testing.T) {
	const outcomes = 3 // two generators per setting
	for i := 1; i <= 6; i++ {
		for j := 1; j <= 6; j++ {
			if i == j || (j-1)/(outcomes-1) != (i-1)/(outcomes-1) {
				continue
			}
			got := NewEntry(j, outcomes).Multiply(NewEntry(i, outcomes))
			assert.Equal(t, KindZero, got.Kind(), "j=%d i=%d", j, i)
			assert.Equal(t, "Z", got.Tag())
		}
	}
}

func TestMultiply_Rules(t *testing.T) {
	same := NewEntry(2, 2).Multiply(NewEntry(2, 2))
	assert.Equal(t, KindAssemblage, same.Kind())
	assert.Equal(t, "2", same.Tag())

	v := NewEntry(1, 2).Multiply(NewEntry(2, 2))
	assert.Equal(t, KindVariable, v.Kind())
	assert.Equal(t, "1*2", v.Tag())
}

func TestMultiply_DoesNotAliasOperands(t *testing.T) {
	a := NewEntry(1, 2)
	b := NewEntry(2, 2)
	v := a.Multiply(b)
	_ = v.Multiply(NewEntry(1, 2))
	assert.Equal(t, [][]int{{1}}, a.Groups())
	assert.Equal(t, [][]int{{1, 2}}, v.Groups())

	g := v.Groups()
	g[0][0] = 99
	assert.Equal(t, "1*2", v.Tag())
}

func TestCombine(t *testing.T) {
	s1 := NewEntry(1, 2)
	s2 := NewEntry(2, 2)
	z := NewEntry(1, 3).Multiply(NewEntry(2, 3))
	v := s1.Multiply(s2)

	assert.Equal(t, KindZero, z.Combine(s1).Kind())
	assert.Equal(t, KindZero, v.Combine(z).Kind())

	sv := s1.Combine(v)
	assert.Equal(t, KindVariable, sv.Kind())
	assert.Equal(t, "1&1*2", sv.Tag())

	ss := s1.Combine(s2)
	assert.Equal(t, KindAssemblage, ss.Kind())
	a, b, ok := ss.AssemblageIndices()
	assert.True(t, ok)
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)

	_, _, ok = sv.AssemblageIndices()
	assert.False(t, ok)
}

func TestReverseTag(t *testing.T) {
	assert.Equal(t, "2*1&4*3", ReverseTag("1*2&3*4"))
	assert.Equal(t, "2*1&3", ReverseTag("1*2&3"))
	assert.Equal(t, "0&2*1", ReverseTag("0&1*2"))

	for _, outcomes := range []int{2, 3} {
		n := GeneratorCount(outcomes, 3)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				for k := 0; k < n; k++ {
					for l := 0; l < n; l++ {
						e := NewEntry(j, outcomes).Multiply(NewEntry(i, outcomes)).
							Combine(NewEntry(l, outcomes).Multiply(NewEntry(k, outcomes)))
						if e.Kind() != KindVariable {
							continue
						}
						tag := e.Tag()
						assert.Equal(t, tag, ReverseTag(ReverseTag(tag)))
						assert.NotEqual(t, tag, ReverseTag(tag))
					}
				}
			}
		}
	}
}

func TestIndexToOutcomeSetting(t *testing.T) {
	tests := []struct{ index, outcomes, a, x int }{
		{1, 2, 0, 1},
		{2, 2, 0, 2},
		{1, 3, 0, 1},
		{2, 3, 1, 1},
		{3, 3, 0, 2},
		{6, 3, 1, 3},
	}
	for _, tt := range tests {
		a, x := IndexToOutcomeSetting(tt.index, tt.outcomes)
		assert.Equal(t, tt.a, a, "index %d", tt.index)
		assert.Equal(t, tt.x, x, "index %d", tt.index)
	}
}
