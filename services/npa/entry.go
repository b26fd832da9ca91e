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
	"strconv"
	"strings"
)

// Kind classifies a moment matrix cell.
type Kind int

const (
	// KindZero is a product of orthogonal projectors.
	KindZero Kind = iota
	// KindVariable is a higher-order moment not fixed by the assemblage.
	KindVariable
	// KindAssemblage is fixed by (a marginal of) the assemblage.
	KindAssemblage
)

func (k Kind) String() string {
	switch k {
	case KindZero:
		return "zero"
	case KindVariable:
		return "variable"
	default:
		return "assemblage"
	}
}

// zeroIndex marks an entry that was forced to zero by orthogonality.
const zeroIndex = -1

// Entry is a symbolic moment matrix cell: one chain of generator indices per
// party. Index 0 is the identity generator; index i > 0 is the projector for
// outcome (i−1) mod (A−1) of setting (i−1)/(A−1) + 1.
//
// Entry is an immutable value. Every operation returns a new Entry built
// from copied index chains.
type Entry struct {
	groups   [][]int
	outcomes int
	kind     Kind
}

// NewEntry returns the single-party generator with the given index for a
// party with the given number of outcomes.
func NewEntry(index, outcomes int) Entry {
	return Entry{groups: [][]int{{index}}, outcomes: outcomes, kind: KindAssemblage}
}

func zeroEntry(outcomes int) Entry {
	return Entry{groups: [][]int{{zeroIndex}}, outcomes: outcomes, kind: KindZero}
}

// Kind returns the cell classification.
func (e Entry) Kind() Kind { return e.kind }

// Outcomes returns the outcome count the entry was built for.
func (e Entry) Outcomes() int { return e.outcomes }

// Groups returns a copy of the index chains, one per party.
func (e Entry) Groups() [][]int { return copyGroups(e.groups) }

func copyGroups(gs [][]int) [][]int {
	out := make([][]int, len(gs))
	for i, g := range gs {
		out[i] = append([]int(nil), g...)
	}
	return out
}

func (e Entry) lead() int { return e.groups[0][0] }

func (e Entry) setting(index int) int { return (index - 1) / (e.outcomes - 1) }

// Multiply composes two generators of the same party.
//
// Rules, first match wins:
//
//  1. either leading index is 0 (identity): the other operand
//  2. equal leading indices (P·P = P): the second operand
//  3. different outcomes of the same setting: zero
//  4. otherwise the concatenated chain, as a variable
func (e Entry) Multiply(o Entry) Entry {
	if e.lead() == 0 {
		return o.clone()
	}
	if o.lead() == 0 {
		return e.clone()
	}
	if e.lead() == o.lead() {
		return o.clone()
	}
	if e.outcomes > 1 && e.setting(e.lead()) == e.setting(o.lead()) {
		return zeroEntry(e.outcomes)
	}
	gs := copyGroups(e.groups)
	gs[0] = append(gs[0], o.groups[0]...)
	return Entry{groups: gs, outcomes: e.outcomes, kind: KindVariable}
}

// Combine joins the chains of two parties (the tensor product).
func (e Entry) Combine(o Entry) Entry {
	if e.kind == KindZero || o.kind == KindZero {
		return zeroEntry(e.outcomes)
	}
	gs := append(copyGroups(e.groups), copyGroups(o.groups)...)
	kind := KindAssemblage
	if e.kind == KindVariable || o.kind == KindVariable {
		kind = KindVariable
	}
	return Entry{groups: gs, outcomes: e.outcomes, kind: kind}
}

func (e Entry) clone() Entry {
	return Entry{groups: copyGroups(e.groups), outcomes: e.outcomes, kind: e.kind}
}

// Tag returns the canonical string of the entry: indices joined by '*'
// within a party and parties joined by '&', e.g. "1*2&3". Zero entries have
// the tag "Z".
func (e Entry) Tag() string {
	if e.kind == KindZero {
		return "Z"
	}
	var sb strings.Builder
	for p, g := range e.groups {
		if p > 0 {
			sb.WriteByte('&')
		}
		for i, idx := range g {
			if i > 0 {
				sb.WriteByte('*')
			}
			sb.WriteString(strconv.Itoa(idx))
		}
	}
	return sb.String()
}

// AssemblageIndices returns the single generator index of each party of an
// assemblage-kind bipartite entry.
func (e Entry) AssemblageIndices() (int, int, bool) {
	if e.kind != KindAssemblage || len(e.groups) != 2 || len(e.groups[0]) != 1 || len(e.groups[1]) != 1 {
		return 0, 0, false
	}
	return e.groups[0][0], e.groups[1][0], true
}

// ReverseTag returns the tag of the Hermitian conjugate cell: the index
// chain of every party is reversed and the party order is kept, so
// "1*2&3*4" becomes "2*1&4*3".
func ReverseTag(tag string) string {
	parties := strings.Split(tag, "&")
	for p, party := range parties {
		idx := strings.Split(party, "*")
		for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
		parties[p] = strings.Join(idx, "*")
	}
	return strings.Join(parties, "&")
}

// IndexToOutcomeSetting decodes a generator index i > 0 into its outcome a
// (from 0) and setting x (from 1).
func IndexToOutcomeSetting(index, outcomes int) (a, x int) {
	return (index - 1) % (outcomes - 1), (index-1)/(outcomes-1) + 1
}
