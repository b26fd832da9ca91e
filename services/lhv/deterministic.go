// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lhv enumerates deterministic local hidden variable strategies.
//
// A deterministic strategy λ assigns one outcome to every setting. For M
// settings and A outcomes there are A^M of them; strategy λ answers setting
// x with digit x of λ written in base A, most significant digit first.
package lhv

import (
	"math"

	"github.com/ytdHuang/QuAwesome/pkg/qerr"
)

// maxStrategies bounds A^M so the array fits comfortably in memory.
const maxStrategies = 1 << 22

// Array is the deterministic response array D[λ][x][a] ∈ {0, 1}.
type Array struct {
	settings, outcomes int
	d                  [][][]uint8
}

// Generate enumerates all A^M deterministic strategies.
func Generate(settings, outcomes int) (*Array, error) {
	const op = "lhv.Generate"
	if settings < 1 {
		return nil, qerr.Parameter(op, "settings must be >= 1, got %d", settings)
	}
	if outcomes < 1 {
		return nil, qerr.Parameter(op, "outcomes must be >= 1, got %d", outcomes)
	}
	count := math.Pow(float64(outcomes), float64(settings))
	if count > maxStrategies {
		return nil, qerr.Parameter(op, "%d^%d strategies exceed the limit of %d", outcomes, settings, maxStrategies)
	}

	n := int(count)
	d := make([][][]uint8, n)
	for lambda := 0; lambda < n; lambda++ {
		d[lambda] = make([][]uint8, settings)
		rest := lambda
		for x := settings - 1; x >= 0; x-- {
			row := make([]uint8, outcomes)
			row[rest%outcomes] = 1
			d[lambda][x] = row
			rest /= outcomes
		}
	}
	return &Array{settings: settings, outcomes: outcomes, d: d}, nil
}

// Count returns the number of strategies, A^M.
func (a *Array) Count() int { return len(a.d) }

// Settings returns M.
func (a *Array) Settings() int { return a.settings }

// Outcomes returns A.
func (a *Array) Outcomes() int { return a.outcomes }

// At returns D[λ][x][o].
func (a *Array) At(lambda, x, o int) float64 { return float64(a.d[lambda][x][o]) }

// Outcome returns the outcome strategy λ assigns to setting x.
func (a *Array) Outcome(lambda, x int) int {
	for o, v := range a.d[lambda][x] {
		if v == 1 {
			return o
		}
	}
	return -1
}
