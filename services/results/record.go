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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record describes one computation.
type Record struct {
	ID uuid.UUID `json:"id"`

	// Formulation names the computation, e.g. "robustness" or "postquantum".
	Formulation string `json:"formulation"`

	// Solver is the SDP backend, empty for solver-free computations.
	Solver string `json:"solver,omitempty"`

	// Input is the assemblage file or label the computation ran on.
	Input string `json:"input"`

	Value float64 `json:"value"`

	// Verdict is set by yes/no computations such as the post-quantum test.
	Verdict *bool `json:"verdict,omitempty"`

	// Status is the solver status string.
	Status string `json:"status,omitempty"`

	// Extra holds formulation specific values such as witness operators.
	Extra map[string]any `json:"extra,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord returns a record with a fresh ID and the current time.
func NewRecord(formulation, solver, input string) *Record {
	return &Record{
		ID:          uuid.New(),
		Formulation: formulation,
		Solver:      solver,
		Input:       input,
		CreatedAt:   now().UTC(),
	}
}

// WithVerdict sets the verdict and returns r.
func (r *Record) WithVerdict(v bool) *Record {
	r.Verdict = &v
	return r
}

func (r *Record) String() string {
	if r.Verdict != nil {
		return fmt.Sprintf("%s %s(%s) = %t", r.ID, r.Formulation, r.Input, *r.Verdict)
	}
	return fmt.Sprintf("%s %s(%s) = %.8g", r.ID, r.Formulation, r.Input, r.Value)
}

// MarshalJSON encodes Extra with the container codec so matrices and
// complex numbers survive.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if r.Extra != nil {
		extra, err := encodeValue(r.Extra)
		if err != nil {
			return nil, fmt.Errorf("record %s extra: %w", r.ID, err)
		}
		p.Extra = extra.(map[string]any)
	}
	return json.Marshal(p)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Extra != nil {
		extra, err := decodeValue(p.Extra)
		if err != nil {
			return fmt.Errorf("record %s extra: %w", p.ID, err)
		}
		p.Extra = extra.(map[string]any)
	}
	*r = Record(p)
	return nil
}

func (r *Record) key() []byte { return recordKey(r.ID) }

func recordKey(id uuid.UUID) []byte { return []byte(recordPrefix + id.String()) }

const recordPrefix = "record/"
