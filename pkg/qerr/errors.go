// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package qerr defines the error kinds shared by every QuAwesome package.
//
// Description:
//
//	Each failure is classified into one of four kinds. The kind is a sentinel
//	error, so callers branch with errors.Is:
//
//	  res, err := steering.Robustness(ctx, solver, assemb)
//	  if errors.Is(err, qerr.ErrDimension) { ... }
//
//	The concrete value is always an *Error carrying the operation that
//	failed and a human readable detail.
package qerr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	// ErrDimension is returned for wrong array shapes or non-square blocks.
	ErrDimension = errors.New("dimension error")

	// ErrIndexValidation is returned for missing, non-contiguous or
	// malformed assemblage keys.
	ErrIndexValidation = errors.New("index validation error")

	// ErrParameter is returned for invalid scalar parameters such as a
	// negative tolerance or an unknown solver name.
	ErrParameter = errors.New("parameter error")

	// ErrSolverStatus is returned when the solver reports a status the
	// caller cannot interpret as a verdict.
	ErrSolverStatus = errors.New("solver status error")
)

// Error wraps an error kind with operation context.
type Error struct {
	// Op is the operation that failed, e.g. "assemblage.ReadBipartite".
	Op string

	// Kind is one of the sentinel errors above.
	Kind error

	// Detail describes the failure.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New creates an *Error of the given kind.
func New(kind error, op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Dimension creates an ErrDimension error.
func Dimension(op, format string, args ...any) *Error {
	return New(ErrDimension, op, format, args...)
}

// Index creates an ErrIndexValidation error.
func Index(op, format string, args ...any) *Error {
	return New(ErrIndexValidation, op, format, args...)
}

// Parameter creates an ErrParameter error.
func Parameter(op, format string, args ...any) *Error {
	return New(ErrParameter, op, format, args...)
}

// Status creates an ErrSolverStatus error.
func Status(op, format string, args ...any) *Error {
	return New(ErrSolverStatus, op, format, args...)
}

// KindOf returns the sentinel kind of err, or nil if err carries none.
func KindOf(err error) error {
	for _, k := range []error{ErrDimension, ErrIndexValidation, ErrParameter, ErrSolverStatus} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
