// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/results"
	"github.com/ytdHuang/QuAwesome/services/sdp"
	"github.com/ytdHuang/QuAwesome/services/work"
)

// runWork evaluates the work extraction witness of qubit assemblages.
func (a *app) runWork(cmd *cobra.Command, args []string) error {
	return discard(a.runBatch(cmd.Context(), "Work extraction", args, a.evalWork))
}

func (a *app) evalWork(ctx context.Context, path string) (*outcome, error) {
	f, d, err := loadDense(path)
	if err != nil {
		return nil, err
	}
	ex, err := work.New(d, work.WithLogger(a.logger.Slog()))
	if err != nil {
		return nil, err
	}
	quantum := ex.Quantum()
	classical, err := ex.Classical(ctx, a.solver)
	if err != nil {
		return nil, err
	}
	witness := max(quantum-classical, 0)

	rec := results.NewRecord("work", a.solver.Name(), path)
	rec.Value = witness
	rec.Status = sdp.StatusOptimal.String()
	rec.Extra = map[string]any{
		"name":      f.Name,
		"shape":     shapeOf(d),
		"quantum":   quantum,
		"classical": classical,
	}
	return &outcome{
		record: rec,
		fields: []ux.Field{
			{Key: "quantum", Value: formatFloat(quantum)},
			{Key: "classical", Value: formatFloat(classical)},
			{Key: "witness", Value: formatFloat(witness)},
			{Key: "id", Value: rec.ID.String()},
		},
	}, nil
}
