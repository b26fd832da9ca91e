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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/npa"
	"github.com/ytdHuang/QuAwesome/services/results"
)

// runPostQuantum tests each bipartite assemblage file.
func (a *app) runPostQuantum(cmd *cobra.Command, args []string) error {
	return discard(a.runBatch(cmd.Context(), "Post-quantum steering", args, a.evalPostQuantum))
}

func (a *app) evalPostQuantum(ctx context.Context, path string) (*outcome, error) {
	f, err := assemblage.Load(path)
	if err != nil {
		return nil, err
	}
	b, err := f.Bipartite()
	if err != nil {
		return nil, err
	}
	opts := []npa.Option{npa.WithLogger(a.logger.Slog())}
	if a.flags.moment {
		opts = append(opts, npa.WithMomentMatrix())
	}
	res, err := npa.IsPostQuantum(ctx, a.solver, b, opts...)
	if err != nil {
		return nil, err
	}

	rec := results.NewRecord("postquantum", a.solver.Name(), path).WithVerdict(res.PostQuantum)
	rec.Value = res.Margin
	rec.Status = res.Status.String()
	rec.Extra = map[string]any{"name": f.Name, "variables": res.Variables}
	if res.Moment != nil {
		rec.Extra["moment"] = res.Moment
	}
	return &outcome{
		record: rec,
		fields: []ux.Field{
			{Key: "post-quantum", Value: strconv.FormatBool(res.PostQuantum)},
			{Key: "status", Value: res.Status.String()},
			{Key: "margin", Value: formatFloat(res.Margin)},
			{Key: "variables", Value: strconv.Itoa(res.Variables)},
			{Key: "id", Value: rec.ID.String()},
		},
	}, nil
}
