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
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/results"
	"github.com/ytdHuang/QuAwesome/services/tomography"
)

// runMLE rescales the state of each file and, with --out, saves all
// rescaled states in one JSON map keyed by input path.
func (a *app) runMLE(cmd *cobra.Command, args []string) error {
	outs, err := a.runBatch(cmd.Context(), "Maximum-likelihood rescaling", args, a.evalMLE)
	if a.flags.outPath == "" {
		return err
	}

	m := results.NewMap()
	for i, out := range outs {
		if out == nil {
			continue
		}
		if perr := m.Put(args[i], out.record.Extra["rho"]); perr != nil {
			return errors.Join(err, perr)
		}
	}
	if m.Len() == 0 {
		return err
	}
	written, serr := results.SaveJSON(a.flags.outPath, m, a.flags.dateStamp)
	if serr != nil {
		return errors.Join(err, serr)
	}
	a.printer.Success(fmt.Sprintf("saved %d states to %s", m.Len(), written))
	a.logger.Info("rescaled states saved", slog.String("path", written), slog.Int("states", m.Len()))
	return err
}

func (a *app) evalMLE(_ context.Context, path string) (*outcome, error) {
	f, err := assemblage.Load(path)
	if err != nil {
		return nil, err
	}
	if f.State == nil {
		return nil, fmt.Errorf("%s: document has no state", path)
	}
	rho, err := f.State.Matrix()
	if err != nil {
		return nil, fmt.Errorf("%s: state: %w", path, err)
	}
	fixed, err := tomography.NearestPSD(rho, a.flags.epsilon)
	if err != nil {
		return nil, err
	}
	dist, err := linalg.TraceDistance(rho, fixed)
	if err != nil {
		return nil, err
	}
	minEig, err := linalg.MinEigenvalue(fixed)
	if err != nil {
		return nil, err
	}

	rec := results.NewRecord("mle", "", path)
	rec.Value = dist
	rec.Extra = map[string]any{"name": f.Name, "epsilon": a.flags.epsilon, "rho": fixed}
	return &outcome{
		record: rec,
		fields: []ux.Field{
			{Key: "distance", Value: formatFloat(dist)},
			{Key: "min eigenvalue", Value: formatFloat(minEig)},
			{Key: "id", Value: rec.ID.String()},
		},
	}, nil
}
