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
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/results"
	"github.com/ytdHuang/QuAwesome/services/steering"
)

// loadDense reads a single-party assemblage file. Files holding a two-qubit
// state are turned into the Pauli assemblage.
func loadDense(path string) (*assemblage.File, *assemblage.Dense, error) {
	f, err := assemblage.Load(path)
	if err != nil {
		return nil, nil, err
	}
	d, err := f.Dense()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, d, nil
}

func shapeOf(d *assemblage.Dense) string {
	return fmt.Sprintf("(%d,%d,%d,%d)", d.Settings(), d.Outcomes(), d.Dim(), d.Dim())
}

// steeringOutcome turns a quantifier result into a record and its fields.
func (a *app) steeringOutcome(formulation, path string, f *assemblage.File, d *assemblage.Dense, res *steering.Result) *outcome {
	rec := results.NewRecord(formulation, a.solver.Name(), path)
	rec.Value = res.Value
	rec.Status = res.Status.String()
	rec.Extra = map[string]any{"name": f.Name, "shape": shapeOf(d)}
	return &outcome{
		record: rec,
		fields: []ux.Field{
			{Key: formulation, Value: formatFloat(res.Value)},
			{Key: "status", Value: res.Status.String()},
			{Key: "iterations", Value: strconv.Itoa(res.Iterations)},
			{Key: "shape", Value: shapeOf(d)},
			{Key: "id", Value: rec.ID.String()},
		},
	}
}

// =============================================================================
// robustness
// =============================================================================

func (a *app) runRobustness(cmd *cobra.Command, args []string) error {
	return discard(a.runBatch(cmd.Context(), "Steering robustness", args,
		func(ctx context.Context, path string) (*outcome, error) {
			f, d, err := loadDense(path)
			if err != nil {
				return nil, err
			}
			res, err := steering.Robustness(ctx, a.solver, d, steering.WithLogger(a.logger.Slog()))
			if err != nil {
				return nil, err
			}
			return a.steeringOutcome("robustness", path, f, d, res), nil
		}))
}

// =============================================================================
// weight
// =============================================================================

func (a *app) runWeight(cmd *cobra.Command, args []string) error {
	return discard(a.runBatch(cmd.Context(), "Steering weight", args,
		func(ctx context.Context, path string) (*outcome, error) {
			f, d, err := loadDense(path)
			if err != nil {
				return nil, err
			}
			opts := []steering.Option{steering.WithLogger(a.logger.Slog())}
			var res *steering.Result
			if a.flags.primal {
				res, err = steering.WeightPrimal(ctx, a.solver, d, opts...)
			} else {
				if a.flags.witness {
					opts = append(opts, steering.WithF())
				}
				res, err = steering.Weight(ctx, a.solver, d, opts...)
			}
			if err != nil {
				return nil, err
			}
			out := a.steeringOutcome("weight", path, f, d, res)
			if res.F != nil {
				out.record.Extra["F"] = res.F
			}
			return out, nil
		}))
}

// =============================================================================
// signaling
// =============================================================================

func (a *app) runSignaling(cmd *cobra.Command, args []string) error {
	return discard(a.runBatch(cmd.Context(), "Signaling", args,
		func(ctx context.Context, path string) (*outcome, error) {
			f, d, err := loadDense(path)
			if err != nil {
				return nil, err
			}
			if a.flags.useSDP {
				res, err := steering.SignalingSDP(ctx, a.solver, d, steering.WithLogger(a.logger.Slog()))
				if err != nil {
					return nil, err
				}
				return a.steeringOutcome("signaling", path, f, d, res), nil
			}
			v, err := steering.Signaling(d)
			if err != nil {
				return nil, err
			}
			rec := results.NewRecord("signaling", "", path)
			rec.Value = v
			rec.Extra = map[string]any{"name": f.Name, "shape": shapeOf(d)}
			return &outcome{
				record: rec,
				fields: []ux.Field{
					{Key: "signaling", Value: formatFloat(v)},
					{Key: "shape", Value: shapeOf(d)},
					{Key: "id", Value: rec.ID.String()},
				},
			}, nil
		}))
}

// =============================================================================
// nsproject
// =============================================================================

func (a *app) runNSProject(cmd *cobra.Command, args []string) error {
	return discard(a.runBatch(cmd.Context(), "No-signaling projection", args,
		func(ctx context.Context, path string) (*outcome, error) {
			f, d, err := loadDense(path)
			if err != nil {
				return nil, err
			}
			proj, err := steering.ProjectNoSignaling(ctx, a.solver, d, steering.WithLogger(a.logger.Slog()))
			if err != nil {
				return nil, err
			}
			if a.flags.outPath != "" {
				if err := writeAssemblage(a.flags.outPath, f.Name+"-ns", proj.Assemblage); err != nil {
					return nil, err
				}
			}

			rec := results.NewRecord("nsproject", a.solver.Name(), path)
			rec.Value = proj.Distance
			rec.Status = proj.Status.String()
			rec.Extra = map[string]any{"name": f.Name, "shape": shapeOf(d), "assemblage": proj.Assemblage.Blocks()}
			fields := []ux.Field{
				{Key: "distance", Value: formatFloat(proj.Distance)},
				{Key: "status", Value: proj.Status.String()},
				{Key: "iterations", Value: strconv.Itoa(proj.Iterations)},
			}
			if a.flags.outPath != "" {
				fields = append(fields, ux.Field{Key: "written", Value: a.flags.outPath})
			}
			fields = append(fields, ux.Field{Key: "id", Value: rec.ID.String()})
			return &outcome{record: rec, fields: fields}, nil
		}))
}

func writeAssemblage(path, name string, d *assemblage.Dense) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := assemblage.Encode(fh, name, d); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}
