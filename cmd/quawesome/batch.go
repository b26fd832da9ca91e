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
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/results"
)

// outcome is what one evaluation of one input produced.
type outcome struct {
	record *results.Record
	fields []ux.Field
}

// evalFunc evaluates a single input file.
type evalFunc func(ctx context.Context, path string) (*outcome, error)

// runBatch evaluates paths concurrently, at most cfg.Jobs at a time, then
// reports and stores the outcomes in input order.
//
// Description:
//
//	A failing input does not stop the others. Cancelling ctx stops the
//	batch. Outcomes are printed, or written as JSON records with --json,
//	and saved to the store unless --no-save is set.
//
// Outputs:
//
//	[]*outcome - one per path, nil where the evaluation failed.
//	error      - non-nil when any input failed or a record could not be saved.
func (a *app) runBatch(ctx context.Context, title string, paths []string, fn evalFunc) ([]*outcome, error) {
	start := time.Now()
	outs := make([]*outcome, len(paths))
	errs := make([]error, len(paths))

	progress := a.printer.Progress(title, len(paths))
	progress.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			outs[i], errs[i] = fn(gctx, path)
			if errs[i] != nil {
				outs[i] = nil
			}
			progress.Increment()
			return nil
		})
	}
	_ = g.Wait()
	progress.Stop()

	a.printer.Title(title)
	var enc *json.Encoder
	if a.flags.json {
		enc = json.NewEncoder(a.out)
	}
	ok, failed := 0, 0
	for i, path := range paths {
		if errs[i] != nil {
			failed++
			a.printer.Error(fmt.Sprintf("%s: %v", path, errs[i]))
			a.logger.Warn("evaluation failed", slog.String("input", path), slog.String("error", errs[i].Error()))
			continue
		}
		ok++
		out := outs[i]
		if err := a.save(ctx, out.record); err != nil {
			return outs, err
		}
		if enc != nil {
			if err := enc.Encode(out.record); err != nil {
				return outs, fmt.Errorf("encode record: %w", err)
			}
			continue
		}
		a.printer.Result(path, out.fields...)
	}
	if enc == nil {
		a.printer.Summary(ok, failed)
	}

	a.logger.Info("batch finished",
		slog.String("command", title),
		slog.Int("ok", ok),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)),
	)
	if err := ctx.Err(); err != nil {
		return outs, err
	}
	if failed > 0 {
		return outs, fmt.Errorf("%d of %d inputs failed", failed, len(paths))
	}
	return outs, nil
}

// discard drops the outcomes of a batch.
func discard(_ []*outcome, err error) error { return err }

// save records r unless saving is disabled.
func (a *app) save(ctx context.Context, r *results.Record) error {
	if a.flags.noSave || r == nil {
		return nil
	}
	s, err := a.openStore()
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	if err := s.Put(ctx, r); err != nil {
		return fmt.Errorf("save %s: %w", r.ID, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
