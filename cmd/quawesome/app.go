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
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ytdHuang/QuAwesome/pkg/config"
	"github.com/ytdHuang/QuAwesome/pkg/logging"
	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/results"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

// app carries the resources shared by every subcommand.
//
// Thread Safety: setup and close run on the command goroutine. Evaluation
// goroutines only read cfg, solver and logger.
type app struct {
	flags *flags

	cfg     config.Config
	logger  *logging.Logger
	solver  sdp.Solver
	printer *ux.Printer
	out     io.Writer
	tp      *sdktrace.TracerProvider
	store   *results.Store
}

// setup loads the configuration, applies flag overrides and builds the
// logger, solver, printer and optional tracer.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	fl := cmd.Flags()
	if fl.Changed("solver") {
		cfg.Solver.Name = a.flags.solver
	}
	if fl.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if fl.Changed("store") {
		cfg.Store.Path = a.flags.store
		cfg.Store.InMemory = false
	}
	if fl.Changed("jobs") {
		cfg.Jobs = a.flags.jobs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "quawesome",
		JSON:    cfg.Logging.JSON,
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(a.logger.Slog())

	a.solver, err = sdp.New(cfg.Solver.Name, sdp.Config{
		Tolerance:            cfg.Solver.Tolerance,
		FeasibilityTolerance: cfg.Solver.FeasibilityTolerance,
		MaxIterations:        cfg.Solver.MaxIterations,
		CSDPPath:             cfg.Solver.CSDPPath,
		WorkDir:              cfg.Solver.WorkDir,
		Logger:               a.logger.Slog(),
	})
	if err != nil {
		return err
	}

	a.out = cmd.OutOrStdout()
	a.printer = ux.NewPrinter(a.out, cmd.ErrOrStderr())
	if a.flags.json {
		a.printer = a.printer.WithMode(ux.ModeMachine)
	}

	if a.flags.trace {
		if err := a.initTracer(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	a.logger.Debug("configuration loaded",
		slog.String("path", path),
		slog.String("solver", cfg.Solver.Name),
		slog.Int("jobs", cfg.Jobs),
	)
	return nil
}

// initTracer installs a batching tracer provider that pretty prints spans
// to w.
func (a *app) initTracer(w io.Writer) error {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "quawesome"),
		attribute.String("solver", a.cfg.Solver.Name),
	)
	a.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(a.tp)
	return nil
}

// openStore opens the results store on first use.
func (a *app) openStore() (*results.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	sc := results.DefaultConfig(a.cfg.Store.Path)
	sc.InMemory = a.cfg.Store.InMemory
	sc.GCInterval = a.cfg.Store.GCInterval
	sc.Logger = a.logger.Slog()
	s, err := results.Open(sc)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// close flushes spans, writes metrics and closes the store and the log
// file. It is safe to call when setup never ran.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.tp != nil {
		if err := a.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
		a.tp = nil
	}
	if a.flags.metricsOut != "" && a.logger != nil {
		if err := prometheus.WriteToTextfile(a.flags.metricsOut, prometheus.DefaultGatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		a.store = nil
	}
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
