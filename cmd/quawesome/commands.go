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
	"io"

	"github.com/spf13/cobra"
)

// flags holds every command line value. One instance belongs to one command
// tree, so repeated executions in tests never see stale values.
type flags struct {
	// --- Global ---
	configPath string
	solver     string
	logLevel   string
	json       bool
	store      string
	jobs       int
	metricsOut string
	trace      bool
	noSave     bool

	// --- Per command ---
	moment    bool    // postquantum
	witness   bool    // weight
	primal    bool    // weight
	useSDP    bool    // signaling
	outPath   string  // nsproject, mle
	epsilon   float64 // mle
	dateStamp bool    // mle
}

// newRootCmd builds the command tree and the app it drives.
func newRootCmd() (*cobra.Command, *app) {
	f := &flags{}
	a := &app{flags: f}

	rootCmd := &cobra.Command{
		Use:   "quawesome",
		Short: "Steering and post-quantum quantifiers for quantum assemblages",
		Long: `quawesome reads assemblage files (YAML or JSON) and evaluates
steering robustness, steering weight, signaling, no-signaling projections,
work extraction and the post-quantum steering test with an SDP backend.
Every evaluation is recorded in a local results store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	postQuantumCmd := &cobra.Command{
		Use:   "postquantum [file...]",
		Short: "Test bipartite assemblages for post-quantum steering",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runPostQuantum,
	}
	robustnessCmd := &cobra.Command{
		Use:   "robustness [file...]",
		Short: "Steering robustness of single-party assemblages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runRobustness,
	}
	weightCmd := &cobra.Command{
		Use:   "weight [file...]",
		Short: "Steering weight of single-party assemblages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runWeight,
	}
	signalingCmd := &cobra.Command{
		Use:   "signaling [file...]",
		Short: "Largest trace distance between reduced states",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runSignaling,
	}
	nsProjectCmd := &cobra.Command{
		Use:   "nsproject [file]",
		Short: "Nearest no-signaling assemblage in trace distance",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runNSProject,
	}
	workCmd := &cobra.Command{
		Use:   "work [file...]",
		Short: "Quantum and classical work extraction of qubit assemblages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runWork,
	}
	mleCmd := &cobra.Command{
		Use:   "mle [file...]",
		Short: "Rescale reconstructed states to the nearest density matrix",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runMLE,
	}
	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "List the available SDP backends",
		Args:  cobra.NoArgs,
		RunE:  a.runSolvers,
	}

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect stored evaluations",
	}
	resultsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored evaluations, oldest first",
		Args:  cobra.NoArgs,
		RunE:  a.runResultsList,
	}
	resultsShowCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one stored evaluation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runResultsShow,
	}
	resultsDeleteCmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete stored evaluations",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runResultsDelete,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Configuration file (default ~/.quawesome/quawesome.yaml)")
	pf.StringVar(&f.solver, "solver", "", "SDP backend: ipm or csdp")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&f.json, "json", false, "Print results as JSON records")
	pf.StringVar(&f.store, "store", "", "Results store directory")
	pf.IntVar(&f.jobs, "jobs", 0, "Number of input files evaluated at once")
	pf.StringVar(&f.metricsOut, "metrics-out", "", "Write Prometheus metrics to this file on exit")
	pf.BoolVar(&f.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	pf.BoolVar(&f.noSave, "no-save", false, "Do not record results in the store")

	postQuantumCmd.Flags().BoolVar(&f.moment, "moment", false, "Store the numeric moment matrix")
	weightCmd.Flags().BoolVar(&f.witness, "witness", false, "Store the optimal witness operators F")
	weightCmd.Flags().BoolVar(&f.primal, "primal", false, "Solve the primal program instead of the dual")
	signalingCmd.Flags().BoolVar(&f.useSDP, "sdp", false, "Solve the signaling SDP instead of the trace distance")
	nsProjectCmd.Flags().StringVarP(&f.outPath, "out", "o", "", "Write the projected assemblage to this file")
	mleCmd.Flags().Float64Var(&f.epsilon, "epsilon", 0, "Eigenvalues below epsilon are treated as zero")
	mleCmd.Flags().StringVarP(&f.outPath, "out", "o", "", "Save the rescaled states as JSON under this base name")
	mleCmd.Flags().BoolVar(&f.dateStamp, "date-stamp", false, "Append _YYYYMMDD to the output name")

	rootCmd.AddCommand(postQuantumCmd, robustnessCmd, weightCmd, signalingCmd,
		nsProjectCmd, workCmd, mleCmd, solversCmd, resultsCmd)
	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsDeleteCmd)

	return rootCmd, a
}

// execute runs one command line and releases everything the app opened.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd, a := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if cerr := a.close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
