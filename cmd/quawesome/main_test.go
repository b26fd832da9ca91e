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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ytdHuang/QuAwesome/services/assemblage"
	"github.com/ytdHuang/QuAwesome/services/linalg"
	"github.com/ytdHuang/QuAwesome/services/results"
)

// =============================================================================
// Harness
// =============================================================================

type cliEnv struct {
	t     *testing.T
	dir   string
	store string
}

func newCLIEnv(t *testing.T) *cliEnv {
	dir := t.TempDir()
	return &cliEnv{t: t, dir: dir, store: filepath.Join(dir, "store")}
}

// run executes one command line with an isolated config and store.
func (e *cliEnv) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	base := []string{
		"--config", filepath.Join(e.dir, "missing.yaml"),
		"--store", e.store,
		"--log-level", "warn",
	}
	err := execute(context.Background(), append(args, base...), &out, &errOut)
	return out.String(), errOut.String(), err
}

// records decodes JSON lines written with --json.
func (e *cliEnv) records(out string) []*results.Record {
	var recs []*results.Record
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 1<<20), 1<<22)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var r results.Record
		require.NoError(e.t, json.Unmarshal([]byte(line), &r), line)
		recs = append(recs, &r)
	}
	return recs
}

func (e *cliEnv) writeDense(name string, d *assemblage.Dense) string {
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, writeAssemblage(path, name, d))
	return path
}

func (e *cliEnv) writeFile(name string, f *assemblage.File) string {
	data, err := yaml.Marshal(f)
	require.NoError(e.t, err)
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, data, 0600))
	return path
}

func (e *cliEnv) writePRBox(name string) string {
	blocks := map[string]assemblage.MatrixLiteral{}
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for x := 1; x <= 2; x++ {
				for y := 1; y <= 2; y++ {
					p := 0.0
					if (a ^ b) == ((x - 1) & (y - 1)) {
						p = 0.5
					}
					k := assemblage.Key{A: a, B: b, X: x, Y: y}
					blocks[k.String()] = assemblage.LiteralOf(linalg.Identity(2).Scale(complex(p/2, 0)))
				}
			}
		}
	}
	return e.writeFile(name, &assemblage.File{Name: "pr-box", Blocks: blocks})
}

func uniform(t *testing.T) *assemblage.Dense {
	d, err := assemblage.Uniform(3, 2, 2)
	require.NoError(t, err)
	return d
}

// =============================================================================
// Formulations
// =============================================================================

func TestRobustness_MachineOutput(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeDense("uniform.yaml", uniform(t))

	out, _, err := env.run("robustness", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+"\trobustness=")
	assert.Contains(t, out, "SUMMARY: ok=1 failed=0 total=1")

	out, _, err = env.run("results", "list", "--json")
	require.NoError(t, err)
	recs := env.records(out)
	require.Len(t, recs, 1)
	assert.Equal(t, "robustness", recs[0].Formulation)
	assert.Equal(t, "ipm", recs[0].Solver)
	assert.InDelta(t, 0, recs[0].Value, 1e-5)
}

func TestPostQuantum_PRBox(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writePRBox("pr.yaml")

	out, _, err := env.run("postquantum", "--json", "--no-save", path)
	require.NoError(t, err)
	recs := env.records(out)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].Verdict)
	assert.True(t, *recs[0].Verdict)
	assert.Equal(t, "infeasible", recs[0].Status)
	assert.Equal(t, "pr-box", recs[0].Extra["name"])
}

func TestWeight_WitnessIsStored(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeFile("bell.yaml", &assemblage.File{Name: "bell", State: assemblage.LiteralOf(assemblage.BellState())})

	out, _, err := env.run("weight", "--witness", "--json", path)
	require.NoError(t, err)
	recs := env.records(out)
	require.Len(t, recs, 1)
	assert.Greater(t, recs[0].Value, 0.1)

	stored, _, err := env.run("results", "show", recs[0].ID.String())
	require.NoError(t, err)
	var r results.Record
	require.NoError(t, json.Unmarshal([]byte(stored), &r))
	f, ok := r.Extra["F"].([]any)
	require.True(t, ok)
	assert.Len(t, f, 3)
}

func TestSignaling(t *testing.T) {
	env := newCLIEnv(t)
	zero := linalg.MustFromRows([][]complex128{{1, 0}, {0, 0}})
	one := linalg.MustFromRows([][]complex128{{0, 0}, {0, 1}})
	d, err := assemblage.NewDense([][]*linalg.Matrix{{zero, linalg.Zeros(2)}, {one, linalg.Zeros(2)}})
	require.NoError(t, err)
	signaling := env.writeDense("signaling.yaml", d)
	quiet := env.writeDense("uniform.yaml", uniform(t))

	out, _, err := env.run("signaling", "--json", "--no-save", signaling, quiet)
	require.NoError(t, err)
	recs := env.records(out)
	require.Len(t, recs, 2)
	assert.InDelta(t, 1, recs[0].Value, 1e-9)
	assert.InDelta(t, 0, recs[1].Value, 1e-9)
	assert.Empty(t, recs[0].Solver)
}

func TestNSProject_WritesAssemblage(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeDense("uniform.yaml", uniform(t))
	dst := filepath.Join(env.dir, "projected.yaml")

	_, _, err := env.run("nsproject", "--no-save", "-o", dst, path)
	require.NoError(t, err)

	f, err := assemblage.Load(dst)
	require.NoError(t, err)
	d, err := f.Dense()
	require.NoError(t, err)
	assert.Equal(t, 3, d.Settings())
	assert.True(t, d.Block(0, 0).Equal(linalg.Identity(2).Scale(0.25), 1e-4))
}

func TestWork_UniformHasNoWitness(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeDense("uniform.yaml", uniform(t))

	out, _, err := env.run("work", "--json", "--no-save", path)
	require.NoError(t, err)
	recs := env.records(out)
	require.Len(t, recs, 1)
	assert.InDelta(t, 0, recs[0].Value, 1e-6)
}

func TestMLE_SavesStates(t *testing.T) {
	env := newCLIEnv(t)
	rho := linalg.MustFromRows([][]complex128{{-0.1, 0}, {0, 1.1}})
	path := env.writeFile("rho.yaml", &assemblage.File{Name: "rho", State: assemblage.LiteralOf(rho)})
	base := filepath.Join(env.dir, "out", "states")

	out, _, err := env.run("mle", "--no-save", "--out", base, path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: saved 1 states to "+base+".json")

	c, err := results.LoadJSON(base + ".json")
	require.NoError(t, err)
	m, ok := c.(*results.MapContainer)
	require.True(t, ok)
	v, err := m.Get(path)
	require.NoError(t, err)
	fixed, ok := v.(*linalg.Matrix)
	require.True(t, ok)
	assert.InDelta(t, 0, real(fixed.At(0, 0)), 1e-9)
	assert.InDelta(t, 1, real(fixed.At(1, 1)), 1e-9)
}

// =============================================================================
// Errors and plumbing
// =============================================================================

func TestBatch_FailingInputIsReported(t *testing.T) {
	env := newCLIEnv(t)
	good := env.writeDense("uniform.yaml", uniform(t))
	missing := filepath.Join(env.dir, "nope.yaml")

	out, errOut, err := env.run("signaling", good, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 inputs failed")
	assert.Contains(t, errOut, "ERROR: "+missing)
	assert.Contains(t, out, "SUMMARY: ok=1 failed=1 total=2")
}

func TestSetup_RejectsBadOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown solver", []string{"solvers", "--solver", "mosek"}},
		{"zero jobs", []string{"solvers", "--jobs", "0"}},
		{"bad log level", []string{"solvers", "--log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			var out, errOut bytes.Buffer
			args := append(tt.args, "--config", filepath.Join(env.dir, "missing.yaml"))
			err := execute(context.Background(), args, &out, &errOut)
			assert.Error(t, err)
		})
	}
}

func TestSolvers_MarksConfigured(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run("solvers")
	require.NoError(t, err)
	assert.Contains(t, out, "ipm (configured)")
	assert.Contains(t, out, "csdp")
}

func TestResults_Delete(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeDense("uniform.yaml", uniform(t))

	out, _, err := env.run("signaling", "--json", path)
	require.NoError(t, err)
	recs := env.records(out)
	require.Len(t, recs, 1)
	id := recs[0].ID.String()

	out, _, err = env.run("results", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: deleted "+id)

	_, _, err = env.run("results", "show", id)
	assert.ErrorIs(t, err, results.ErrNotFound)

	_, _, err = env.run("results", "delete", "not-a-uuid")
	assert.Error(t, err)
}

func TestMetricsOut(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeDense("uniform.yaml", uniform(t))
	metrics := filepath.Join(env.dir, "metrics.prom")

	_, _, err := env.run("robustness", "--no-save", "--metrics-out", metrics, path)
	require.NoError(t, err)
	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quawesome_sdp_solves_total")
}
