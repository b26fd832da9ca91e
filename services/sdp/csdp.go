// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sdp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// csdp runs the external CSDP solver.
//
// Description:
//
//	The standard form is written in SDPA sparse format, which is exactly
//	CSDP's convention (max Tr(CX) s.t. Tr(A_i X) = a_i), the binary is run
//	under the caller's context and the dual vector y is read from the
//	first line of the solution file.
type csdp struct {
	cfg Config
}

func (s *csdp) name() string { return "csdp" }

func (s *csdp) binary() string {
	if s.cfg.CSDPPath != "" {
		return s.cfg.CSDPPath
	}
	return "csdp"
}

// csdpStatus maps CSDP exit codes to a Status. CSDP's primal is the
// maximization; its infeasibility means our minimization is unbounded and
// vice versa.
func csdpStatus(code int) (Status, string) {
	switch code {
	case 0:
		return StatusOptimal, ""
	case 1:
		return StatusUnbounded, "csdp: primal infeasible"
	case 2:
		return StatusInfeasible, "csdp: dual infeasible"
	case 3:
		return StatusOptimal, "csdp: partial success"
	case 4:
		return StatusUnknown, "csdp: maximum iterations reached"
	case 5, 6:
		return StatusUnknown, fmt.Sprintf("csdp: stuck at edge of feasibility (code %d)", code)
	case 7:
		return StatusUnknown, "csdp: lack of progress"
	case 8:
		return StatusUnknown, "csdp: singular Schur complement"
	case 9:
		return StatusError, "csdp: detected NaN or Inf"
	default:
		return StatusError, fmt.Sprintf("csdp: exit code %d", code)
	}
}

func (s *csdp) solveStandard(ctx context.Context, st *Standard) (*rawResult, error) {
	bin, err := exec.LookPath(s.binary())
	if err != nil {
		return nil, fmt.Errorf("locating csdp: %w", err)
	}
	dir, err := os.MkdirTemp(s.cfg.WorkDir, "quawesome-csdp-")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "problem.dat-s")
	out := filepath.Join(dir, "problem.sol")
	f, err := os.Create(in)
	if err != nil {
		return nil, err
	}
	if err := WriteSDPA(f, st); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing SDPA file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, in, out)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	code := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("running csdp: %w", runErr)
		}
		code = exitErr.ExitCode()
	}
	status, detail := csdpStatus(code)
	s.cfg.logger().Debug("csdp finished",
		slog.Int("exit_code", code),
		slog.String("status", status.String()),
		slog.Int("output_bytes", stdout.Len()),
	)

	res := &rawResult{status: status, detail: detail}
	if status != StatusOptimal {
		return res, nil
	}
	sf, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("opening solution: %w", err)
	}
	defer sf.Close()
	y, err := ReadSDPASolution(sf, st.NumVars())
	if err != nil {
		return nil, err
	}
	res.z = y
	return res, nil
}

// WriteSDPA writes st in SDPA sparse format. Only the upper triangle of
// each block is written.
func WriteSDPA(w io.Writer, st *Standard) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", st.NumVars(), len(st.BlockSizes))
	for i, n := range st.BlockSizes {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.Itoa(n))
	}
	bw.WriteByte('\n')
	for i, v := range st.Obj {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.FormatFloat(v, 'g', 17, 64))
	}
	bw.WriteByte('\n')

	writeBlock := func(matno, block int, get func(i, j int) float64, n int) {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				if v := get(i, j); v != 0 {
					fmt.Fprintf(bw, "%d %d %d %d %s\n", matno, block+1, i+1, j+1, strconv.FormatFloat(v, 'g', 17, 64))
				}
			}
		}
	}
	for b, c := range st.C {
		writeBlock(0, b, c.At, st.BlockSizes[b])
	}
	for i, es := range st.A {
		for _, e := range es {
			writeBlock(i+1, e.block, e.m.At, st.BlockSizes[e.block])
		}
	}
	return bw.Flush()
}

// ReadSDPASolution reads the dual vector y from a CSDP solution file.
func ReadSDPASolution(r io.Reader, m int) ([]float64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("empty solution file")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != m {
		return nil, fmt.Errorf("solution has %d dual values, want %d", len(fields), m)
	}
	y := make([]float64, m)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing dual value %d: %w", i, err)
		}
		y[i] = v
	}
	return y, nil
}
