// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func machine() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut), &out, &errOut
}

func TestDetectMode_BufferIsMachine(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ModeMachine, DetectMode(&buf))
}

func TestPrinter_Machine(t *testing.T) {
	p, out, errOut := machine()

	p.Title("ignored")
	p.Muted("ignored")
	p.Success("saved")
	p.Result("bell.yaml", Field{"robustness", "0.366"}, Field{"status", "optimal"})
	p.Summary(2, 1)
	p.Warning("slow")
	p.Error("boom")

	assert.Equal(t,
		"OK: saved\nbell.yaml\trobustness=0.366\tstatus=optimal\nSUMMARY: ok=2 failed=1 total=3\n",
		out.String())
	assert.Equal(t, "WARN: slow\nERROR: boom\n", errOut.String())
}

func TestPrinter_Rich(t *testing.T) {
	p, out, errOut := machine()
	p = p.WithMode(ModeRich)
	assert.Equal(t, ModeRich, p.Mode())

	p.Result("bell.yaml", Field{"weight", "1"})
	p.Error("boom")

	assert.Contains(t, out.String(), "bell.yaml")
	assert.Contains(t, out.String(), "weight")
	assert.Contains(t, errOut.String(), "boom")
}

func TestIcon_Render(t *testing.T) {
	assert.Contains(t, IconSuccess.Render(), "✓")
	assert.Equal(t, "•", IconBullet.Render())
}
