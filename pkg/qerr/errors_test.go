// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package qerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := Index("assemblage.ReadBipartite", "missing key %q", "1,1|2,2")
	wrapped := fmt.Errorf("load: %w", err)

	assert.True(t, errors.Is(wrapped, ErrIndexValidation))
	assert.False(t, errors.Is(wrapped, ErrDimension))
	assert.Contains(t, err.Error(), "1,1|2,2")
	assert.Equal(t, ErrIndexValidation, KindOf(wrapped))
}

func TestError_NoDetail(t *testing.T) {
	err := &Error{Op: "sdp.New", Kind: ErrParameter}
	assert.Equal(t, "sdp.New: parameter error", err.Error())
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Nil(t, KindOf(errors.New("boom")))
}
