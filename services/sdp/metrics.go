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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==============================================================================
// Metrics
// ==============================================================================

var (
	// solvesTotal counts solves by backend and status.
	// Labels: backend = "ipm" | "csdp", status = Status.String()
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quawesome_sdp_solves_total",
		Help: "Total SDP solves by backend and status",
	}, []string{"backend", "status"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quawesome_sdp_solve_duration_seconds",
		Help:    "SDP solve duration including compilation",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
	}, []string{"backend"})

	ipmIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quawesome_sdp_ipm_iterations",
		Help:    "Interior point iterations per solve",
		Buckets: []float64{5, 10, 20, 30, 50, 75, 100},
	})
)
