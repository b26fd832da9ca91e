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
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Progress is an animated "[done/total]" line on the error stream while a
// batch of solves runs. In machine mode it writes nothing.
//
// Thread Safety: Increment may be called from any goroutine.
type Progress struct {
	w       io.Writer
	message string
	total   int
	enabled bool
	tick    time.Duration

	mu      sync.Mutex
	current int
	frame   int
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// Progress returns a progress line for total items. Call Start, then Stop
// before printing anything else to the error stream.
func (p *Printer) Progress(message string, total int) *Progress {
	return &Progress{
		w:       p.err,
		message: message,
		total:   total,
		enabled: p.mode == ModeRich,
		tick:    80 * time.Millisecond,
	}
}

// Start begins the animation.
func (s *Progress) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || !s.enabled {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
}

func (s *Progress) loop(stop, done chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer close(done)
	for {
		select {
		case <-stop:
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("\r%s %s [%d/%d]",
				Styles.Key.Render(spinnerFrames[s.frame]), s.message, s.current, s.total)
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.mu.Unlock()
			fmt.Fprint(s.w, line)
		}
	}
}

// Increment records one finished item.
func (s *Progress) Increment() {
	s.mu.Lock()
	s.current++
	s.mu.Unlock()
}

// Current returns the number of finished items.
func (s *Progress) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stop clears the line and waits for the animation to end.
func (s *Progress) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}
