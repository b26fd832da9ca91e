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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ytdHuang/QuAwesome/pkg/ux"
	"github.com/ytdHuang/QuAwesome/services/sdp"
)

func (a *app) runResultsList(cmd *cobra.Command, _ []string) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	recs, err := s.List(cmd.Context())
	if err != nil {
		return err
	}
	if a.flags.json {
		enc := json.NewEncoder(a.out)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	if len(recs) == 0 {
		a.printer.Muted("no stored results")
		return nil
	}
	a.printer.Title(fmt.Sprintf("%d stored results", len(recs)))
	for _, r := range recs {
		fields := []ux.Field{
			{Key: "formulation", Value: r.Formulation},
			{Key: "input", Value: r.Input},
			{Key: "value", Value: formatFloat(r.Value)},
		}
		if r.Verdict != nil {
			fields = append(fields, ux.Field{Key: "verdict", Value: strconv.FormatBool(*r.Verdict)})
		}
		if r.Status != "" {
			fields = append(fields, ux.Field{Key: "status", Value: r.Status})
		}
		fields = append(fields, ux.Field{Key: "created", Value: r.CreatedAt.Format(time.RFC3339)})
		a.printer.Result(r.ID.String(), fields...)
	}
	return nil
}

func (a *app) runResultsShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}
	r, err := s.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

func (a *app) runResultsDelete(cmd *cobra.Command, args []string) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	var errs []error
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.Delete(cmd.Context(), id); err != nil {
			errs = append(errs, err)
			continue
		}
		a.printer.Success("deleted " + id.String())
	}
	return errors.Join(errs...)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid result id %q: %w", s, err)
	}
	return id, nil
}

func (a *app) runSolvers(_ *cobra.Command, _ []string) error {
	for _, name := range sdp.Backends() {
		marker := ""
		if name == a.cfg.Solver.Name {
			marker = " (configured)"
		}
		fmt.Fprintln(a.out, name+marker)
	}
	return nil
}
