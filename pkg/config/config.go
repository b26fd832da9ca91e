// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the quawesome YAML configuration.
//
// A missing file is not an error: LoadOrCreate writes the defaults on
// first run, Load falls back to them. Values are validated with
// go-playground/validator struct tags after decoding.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the root of quawesome.yaml.
type Config struct {
	Solver  SolverConfig  `yaml:"solver"`
	Logging LoggingConfig `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`

	// Jobs bounds how many input files the CLI evaluates at once.
	Jobs int `yaml:"jobs" validate:"gte=1,lte=256"`
}

// SolverConfig selects and tunes the SDP backend.
type SolverConfig struct {
	Name                 string  `yaml:"name" validate:"required,oneof=ipm csdp"`
	Tolerance            float64 `yaml:"tolerance" validate:"gt=0,lt=1"`
	FeasibilityTolerance float64 `yaml:"feasibility_tolerance" validate:"gt=0,lt=1"`
	MaxIterations        int     `yaml:"max_iterations" validate:"gte=1,lte=10000"`

	// CSDPPath is the csdp executable; empty means "csdp" on PATH.
	CSDPPath string `yaml:"csdp_path,omitempty"`

	// WorkDir holds CSDP's temporary files; empty means os.TempDir.
	WorkDir string `yaml:"work_dir,omitempty"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`

	// Dir enables daily JSON log files.
	Dir string `yaml:"dir,omitempty"`
}

// StoreConfig configures the results store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Required unless InMemory is set.
	Path       string        `yaml:"path" validate:"required_if=InMemory false"`
	InMemory   bool          `yaml:"in_memory"`
	GCInterval time.Duration `yaml:"gc_interval" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			Name:                 "ipm",
			Tolerance:            1e-8,
			FeasibilityTolerance: 1e-6,
			MaxIterations:        100,
		},
		Logging: LoggingConfig{Level: "info"},
		Store: StoreConfig{
			Path:       filepath.Join(homeDir(), ".quawesome", "results"),
			GCInterval: 5 * time.Minute,
		},
		Jobs: 4,
	}
}

// DefaultPath returns ~/.quawesome/quawesome.yaml.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".quawesome", "quawesome.yaml")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// Validate checks every field against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Decode reads YAML from r over the defaults and validates the result.
// Unknown fields are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read configuration %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrCreate reads path, writing the defaults there first if the file
// does not exist.
func LoadOrCreate(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Write(path, Default()); err != nil {
			return Config{}, err
		}
	}
	return Load(path)
}

// Write stores cfg at path as YAML, creating the directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create configuration directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("write configuration %s: %w", path, err)
	}
	return nil
}
