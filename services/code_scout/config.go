// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package code_scout exposes the retrieval pipeline as HTTP tool endpoints.
package code_scout

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/codescout/services/code_scout/bundle"
)

// Default model ids when the env vars are unset.
const (
	DefaultRewriteModel   = "gpt-4o-mini"
	DefaultSummariseModel = "gpt-4o-mini"
)

// Config carries service-level settings read from the environment.
type Config struct {
	// DefaultProject fills the project filter when a tool call omits it.
	DefaultProject string

	// Aliases maps import path aliases to project-relative prefixes for
	// the context bundler.
	Aliases map[string]string
}

// aliasFile is the on-disk shape of the alias configuration.
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultAliasPath is where LoadConfig looks for the alias map when
// CODESCOUT_ALIASES is unset.
const DefaultAliasPath = "configs/aliases.yaml"

// LoadConfig reads service settings from the environment and the alias
// file. Missing configuration falls back to logged defaults; only a
// malformed alias file is an error.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DefaultProject: os.Getenv("DEFAULT_PROJECT"),
	}
	if cfg.DefaultProject == "" {
		slog.Info("DEFAULT_PROJECT not set, tool calls must supply a project")
	}

	path := os.Getenv("CODESCOUT_ALIASES")
	if path == "" {
		path = DefaultAliasPath
	}
	aliases, err := loadAliases(path)
	if err != nil {
		return nil, err
	}
	cfg.Aliases = aliases
	return cfg, nil
}

func loadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Alias file not found, using default alias map", "path", path)
			return bundle.DefaultAliases, nil
		}
		return nil, fmt.Errorf("reading alias file %s: %w", path, err)
	}

	var parsed aliasFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing alias file %s: %w", path, err)
	}
	if len(parsed.Aliases) == 0 {
		slog.Warn("Alias file has no aliases, using default alias map", "path", path)
		return bundle.DefaultAliases, nil
	}
	slog.Info("Loaded path aliases", "path", path, "count", len(parsed.Aliases))
	return parsed.Aliases, nil
}
