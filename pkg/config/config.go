// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration management for gitclaude.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Global Config: $HOME/.config/gitclaude/config.yaml
// 3. Project Config: <repo>/.gitclaude/config.yaml
// 4. Environment Variables: GITCLAUDE_<SECTION>__<KEY>
// 5. An explicit file passed with --config
package config

import (
	"sort"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	General   GeneralConfig          `yaml:"general"`
	Events    map[string]EventConfig `yaml:"events" validate:"dive"`
	Context   ContextConfig          `yaml:"context"`
	RateLimit RateLimitConfig        `yaml:"rate_limit"`
	Monorepo  MonorepoConfig         `yaml:"monorepo"`
	Templates TemplatesConfig        `yaml:"templates"`
	Claude    ClaudeConfig           `yaml:"claude"`
	Output    OutputConfig           `yaml:"output"`
}

// GeneralConfig contains process-wide settings.
type GeneralConfig struct {
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=console json"`
	// Async runs the assistant detached unless the event is blocking.
	Async bool `yaml:"async"`
}

// EventConfig configures one git hook event.
type EventConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Template string   `yaml:"template" validate:"required"`
	Context  string   `yaml:"context" validate:"omitempty,oneof=minimal standard extended full"`
	Output   []string `yaml:"output" validate:"dive,oneof=stdout file notify terminal clipboard git_note"`
	Blocking bool     `yaml:"blocking"`
}

// ContextConfig controls how much repository context is assembled.
type ContextConfig struct {
	Level         string   `yaml:"level" validate:"oneof=minimal standard extended full"`
	TruncateAt    int      `yaml:"truncate_at" validate:"gte=0"`
	ContextLines  int      `yaml:"context_lines" validate:"gte=0,lte=20"`
	RecentCommits int      `yaml:"recent_commits" validate:"gte=0,lte=50"`
	TreeDepth     int      `yaml:"tree_depth" validate:"gte=0"`
	Exclude       []string `yaml:"exclude"`
}

// RateLimitConfig selects a rate limiting strategy and its thresholds.
type RateLimitConfig struct {
	Strategy           string `yaml:"strategy" validate:"oneof=none debounce cooldown batch smart"`
	DebounceSeconds    int    `yaml:"debounce_seconds" validate:"gte=0"`
	CooldownMinutes    int    `yaml:"cooldown_minutes" validate:"gte=0"`
	BatchWindowSeconds int    `yaml:"batch_window_seconds" validate:"gte=0"`
	MaxRunsPerHour     int    `yaml:"max_runs_per_hour" validate:"gte=0"`
}

// MonorepoConfig controls package attribution.
type MonorepoConfig struct {
	Enabled     bool     `yaml:"enabled"`
	PackageDirs []string `yaml:"package_dirs" validate:"dive,required,excludes=/"`
}

// TemplatesConfig controls template resolution.
type TemplatesConfig struct {
	Directory       string `yaml:"directory"`
	FallbackBuiltin bool   `yaml:"fallback_builtin"`
}

// ClaudeConfig contains assistant process settings.
type ClaudeConfig struct {
	Binary    string        `yaml:"binary"`
	ExtraArgs []string      `yaml:"extra_args"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
}

// OutputConfig controls where responses are written.
type OutputConfig struct {
	Directory string `yaml:"directory" validate:"required"`
	Format    string `yaml:"format" validate:"oneof=markdown json plain"`
	Timestamp bool   `yaml:"timestamp"`
}

// Event returns the configuration for a hook event and whether it exists.
func (c *Config) Event(name string) (EventConfig, bool) {
	ev, ok := c.Events[name]
	return ev, ok
}

// EventLevel returns the context level string for an event, falling back
// to the global context level.
func (c *Config) EventLevel(name string) string {
	if ev, ok := c.Events[name]; ok && ev.Context != "" {
		return ev.Context
	}
	return c.Context.Level
}

// EnabledEvents returns the names of all enabled events.
func (c *Config) EnabledEvents() []string {
	var names []string
	for name, ev := range c.Events {
		if ev.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
