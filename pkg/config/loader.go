// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "GITCLAUDE"
	// ProjectConfigDir is the per-repository directory holding config and state.
	ProjectConfigDir = ".gitclaude"
	// ProjectConfigFile is the project-level config file name.
	ProjectConfigFile = "config.yaml"
	// GlobalConfigDir is the global config directory, relative to $HOME.
	GlobalConfigDir = ".config/gitclaude"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Loader loads configuration from files and environment.
type Loader struct {
	projectRoot  string
	homeDir      string
	explicitPath string
	skipGlobal   bool
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithProjectRoot sets the project root directory.
func (l *Loader) WithProjectRoot(root string) *Loader {
	l.projectRoot = root
	return l
}

// WithHomeDir overrides the directory the global config is looked up in.
func (l *Loader) WithHomeDir(home string) *Loader {
	l.homeDir = home
	return l
}

// WithFile adds an explicit config file applied after every other layer.
func (l *Loader) WithFile(path string) *Loader {
	l.explicitPath = path
	return l
}

// SkipGlobal skips loading global config.
func (l *Loader) SkipGlobal() *Loader {
	l.skipGlobal = true
	return l
}

// Load loads configuration with full precedence order:
// 1. Defaults
// 2. Global Config ($HOME/.config/gitclaude/config.yaml)
// 3. Project Config (<root>/.gitclaude/config.yaml)
// 4. Environment Variables (GITCLAUDE_*)
// 5. Explicit file
//
// Missing files are skipped; malformed ones are errors.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if !l.skipGlobal {
		if path, err := l.globalPath(); err == nil {
			if err := applyFile(cfg, path, true); err != nil {
				return nil, err
			}
		}
	}

	if err := applyFile(cfg, GetProjectConfigPath(l.projectRoot), true); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.explicitPath != "" {
		if err := applyFile(cfg, l.explicitPath, false); err != nil {
			return nil, err
		}
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path on top of defaults.
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := applyFile(cfg, path, false); err != nil {
		return nil, err
	}
	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) globalPath() (string, error) {
	home := l.homeDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		home = h
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile), nil
}

// eventsLayer captures raw event nodes so each event can be decoded on top
// of the value it already has instead of replacing it wholesale.
type eventsLayer struct {
	Events map[string]yaml.Node `yaml:"events"`
}

// applyFile decodes the YAML file at path on top of cfg.
func applyFile(cfg *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return &ConfigError{Path: path, Err: err}
	}

	var layer eventsLayer
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	previous := maps.Clone(cfg.Events)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if cfg.Events == nil {
		cfg.Events = make(map[string]EventConfig)
	}
	for name, node := range layer.Events {
		base, ok := previous[name]
		if !ok {
			base = EventConfig{Enabled: true}
		}
		if err := node.Decode(&base); err != nil {
			return &ConfigError{Path: path, Field: "events." + name, Err: err}
		}
		cfg.Events[name] = base
	}

	return nil
}

// envBinding maps a dotted config key onto a setter for the raw env value.
type envBinding struct {
	key   string
	apply func(cfg *Config, raw string) error
}

var envBindings = []envBinding{
	{"general.log_level", func(c *Config, v string) error { c.General.LogLevel = v; return nil }},
	{"general.log_format", func(c *Config, v string) error { c.General.LogFormat = v; return nil }},
	{"general.async", boolSetter(func(c *Config, b bool) { c.General.Async = b })},
	{"context.level", func(c *Config, v string) error { c.Context.Level = v; return nil }},
	{"context.truncate_at", intSetter(func(c *Config, n int) { c.Context.TruncateAt = n })},
	{"context.context_lines", intSetter(func(c *Config, n int) { c.Context.ContextLines = n })},
	{"context.recent_commits", intSetter(func(c *Config, n int) { c.Context.RecentCommits = n })},
	{"rate_limit.strategy", func(c *Config, v string) error { c.RateLimit.Strategy = v; return nil }},
	{"rate_limit.debounce_seconds", intSetter(func(c *Config, n int) { c.RateLimit.DebounceSeconds = n })},
	{"rate_limit.cooldown_minutes", intSetter(func(c *Config, n int) { c.RateLimit.CooldownMinutes = n })},
	{"rate_limit.batch_window_seconds", intSetter(func(c *Config, n int) { c.RateLimit.BatchWindowSeconds = n })},
	{"rate_limit.max_runs_per_hour", intSetter(func(c *Config, n int) { c.RateLimit.MaxRunsPerHour = n })},
	{"monorepo.enabled", boolSetter(func(c *Config, b bool) { c.Monorepo.Enabled = b })},
	{"templates.directory", func(c *Config, v string) error { c.Templates.Directory = v; return nil }},
	{"templates.fallback_builtin", boolSetter(func(c *Config, b bool) { c.Templates.FallbackBuiltin = b })},
	{"claude.binary", func(c *Config, v string) error { c.Claude.Binary = v; return nil }},
	{"claude.timeout", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Claude.Timeout = d
		return nil
	}},
	{"output.directory", func(c *Config, v string) error { c.Output.Directory = v; return nil }},
	{"output.format", func(c *Config, v string) error { c.Output.Format = v; return nil }},
}

func intSetter(set func(*Config, int)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		set(c, n)
		return nil
	}
}

func boolSetter(set func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		set(c, b)
		return nil
	}
}

// applyEnvOverrides applies environment variable overrides.
// Format: GITCLAUDE_SECTION__KEY=value, e.g. GITCLAUDE_RATE_LIMIT__STRATEGY=smart.
func applyEnvOverrides(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))

	for _, b := range envBindings {
		if err := v.BindEnv(b.key); err != nil {
			return &ConfigError{Field: b.key, Err: err}
		}
		if !v.IsSet(b.key) {
			continue
		}
		if err := b.apply(cfg, v.GetString(b.key)); err != nil {
			return &ConfigError{Field: b.key, Err: err}
		}
	}

	return nil
}

// EnvVarName returns the environment variable overriding a dotted key.
func EnvVarName(key string) string {
	return strings.ToUpper(EnvPrefix + "_" + strings.ReplaceAll(key, ".", "__"))
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" && e.Field != "" {
		return fmt.Sprintf("config error in %s for %s: %v", e.Path, e.Field, e.Err)
	}
	if e.Path != "" {
		return "config error in " + e.Path + ": " + e.Err.Error()
	}
	if e.Field != "" {
		return "config error for " + e.Field + ": " + e.Err.Error()
	}
	return "config error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FindRepoRoot walks up from start until it finds a directory containing .git.
func FindRepoRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository: %s", start)
		}
		dir = parent
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
