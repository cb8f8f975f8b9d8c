// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the default configuration.
// These values are used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		General:   DefaultGeneralConfig(),
		Events:    DefaultEvents(),
		Context:   DefaultContextConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Monorepo:  DefaultMonorepoConfig(),
		Templates: DefaultTemplatesConfig(),
		Claude:    DefaultClaudeConfig(),
		Output:    DefaultOutputConfig(),
	}
}

// DefaultGeneralConfig returns default general settings.
func DefaultGeneralConfig() GeneralConfig {
	return GeneralConfig{
		LogLevel:  "info",
		LogFormat: "console",
		Async:     true,
	}
}

// DefaultEvents returns the default per-event settings.
func DefaultEvents() map[string]EventConfig {
	return map[string]EventConfig{
		"post-commit": {
			Enabled:  true,
			Template: "review",
			Context:  "standard",
			Output:   []string{"file"},
		},
		"pre-commit": {
			Enabled:  false,
			Template: "validate",
			Context:  "standard",
			Output:   []string{"stdout"},
			Blocking: true,
		},
		"pre-push": {
			Enabled:  true,
			Template: "changelog",
			Context:  "extended",
			Output:   []string{"file"},
		},
		"post-merge": {
			Enabled:  true,
			Template: "summary",
			Context:  "extended",
			Output:   []string{"file"},
		},
		"post-checkout": {
			Enabled:  false,
			Template: "context",
			Context:  "minimal",
			Output:   []string{"stdout"},
		},
	}
}

// DefaultContextConfig returns default context assembly settings.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		Level:         "standard",
		TruncateAt:    500,
		ContextLines:  3,
		RecentCommits: 3,
		TreeDepth:     3,
		Exclude:       []string{"package-lock.json", "pnpm-lock.yaml", "yarn.lock", "Cargo.lock", "go.sum"},
	}
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Strategy:           "debounce",
		DebounceSeconds:    30,
		CooldownMinutes:    5,
		BatchWindowSeconds: 120,
		MaxRunsPerHour:     10,
	}
}

// DefaultMonorepoConfig returns default monorepo settings.
func DefaultMonorepoConfig() MonorepoConfig {
	return MonorepoConfig{
		Enabled:     true,
		PackageDirs: []string{"packages", "apps", "libs", "crates", "services"},
	}
}

// DefaultTemplatesConfig returns default template settings.
func DefaultTemplatesConfig() TemplatesConfig {
	return TemplatesConfig{
		Directory:       "~/.config/gitclaude/templates",
		FallbackBuiltin: true,
	}
}

// DefaultClaudeConfig returns default assistant settings.
func DefaultClaudeConfig() ClaudeConfig {
	return ClaudeConfig{
		Timeout: 120 * time.Second,
	}
}

// DefaultOutputConfig returns default response output settings.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Directory: filepath.Join(ProjectConfigDir, "responses"),
		Format:    "markdown",
		Timestamp: true,
	}
}

// GetDefaultConfigPath returns the default global config file path.
func GetDefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFile)
}

// GetProjectConfigPath returns the project config file path.
func GetProjectConfigPath(projectRoot string) string {
	if projectRoot == "" {
		projectRoot = "."
	}
	return filepath.Join(projectRoot, ProjectConfigDir, ProjectConfigFile)
}
