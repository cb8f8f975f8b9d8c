// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package ratelimit decides whether a hook event may run the assistant,
// based on a small amount of state persisted per repository.
package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Strategy is one of None, Debounce, Cooldown, Batch or Smart.
type Strategy interface {
	Name() string
	strategy()
}

// None always runs.
type None struct{}

// Debounce delays a run until Window has passed since the last run.
type Debounce struct {
	Window time.Duration
}

// Cooldown skips events arriving within Window of the last run.
type Cooldown struct {
	Window time.Duration
}

// Batch accumulates events and runs once the oldest has waited Window.
type Batch struct {
	Window time.Duration
}

// Smart caps runs per trailing hour and debounces the rest.
type Smart struct {
	Window         time.Duration
	MaxRunsPerHour int
}

func (None) Name() string     { return "none" }
func (Debounce) Name() string { return "debounce" }
func (Cooldown) Name() string { return "cooldown" }
func (Batch) Name() string    { return "batch" }
func (Smart) Name() string    { return "smart" }

func (None) strategy()     {}
func (Debounce) strategy() {}
func (Cooldown) strategy() {}
func (Batch) strategy()    {}
func (Smart) strategy()    {}

// ParseStrategy builds the configured strategy. Unknown names are rejected.
func ParseStrategy(cfg config.RateLimitConfig) (Strategy, error) {
	debounce := time.Duration(cfg.DebounceSeconds) * time.Second

	switch strings.ToLower(strings.TrimSpace(cfg.Strategy)) {
	case "none":
		return None{}, nil
	case "debounce":
		return Debounce{Window: debounce}, nil
	case "cooldown":
		return Cooldown{Window: time.Duration(cfg.CooldownMinutes) * time.Minute}, nil
	case "batch":
		return Batch{Window: time.Duration(cfg.BatchWindowSeconds) * time.Second}, nil
	case "smart":
		return Smart{Window: debounce, MaxRunsPerHour: cfg.MaxRunsPerHour}, nil
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown rate limit strategy %q", cfg.Strategy), nil).
			WithContext("strategy", cfg.Strategy)
	}
}

// Describe renders a strategy with its parameters, e.g. "debounce(30s)".
func Describe(s Strategy) string {
	switch s := s.(type) {
	case Debounce:
		return fmt.Sprintf("debounce(%s)", s.Window)
	case Cooldown:
		return fmt.Sprintf("cooldown(%s)", s.Window)
	case Batch:
		return fmt.Sprintf("batch(%s)", s.Window)
	case Smart:
		return fmt.Sprintf("smart(%s, max %d/h)", s.Window, s.MaxRunsPerHour)
	default:
		return s.Name()
	}
}
