// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ratelimit

import (
	"fmt"
	"slices"
	"time"
)

// Kind is the outcome of a rate limit decision.
type Kind int

const (
	KindRun Kind = iota
	KindSkip
	KindDebounce
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindRun:
		return "run"
	case KindSkip:
		return "skip"
	case KindDebounce:
		return "debounce"
	case KindBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// Decision is the result of Decide.
type Decision struct {
	Kind Kind
	// Reason is set for KindSkip.
	Reason string
	// Remaining is the wait left for KindDebounce, and the time until the
	// batch window closes for KindBatch.
	Remaining time.Duration
	// Batch holds the flushed event ids when a batch window closes.
	Batch []string
}

// ShouldRun reports whether the assistant should be invoked.
func (d Decision) ShouldRun() bool {
	return d.Kind == KindRun
}

func (d Decision) String() string {
	switch d.Kind {
	case KindSkip:
		return "skip: " + d.Reason
	case KindDebounce:
		return fmt.Sprintf("debounce (%s remaining)", d.Remaining.Round(time.Second))
	case KindBatch:
		return fmt.Sprintf("batch (window closes in %s)", d.Remaining.Round(time.Second))
	default:
		if len(d.Batch) > 0 {
			return fmt.Sprintf("run (flushing %d batched events)", len(d.Batch))
		}
		return "run"
	}
}

// Decide evaluates strategy against state at now. It never mutates state.
// A nil strategy never runs.
func Decide(strategy Strategy, state State, now time.Time, event string) Decision {
	switch s := strategy.(type) {
	case None:
		return Decision{Kind: KindRun}
	case Debounce:
		return debounce(s.Window, state, now)
	case Cooldown:
		return cooldown(s.Window, state, now)
	case Batch:
		return batch(s.Window, state, now, event)
	case Smart:
		if s.MaxRunsPerHour > 0 && state.RunsInLastHour(now) >= s.MaxRunsPerHour {
			return Decision{
				Kind:   KindSkip,
				Reason: fmt.Sprintf("max %d runs per hour reached", s.MaxRunsPerHour),
			}
		}
		return debounce(s.Window, state, now)
	default:
		return Decision{Kind: KindSkip, Reason: "no rate limit strategy configured"}
	}
}

func debounce(window time.Duration, state State, now time.Time) Decision {
	if state.LastRun == nil {
		return Decision{Kind: KindRun}
	}
	if elapsed := since(*state.LastRun, now); elapsed < window {
		return Decision{Kind: KindDebounce, Remaining: window - elapsed}
	}
	return Decision{Kind: KindRun}
}

func cooldown(window time.Duration, state State, now time.Time) Decision {
	if state.LastRun == nil {
		return Decision{Kind: KindRun}
	}
	if elapsed := since(*state.LastRun, now); elapsed < window {
		remaining := window - elapsed
		return Decision{
			Kind:      KindSkip,
			Reason:    fmt.Sprintf("cooldown active (%s remaining)", remaining.Round(time.Second)),
			Remaining: remaining,
		}
	}
	return Decision{Kind: KindRun}
}

func batch(window time.Duration, state State, now time.Time, event string) Decision {
	if window <= 0 {
		return Decision{Kind: KindRun, Batch: withEvent(state.PendingBatch, event)}
	}
	if len(state.PendingBatch) == 0 || state.BatchOpenedAt == nil {
		return Decision{Kind: KindBatch, Remaining: window}
	}
	if elapsed := since(*state.BatchOpenedAt, now); elapsed < window {
		return Decision{Kind: KindBatch, Remaining: window - elapsed}
	}
	return Decision{Kind: KindRun, Batch: withEvent(state.PendingBatch, event)}
}

// withEvent returns a copy of pending with event appended unless present.
func withEvent(pending []string, event string) []string {
	out := slices.Clone(pending)
	if event != "" && !slices.Contains(out, event) {
		out = append(out, event)
	}
	return out
}

// since returns now - t, treating a clock that went backwards as no time elapsed.
func since(t, now time.Time) time.Duration {
	if d := now.Sub(t); d > 0 {
		return d
	}
	return 0
}
