// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package runner turns one git hook event into an assistant run: rate
// limit, build context, render the prompt, invoke, deliver.
package runner

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gitclaude/gitclaude/pkg/claude"
	"github.com/gitclaude/gitclaude/pkg/ratelimit"
)

// Assistant runs a prompt through the assistant CLI.
type Assistant interface {
	Run(ctx context.Context, prompt string) (*claude.Response, error)
	Spawn(prompt string, out *os.File) error
}

// Request is one event to process.
type Request struct {
	Event string
	// DryRun renders the prompt without invoking the assistant or writing
	// rate limit state.
	DryRun bool
	// WaitOnDebounce sleeps out a debounce window and checks once more
	// instead of dropping the event.
	WaitOnDebounce bool
	// Force runs the event even when it is disabled in config.
	Force bool
	// Sync waits for the assistant even when async mode is configured.
	Sync bool
	// DeferDebounce hands a debounced event to the Deferrer instead of
	// waiting in this process. Hooks set it so git is never held up.
	DeferDebounce bool
}

// Status says how a run ended.
type Status string

const (
	StatusRan       Status = "ran"
	StatusSpawned   Status = "spawned"
	StatusDryRun    Status = "dry-run"
	StatusDisabled  Status = "disabled"
	StatusSkipped   Status = "skipped"
	StatusDebounced Status = "debounced"
	StatusDeferred  Status = "deferred"
	StatusBatched   Status = "batched"
)

// Result describes a processed event.
type Result struct {
	RunID    string
	Event    string
	EventID  string
	Commit   string
	Template string
	Status   Status
	Decision ratelimit.Decision
	Prompt   string
	Response *claude.Response
	// Files lists response files written or opened for this run.
	Files    []string
	Duration time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAssistant replaces the claude CLI invoker.
func WithAssistant(a Assistant) Option {
	return func(p *Pipeline) {
		p.assistant = a
	}
}

// WithStore replaces the per-repository rate limit state file.
func WithStore(s ratelimit.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithClock sets the clock used for rate limiting.
func WithClock(c ratelimit.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithStdout sets where stdout output is printed.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) {
		p.stdout = w
	}
}

// WithDeferrer replaces the detached re-run used for deferred events.
func WithDeferrer(d Deferrer) Option {
	return func(p *Pipeline) {
		p.deferrer = d
	}
}

// WithSleep sets how the pipeline waits out a debounce window.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) {
		p.sleep = sleep
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
