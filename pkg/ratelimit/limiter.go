// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ratelimit

import (
	"context"
	"slices"

	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
)

// Limiter runs the locked load, decide and persist cycle over a Store.
type Limiter struct {
	store    Store
	strategy Strategy
	clock    Clock
	logger   observability.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(log observability.Logger) Option {
	return func(l *Limiter) {
		l.logger = log
	}
}

// New creates a limiter.
func New(store Store, strategy Strategy, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		strategy: strategy,
		clock:    SystemClock{},
		logger:   observability.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Strategy returns the active strategy.
func (l *Limiter) Strategy() Strategy {
	return l.strategy
}

// Admit decides whether event may run. When enqueue is set, a Batch
// decision adds the event to the pending batch under the lock. A Run decision
// is never recorded here: the caller records it with Record once the run is
// committed, so a failed build or render leaves the state untouched.
func (l *Limiter) Admit(ctx context.Context, event string, enqueue bool) (Decision, error) {
	if l.strategy == nil {
		return Decision{}, errors.ConfigError("no rate limit strategy configured", nil)
	}

	unlock, err := l.store.Lock(ctx)
	if err != nil {
		return Decision{}, errors.StateError("acquire state lock", err)
	}
	defer l.release(unlock)

	state := l.load(ctx)
	now := l.clock.Now()
	decision := Decide(l.strategy, state, now, event)

	l.logger.Debug("rate limit decision",
		observability.String("event", event),
		observability.String("strategy", Describe(l.strategy)),
		observability.String("decision", decision.String()),
	)

	if !enqueue || decision.Kind != KindBatch {
		return decision, nil
	}
	if err := l.store.Save(ctx, Enqueue(state, event, now)); err != nil {
		return decision, errors.StateError("save rate limit state", err)
	}
	return decision, nil
}

// Record stores a run at the current time. The flushed ids are removed from
// the pending batch; ids enqueued since the decision stay pending and open a
// new window.
func (l *Limiter) Record(ctx context.Context, flushed []string) error {
	unlock, err := l.store.Lock(ctx)
	if err != nil {
		return errors.StateError("acquire state lock", err)
	}
	defer l.release(unlock)

	state := l.load(ctx)
	now := l.clock.Now()
	next := RecordRun(state, now)
	for _, id := range state.PendingBatch {
		if !slices.Contains(flushed, id) {
			next = Enqueue(next, id, now)
		}
	}

	if err := l.store.Save(ctx, next); err != nil {
		return errors.StateError("save rate limit state", err)
	}
	return nil
}

// Peek decides for event without taking the lock or writing anything.
func (l *Limiter) Peek(ctx context.Context, event string) (Decision, State) {
	state := l.load(ctx)
	return Decide(l.strategy, state, l.clock.Now(), event), state
}

// Reset deletes the saved state.
func (l *Limiter) Reset(ctx context.Context) error {
	unlock, err := l.store.Lock(ctx)
	if err != nil {
		return errors.StateError("acquire state lock", err)
	}
	defer l.release(unlock)

	if err := l.store.Delete(ctx); err != nil {
		return errors.StateError("reset rate limit state", err)
	}
	return nil
}

func (l *Limiter) release(unlock func() error) {
	if err := unlock(); err != nil {
		l.logger.Warn("failed to release state lock", observability.Err(err))
	}
}

// load returns the saved state, or the empty state when none is readable.
func (l *Limiter) load(ctx context.Context) State {
	state, found, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Warn("rate limit state unreadable, starting fresh", observability.Err(err))
		return NewState()
	}
	if !found {
		return NewState()
	}
	return state
}
