// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ratelimit

import (
	"slices"
	"time"
)

// State is the persisted rate limit state of one repository.
type State struct {
	LastRun      *time.Time `json:"last_run"`
	RunsThisHour int        `json:"runs_this_hour"`
	PendingBatch []string   `json:"pending_batch"`
	// RecentRuns holds run timestamps inside the trailing hour.
	RecentRuns []time.Time `json:"recent_runs,omitempty"`
	// BatchOpenedAt is when the oldest pending event was enqueued.
	BatchOpenedAt *time.Time `json:"batch_opened_at,omitempty"`
}

// NewState returns the empty state.
func NewState() State {
	return State{PendingBatch: []string{}}
}

// RunsInLastHour counts runs within the trailing hour of now.
//
// States written before RecentRuns existed only carry RunsThisHour, which is
// trusted while LastRun is itself inside the hour.
func (s State) RunsInLastHour(now time.Time) int {
	if len(s.RecentRuns) == 0 {
		if s.LastRun != nil && since(*s.LastRun, now) < time.Hour {
			return s.RunsThisHour
		}
		return 0
	}

	n := 0
	for _, t := range s.RecentRuns {
		if since(t, now) < time.Hour {
			n++
		}
	}
	return n
}

// RecordRun returns state updated for a run at now. The pending batch is
// cleared since a run always consumes it.
//
// A live legacy count is carried forward as runs at LastRun, so those runs
// age out of the hour together as RunsInLastHour already assumes.
func RecordRun(s State, now time.Time) State {
	recent := make([]time.Time, 0, len(s.RecentRuns)+1)
	if len(s.RecentRuns) == 0 {
		for i := 0; i < s.RunsInLastHour(now); i++ {
			recent = append(recent, *s.LastRun)
		}
	}
	for _, t := range s.RecentRuns {
		if since(t, now) < time.Hour {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)

	at := now
	return State{
		LastRun:      &at,
		RunsThisHour: len(recent),
		PendingBatch: []string{},
		RecentRuns:   recent,
	}
}

// Enqueue returns state with event added to the pending batch. Duplicate ids
// are ignored. The first enqueue opens the batch window.
func Enqueue(s State, event string, now time.Time) State {
	out := s
	out.PendingBatch = withEvent(s.PendingBatch, event)
	out.RecentRuns = slices.Clone(s.RecentRuns)
	if out.BatchOpenedAt == nil {
		at := now
		out.BatchOpenedAt = &at
	}
	return out
}

// normalized fills nil slices so the JSON form is stable.
func (s State) normalized() State {
	if s.PendingBatch == nil {
		s.PendingBatch = []string{}
	}
	return s
}
