// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package buildctx assembles repository context for a hook event: commit
// identity, diffs, affected files and packages, and recent history.
package buildctx

import (
	"fmt"
	"strings"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Level controls how much context is gathered.
type Level int

const (
	LevelMinimal Level = iota
	LevelStandard
	LevelExtended
	LevelFull
)

var levelNames = [...]string{"minimal", "standard", "extended", "full"}

func (l Level) String() string {
	if l < LevelMinimal || l > LevelFull {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses minimal, standard, extended or full.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelMinimal, errors.ConfigError(fmt.Sprintf("unknown context level %q", s), nil).
		WithContext("level", s)
}

// Context is everything a template can see about the triggering commit.
// It is built once and not modified afterwards.
type Context struct {
	CommitHash       string
	CommitMessage    string
	Author           string
	Date             string
	Branch           string
	Diff             string
	DiffStat         string
	StagedDiff       *string
	StagedCount      *int
	AffectedFiles    []string
	AffectedPackages []string
	RecentCommits    []CommitInfo

	Event         string
	BatchedEvents []string
	FileTree      string
	MonorepoType  MonorepoType
}

// CommitInfo summarises one commit of recent history.
type CommitInfo struct {
	Hash    string
	Message string
	Author  string
	Date    string
}

// BuildOptions selects what Build gathers.
type BuildOptions struct {
	Level Level
	Event string
	// Batch lists event ids flushed together with this run.
	Batch []string
	// Staged adds the index-versus-HEAD diff, for pre-commit.
	Staged bool
}

// EventID identifies a hook firing, e.g. "post-commit:1a2b3c4".
func EventID(event, shortHash string) string {
	return event + ":" + shortHash
}

// SplitEventID is the inverse of EventID.
func SplitEventID(id string) (event, shortHash string, ok bool) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}
