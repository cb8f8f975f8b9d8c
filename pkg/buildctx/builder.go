// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import (
	"context"
	"slices"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
)

// Assembler builds a Context from a repository.
type Assembler struct {
	repo          *Repository
	diff          *DiffExtractor
	monorepo      *MonorepoDetector
	truncateAt    int
	recentCommits int
	treeDepth     int
	logger        observability.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLogger sets the logger.
func WithLogger(log observability.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = log
	}
}

// NewAssembler creates an assembler using the context and monorepo
// sections of cfg.
func NewAssembler(repo *Repository, cfg *config.Config, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		repo:          repo,
		diff:          NewDiffExtractor(cfg.Context.ContextLines, cfg.Context.Exclude),
		truncateAt:    cfg.Context.TruncateAt,
		recentCommits: cfg.Context.RecentCommits,
		treeDepth:     cfg.Context.TreeDepth,
		logger:        observability.Nop(),
	}
	if cfg.Monorepo.Enabled {
		a.monorepo = NewMonorepoDetector(cfg.Monorepo.PackageDirs)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build gathers context for HEAD at the requested level.
func (a *Assembler) Build(ctx context.Context, opts BuildOptions) (*Context, error) {
	ref, head, err := a.repo.Head()
	if err != nil {
		return nil, err
	}

	c := &Context{
		CommitHash:       ShortHash(head.Hash),
		CommitMessage:    head.Message,
		Author:           authorName(head),
		Date:             head.Committer.When.UTC().Format(dateFormat),
		Branch:           branchName(ref),
		AffectedFiles:    []string{},
		AffectedPackages: []string{},
		RecentCommits:    []CommitInfo{},
		Event:            opts.Event,
		BatchedEvents:    slices.Clone(opts.Batch),
	}

	if opts.Level == LevelMinimal {
		return c, nil
	}

	headTree, err := head.Tree()
	if err != nil {
		return nil, errors.DiffError("failed to read HEAD tree", err)
	}
	baseTree, err := a.baseTree(head, opts.Batch)
	if err != nil {
		return nil, err
	}

	res, err := a.diff.Extract(ctx, baseTree, headTree, a.truncateAt)
	if err != nil {
		return nil, err
	}
	c.Diff = res.Text
	c.DiffStat = res.Stat
	c.AffectedFiles = res.Files

	if opts.Staged {
		staged, err := a.diff.Staged(a.repo.Git(), headTree, a.truncateAt)
		if err != nil {
			return nil, err
		}
		c.StagedDiff = &staged.Text
		c.StagedCount = &staged.Count
	}

	if opts.Level < LevelExtended {
		return c, nil
	}

	if a.monorepo != nil {
		c.MonorepoType = a.monorepo.DetectType(a.repo.Root())
		c.AffectedPackages = a.monorepo.AffectedPackages(a.repo.Root(), c.AffectedFiles)
	}

	recent, err := recentCommits(head, a.recentCommits)
	if err != nil {
		return nil, err
	}
	if recent != nil {
		c.RecentCommits = recent
	}

	if opts.Level < LevelFull {
		return c, nil
	}

	paths, err := a.repo.Paths(headTree)
	if err != nil {
		return nil, err
	}
	c.FileTree = RenderTree(paths, a.treeDepth)

	return c, nil
}

// baseTree picks the tree HEAD is diffed against: the first parent of the
// oldest batched commit that still resolves, else HEAD's first parent.
func (a *Assembler) baseTree(head *object.Commit, batch []string) (*object.Tree, error) {
	for _, id := range batch {
		_, short, ok := SplitEventID(id)
		if !ok {
			continue
		}
		commit, err := a.repo.ResolveCommit(short)
		if err != nil {
			a.logger.Debug("batched commit not resolvable", observability.String("event_id", id))
			continue
		}
		return firstParentTree(commit)
	}
	return firstParentTree(head)
}
