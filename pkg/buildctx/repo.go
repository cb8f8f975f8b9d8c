// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

const (
	shortHashLen = 7
	dateFormat   = "2006-01-02 15:04:05"
	dayFormat    = "2006-01-02"
	unknownName  = "Unknown"
)

// Repository wraps an opened git repository.
type Repository struct {
	repo *git.Repository
	root string
}

// OpenRepository opens the repository containing path.
func OpenRepository(path string) (*Repository, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.RepositoryError(fmt.Sprintf("failed to open repository at %s", path), err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, errors.RepositoryError("repository has no worktree", err)
	}

	return &Repository{repo: r, root: wt.Filesystem.Root()}, nil
}

// NewRepository wraps an already opened repository rooted at root.
func NewRepository(r *git.Repository, root string) *Repository {
	return &Repository{repo: r, root: root}
}

// Root returns the worktree root directory.
func (r *Repository) Root() string {
	return r.root
}

// Git exposes the underlying go-git repository.
func (r *Repository) Git() *git.Repository {
	return r.repo
}

// Head returns the HEAD reference and the commit it points at.
func (r *Repository) Head() (*plumbing.Reference, *object.Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, nil, errors.RepositoryError("failed to resolve HEAD", err)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, nil, errors.RepositoryError(fmt.Sprintf("failed to read commit %s", ref.Hash()), err)
	}

	return ref, commit, nil
}

// HeadEventID returns the event id for event fired at HEAD.
func (r *Repository) HeadEventID(event string) (string, error) {
	_, commit, err := r.Head()
	if err != nil {
		return "", err
	}
	return EventID(event, ShortHash(commit.Hash)), nil
}

// ResolveCommit resolves a revision such as a short hash.
func (r *Repository) ResolveCommit(rev string) (*object.Commit, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.RepositoryError(fmt.Sprintf("failed to resolve %s", rev), err)
	}
	commit, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, errors.RepositoryError(fmt.Sprintf("failed to read commit %s", h), err)
	}
	return commit, nil
}

// Paths lists every file path in the tree, sorted.
func (r *Repository) Paths(tree *object.Tree) ([]string, error) {
	var paths []string
	err := tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, errors.RepositoryError("failed to list tree", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ShortHash returns the abbreviated commit id.
func ShortHash(h plumbing.Hash) string {
	return h.String()[:shortHashLen]
}

// branchName returns the short branch name, or HEAD when detached.
func branchName(ref *plumbing.Reference) string {
	if ref.Name().IsBranch() {
		return ref.Name().Short()
	}
	return "HEAD"
}

func authorName(c *object.Commit) string {
	if c.Author.Name == "" {
		return unknownName
	}
	return c.Author.Name
}

// firstParentTree returns the tree of c's first parent, or nil for a root
// commit. A nil tree diffs as the empty tree.
func firstParentTree(c *object.Commit) (*object.Tree, error) {
	if c.NumParents() == 0 {
		return nil, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, errors.RepositoryError(fmt.Sprintf("failed to read parent of %s", ShortHash(c.Hash)), err)
	}
	tree, err := parent.Tree()
	if err != nil {
		return nil, errors.DiffError(fmt.Sprintf("failed to read tree of %s", ShortHash(parent.Hash)), err)
	}
	return tree, nil
}

// recentCommits walks first parents starting one behind head.
func recentCommits(head *object.Commit, n int) ([]CommitInfo, error) {
	var out []CommitInfo
	c := head
	for len(out) < n && c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, errors.RepositoryError(fmt.Sprintf("failed to read parent of %s", ShortHash(c.Hash)), err)
		}
		out = append(out, CommitInfo{
			Hash:    ShortHash(parent.Hash),
			Message: firstLine(parent.Message),
			Author:  authorName(parent),
			Date:    parent.Committer.When.UTC().Format(dayFormat),
		})
		c = parent
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimRight(line, "\r")
}
