// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// StagedDiff is the difference between HEAD and the index.
type StagedDiff struct {
	Text  string
	Count int
	Files []string
}

// Staged diffs the index against head, the HEAD tree (nil before the first
// commit). Text is truncated to maxLines like Extract.
func (d *DiffExtractor) Staged(repo *git.Repository, head *object.Tree, maxLines int) (*StagedDiff, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.DiffError("failed to open worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.DiffError("failed to read worktree status", err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, errors.DiffError("failed to read index", err)
	}

	var paths []string
	for p, st := range status {
		if st.Staging != git.Unmodified && st.Staging != git.Untracked {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	lb := newLineBuffer(maxLines)
	for _, p := range paths {
		if d.excluder.Excluded(p) {
			continue
		}

		old, err := treeContent(head, p)
		if err != nil {
			return nil, err
		}
		staged, err := indexContent(repo, idx, p)
		if err != nil {
			return nil, err
		}
		if isBinary(old) || isBinary(staged) {
			continue
		}

		lb.addAll(trimContext(textLines(old, staged), d.contextLines))
	}

	return &StagedDiff{Text: lb.String(), Count: len(paths), Files: paths}, nil
}

// textLines diffs two file contents line by line.
func textLines(src, dst string) []diffLine {
	var lines []diffLine
	for _, df := range diff.Do(src, dst) {
		var op byte
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffDelete:
			op = '-'
		default:
			op = ' '
		}
		for _, text := range splitLines(df.Text) {
			lines = append(lines, diffLine{op: op, text: text})
		}
	}
	return lines
}

func treeContent(tree *object.Tree, p string) (string, error) {
	if tree == nil {
		return "", nil
	}
	f, err := tree.File(p)
	if err == object.ErrFileNotFound {
		return "", nil
	}
	if err != nil {
		return "", errors.DiffError(fmt.Sprintf("failed to read %s from HEAD", p), err)
	}
	content, err := f.Contents()
	if err != nil {
		return "", errors.DiffError(fmt.Sprintf("failed to read %s from HEAD", p), err)
	}
	return content, nil
}

func indexContent(repo *git.Repository, idx *index.Index, p string) (string, error) {
	entry, err := idx.Entry(p)
	if err == index.ErrEntryNotFound {
		return "", nil
	}
	if err != nil {
		return "", errors.DiffError(fmt.Sprintf("failed to read index entry %s", p), err)
	}

	blob, err := repo.BlobObject(entry.Hash)
	if err != nil {
		return "", errors.DiffError(fmt.Sprintf("failed to read staged blob for %s", p), err)
	}
	r, err := blob.Reader()
	if err != nil {
		return "", errors.DiffError(fmt.Sprintf("failed to read staged blob for %s", p), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.DiffError(fmt.Sprintf("failed to read staged blob for %s", p), err)
	}
	return string(data), nil
}

func isBinary(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}
