// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import (
	"context"
	"fmt"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// DefaultContextLines is the unchanged-line context kept around each change.
const DefaultContextLines = 3

// DiffResult is a rendered diff between two trees.
type DiffResult struct {
	// Text holds content lines only, prefixed '+', '-' or ' '.
	Text string
	// Stat summarises the whole diff, excluded files included.
	Stat string
	// Files lists changed paths in diff order.
	Files      []string
	Insertions int
	Deletions  int
}

// DiffExtractor renders tree-to-tree diffs.
type DiffExtractor struct {
	contextLines int
	excluder     *Excluder
}

// NewDiffExtractor creates an extractor. Files matching exclude are dropped
// from diff text only.
func NewDiffExtractor(contextLines int, exclude []string) *DiffExtractor {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	return &DiffExtractor{
		contextLines: contextLines,
		excluder:     NewExcluder(exclude),
	}
}

// Diff returns the diff text truncated to maxLines and the stat line.
// A nil base is the empty tree.
func (d *DiffExtractor) Diff(ctx context.Context, base, head *object.Tree, maxLines int) (text, stat string, err error) {
	res, err := d.Extract(ctx, base, head, maxLines)
	if err != nil {
		return "", "", err
	}
	return res.Text, res.Stat, nil
}

// AffectedFiles lists the paths changed between base and head. Deleted
// files are reported by their old path.
func (d *DiffExtractor) AffectedFiles(ctx context.Context, base, head *object.Tree) ([]string, error) {
	changes, err := object.DiffTreeWithOptions(ctx, base, head, nil)
	if err != nil {
		return nil, errors.DiffError("failed to diff trees", err)
	}

	files := make([]string, 0, len(changes))
	for _, c := range changes {
		files = append(files, changePath(c))
	}
	return files, nil
}

// Extract computes the diff between base and head.
func (d *DiffExtractor) Extract(ctx context.Context, base, head *object.Tree, maxLines int) (*DiffResult, error) {
	changes, err := object.DiffTreeWithOptions(ctx, base, head, nil)
	if err != nil {
		return nil, errors.DiffError("failed to diff trees", err)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, errors.DiffError("failed to compute patch", err)
	}

	res := &DiffResult{Files: make([]string, 0, len(changes))}
	for _, c := range changes {
		res.Files = append(res.Files, changePath(c))
	}

	lb := newLineBuffer(maxLines)
	filePatches := patch.FilePatches()
	for _, fp := range filePatches {
		if fp.IsBinary() {
			continue
		}

		lines := patchLines(fp)
		for _, l := range lines {
			switch l.op {
			case '+':
				res.Insertions++
			case '-':
				res.Deletions++
			}
		}

		if d.excluder.Excluded(filePatchPath(fp)) {
			continue
		}
		lb.addAll(trimContext(lines, d.contextLines))
	}

	res.Text = lb.String()
	res.Stat = formatStat(len(filePatches), res.Insertions, res.Deletions)
	return res, nil
}

func formatStat(files, insertions, deletions int) string {
	return fmt.Sprintf("%d files changed, %d insertions(+), %d deletions(-)", files, insertions, deletions)
}

// patchLines flattens a file patch into prefixed lines.
func patchLines(fp fdiff.FilePatch) []diffLine {
	var lines []diffLine
	for _, chunk := range fp.Chunks() {
		var op byte
		switch chunk.Type() {
		case fdiff.Add:
			op = '+'
		case fdiff.Delete:
			op = '-'
		default:
			op = ' '
		}
		for _, text := range splitLines(chunk.Content()) {
			lines = append(lines, diffLine{op: op, text: text})
		}
	}
	return lines
}

func filePatchPath(fp fdiff.FilePatch) string {
	from, to := fp.Files()
	if to != nil {
		return to.Path()
	}
	if from != nil {
		return from.Path()
	}
	return ""
}

func changePath(c *object.Change) string {
	if c.To.Name != "" {
		return c.To.Name
	}
	return c.From.Name
}
