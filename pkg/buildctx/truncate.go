// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import "strings"

// TruncationMarker ends a diff that lost lines to the line limit.
const TruncationMarker = "... [truncated] ..."

// diffLine is one content line of a unified diff.
type diffLine struct {
	op   byte // '+', '-' or ' '
	text string
}

// lineBuffer collects diff lines up to a limit. A limit of zero or less
// means unlimited.
type lineBuffer struct {
	b       strings.Builder
	limit   int
	n       int
	dropped bool
}

func newLineBuffer(limit int) *lineBuffer {
	return &lineBuffer{limit: limit}
}

func (lb *lineBuffer) add(l diffLine) {
	if lb.limit > 0 && lb.n >= lb.limit {
		lb.dropped = true
		return
	}
	lb.b.WriteByte(l.op)
	lb.b.WriteString(l.text)
	lb.b.WriteByte('\n')
	lb.n++
}

func (lb *lineBuffer) addAll(lines []diffLine) {
	for _, l := range lines {
		lb.add(l)
	}
}

// String returns the collected text, with the marker appended when at least
// one line was dropped.
func (lb *lineBuffer) String() string {
	if !lb.dropped {
		return lb.b.String()
	}
	return lb.b.String() + TruncationMarker + "\n"
}

// trimContext keeps changed lines and at most n unchanged lines around each.
func trimContext(lines []diffLine, n int) []diffLine {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.op == ' ' {
			continue
		}
		for j := max(0, i-n); j <= min(len(lines)-1, i+n); j++ {
			keep[j] = true
		}
	}

	out := make([]diffLine, 0, len(lines))
	for i, l := range lines {
		if keep[i] {
			out = append(out, l)
		}
	}
	return out
}

// splitLines splits chunk content into lines without their newlines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
