// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import (
	"path"
	"strings"
)

// Excluder matches repository paths against exclude patterns.
//
// A pattern matches a path when it equals it, glob-matches it, is a
// directory prefix of it, or (for patterns without a slash) glob-matches
// its base name.
type Excluder struct {
	patterns []string
}

// NewExcluder creates an excluder. Empty patterns are ignored.
func NewExcluder(patterns []string) *Excluder {
	var ps []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			ps = append(ps, p)
		}
	}
	return &Excluder{patterns: ps}
}

// Excluded reports whether p should be left out.
func (e *Excluder) Excluded(p string) bool {
	if e == nil {
		return false
	}
	for _, pattern := range e.patterns {
		if p == pattern {
			return true
		}
		if matched, err := path.Match(pattern, p); err == nil && matched {
			return true
		}
		if strings.HasPrefix(p, strings.TrimSuffix(pattern, "/")+"/") {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
				return true
			}
		}
	}
	return false
}
