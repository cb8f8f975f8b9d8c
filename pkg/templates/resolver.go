// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gitclaude/gitclaude/pkg/config"
)

const templateExt = ".md"

//go:embed builtin/*.md
var builtinFS embed.FS

// BuiltinNames are the templates shipped with gitclaude.
var BuiltinNames = []string{"changelog", "context", "review", "summary", "validate"}

// Resolver finds template source by name.
type Resolver interface {
	// Resolve returns the template source. ok is false when the resolver
	// has no template of that name.
	Resolve(name string) (source string, ok bool, err error)
	// Names lists the templates the resolver can serve.
	Names() ([]string, error)
	// Origin describes where templates come from, for display.
	Origin() string
}

// DirResolver serves <dir>/<name>.md.
type DirResolver struct {
	dir string
}

// NewDirResolver creates a resolver for dir. A leading ~ is expanded.
func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{dir: config.ExpandPath(dir)}
}

func (r *DirResolver) Origin() string {
	return r.dir
}

func (r *DirResolver) Resolve(name string) (string, bool, error) {
	if !validName(name) {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(r.dir, name+templateExt))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read template %s: %w", name, err)
	}
	return string(data), true, nil
}

func (r *DirResolver) Names() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read template directory %s: %w", r.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != templateExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), templateExt))
	}
	sort.Strings(names)
	return names, nil
}

// BuiltinResolver serves the embedded templates.
type BuiltinResolver struct{}

func (BuiltinResolver) Origin() string {
	return "builtin"
}

func (BuiltinResolver) Resolve(name string) (string, bool, error) {
	if !validName(name) {
		return "", false, nil
	}
	data, err := fs.ReadFile(builtinFS, "builtin/"+name+templateExt)
	if err != nil {
		return "", false, nil
	}
	return string(data), true, nil
}

func (BuiltinResolver) Names() ([]string, error) {
	return append([]string(nil), BuiltinNames...), nil
}

// validName rejects names that could escape the template directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
