// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package templates resolves prompt templates and renders them against a
// repository context.
package templates

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/gitclaude/gitclaude/pkg/buildctx"
	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Template is resolved template source.
type Template struct {
	Name   string
	Source string
	Origin string
}

// Renderer resolves templates through an ordered resolver chain and
// renders them.
type Renderer struct {
	resolvers []Resolver
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithResolvers replaces the resolver chain.
func WithResolvers(resolvers ...Resolver) RendererOption {
	return func(r *Renderer) {
		r.resolvers = resolvers
	}
}

// NewRenderer creates a renderer that looks in the configured directory
// first and then, if enabled, in the built-in set.
func NewRenderer(cfg config.TemplatesConfig, opts ...RendererOption) *Renderer {
	var resolvers []Resolver
	if cfg.Directory != "" {
		resolvers = append(resolvers, NewDirResolver(cfg.Directory))
	}
	if cfg.FallbackBuiltin {
		resolvers = append(resolvers, BuiltinResolver{})
	}

	r := &Renderer{resolvers: resolvers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first template named name in the chain.
func (r *Renderer) Resolve(name string) (*Template, error) {
	for _, res := range r.resolvers {
		src, ok, err := res.Resolve(name)
		if err != nil {
			return nil, errors.TemplateRenderError(fmt.Sprintf("failed to load template %q", name), err)
		}
		if ok {
			return &Template{Name: name, Source: src, Origin: res.Origin()}, nil
		}
	}
	return nil, errors.TemplateNotFoundError(name)
}

// Render resolves name and executes it against c.
func (r *Renderer) Render(name string, c *buildctx.Context) (string, error) {
	tmpl, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return Execute(tmpl.Name, tmpl.Source, Data(c))
}

// List returns every template name available, de-duplicated and sorted.
func (r *Renderer) List() ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, res := range r.resolvers {
		ns, err := res.Names()
		if err != nil {
			return nil, errors.TemplateRenderError("failed to list templates", err)
		}
		for _, n := range ns {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

// Execute parses and runs a template. Referencing a key that is not in
// data is an error.
func Execute(name, source string, data map[string]any) (string, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(source)
	if err != nil {
		return "", errors.TemplateRenderError(fmt.Sprintf("failed to parse template %q", name), err)
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", errors.TemplateRenderError(fmt.Sprintf("failed to execute template %q", name), err)
	}
	return b.String(), nil
}

// Data flattens c into the variables templates see.
func Data(c *buildctx.Context) map[string]any {
	recent := make([]map[string]any, 0, len(c.RecentCommits))
	for _, rc := range c.RecentCommits {
		recent = append(recent, map[string]any{
			"hash":    rc.Hash,
			"message": rc.Message,
			"author":  rc.Author,
			"date":    rc.Date,
		})
	}

	var stagedDiff, stagedCount any
	if c.StagedDiff != nil {
		stagedDiff = *c.StagedDiff
	}
	if c.StagedCount != nil {
		stagedCount = *c.StagedCount
	}

	return map[string]any{
		"commit_hash":       c.CommitHash,
		"commit_message":    c.CommitMessage,
		"author":            c.Author,
		"date":              c.Date,
		"branch":            c.Branch,
		"diff":              c.Diff,
		"diff_stat":         c.DiffStat,
		"staged_diff":       stagedDiff,
		"staged_count":      stagedCount,
		"affected_files":    nonNil(c.AffectedFiles),
		"affected_packages": nonNil(c.AffectedPackages),
		"recent_commits":    recent,
		"event":             c.Event,
		"batched_events":    nonNil(c.BatchedEvents),
		"file_tree":         c.FileTree,
		"monorepo_type":     c.MonorepoType.String(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
