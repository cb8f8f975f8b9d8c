// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gitclaude/gitclaude/pkg/buildctx"
	"github.com/gitclaude/gitclaude/pkg/claude"
	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
	"github.com/gitclaude/gitclaude/pkg/output"
	"github.com/gitclaude/gitclaude/pkg/ratelimit"
	"github.com/gitclaude/gitclaude/pkg/templates"
)

// Pipeline processes hook events for one repository.
type Pipeline struct {
	cfg       *config.Config
	repo      *buildctx.Repository
	limiter   *ratelimit.Limiter
	assembler *buildctx.Assembler
	renderer  *templates.Renderer
	assistant Assistant
	deferrer  Deferrer
	writer    *output.FileWriter
	console   *output.Console

	store  ratelimit.Store
	clock  ratelimit.Clock
	stdout io.Writer
	sleep  func(ctx context.Context, d time.Duration) error
	logger observability.Logger
}

// NewPipeline wires the pipeline for repo from cfg.
func NewPipeline(cfg *config.Config, repo *buildctx.Repository, logger observability.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	p := &Pipeline{
		cfg:    cfg,
		repo:   repo,
		clock:  ratelimit.SystemClock{},
		stdout: os.Stdout,
		sleep:  sleepContext,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}

	strategy, err := ratelimit.ParseStrategy(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	if p.store == nil {
		p.store = ratelimit.NewFileStore(repo.Root())
	}
	if p.assistant == nil {
		p.assistant = claude.NewInvoker(cfg.Claude, claude.WithLogger(logger))
	}
	if p.deferrer == nil {
		p.deferrer = ProcessDeferrer{RepoRoot: repo.Root()}
	}

	p.limiter = ratelimit.New(p.store, strategy,
		ratelimit.WithClock(p.clock),
		ratelimit.WithLogger(logger),
	)
	p.assembler = buildctx.NewAssembler(repo, cfg, buildctx.WithLogger(logger))
	p.renderer = templates.NewRenderer(cfg.Templates)
	p.writer = output.NewFileWriter(repo.Root(), cfg.Output)
	p.console = output.NewConsole(p.stdout)

	return p, nil
}

// Limiter returns the pipeline's rate limiter.
func (p *Pipeline) Limiter() *ratelimit.Limiter {
	return p.limiter
}

// Writer returns the response file writer.
func (p *Pipeline) Writer() *output.FileWriter {
	return p.writer
}

// Run processes one event. Rate limited events are not errors: the
// returned Result says what happened.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Event: req.Event}
	log := p.logger.With(
		observability.String("run_id", res.RunID),
		observability.String("event", req.Event),
	)
	defer func() { res.Duration = time.Since(start) }()

	ev, ok := p.cfg.Event(req.Event)
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("no configuration for event %q", req.Event), nil).
			WithContext("event", req.Event)
	}
	res.Template = ev.Template

	if !ev.Enabled && !req.Force {
		log.Debug("event disabled")
		res.Status = StatusDisabled
		return res, nil
	}

	level, err := buildctx.ParseLevel(p.cfg.EventLevel(req.Event))
	if err != nil {
		return nil, err
	}

	eventID, err := p.repo.HeadEventID(req.Event)
	if err != nil {
		return nil, err
	}
	res.EventID = eventID

	decision, err := p.admit(ctx, eventID, req)
	if err != nil {
		return nil, err
	}
	res.Decision = decision

	if decision.Kind == ratelimit.KindDebounce && req.DeferDebounce && !req.DryRun {
		if err := p.deferrer.Defer(req.Event, decision.Remaining); err != nil {
			return nil, err
		}
		res.Status = StatusDeferred
		log.Info("event deferred until debounce window passes",
			observability.Duration("remaining", decision.Remaining))
		return res, nil
	}

	if !decision.ShouldRun() && !req.DryRun {
		res.Status = statusFor(decision)
		log.Info("event rate limited", observability.String("decision", decision.String()))
		return res, nil
	}

	bctx, err := p.assembler.Build(ctx, buildctx.BuildOptions{
		Level:  level,
		Event:  req.Event,
		Batch:  decision.Batch,
		Staged: req.Event == "pre-commit",
	})
	if err != nil {
		return nil, err
	}
	res.Commit = bctx.CommitHash

	prompt, err := p.renderer.Render(ev.Template, bctx)
	if err != nil {
		return nil, err
	}
	res.Prompt = prompt

	if req.DryRun {
		res.Status = StatusDryRun
		return res, nil
	}

	// the run counts from here; a failed build or render leaves the
	// batch pending
	if err := p.limiter.Record(ctx, decision.Batch); err != nil {
		return nil, err
	}

	if p.cfg.General.Async && !ev.Blocking && !req.Sync {
		if err := p.spawn(res, ev.Output, log); err != nil {
			return nil, err
		}
		res.Status = StatusSpawned
		log.Info("assistant started in background")
		return res, nil
	}

	resp, err := p.assistant.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}
	res.Response = resp
	res.Status = StatusRan

	rec := &output.Record{
		RunID:    res.RunID,
		Event:    req.Event,
		Commit:   res.Commit,
		Success:  resp.Success(),
		Response: resp.Content,
	}
	if err := p.deliver(rec, ev.Output, res, log); err != nil {
		return nil, err
	}

	log.Info("assistant finished",
		observability.Bool("success", resp.Success()),
		observability.Duration("duration", resp.Duration),
	)
	return res, nil
}

// admit asks the limiter, optionally waiting out one debounce window.
// Batched events are enqueued unless this is a dry run.
func (p *Pipeline) admit(ctx context.Context, eventID string, req Request) (ratelimit.Decision, error) {
	enqueue := !req.DryRun

	decision, err := p.limiter.Admit(ctx, eventID, enqueue)
	if err != nil {
		return decision, err
	}
	if decision.Kind != ratelimit.KindDebounce || !req.WaitOnDebounce || req.DryRun {
		return decision, nil
	}

	p.logger.Debug("waiting out debounce window",
		observability.String("event_id", eventID),
		observability.Duration("remaining", decision.Remaining),
	)
	if err := p.sleep(ctx, decision.Remaining); err != nil {
		return decision, errors.TimeoutError("interrupted while waiting for debounce", err)
	}
	return p.limiter.Admit(ctx, eventID, enqueue)
}

// spawn starts the assistant detached. With a file output its stdout
// streams into a fresh response file.
func (p *Pipeline) spawn(res *Result, outputs []string, log observability.Logger) error {
	var out *os.File
	if slices.Contains(outputs, "file") {
		f, err := p.writer.Create(&output.Record{RunID: res.RunID, Event: res.Event, Commit: res.Commit})
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
		res.Files = append(res.Files, f.Name())
	}
	for _, target := range outputs {
		if target != "file" {
			log.Warn("output target not available for background runs", observability.String("output", target))
		}
	}
	return p.assistant.Spawn(res.Prompt, out)
}

// deliver sends a finished response to each configured output.
func (p *Pipeline) deliver(rec *output.Record, outputs []string, res *Result, log observability.Logger) error {
	for _, target := range outputs {
		switch target {
		case "stdout":
			if err := p.console.Report(rec); err != nil {
				return err
			}
		case "file":
			path, err := p.writer.Save(rec)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, path)
			log.Debug("response saved", observability.String("path", path))
		default:
			log.Warn("output target not supported", observability.String("output", target))
		}
	}
	return nil
}

func statusFor(d ratelimit.Decision) Status {
	switch d.Kind {
	case ratelimit.KindDebounce:
		return StatusDebounced
	case ratelimit.KindBatch:
		return StatusBatched
	default:
		return StatusSkipped
	}
}
