// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/buildctx"
	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
	"github.com/gitclaude/gitclaude/pkg/ratelimit"
	"github.com/gitclaude/gitclaude/pkg/runner"
)

// runFlags holds the flags for the run command
type runFlags struct {
	dryRun bool
	wait   bool
	hook   bool
	sync   bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runFlags

	cmd := &cobra.Command{
		Use:   "run <event> [hook args...]",
		Short: "Trigger an event",
		Long: `Run the pipeline for a hook event against HEAD.

Git hooks call this with --hook, which skips disabled events and never
fails the git operation unless the configuration itself is broken. A
debounced hook event is handed to a background run that waits out the
window.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runEvent(cmd, a, opts, args[0], args[1:])
			if err == nil {
				return nil
			}
			code := runner.ExitCode(err, opts.hook)
			if code == runner.ExitSuccess {
				fmt.Fprintf(a.stderr, "gitclaude: %v\n", err)
				return nil
			}
			return &exitError{code: code, err: err}
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Print the prompt without running claude")
	cmd.Flags().BoolVarP(&opts.wait, "wait", "w", false, "Wait out a debounce window instead of dropping the event")
	cmd.Flags().BoolVar(&opts.hook, "hook", false, "Invoked from a git hook")
	cmd.Flags().BoolVar(&opts.sync, "sync", false, "Wait for claude even in async mode")
	_ = cmd.Flags().MarkHidden("hook")

	return cmd
}

func runEvent(cmd *cobra.Command, a *app, opts runFlags, event string, hookArgs []string) error {
	// post-checkout passes 0 as its third argument for file checkouts
	if opts.hook && event == "post-checkout" && len(hookArgs) >= 3 && hookArgs[2] == "0" {
		return nil
	}

	root, err := a.repoRoot()
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig(root)
	if err != nil {
		return err
	}
	log := a.logger(cfg)

	repo, err := buildctx.OpenRepository(root)
	if err != nil {
		return err
	}

	deferrer, err := a.deferrerFor(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pipeOpts := []runner.Option{runner.WithStdout(out), runner.WithDeferrer(deferrer)}
	if a.assistant != nil {
		pipeOpts = append(pipeOpts, runner.WithAssistant(a.assistant))
	}
	p, err := runner.NewPipeline(cfg, repo, log, pipeOpts...)
	if err != nil {
		return err
	}

	res, err := p.Run(cmd.Context(), runner.Request{
		Event:          event,
		DryRun:         opts.dryRun,
		WaitOnDebounce: opts.wait,
		Force:          !opts.hook,
		Sync:           opts.sync,
		DeferDebounce:  opts.hook && !opts.wait,
	})
	if err != nil {
		return err
	}

	log.Debug("run finished",
		observability.String("run_id", res.RunID),
		observability.String("status", string(res.Status)),
		observability.Duration("duration", res.Duration),
	)

	if opts.hook {
		return nil
	}
	printResult(out, res, cfg.EventLevel(event), p.Limiter().Strategy())
	return nil
}

// deferrerFor returns the test seam when set, otherwise a detached re-run of
// this binary against root.
func (a *app) deferrerFor(root string) (runner.Deferrer, error) {
	if a.deferrer != nil {
		return a.deferrer, nil
	}
	d := runner.ProcessDeferrer{RepoRoot: root}
	if a.configPath != "" {
		abs, err := filepath.Abs(a.configPath)
		if err != nil {
			return nil, errors.ConfigError("resolve config path", err)
		}
		d.ConfigPath = abs
	}
	return d, nil
}

func printResult(w io.Writer, res *runner.Result, level string, strategy ratelimit.Strategy) {
	switch res.Status {
	case runner.StatusDryRun:
		fmt.Fprintln(w, "─── DRY RUN ───")
		fmt.Fprintf(w, "Event:         %s\n", res.EventID)
		fmt.Fprintf(w, "Template:      %s\n", res.Template)
		fmt.Fprintf(w, "Context level: %s\n", level)
		fmt.Fprintf(w, "Rate limit:    %s -> %s\n", ratelimit.Describe(strategy), res.Decision)
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimRight(res.Prompt, "\n"))
	case runner.StatusDisabled:
		fmt.Fprintf(w, "Event %s is disabled.\n", res.Event)
	case runner.StatusDeferred:
		fmt.Fprintf(w, "Deferred %s: %s\n", res.EventID, res.Decision)
	case runner.StatusSkipped, runner.StatusDebounced, runner.StatusBatched:
		fmt.Fprintf(w, "Not running %s: %s\n", res.EventID, res.Decision)
	case runner.StatusSpawned:
		fmt.Fprintf(w, "Claude started in the background for %s.\n", res.EventID)
		for _, f := range res.Files {
			fmt.Fprintf(w, "Response: %s\n", f)
		}
	case runner.StatusRan:
		for _, f := range res.Files {
			fmt.Fprintf(w, "Response saved to %s\n", f)
		}
		if res.Response != nil && !res.Response.Success() {
			fmt.Fprintf(w, "claude exited with code %d\n", res.Response.ExitCode)
		}
	}
}
