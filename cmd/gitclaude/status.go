// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/buildctx"
	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/hooks"
	"github.com/gitclaude/gitclaude/pkg/ratelimit"
)

func newStatusCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show hooks, configuration and rate limit state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.repoRoot()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(root)
			if err != nil {
				return err
			}

			strategy, err := ratelimit.ParseStrategy(cfg.RateLimit)
			if err != nil {
				return err
			}
			limiter := ratelimit.New(ratelimit.NewFileStore(root), strategy, ratelimit.WithLogger(a.logger(cfg)))

			out := cmd.OutOrStdout()
			if reset {
				if err := limiter.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Rate limit state cleared.")
				return nil
			}

			installed, err := hooks.NewManager(root).Installed()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "gitclaude status")
			fmt.Fprintln(out, strings.Repeat("─", 40))
			fmt.Fprintf(out, "Repository:     %s\n", root)
			fmt.Fprintf(out, "Hooks:          %s\n", listOrNone(installed))
			fmt.Fprintf(out, "Active events:  %s\n", listOrNone(cfg.EnabledEvents()))
			fmt.Fprintf(out, "Rate limiting:  %s\n", ratelimit.Describe(strategy))
			fmt.Fprintf(out, "Context level:  %s\n", cfg.Context.Level)
			fmt.Fprintf(out, "Mode:           %s\n", mode(cfg))

			eventID := ""
			if repo, err := buildctx.OpenRepository(root); err == nil {
				if id, err := repo.HeadEventID("post-commit"); err == nil {
					eventID = id
				}
			}
			decision, state := limiter.Peek(cmd.Context(), eventID)
			printState(out, state, decision, eventID != "")

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Config files")
			printConfigPath(out, "Global", a.globalConfigPath())
			printConfigPath(out, "Project", config.GetProjectConfigPath(root))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the rate limit state")
	return cmd
}

func printState(w io.Writer, st ratelimit.State, next ratelimit.Decision, haveHead bool) {
	now := time.Now()
	last := "never"
	if st.LastRun != nil {
		last = fmt.Sprintf("%s (%s ago)", st.LastRun.Local().Format("2006-01-02 15:04:05"), now.Sub(*st.LastRun).Round(time.Second))
	}
	fmt.Fprintf(w, "Last run:       %s\n", last)
	fmt.Fprintf(w, "Runs this hour: %d\n", st.RunsInLastHour(now))
	if len(st.PendingBatch) > 0 {
		fmt.Fprintf(w, "Pending batch:  %s\n", strings.Join(st.PendingBatch, ", "))
	}
	if haveHead {
		fmt.Fprintf(w, "Next event:     %s\n", next)
	}
}

func printConfigPath(w io.Writer, label, path string) {
	mark := "missing"
	if _, err := os.Stat(path); err == nil {
		mark = "found"
	}
	fmt.Fprintf(w, "  %-8s %s (%s)\n", label+":", path, mark)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func mode(cfg *config.Config) string {
	if cfg.General.Async {
		return "async"
	}
	return "sync"
}
