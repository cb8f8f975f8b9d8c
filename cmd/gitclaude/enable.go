// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/hooks"
)

// projectIgnore keeps runtime files out of version control.
const projectIgnore = `.state.json
.state.lock
responses/
`

func newEnableCmd(a *app) *cobra.Command {
	var events []string

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Install gitclaude hooks in this repository",
		Long: `Install git hooks for the enabled events, or for --events.

A project config is created in .gitclaude/ when there is none yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.repoRoot()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(root)
			if err != nil {
				return err
			}

			selected := events
			if len(selected) == 0 {
				for _, ev := range cfg.EnabledEvents() {
					if hooks.IsSupported(ev) {
						selected = append(selected, ev)
					}
				}
			}
			if len(selected) == 0 {
				return errors.ValidationError("no events to enable; pass --events", nil)
			}

			if err := hooks.NewManager(root).Install(selected); err != nil {
				return err
			}

			created, err := initProject(root, selected)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "gitclaude enabled in this repository")
			fmt.Fprintf(out, "  Events: %s\n", strings.Join(selected, ", "))
			if created {
				fmt.Fprintf(out, "  Config: %s\n", config.GetProjectConfigPath(root))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&events, "events", "e", nil, "Events to enable (comma separated)")
	return cmd
}

// initProject writes a project config enabling exactly events, unless one
// already exists.
func initProject(root string, events []string) (bool, error) {
	path := config.GetProjectConfigPath(root)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := config.DefaultConfig()
	for name, ev := range cfg.Events {
		ev.Enabled = false
		cfg.Events[name] = ev
	}
	for _, name := range events {
		ev, ok := cfg.Events[name]
		if !ok {
			continue
		}
		ev.Enabled = true
		cfg.Events[name] = ev
	}

	if err := config.Save(cfg, path); err != nil {
		return false, errors.ConfigError("failed to write project config", err)
	}
	ignore := filepath.Join(root, config.ProjectConfigDir, ".gitignore")
	if err := os.WriteFile(ignore, []byte(projectIgnore), 0o644); err != nil {
		return false, errors.ConfigError("failed to write .gitignore", err)
	}
	return true, nil
}

func newDisableCmd(a *app) *cobra.Command {
	var keepConfig bool

	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Remove gitclaude hooks from this repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.repoRoot()
			if err != nil {
				return err
			}

			if err := hooks.NewManager(root).Remove(hooks.SupportedEvents); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "gitclaude disabled in this repository")

			if keepConfig {
				fmt.Fprintln(out, "  Configuration preserved")
				return nil
			}
			if err := os.RemoveAll(filepath.Join(root, config.ProjectConfigDir)); err != nil {
				return errors.ConfigError("failed to remove project directory", err)
			}
			fmt.Fprintln(out, "  Configuration removed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&keepConfig, "keep-config", "k", false, "Keep .gitclaude/ (config, state and responses)")
	return cmd
}
