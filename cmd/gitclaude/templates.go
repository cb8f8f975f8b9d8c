// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/templates"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage prompt templates",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.renderer()
			if err != nil {
				return err
			}
			names, err := r.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available templates")
			for _, name := range names {
				t, err := r.Resolve(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-12s %s\n", name, t.Origin)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'gitclaude templates show <name>' to see a template.")
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.renderer()
			if err != nil {
				return err
			}
			t, err := r.Resolve(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s (%s)\n\n", t.Name, t.Origin)
			fmt.Fprintln(out, strings.TrimRight(t.Source, "\n"))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

// renderer loads config, from the repository when there is one, and
// builds the template renderer.
func (a *app) renderer() (*templates.Renderer, error) {
	root, err := a.repoRoot()
	if err != nil {
		root = a.repoPath
	}
	cfg, err := a.loadConfig(root)
	if err != nil {
		return nil, err
	}
	return templates.NewRenderer(cfg.Templates), nil
}
