// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/claude"
	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the gitclaude build and the claude CLI it will run.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gitclaude version: %s\n", info.Version)
			fmt.Fprintf(out, "  git commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "  build date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "  platform:   %s\n", info.Platform)
			fmt.Fprintf(out, "  claude:     %s\n", a.claudeBinary())
		},
	}
}

// claudeBinary describes the assistant binary the current configuration
// resolves to. Outside a repository the defaults apply.
func (a *app) claudeBinary() string {
	cfg := config.DefaultConfig()
	if root, err := a.repoRoot(); err == nil {
		if loaded, err := a.loadConfig(root); err == nil {
			cfg = loaded
		}
	}
	bin, err := claude.NewInvoker(cfg.Claude).Binary()
	if err != nil {
		return "not found"
	}
	return bin
}
