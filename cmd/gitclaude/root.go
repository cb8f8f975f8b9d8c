// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
	"github.com/gitclaude/gitclaude/pkg/runner"
	"github.com/gitclaude/gitclaude/pkg/version"
)

// app holds global flags and the seams tests replace.
type app struct {
	repoPath   string
	configPath string
	verbose    bool

	homeDir   string
	assistant runner.Assistant
	deferrer  runner.Deferrer
	stderr    io.Writer
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	return executeWith(&app{stderr: stderr}, args, stdout, stderr)
}

func executeWith(a *app, args []string, stdout, stderr io.Writer) int {
	a.stderr = stderr
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return runner.ExitSuccess
	}

	fmt.Fprintln(stderr, "Error:", err)
	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	return runner.ExitCode(err, false)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gitclaude",
		Short: "Run Claude on git hook events",
		Long: `gitclaude connects git hooks to the Claude CLI.

On each enabled hook event it gathers commit context, renders a prompt
template and hands it to claude, with rate limiting so bursts of commits
do not start a run each.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.repoPath, "repo", "C", ".", "Repository to operate on")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Extra config file applied last")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newRunCmd(a),
		newTemplatesCmd(a),
		newStatusCmd(a),
		newEnableCmd(a),
		newDisableCmd(a),
		newConfigCmd(a),
		newLogsCmd(a),
		newVersionCmd(a),
	)
	return root
}

// repoRoot finds the repository containing --repo.
func (a *app) repoRoot() (string, error) {
	root, err := config.FindRepoRoot(a.repoPath)
	if err != nil {
		return "", errors.RepositoryError("not inside a git repository", err)
	}
	return root, nil
}

// loadConfig loads the layered config for root.
func (a *app) loadConfig(root string) (*config.Config, error) {
	loader := config.NewLoader().WithProjectRoot(root)
	if a.homeDir != "" {
		loader = loader.WithHomeDir(a.homeDir)
	}
	if a.configPath != "" {
		loader = loader.WithFile(a.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		var verr *config.ValidationError
		if stderrors.As(err, &verr) {
			return nil, errors.ValidationError("invalid configuration", err)
		}
		return nil, errors.ConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// logger builds the process logger; --verbose forces debug.
func (a *app) logger(cfg *config.Config) observability.Logger {
	level := cfg.General.LogLevel
	if a.verbose {
		level = "debug"
	}
	return observability.NewLoggerTo(a.stderr, level, cfg.General.LogFormat)
}

// globalConfigPath returns the global config file location.
func (a *app) globalConfigPath() string {
	if a.homeDir != "" {
		return filepath.Join(a.homeDir, config.GlobalConfigDir, config.GlobalConfigFile)
	}
	return config.GetDefaultConfigPath()
}
