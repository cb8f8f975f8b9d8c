// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package claude runs the claude CLI on a rendered prompt.
package claude

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "claude"

const maxPromptBytes = 1 << 20

// maxArgBytes is the largest prompt passed as an argument. Linux rejects a
// single argument of MAX_ARG_STRLEN (128 KiB) or more, terminator included.
const maxArgBytes = 128<<10 - 1

// Response is the result of a blocking run.
type Response struct {
	Content  string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the CLI exited cleanly.
func (r *Response) Success() bool {
	return r.ExitCode == 0
}

// Invoker starts the claude CLI as `<binary> --print <prompt> <extra args>`.
// Prompts too long for one argument are written to stdin instead.
type Invoker struct {
	binary    string
	extraArgs []string
	timeout   time.Duration
	logger    observability.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger.
func WithLogger(log observability.Logger) Option {
	return func(i *Invoker) {
		i.logger = log
	}
}

// NewInvoker creates an invoker from the claude config section.
func NewInvoker(cfg config.ClaudeConfig, opts ...Option) *Invoker {
	i := &Invoker{
		binary:    cfg.Binary,
		extraArgs: cfg.ExtraArgs,
		timeout:   cfg.Timeout,
		logger:    observability.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Binary returns the executable to run: the configured one, or claude
// from PATH.
func (i *Invoker) Binary() (string, error) {
	if i.binary != "" {
		return config.ExpandPath(i.binary), nil
	}
	path, err := exec.LookPath(DefaultBinary)
	if err != nil {
		return "", errors.AssistantError("claude command not found. Please install the Claude Code CLI", err)
	}
	return path, nil
}

// Available reports whether the assistant binary can be found.
func (i *Invoker) Available() bool {
	bin, err := i.Binary()
	if err != nil {
		return false
	}
	_, err = exec.LookPath(bin)
	return err == nil
}

// Args returns the command line arguments for prompt. The prompt is left
// out when it goes to stdin.
func (i *Invoker) Args(prompt string) []string {
	args := []string{"--print"}
	if !promptOnStdin(prompt) {
		args = append(args, prompt)
	}
	return append(args, i.extraArgs...)
}

func promptOnStdin(prompt string) bool {
	return len(prompt) > maxArgBytes
}

// Run executes the CLI and waits for it, bounded by the configured timeout.
// A non-zero exit is reported in the Response, not as an error.
func (i *Invoker) Run(ctx context.Context, prompt string) (*Response, error) {
	if err := validatePrompt(prompt); err != nil {
		return nil, errors.AssistantError("invalid prompt", err)
	}
	bin, err := i.Binary()
	if err != nil {
		return nil, err
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, i.Args(prompt)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if promptOnStdin(prompt) {
		cmd.Stdin = strings.NewReader(prompt)
	}

	start := time.Now()
	err = cmd.Run()
	resp := &Response{
		Content:  stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.TimeoutError(fmt.Sprintf("claude timed out after %s", i.timeout), ctx.Err())
	}
	if ctx.Err() != nil {
		return nil, errors.AssistantError("claude run cancelled", ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case stderrors.As(err, &exitErr):
		resp.ExitCode = exitErr.ExitCode()
		i.logger.Warn("claude returned non-zero",
			observability.Int("exit_code", resp.ExitCode),
			observability.String("stderr", strings.TrimSpace(resp.Stderr)),
		)
	default:
		return nil, errors.AssistantError("failed to run claude", err)
	}

	return resp, nil
}

// Spawn starts the CLI without waiting for it. Its stdout goes to out, or
// is discarded when out is nil. The child keeps running after we exit.
func (i *Invoker) Spawn(prompt string, out *os.File) error {
	if err := validatePrompt(prompt); err != nil {
		return errors.AssistantError("invalid prompt", err)
	}
	bin, err := i.Binary()
	if err != nil {
		return err
	}

	cmd := exec.Command(bin, i.Args(prompt)...)
	if out != nil {
		cmd.Stdout = out
	}
	if promptOnStdin(prompt) {
		// the child outlives us, so stdin must be a file rather than a pipe
		in, err := promptFile(prompt)
		if err != nil {
			return errors.AssistantError("failed to stage prompt", err)
		}
		defer func() {
			in.Close()
			os.Remove(in.Name())
		}()
		cmd.Stdin = in
	}

	if err := cmd.Start(); err != nil {
		return errors.AssistantError("failed to spawn claude", err)
	}
	i.logger.Debug("spawned claude", observability.Int("pid", cmd.Process.Pid))

	return cmd.Process.Release()
}

// promptFile writes prompt to a temporary file positioned at its start.
func promptFile(prompt string) (*os.File, error) {
	f, err := os.CreateTemp("", "gitclaude-prompt-*")
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteString(prompt); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// validatePrompt catches prompts the CLI cannot take.
func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if strings.Contains(prompt, "\x00") {
		return fmt.Errorf("prompt contains null bytes")
	}
	if len(prompt) > maxPromptBytes {
		return fmt.Errorf("prompt too large: %d bytes (max 1MB)", len(prompt))
	}
	return nil
}
