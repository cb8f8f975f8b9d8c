// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package runner

import (
	"os"
	"os/exec"
	"time"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Deferrer hands a debounced event to a process that retries it once the
// window has passed, so the caller can return at once.
type Deferrer interface {
	Defer(event string, delay time.Duration) error
}

// ProcessDeferrer re-runs gitclaude detached as `run <event> --wait`.
type ProcessDeferrer struct {
	// Executable defaults to the running binary.
	Executable string
	RepoRoot   string
	// ConfigPath is passed through as --config when set.
	ConfigPath string
}

// Args returns the command line for the deferred run.
func (d ProcessDeferrer) Args(event string) []string {
	args := []string{"-C", d.RepoRoot}
	if d.ConfigPath != "" {
		args = append(args, "--config", d.ConfigPath)
	}
	return append(args, "run", event, "--wait")
}

// Defer starts the deferred run and does not wait for it. The child sleeps
// out the remaining window itself, so delay is informational.
func (d ProcessDeferrer) Defer(event string, _ time.Duration) error {
	exe := d.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return errors.HookError("locate gitclaude executable", err)
		}
		exe = self
	}

	cmd := exec.Command(exe, d.Args(event)...)
	cmd.Dir = d.RepoRoot
	if err := cmd.Start(); err != nil {
		return errors.HookError("start deferred run", err)
	}
	return cmd.Process.Release()
}
