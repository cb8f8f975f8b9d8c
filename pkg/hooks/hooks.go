// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package hooks installs and removes the git hook scripts that call
// `gitclaude run`.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Marker identifies scripts written by gitclaude.
const Marker = "# managed by gitclaude"

// backupSuffix is appended to a foreign hook moved aside during install.
const backupSuffix = ".pre-gitclaude"

// SupportedEvents are the git hooks gitclaude can attach to.
var SupportedEvents = []string{
	"post-commit",
	"pre-commit",
	"pre-push",
	"post-merge",
	"post-checkout",
}

// IsSupported reports whether event is a hook gitclaude can install.
func IsSupported(event string) bool {
	return slices.Contains(SupportedEvents, event)
}

// Script returns the hook script for event.
func Script(event string) string {
	return fmt.Sprintf(`#!/bin/sh
%s
command -v gitclaude >/dev/null 2>&1 || exit 0
exec gitclaude run %s --hook "$@"
`, Marker, event)
}

// Manager installs hooks into one hooks directory.
type Manager struct {
	dir string
}

// NewManager returns a manager for <repoRoot>/.git/hooks.
func NewManager(repoRoot string) *Manager {
	return &Manager{dir: filepath.Join(repoRoot, ".git", "hooks")}
}

// NewManagerForDir returns a manager for an explicit hooks directory.
func NewManagerForDir(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the hooks directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Install writes hook scripts for events. A hook that gitclaude did not
// write is kept as <event>.pre-gitclaude.
func (m *Manager) Install(events []string) error {
	if err := validate(events); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.HookError("failed to create hooks directory", err).WithContext("dir", m.dir)
	}

	for _, event := range events {
		path := filepath.Join(m.dir, event)

		owned, exists, err := m.owned(path)
		if err != nil {
			return err
		}
		if exists && !owned {
			if err := os.Rename(path, path+backupSuffix); err != nil {
				return errors.HookError("failed to back up existing hook", err).WithContext("event", event)
			}
		}

		if err := os.WriteFile(path, []byte(Script(event)), 0o755); err != nil {
			return errors.HookError("failed to write hook", err).WithContext("event", event)
		}
		// WriteFile keeps the mode of an existing file
		if err := os.Chmod(path, 0o755); err != nil {
			return errors.HookError("failed to make hook executable", err).WithContext("event", event)
		}
	}
	return nil
}

// Remove deletes gitclaude hooks for events and restores any hook that was
// moved aside. Hooks gitclaude did not write are left alone.
func (m *Manager) Remove(events []string) error {
	if err := validate(events); err != nil {
		return err
	}

	for _, event := range events {
		path := filepath.Join(m.dir, event)

		owned, exists, err := m.owned(path)
		if err != nil {
			return err
		}
		if !exists || !owned {
			continue
		}
		if err := os.Remove(path); err != nil {
			return errors.HookError("failed to remove hook", err).WithContext("event", event)
		}
		if _, err := os.Stat(path + backupSuffix); err == nil {
			if err := os.Rename(path+backupSuffix, path); err != nil {
				return errors.HookError("failed to restore previous hook", err).WithContext("event", event)
			}
		}
	}
	return nil
}

// Installed returns the supported events that currently have a gitclaude
// hook, in SupportedEvents order.
func (m *Manager) Installed() ([]string, error) {
	installed := []string{}
	for _, event := range SupportedEvents {
		owned, _, err := m.owned(filepath.Join(m.dir, event))
		if err != nil {
			return nil, err
		}
		if owned {
			installed = append(installed, event)
		}
	}
	return installed, nil
}

func (m *Manager) owned(path string) (owned, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, errors.HookError("failed to read hook", err).WithContext("path", path)
	}
	return strings.Contains(string(data), Marker), true, nil
}

func validate(events []string) error {
	for _, event := range events {
		if !IsSupported(event) {
			return errors.ValidationError(
				fmt.Sprintf("unsupported hook event %q (supported: %s)", event, strings.Join(SupportedEvents, ", ")), nil)
		}
	}
	return nil
}
