// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package runner

import (
	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Process exit codes.
const (
	ExitSuccess = 0   // Run completed, or was rate limited
	ExitFailure = 1   // Repository, template, assistant or output error
	ExitConfig  = 2   // Invalid configuration or arguments
	ExitTimeout = 101 // Assistant timed out
)

// ExitCode maps a run error onto a process exit code. In hook mode only
// errors that should abort the git operation produce a non-zero code.
func ExitCode(err error, hook bool) int {
	if err == nil {
		return ExitSuccess
	}
	if hook && !errors.ShouldAbortHook(err) {
		return ExitSuccess
	}
	switch {
	case errors.IsType(err, errors.ErrConfig), errors.IsType(err, errors.ErrValidation):
		return ExitConfig
	case errors.IsType(err, errors.ErrTimeout):
		return ExitTimeout
	default:
		return ExitFailure
	}
}
