// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Console prints responses to a terminal stream.
type Console struct {
	w io.Writer
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Report prints rec under a one-line header.
func (c *Console) Report(rec *Record) error {
	status := "ok"
	if !rec.Success {
		status = "failed"
	}
	body := strings.TrimRight(rec.Response, "\n")
	_, err := fmt.Fprintf(c.w, "gitclaude %s %s (%s)\n%s\n%s\n",
		rec.Event, rec.Commit, status, strings.Repeat("─", 40), body)
	if err != nil {
		return errors.OutputError("failed to write response", err)
	}
	return nil
}
