// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package output delivers assistant responses to the terminal and to the
// per-repository responses directory.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gitclaude/gitclaude/pkg/errors"
)

// Format is the on-disk encoding of a saved response.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatPlain    Format = "plain"
)

// ParseFormat maps a config value onto a Format. Unknown values fall back
// to markdown.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "plain", "txt", "text":
		return FormatPlain
	default:
		return FormatMarkdown
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatPlain:
		return "txt"
	default:
		return "md"
	}
}

// Record is one assistant response together with what triggered it.
type Record struct {
	RunID     string    `json:"run_id,omitempty"`
	Event     string    `json:"event"`
	Commit    string    `json:"commit"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
}

// Encode renders rec in format f.
func Encode(rec *Record, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, errors.OutputError("failed to encode response", err)
		}
		return append(data, '\n'), nil
	default:
		content := rec.Response
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return []byte(content), nil
	}
}

// Decode extracts the response text from saved file contents.
func Decode(data []byte, f Format) (*Record, error) {
	if f != FormatJSON {
		return &Record{Response: string(data)}, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.OutputError("failed to decode response", err)
	}
	return &rec, nil
}

// Summary returns the first non-empty line of a response, cut to width runes.
func Summary(response string, width int) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		r := []rune(line)
		if width > 3 && len(r) > width {
			return string(r[:width-3]) + "..."
		}
		return line
	}
	return ""
}

func formatForExtension(ext string) (Format, error) {
	switch ext {
	case "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "txt":
		return FormatPlain, nil
	}
	return "", fmt.Errorf("unknown response extension %q", ext)
}
