// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
)

// TimestampFormat is the time suffix of saved response names.
const TimestampFormat = "20060102_150405"

// FileWriter saves responses as `<event>_<hash>[_<timestamp>].<ext>`.
type FileWriter struct {
	dir       string
	format    Format
	timestamp bool
	now       func() time.Time
}

// NewFileWriter creates a writer rooted at the configured directory. A
// relative directory is resolved against repoRoot.
func NewFileWriter(repoRoot string, cfg config.OutputConfig) *FileWriter {
	dir := config.ExpandPath(cfg.Directory)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repoRoot, dir)
	}
	return &FileWriter{
		dir:       dir,
		format:    ParseFormat(cfg.Format),
		timestamp: cfg.Timestamp,
		now:       time.Now,
	}
}

// Dir returns the responses directory.
func (w *FileWriter) Dir() string {
	return w.dir
}

// FileName returns the name rec is saved under.
func (w *FileWriter) FileName(rec *Record) string {
	name := rec.Event + "_" + rec.Commit
	if w.timestamp {
		name += "_" + rec.Timestamp.Format(TimestampFormat)
	}
	return name + "." + w.format.Extension()
}

// Save writes rec and returns its path. A zero timestamp is set to now.
func (w *FileWriter) Save(rec *Record) (string, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.now()
	}
	data, err := Encode(rec, w.format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.OutputError("failed to create responses directory", err).WithContext("dir", w.dir)
	}

	path := filepath.Join(w.dir, w.FileName(rec))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.OutputError("failed to write response", err).WithContext("path", path)
	}
	return path, nil
}

// Create opens a fresh response file for a detached run to stream into.
func (w *FileWriter) Create(rec *Record) (*os.File, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.now()
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, errors.OutputError("failed to create responses directory", err).WithContext("dir", w.dir)
	}
	// streamed output is raw text whatever the configured format
	name := strings.TrimSuffix(w.FileName(rec), "."+w.format.Extension()) + "." + FormatMarkdown.Extension()
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return nil, errors.OutputError("failed to create response file", err)
	}
	return f, nil
}

// Entry describes a saved response.
type Entry struct {
	Path    string
	Event   string
	Commit  string
	Format  Format
	ModTime time.Time
}

// Read loads the saved response.
func (e Entry) Read() (*Record, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, errors.OutputError("failed to read response", err).WithContext("path", e.Path)
	}
	rec, err := Decode(data, e.Format)
	if err != nil {
		return nil, err
	}
	if rec.Event == "" {
		rec.Event = e.Event
	}
	if rec.Commit == "" {
		rec.Commit = e.Commit
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = e.ModTime
	}
	return rec, nil
}

// List returns saved responses newest first. An empty event matches all
// events; limit <= 0 returns everything.
func (w *FileWriter) List(event string, limit int) ([]Entry, error) {
	dirEntries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, errors.OutputError("failed to list responses", err).WithContext("dir", w.dir)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		entry, ok := parseEntry(de.Name())
		if !ok || (event != "" && entry.Event != event) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entry.Path = filepath.Join(w.dir, de.Name())
		entry.ModTime = info.ModTime()
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return filepath.Base(entries[i].Path) > filepath.Base(entries[j].Path)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// parseEntry splits `<event>_<hash>[_<date>_<time>].<ext>`.
func parseEntry(name string) (Entry, bool) {
	ext := filepath.Ext(name)
	format, err := formatForExtension(strings.TrimPrefix(ext, "."))
	if err != nil {
		return Entry{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, ext), "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Entry{}, false
	}
	return Entry{Event: parts[0], Commit: parts[1], Format: format}, true
}

// String formats the entry for a log listing.
func (e Entry) String() string {
	return fmt.Sprintf("%s  %-14s %s", e.ModTime.Format("2006-01-02 15:04"), e.Event, e.Commit)
}
