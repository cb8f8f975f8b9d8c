// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/gitclaude/gitclaude/pkg/config"
)

const (
	// StateFile is the state file name inside the project config dir.
	StateFile = ".state.json"
	// LockFile guards StateFile across processes.
	LockFile = ".state.lock"

	lockRetryDelay = 25 * time.Millisecond
)

// Store persists State and serialises access to it.
type Store interface {
	// Load returns the saved state. found is false when nothing was saved.
	Load(ctx context.Context) (state State, found bool, err error)
	Save(ctx context.Context, state State) error
	Delete(ctx context.Context) error
	// Lock blocks until the caller holds exclusive access or ctx is done.
	Lock(ctx context.Context) (unlock func() error, err error)
}

// FileStore keeps state as JSON in <repo>/.gitclaude/.state.json, guarded
// by an flock on .state.lock.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at the repository's config dir.
func NewFileStore(repoRoot string) *FileStore {
	return &FileStore{dir: filepath.Join(repoRoot, config.ProjectConfigDir)}
}

// Path returns the state file path.
func (f *FileStore) Path() string {
	return filepath.Join(f.dir, StateFile)
}

func (f *FileStore) Load(ctx context.Context) (State, bool, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), false, nil
		}
		return NewState(), false, fmt.Errorf("read state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return NewState(), false, fmt.Errorf("decode state %s: %w", f.Path(), err)
	}
	return st.normalized(), true, nil
}

// Save writes through a temp file and rename so readers never see a
// partial file.
func (f *FileStore) Save(ctx context.Context, st State) error {
	data, err := json.MarshalIndent(st.normalized(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, StateFile+".*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path()); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context) error {
	if err := os.Remove(f.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}

func (f *FileStore) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	fl := flock.New(filepath.Join(f.dir, LockFile))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock state: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock state: %w", ctx.Err())
	}
	return fl.Unlock, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
	raw   []byte
	sem   chan struct{}
}

// NewMemoryStore returns an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sem: make(chan struct{}, 1)}
}

// SetRaw stores undecoded bytes, as if a state file held them.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	m.raw = data
}

func (m *MemoryStore) Load(ctx context.Context) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.raw != nil {
		var st State
		if err := json.Unmarshal(m.raw, &st); err != nil {
			return NewState(), false, fmt.Errorf("decode state: %w", err)
		}
		return st.normalized(), true, nil
	}
	if m.state == nil {
		return NewState(), false, nil
	}
	return *m.state, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st = st.normalized()
	m.state = &st
	m.raw = nil
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	m.raw = nil
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context) (func() error, error) {
	select {
	case m.sem <- struct{}{}:
		return func() error {
			<-m.sem
			return nil
		}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lock state: %w", ctx.Err())
	}
}
