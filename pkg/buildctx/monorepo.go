// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pelletier/go-toml/v2"
)

// MonorepoType is the detected repository layout.
type MonorepoType int

const (
	MonorepoNone MonorepoType = iota
	MonorepoPnpm
	MonorepoLerna
	MonorepoNpm
	MonorepoYarn
	MonorepoCargoWorkspace
	MonorepoGoWorkspace
	MonorepoGeneric
)

func (t MonorepoType) String() string {
	switch t {
	case MonorepoPnpm:
		return "pnpm"
	case MonorepoLerna:
		return "lerna"
	case MonorepoNpm:
		return "npm"
	case MonorepoYarn:
		return "yarn"
	case MonorepoCargoWorkspace:
		return "cargo-workspace"
	case MonorepoGoWorkspace:
		return "go-workspace"
	case MonorepoGeneric:
		return "generic"
	default:
		return "none"
	}
}

// DefaultPackageDirs are the directory names whose children are packages.
var DefaultPackageDirs = []string{"packages", "apps", "libs", "crates", "services"}

// manifestFiles mark a directory as a package root.
var manifestFiles = []string{"package.json", "Cargo.toml", "go.mod"}

const manifestCacheSize = 512

// MonorepoDetector classifies repository layouts and maps changed files to
// package names.
type MonorepoDetector struct {
	packageDirs []string
	manifests   *lru.Cache[string, bool]
}

// NewMonorepoDetector creates a detector. A nil packageDirs uses
// DefaultPackageDirs.
func NewMonorepoDetector(packageDirs []string) *MonorepoDetector {
	if packageDirs == nil {
		packageDirs = DefaultPackageDirs
	}
	cache, _ := lru.New[string, bool](manifestCacheSize)
	return &MonorepoDetector{
		packageDirs: packageDirs,
		manifests:   cache,
	}
}

// DetectType classifies the layout of the repository at root. The first
// matching rule wins.
func (m *MonorepoDetector) DetectType(root string) MonorepoType {
	if fileExists(filepath.Join(root, "pnpm-workspace.yaml")) {
		return MonorepoPnpm
	}
	if fileExists(filepath.Join(root, "lerna.json")) {
		return MonorepoLerna
	}
	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil && hasWorkspaces(data) {
		if fileExists(filepath.Join(root, "yarn.lock")) {
			return MonorepoYarn
		}
		return MonorepoNpm
	}
	if data, err := os.ReadFile(filepath.Join(root, "Cargo.toml")); err == nil && hasCargoWorkspace(data) {
		return MonorepoCargoWorkspace
	}
	if fileExists(filepath.Join(root, "go.work")) {
		return MonorepoGoWorkspace
	}
	for _, dir := range m.packageDirs {
		if info, err := os.Stat(filepath.Join(root, dir)); err == nil && info.IsDir() {
			return MonorepoGeneric
		}
	}
	return MonorepoNone
}

// AffectedPackages returns the sorted, de-duplicated package names owning
// files. It is empty when the repository is not a monorepo.
func (m *MonorepoDetector) AffectedPackages(root string, files []string) []string {
	if m.DetectType(root) == MonorepoNone {
		return []string{}
	}

	seen := make(map[string]struct{})
	packages := []string{}
	for _, f := range files {
		name, ok := m.packageFor(root, f)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		packages = append(packages, name)
	}
	sort.Strings(packages)
	return packages
}

// packageFor attributes a repository-relative path to a package. A path
// component naming a package dir makes the component after it the package.
// Otherwise the nearest ancestor directory below root holding a manifest
// names it.
func (m *MonorepoDetector) packageFor(root, file string) (string, bool) {
	parts := strings.Split(path.Clean(file), "/")
	for i := 0; i < len(parts)-1; i++ {
		if m.isPackageDir(parts[i]) {
			return parts[i+1], true
		}
	}

	for dir := path.Dir(file); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if m.hasManifest(filepath.Join(root, filepath.FromSlash(dir))) {
			return path.Base(dir), true
		}
	}
	return "", false
}

func (m *MonorepoDetector) isPackageDir(name string) bool {
	for _, d := range m.packageDirs {
		if d == name {
			return true
		}
	}
	return false
}

func (m *MonorepoDetector) hasManifest(dir string) bool {
	if found, ok := m.manifests.Get(dir); ok {
		return found
	}
	found := false
	for _, name := range manifestFiles {
		if fileExists(filepath.Join(dir, name)) {
			found = true
			break
		}
	}
	m.manifests.Add(dir, found)
	return found
}

// hasWorkspaces reports whether package.json declares workspaces.
func hasWorkspaces(data []byte) bool {
	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return bytes.Contains(data, []byte(`"workspaces"`))
	}
	_, ok := pkg["workspaces"]
	return ok
}

// hasCargoWorkspace reports whether Cargo.toml has a [workspace] table.
func hasCargoWorkspace(data []byte) bool {
	var manifest map[string]any
	if err := toml.Unmarshal(data, &manifest); err == nil {
		_, ok := manifest["workspace"]
		return ok
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "[workspace]" {
			return true
		}
	}
	return false
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
