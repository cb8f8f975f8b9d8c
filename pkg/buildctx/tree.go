// Copyright 2026 Gitclaude Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package buildctx

import "strings"

// RenderTree draws slash-separated paths as a tree rooted at ".". Paths
// deeper than maxDepth are cut; maxDepth <= 0 means no limit.
func RenderTree(paths []string, maxDepth int) string {
	if len(paths) == 0 {
		return ""
	}

	root := &treeNode{name: "."}
	for _, p := range paths {
		if p == "" {
			continue
		}
		current := root
		for i, part := range strings.Split(p, "/") {
			if maxDepth > 0 && i >= maxDepth {
				break
			}
			current = current.child(part)
		}
	}

	return root.String()
}

// treeNode represents a node in the file tree.
type treeNode struct {
	name     string
	children []*treeNode
}

// child returns the named child, creating it if needed.
func (n *treeNode) child(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &treeNode{name: name}
	n.children = append(n.children, c)
	return c
}

func (n *treeNode) String() string {
	var buf strings.Builder
	buf.WriteString(n.name + "\n")
	n.writeChildren(&buf, "")
	return buf.String()
}

func (n *treeNode) writeChildren(buf *strings.Builder, prefix string) {
	for i, c := range n.children {
		connector, indent := "├── ", "│   "
		if i == len(n.children)-1 {
			connector, indent = "└── ", "    "
		}
		buf.WriteString(prefix + connector + c.name + "\n")
		c.writeChildren(buf, prefix+indent)
	}
}
