package graph

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// SkipChildren can be returned from a WalkFunc to skip the node's children
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node in depth-first pre-order. parents holds
// the path from the root down to (excluding) n.
type WalkFunc func(n *Node, parents []*Node) error

// Walk visits the tree depth-first. Shared subtrees are visited once per
// occurrence.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	return walk(root, make([]*Node, 0, 16), fn)
}

func walk(n *Node, parents []*Node, fn WalkFunc) error {
	if err := fn(n, parents); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	parents = append(parents, n)
	for _, c := range n.Children {
		if err := walk(c, parents, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of distinct node instances reachable from root
func Count(root *Node) int {
	seen := make(map[*Node]struct{})
	var visit func(*Node)
	visit = func(n *Node) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		for _, c := range n.Children {
			visit(c)
		}
	}
	if root != nil {
		visit(root)
	}
	return len(seen)
}

// Flatten lists every distinct dependency in the tree, nearest to the root
// first. Dependencies are de-duplicated by full coordinate; no version
// conflict resolution takes place.
func Flatten(root *Node) []artifact.Dependency {
	if root == nil {
		return nil
	}

	var out []artifact.Dependency
	seenKeys := make(map[string]struct{})
	seenNodes := make(map[*Node]struct{})

	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, ok := seenNodes[n]; ok {
			continue
		}
		seenNodes[n] = struct{}{}

		if n.Dependency != nil {
			key := n.Dependency.Artifact.Key()
			if _, ok := seenKeys[key]; !ok {
				seenKeys[key] = struct{}{}
				out = append(out, *n.Dependency)
			}
		}
		queue = append(queue, n.Children...)
	}
	return out
}

// WriteTree renders the tree as indented text, one node per line
func WriteTree(w io.Writer, root *Node) error {
	return Walk(root, func(n *Node, parents []*Node) error {
		line := strings.Repeat("  ", len(parents)) + n.String()
		if n.Managed != 0 {
			line += " [managed: " + n.Managed.String() + "]"
		}
		if n.Dependency != nil && n.VersionConstraint != "" && n.VersionConstraint != n.Dependency.Artifact.Version() {
			line += " (from " + n.VersionConstraint + ")"
		}
		_, err := fmt.Fprintln(w, line)
		return err
	})
}
