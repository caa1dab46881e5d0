package graph

import (
	"strings"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// ManagedBits records which dependency fields were overridden by dependency
// management.
type ManagedBits uint8

const (
	ManagedVersion ManagedBits = 1 << iota
	ManagedScope
	ManagedOptional
	ManagedProperties
	ManagedExclusions
)

// Has reports whether every bit in b is set
func (m ManagedBits) Has(b ManagedBits) bool {
	return m&b == b
}

func (m ManagedBits) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		bit  ManagedBits
		name string
	}{
		{ManagedVersion, "version"},
		{ManagedScope, "scope"},
		{ManagedOptional, "optional"},
		{ManagedProperties, "properties"},
		{ManagedExclusions, "exclusions"},
	} {
		if m.Has(f.bit) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, ",")
}

// Premanaged holds the values a dependency carried before management
// overrode them. Only populated in verbose mode.
type Premanaged struct {
	Version    string
	Scope      string
	Optional   bool
	Properties map[string]string
	Exclusions []artifact.Exclusion
}

// Node is a vertex of the collected dependency tree.
//
// Dependency is nil for the root of a rootless request (where Artifact
// describes the root) and for the synthetic root of a multi-root request
// (where both are empty). Children may be shared with other nodes when a
// subtree was reused from the collection pool; treat them as read-only.
type Node struct {
	Dependency *artifact.Dependency
	Children   []*Node

	// Managed is the set of fields overridden by dependency management
	Managed ManagedBits

	// VersionConstraint is the declared version before range resolution
	VersionConstraint string

	// Repositories are the repositories the node's version was resolved against
	Repositories []repository.Remote

	RequestContext string

	artifact   artifact.Artifact
	premanaged *Premanaged
}

// NewNode creates a node for a dependency
func NewNode(dep artifact.Dependency) *Node {
	return &Node{Dependency: &dep, VersionConstraint: dep.Artifact.Version()}
}

// NewArtifactNode creates a dependency-less node describing a bare artifact
func NewArtifactNode(a artifact.Artifact) *Node {
	return &Node{artifact: a, VersionConstraint: a.Version()}
}

// Artifact returns the dependency artifact, or the bare artifact of a
// rootless node.
func (n *Node) Artifact() artifact.Artifact {
	if n.Dependency != nil {
		return n.Dependency.Artifact
	}
	return n.artifact
}

// Synthetic reports whether the node is the artificial root of a multi-root request
func (n *Node) Synthetic() bool {
	return n.Dependency == nil && n.artifact.IsZero()
}

// SetPremanaged attaches pre-management values
func (n *Node) SetPremanaged(p *Premanaged) {
	n.premanaged = p
}

// PremanagedVersion returns the version before management. ok is false when
// the version was not managed or premanaged values were not recorded.
func (n *Node) PremanagedVersion() (string, bool) {
	if n.premanaged == nil || !n.Managed.Has(ManagedVersion) {
		return "", false
	}
	return n.premanaged.Version, true
}

// PremanagedScope returns the scope before management
func (n *Node) PremanagedScope() (string, bool) {
	if n.premanaged == nil || !n.Managed.Has(ManagedScope) {
		return "", false
	}
	return n.premanaged.Scope, true
}

// PremanagedOptional returns the optional flag before management
func (n *Node) PremanagedOptional() (bool, bool) {
	if n.premanaged == nil || !n.Managed.Has(ManagedOptional) {
		return false, false
	}
	return n.premanaged.Optional, true
}

// PremanagedProperties returns the artifact properties before management
func (n *Node) PremanagedProperties() (map[string]string, bool) {
	if n.premanaged == nil || !n.Managed.Has(ManagedProperties) {
		return nil, false
	}
	return n.premanaged.Properties, true
}

// PremanagedExclusions returns the exclusions before management
func (n *Node) PremanagedExclusions() ([]artifact.Exclusion, bool) {
	if n.premanaged == nil || !n.Managed.Has(ManagedExclusions) {
		return nil, false
	}
	return n.premanaged.Exclusions, true
}

func (n *Node) String() string {
	switch {
	case n.Dependency != nil:
		return n.Dependency.String()
	case n.Synthetic():
		return "(root)"
	default:
		return n.artifact.String()
	}
}

// Equal compares two trees structurally: dependencies, rootless artifacts
// and children, recursively and in order.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if (n.Dependency == nil) != (other.Dependency == nil) {
		return false
	}
	if n.Dependency != nil && !n.Dependency.Equal(*other.Dependency) {
		return false
	}
	if n.Dependency == nil && !n.artifact.Equal(other.artifact) {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Cycle describes a repeated identity found while descending.
type Cycle struct {
	// Preceding is the path before the first occurrence of the repeated identity
	Preceding []artifact.Dependency
	// Cyclic runs from the first occurrence down to and including the repeat
	Cyclic []artifact.Dependency
}

func (c Cycle) String() string {
	parts := make([]string, 0, len(c.Cyclic))
	for _, d := range c.Cyclic {
		parts = append(parts, d.Artifact.String())
	}
	return strings.Join(parts, " -> ")
}
