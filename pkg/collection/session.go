package collection

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// Session configures how a collection behaves. A nil capability disables it:
// no management, every dependency selected and traversed, every version kept.
type Session struct {
	Manager       DependencyManager
	Selector      DependencySelector
	Traverser     DependencyTraverser
	VersionFilter VersionFilter

	// Verbose records premanaged values on managed nodes
	Verbose bool

	CyclePolicy CyclePolicy
}

// Context describes the node whose children are about to be processed. It is
// handed to the Derive* methods of every capability.
type Context struct {
	Session *Session

	// Artifact is the node's artifact; zero for a multi-root request's root
	Artifact artifact.Artifact

	// Dependency is nil for the root of rootless and multi-root requests
	Dependency *artifact.Dependency

	// ManagedDependencies are the managed dependencies declared by the node's
	// descriptor (merged with the request's at the root)
	ManagedDependencies []artifact.Dependency

	// Management is what the parent's manager applied to Dependency, if anything
	Management *Management
}
