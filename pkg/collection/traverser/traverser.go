// Package traverser provides the built-in dependency traversers.
package traverser

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

// Static traverses every dependency or none
type Static bool

func (s Static) TraverseDependency(artifact.Dependency) bool { return bool(s) }

func (s Static) DeriveChildTraverser(*collection.Context) collection.DependencyTraverser { return s }

// FatArtifact stops at artifacts that bundle their dependencies, marked by
// the includesDependencies property.
type FatArtifact struct{}

func (FatArtifact) TraverseDependency(dep artifact.Dependency) bool {
	return dep.Artifact.Property(artifact.PropertyIncludesDependencies, "") != "true"
}

func (f FatArtifact) DeriveChildTraverser(*collection.Context) collection.DependencyTraverser {
	return f
}

// ByName returns "fat" (the default) or "all"
func ByName(name string) (collection.DependencyTraverser, bool) {
	switch name {
	case "", "fat":
		return FatArtifact{}, true
	case "all":
		return Static(true), true
	default:
		return nil, false
	}
}
