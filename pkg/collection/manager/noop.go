package manager

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

// Noop never manages anything
type Noop struct{}

func (Noop) ManageDependency(artifact.Dependency) *collection.Management { return nil }

func (n Noop) DeriveChildManager(*collection.Context) collection.DependencyManager { return n }

// ByName returns the built-in manager called name: classic, transitive,
// default or none.
func ByName(name string) (collection.DependencyManager, bool) {
	switch name {
	case "classic", "":
		return NewClassic(), true
	case "transitive":
		return NewTransitive(), true
	case "default":
		return NewDefault(), true
	case "none", "noop":
		return Noop{}, true
	default:
		return nil, false
	}
}
