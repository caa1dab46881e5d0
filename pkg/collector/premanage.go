package collector

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/graph"
)

// premanaged is a dependency after management, plus what management changed
type premanaged struct {
	dep        artifact.Dependency
	management *collection.Management
	bits       graph.ManagedBits
	snapshot   *graph.Premanaged
}

func premanage(dep artifact.Dependency, manager collection.DependencyManager, verbose bool) premanaged {
	if manager == nil {
		return premanaged{dep: dep}
	}
	mgmt := manager.ManageDependency(dep)
	managed, bits, snapshot := mgmt.Apply(dep)
	if !verbose {
		snapshot = nil
	}
	return premanaged{dep: managed, management: mgmt, bits: bits, snapshot: snapshot}
}

// decorate copies the management outcome onto a node
func (p premanaged) decorate(n *graph.Node) {
	n.Managed = p.bits
	if p.snapshot != nil {
		n.SetPremanaged(p.snapshot)
	}
}
