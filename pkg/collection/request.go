package collection

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// Request describes what to collect. Exactly one of three shapes is used:
//
//   - a root dependency (Root set), optionally with extra direct Dependencies
//   - a rootless request (RootArtifact set) whose direct Dependencies are given
//   - a multi-root request (neither set) collecting every entry of Dependencies
//     under a synthetic root
//
// A Request must not be modified once passed to the collector.
type Request struct {
	Root                *artifact.Dependency
	RootArtifact        artifact.Artifact
	Dependencies        []artifact.Dependency
	ManagedDependencies []artifact.Dependency
	Repositories        []repository.Remote
	RequestContext      string
}

// NewRequest collects the tree of a single root dependency
func NewRequest(root artifact.Dependency, repos []repository.Remote) *Request {
	return &Request{Root: &root, Repositories: repos}
}

// NewRootlessRequest collects the given direct dependencies of a bare artifact
func NewRootlessRequest(root artifact.Artifact, deps []artifact.Dependency, repos []repository.Remote) *Request {
	return &Request{RootArtifact: root, Dependencies: deps, Repositories: repos}
}

// NewMultiRootRequest collects several independent roots
func NewMultiRootRequest(deps []artifact.Dependency, repos []repository.Remote) *Request {
	return &Request{Dependencies: deps, Repositories: repos}
}

// WithManaged returns the request with managed dependencies appended
func (r *Request) WithManaged(deps ...artifact.Dependency) *Request {
	r.ManagedDependencies = append(r.ManagedDependencies, deps...)
	return r
}

// IsRootless reports whether the root is a bare artifact
func (r *Request) IsRootless() bool {
	return r.Root == nil && !r.RootArtifact.IsZero()
}

// IsMultiRoot reports whether the root is synthetic
func (r *Request) IsMultiRoot() bool {
	return r.Root == nil && r.RootArtifact.IsZero()
}

// RootPathEntry returns the dependency that stands for the root on the
// ancestor path. Rootless roots contribute their artifact with an empty scope.
// Multi-root requests have no entry.
func (r *Request) RootPathEntry() (artifact.Dependency, bool) {
	switch {
	case r.Root != nil:
		return *r.Root, true
	case !r.RootArtifact.IsZero():
		return artifact.NewDependency(r.RootArtifact, ""), true
	default:
		return artifact.Dependency{}, false
	}
}
