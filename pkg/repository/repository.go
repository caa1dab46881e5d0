package repository

import (
	"context"
	"errors"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/version"
)

var (
	// ErrNotFound is returned when no descriptor exists for an artifact
	ErrNotFound = errors.New("descriptor not found")

	// ErrInvalidDescriptor is returned when a stored descriptor cannot be decoded
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// Descriptor lists an artifact's direct and managed dependencies
type Descriptor struct {
	Artifact            artifact.Artifact
	Dependencies        []artifact.Dependency
	ManagedDependencies []artifact.Dependency
	Repositories        []Remote
}

// DescriptorRequest asks for the descriptor of an artifact
type DescriptorRequest struct {
	Artifact       artifact.Artifact
	Repositories   []Remote
	RequestContext string
}

// DescriptorReader reads artifact descriptors
type DescriptorReader interface {
	ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error)
}

// DescriptorReaderFunc adapts a function to DescriptorReader
type DescriptorReaderFunc func(ctx context.Context, req DescriptorRequest) (*Descriptor, error)

// ReadDescriptor calls f
func (f DescriptorReaderFunc) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	return f(ctx, req)
}

// RangeRequest asks for the versions matching an artifact's version constraint
type RangeRequest struct {
	Artifact       artifact.Artifact
	Repositories   []Remote
	RequestContext string
}

// RangeResult lists candidate versions in ascending order
type RangeResult struct {
	Constraint version.Constraint
	Versions   []version.Version
	// Hosts maps a version string to the repository it was found in
	Hosts map[string]Remote
}

// Host returns the repository hosting v, if known
func (r *RangeResult) Host(v version.Version) (Remote, bool) {
	repo, ok := r.Hosts[v.String()]
	return repo, ok
}

// VersionRangeResolver expands version constraints into concrete versions
type VersionRangeResolver interface {
	ResolveVersionRange(ctx context.Context, req RangeRequest) (*RangeResult, error)
}

// VersionRangeResolverFunc adapts a function to VersionRangeResolver
type VersionRangeResolverFunc func(ctx context.Context, req RangeRequest) (*RangeResult, error)

// ResolveVersionRange calls f
func (f VersionRangeResolverFunc) ResolveVersionRange(ctx context.Context, req RangeRequest) (*RangeResult, error) {
	return f(ctx, req)
}

// VersionLister lists every known version of an artifact, ascending or not
type VersionLister interface {
	ListVersions(ctx context.Context, a artifact.Artifact, repos []Remote) ([]string, map[string]Remote, error)
}

// ResolveWith resolves a range request against a version listing. Plain
// versions resolve to themselves without consulting the lister.
func ResolveWith(ctx context.Context, lister VersionLister, req RangeRequest) (*RangeResult, error) {
	c, err := version.ParseConstraint(req.Artifact.Version())
	if err != nil {
		return nil, err
	}
	if v, ok := c.Exact(); ok {
		return &RangeResult{Constraint: c, Versions: []version.Version{v}}, nil
	}

	listed, hosts, err := lister.ListVersions(ctx, req.Artifact, req.Repositories)
	if err != nil {
		return nil, err
	}

	candidates := make([]version.Version, 0, len(listed))
	for _, s := range listed {
		candidates = append(candidates, version.Parse(s))
	}
	version.Sort(candidates)

	result := &RangeResult{
		Constraint: c,
		Versions:   c.Filter(candidates),
		Hosts:      make(map[string]Remote),
	}
	for _, v := range result.Versions {
		if repo, ok := hosts[v.String()]; ok {
			result.Hosts[v.String()] = repo
		}
	}
	return result, nil
}
