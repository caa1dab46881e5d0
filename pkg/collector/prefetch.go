package collector

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/async"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/repository"
	"github.com/platinummonkey/depcollect/pkg/version"
)

// prepared is everything known about a child before it is attached: the
// outcome of management, selection, version resolution, the cycle check and
// the descriptor read. Preparation has no side effects on the result.
type prepared struct {
	pm         premanaged
	selected   bool
	constraint string
	dep        artifact.Dependency // pm.dep with the chosen version
	host       *repository.Remote
	versionErr error

	key      string
	cycleAt  int
	traverse bool

	desc    *repository.Descriptor
	descErr error

	failure error
}

// prefetch prepares every dependency of one node, in parallel when allowed.
// The returned slice is in declaration order.
func (c *Collector) prefetch(ctx context.Context, a *args, deps []artifact.Dependency, lvl level, path stack, selectable bool) []prepared {
	out := make([]prepared, len(deps))
	errs := async.Each(len(deps), c.parallelism, func(i int) error {
		out[i] = c.prepare(ctx, a, deps[i], lvl, path, selectable)
		return nil
	})
	for i, err := range errs {
		if err != nil {
			out[i] = prepared{
				pm:       premanaged{dep: deps[i]},
				selected: true,
				dep:      deps[i],
				cycleAt:  -1,
				failure:  fmt.Errorf("preparing %s: %w", deps[i].Artifact, err),
			}
		}
	}
	return out
}

func (c *Collector) prepare(ctx context.Context, a *args, dep artifact.Dependency, lvl level, path stack, selectable bool) prepared {
	p := prepared{pm: premanage(dep, lvl.manager, a.session.Verbose), cycleAt: -1}
	p.constraint = p.pm.dep.Artifact.Version()
	p.dep = p.pm.dep

	if selectable && lvl.selector != nil && !lvl.selector.SelectDependency(p.pm.dep) {
		return p
	}
	p.selected = true

	resolved, host, err := c.resolveVersion(ctx, a, p.pm.dep, lvl)
	if err != nil {
		p.versionErr = err
		return p
	}
	p.dep = p.pm.dep.WithArtifact(resolved)
	p.host = host

	p.key = a.session.CyclePolicy.Key(resolved)
	if p.cycleAt = path.find(p.key); p.cycleAt >= 0 && !path[p.cycleAt].rootless {
		return p
	}

	p.traverse = traversable(p.dep, lvl.traverser)
	if !p.traverse {
		return p
	}

	p.desc, p.descErr = c.readDescriptor(ctx, a, resolved, lvl.repos)
	return p
}

// traversable reports whether the descriptor of dep should be read.
// Artifacts with a local path have no descriptor.
func traversable(dep artifact.Dependency, t collection.DependencyTraverser) bool {
	if dep.Artifact.Property(artifact.PropertyLocalPath, "") != "" {
		return false
	}
	return t == nil || t.TraverseDependency(dep)
}

// resolveVersion picks the highest candidate of dep's version constraint that
// survives the level's version filter.
func (c *Collector) resolveVersion(ctx context.Context, a *args, dep artifact.Dependency, lvl level) (artifact.Artifact, *repository.Remote, error) {
	ctx, span := tracer.Start(ctx, "collector.resolveVersion", trace.WithAttributes(
		attribute.String("artifact", dep.Artifact.VersionlessKey()),
		attribute.String("constraint", dep.Artifact.Version()),
	))
	defer span.End()

	fail := func(err error) (artifact.Artifact, *repository.Remote, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordVersionResolution("error")
		return artifact.Artifact{}, nil, &collection.VersionResolutionError{
			Dependency: dep,
			Constraint: dep.Artifact.Version(),
			Err:        err,
		}
	}

	res, err := a.pool.versions(ctx, c.ranges, repository.RangeRequest{
		Artifact:       dep.Artifact,
		Repositories:   lvl.repos,
		RequestContext: a.requestContext,
	})
	if err != nil {
		return fail(err)
	}

	fc := &collection.VersionFilterContext{
		Session:    a.session,
		Dependency: dep,
		Constraint: res.Constraint,
		Versions:   append([]version.Version(nil), res.Versions...),
		Hosts:      res.Hosts,
	}
	if lvl.filter != nil {
		if err := lvl.filter.FilterVersions(fc); err != nil {
			return fail(err)
		}
	}
	if fc.Len() == 0 {
		return fail(collection.ErrNoVersions)
	}

	chosen := fc.Versions[fc.Len()-1]
	c.metrics.RecordVersionResolution("ok")
	span.SetAttributes(attribute.String("version", chosen.String()))

	var host *repository.Remote
	if repo, ok := res.Host(chosen); ok {
		host = &repo
	}
	return dep.Artifact.WithVersion(chosen.String()), host, nil
}

func (c *Collector) readDescriptor(ctx context.Context, a *args, art artifact.Artifact, repos []repository.Remote) (*repository.Descriptor, error) {
	ctx, span := tracer.Start(ctx, "collector.readDescriptor", trace.WithAttributes(
		attribute.String("artifact", art.Key()),
		attribute.Int("repositories", len(repos)),
	))
	defer span.End()

	desc, cached, err := a.pool.descriptor(ctx, c.descriptors, repository.DescriptorRequest{
		Artifact:       art,
		Repositories:   repos,
		RequestContext: a.requestContext,
	})
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordDescriptorRead("error")
		return nil, &collection.DescriptorError{Artifact: art, Repositories: repos, Err: err}
	case cached:
		c.metrics.RecordDescriptorRead("hit")
	default:
		c.metrics.RecordDescriptorRead("miss")
	}
	if desc == nil {
		desc = &repository.Descriptor{Artifact: art}
	}
	return desc, nil
}
