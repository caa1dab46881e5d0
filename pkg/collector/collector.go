package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/collection/manager"
	"github.com/platinummonkey/depcollect/pkg/collection/selector"
	"github.com/platinummonkey/depcollect/pkg/collection/traverser"
	"github.com/platinummonkey/depcollect/pkg/graph"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
	"github.com/platinummonkey/depcollect/pkg/version"
)

var tracer = otel.Tracer("depcollect/collector")

// ErrNilRequest is returned by Collect when no request is given
var ErrNilRequest = errors.New("nil collect request")

// Collector builds dependency trees
type Collector struct {
	descriptors repository.DescriptorReader
	ranges      repository.VersionRangeResolver
	repos       repository.Manager
	log         *logrus.Logger
	metrics     *observability.Metrics
	parallelism int
}

// Option configures a Collector
type Option func(*Collector)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(c *Collector) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records collection metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithParallelism bounds how many children of one node are prepared at once.
// Capabilities must be safe for concurrent use when n > 1.
func WithParallelism(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithRepositoryManager replaces the repository aggregation policy
func WithRepositoryManager(m repository.Manager) Option {
	return func(c *Collector) {
		if m != nil {
			c.repos = m
		}
	}
}

// New creates a collector. A nil resolver resolves plain versions only.
func New(descriptors repository.DescriptorReader, ranges repository.VersionRangeResolver, opts ...Option) *Collector {
	c := &Collector{
		descriptors: descriptors,
		ranges:      ranges,
		repos:       repository.NewDefaultManager(),
		log:         logrus.New(),
		parallelism: 1,
	}
	if c.ranges == nil {
		c.ranges = repository.VersionRangeResolverFunc(exactOnly)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func exactOnly(_ context.Context, req repository.RangeRequest) (*repository.RangeResult, error) {
	con, err := version.ParseConstraint(req.Artifact.Version())
	if err != nil {
		return nil, err
	}
	v, ok := con.Exact()
	if !ok {
		return nil, fmt.Errorf("no range resolver configured for %s", req.Artifact)
	}
	return &repository.RangeResult{Constraint: con, Versions: []version.Version{v}}, nil
}

// DefaultSession returns the usual session: classic management, the default
// selector and no traversal into artifacts that bundle their dependencies.
func DefaultSession() *collection.Session {
	return &collection.Session{
		Manager:   manager.NewClassic(),
		Selector:  selector.Default(),
		Traverser: traverser.FatArtifact{},
	}
}

// args is the state shared by one Collect call
type args struct {
	session        *collection.Session
	result         *collection.Result
	pool           *pool
	requestContext string
	log            *logrus.Entry
}

func (a *args) fail(err error) {
	a.result.AddException(err)
	a.log.WithError(err).Warn("Dependency collection error")
}

// level is the state governing the children of one node
type level struct {
	repos     []repository.Remote
	manager   collection.DependencyManager
	selector  collection.DependencySelector
	traverser collection.DependencyTraverser
	filter    collection.VersionFilter
}

func (l level) derive(ctx *collection.Context, repos []repository.Remote) level {
	next := level{repos: repos}
	if l.manager != nil {
		next.manager = l.manager.DeriveChildManager(ctx)
	}
	if l.selector != nil {
		next.selector = l.selector.DeriveChildSelector(ctx)
	}
	if l.traverser != nil {
		next.traverser = l.traverser.DeriveChildTraverser(ctx)
	}
	if l.filter != nil {
		next.filter = l.filter.DeriveChildFilter(ctx)
	}
	return next
}

// Collect builds the dependency tree described by req. Failures of single
// nodes do not stop the collection: the result is always returned, and when
// any failure was recorded the error is a *collection.CollectionError
// carrying the same result.
func (c *Collector) Collect(ctx context.Context, session *collection.Session, req *collection.Request) (*collection.Result, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if session == nil {
		session = &collection.Session{}
	}

	ctx, span := tracer.Start(ctx, "collector.Collect", trace.WithAttributes(
		attribute.String("request_context", req.RequestContext),
		attribute.Int("repositories", len(req.Repositories)),
	))
	defer span.End()
	start := time.Now()

	a := &args{
		session:        session,
		result:         collection.NewResult(req),
		pool:           newPool(),
		requestContext: req.RequestContext,
		log:            c.log.WithField("request_context", req.RequestContext),
	}
	root := level{
		repos:     req.Repositories,
		manager:   session.Manager,
		selector:  session.Selector,
		traverser: session.Traverser,
		filter:    session.VersionFilter,
	}

	switch {
	case req.Root != nil:
		a.result.Root = c.collectRoot(ctx, a, req, root)
	case req.IsRootless():
		a.result.Root = c.collectRootless(ctx, a, req, root)
	default:
		a.result.Root = c.collectMultiRoot(ctx, a, req, root)
	}

	exceptions := a.result.Exceptions()
	cycles := a.result.Cycles()
	nodes := graph.Count(a.result.Root)
	status := "success"
	if len(exceptions) > 0 {
		status = "partial"
	}
	c.metrics.ObserveCollection(status, time.Since(start), nodes, len(exceptions))
	span.SetAttributes(
		attribute.Int("nodes", nodes),
		attribute.Int("cycles", len(cycles)),
		attribute.Int("exceptions", len(exceptions)),
	)
	a.log.WithFields(logrus.Fields{
		"root":       a.result.Root.String(),
		"nodes":      nodes,
		"cycles":     len(cycles),
		"exceptions": len(exceptions),
		"duration":   time.Since(start).String(),
	}).Debug("Dependency collection finished")

	if len(exceptions) > 0 {
		err := &collection.CollectionError{Result: a.result}
		span.SetStatus(codes.Error, err.Error())
		return a.result, err
	}
	return a.result, nil
}

func (c *Collector) collectRoot(ctx context.Context, a *args, req *collection.Request, lvl level) *graph.Node {
	rootDep := *req.Root
	node := graph.NewNode(rootDep)
	node.Repositories = req.Repositories
	node.RequestContext = a.requestContext

	deps := req.Dependencies
	managed := req.ManagedDependencies
	repos := req.Repositories

	// A root that cannot be resolved or read still gets the request's own
	// dependencies expanded beneath it.
	resolved, _, err := c.resolveVersion(ctx, a, rootDep, lvl)
	if err != nil {
		a.fail(err)
		resolved = rootDep.Artifact
	} else {
		rootDep = rootDep.WithArtifact(resolved)
		node.Dependency = &rootDep
	}

	var desc *repository.Descriptor
	if err == nil {
		if desc, err = c.readDescriptor(ctx, a, resolved, repos); err != nil {
			a.pool.firstReport(resolved.Key())
			a.fail(err)
		}
	}
	if desc != nil {
		deps = artifact.MergeDependencies(deps, desc.Dependencies)
		managed = artifact.MergeDependencies(managed, desc.ManagedDependencies)
		repos = c.repos.Aggregate(repos, desc.Repositories, true)
	}

	rootCtx := &collection.Context{
		Session:             a.session,
		Artifact:            resolved,
		Dependency:          &rootDep,
		ManagedDependencies: managed,
	}
	path := stack{}.push(frame{key: a.session.CyclePolicy.Key(resolved), dep: rootDep})
	node.Children = c.expand(ctx, a, deps, lvl.derive(rootCtx, repos), path, true)
	return node
}

func (c *Collector) collectRootless(ctx context.Context, a *args, req *collection.Request, lvl level) *graph.Node {
	node := graph.NewArtifactNode(req.RootArtifact)
	node.Repositories = req.Repositories
	node.RequestContext = a.requestContext

	rootCtx := &collection.Context{
		Session:             a.session,
		Artifact:            req.RootArtifact,
		ManagedDependencies: req.ManagedDependencies,
	}
	entry, _ := req.RootPathEntry()
	path := stack{}.push(frame{key: a.session.CyclePolicy.Key(req.RootArtifact), dep: entry, rootless: true})
	node.Children = c.expand(ctx, a, req.Dependencies, lvl.derive(rootCtx, req.Repositories), path, false)
	return node
}

func (c *Collector) collectMultiRoot(ctx context.Context, a *args, req *collection.Request, lvl level) *graph.Node {
	node := graph.NewArtifactNode(artifact.Artifact{})
	node.Repositories = req.Repositories
	node.RequestContext = a.requestContext

	rootCtx := &collection.Context{
		Session:             a.session,
		ManagedDependencies: req.ManagedDependencies,
	}
	node.Children = c.expand(ctx, a, req.Dependencies, lvl.derive(rootCtx, req.Repositories), nil, false)
	return node
}

// expand builds the children of one node. Preparation may run in parallel;
// attaching, cycle bookkeeping and recursion run in declaration order.
func (c *Collector) expand(ctx context.Context, a *args, deps []artifact.Dependency, lvl level, path stack, selectable bool) []*graph.Node {
	if len(deps) == 0 {
		return nil
	}

	children := make([]*graph.Node, 0, len(deps))
	for _, p := range c.prefetch(ctx, a, deps, lvl, path, selectable) {
		if !p.selected {
			continue
		}
		children = append(children, c.attach(ctx, a, p, lvl, path))
	}
	return children
}

func (c *Collector) attach(ctx context.Context, a *args, p prepared, lvl level, path stack) *graph.Node {
	dep := p.dep
	node := graph.NewNode(dep)
	node.VersionConstraint = p.constraint
	node.RequestContext = a.requestContext
	node.Repositories = lvl.repos
	if p.host != nil {
		node.Repositories = []repository.Remote{*p.host}
	}
	p.pm.decorate(node)

	switch {
	case p.failure != nil:
		a.fail(p.failure)
		return node
	case p.versionErr != nil:
		a.fail(p.versionErr)
		return node
	}

	if p.cycleAt >= 0 {
		cycle := path.cycle(p.cycleAt, dep)
		a.result.AddCycle(cycle)
		c.metrics.RecordCycle()
		a.log.WithFields(logrus.Fields{
			"artifact": dep.Artifact.String(),
			"cycle":    cycle.String(),
		}).Debug("Dependency cycle detected")
		if !path[p.cycleAt].rootless {
			return node
		}
	}

	if !p.traverse {
		return node
	}
	if p.descErr != nil {
		if a.pool.firstReport(dep.Artifact.Key()) {
			a.fail(p.descErr)
		}
		return node
	}

	childCtx := &collection.Context{
		Session:             a.session,
		Artifact:            dep.Artifact,
		Dependency:          &dep,
		ManagedDependencies: p.desc.ManagedDependencies,
		Management:          p.pm.management,
	}
	next := lvl.derive(childCtx, c.repos.Aggregate(lvl.repos, p.desc.Repositories, true))

	key, cacheable := subtreeKey(dep.Artifact, next)
	if cacheable {
		if children, ok := a.pool.subtree(key); ok {
			c.metrics.RecordSubtreeReuse(true)
			node.Children = children
			return node
		}
		c.metrics.RecordSubtreeReuse(false)
	}

	children := c.expand(ctx, a, p.desc.Dependencies, next, path.push(frame{key: p.key, dep: dep}), true)
	if cacheable {
		children = a.pool.storeSubtree(key, children)
	}
	node.Children = children
	return node
}
