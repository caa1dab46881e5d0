package collector

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/graph"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

type descriptorEntry struct {
	desc *repository.Descriptor
	err  error
}

type rangeEntry struct {
	res *repository.RangeResult
	err error
}

// memoKey identifies a subtree: the same artifact expanded against the same
// repositories with the same derived capabilities has the same children.
type memoKey struct {
	artifact  string
	repos     uint64
	manager   any
	selector  any
	traverser any
	filter    any
}

// pool holds the per-request caches. Descriptor and range lookups collapse
// concurrent callers onto one read; every cache is insert-if-absent.
type pool struct {
	mu          sync.Mutex
	descriptors map[string]descriptorEntry
	ranges      map[string]rangeEntry
	children    map[memoKey][]*graph.Node
	reported    map[string]struct{}

	reads singleflight.Group
}

func newPool() *pool {
	return &pool{
		descriptors: make(map[string]descriptorEntry),
		ranges:      make(map[string]rangeEntry),
		children:    make(map[memoKey][]*graph.Node),
		reported:    make(map[string]struct{}),
	}
}

func readKey(prefix string, a artifact.Artifact, repos []repository.Remote) string {
	return prefix + a.Key() + "@" + strconv.FormatUint(repository.Fingerprint(repos), 16)
}

// descriptor returns the descriptor of a, reading it at most once per request.
// cached reports whether the entry was already known.
func (p *pool) descriptor(ctx context.Context, reader repository.DescriptorReader, req repository.DescriptorRequest) (d *repository.Descriptor, cached bool, err error) {
	key := readKey("d:", req.Artifact, req.Repositories)

	p.mu.Lock()
	e, ok := p.descriptors[key]
	p.mu.Unlock()
	if ok {
		return e.desc, true, e.err
	}

	v, _, _ := p.reads.Do(key, func() (interface{}, error) {
		p.mu.Lock()
		if e, ok := p.descriptors[key]; ok {
			p.mu.Unlock()
			return e, nil
		}
		p.mu.Unlock()

		desc, err := reader.ReadDescriptor(ctx, req)
		e := descriptorEntry{desc: desc, err: err}

		p.mu.Lock()
		p.descriptors[key] = e
		p.mu.Unlock()
		return e, nil
	})
	e = v.(descriptorEntry)
	return e.desc, false, e.err
}

// versions returns the range resolution of a, resolving it at most once per request
func (p *pool) versions(ctx context.Context, resolver repository.VersionRangeResolver, req repository.RangeRequest) (*repository.RangeResult, error) {
	key := readKey("r:", req.Artifact, req.Repositories)

	p.mu.Lock()
	e, ok := p.ranges[key]
	p.mu.Unlock()
	if ok {
		return e.res, e.err
	}

	v, _, _ := p.reads.Do(key, func() (interface{}, error) {
		p.mu.Lock()
		if e, ok := p.ranges[key]; ok {
			p.mu.Unlock()
			return e, nil
		}
		p.mu.Unlock()

		res, err := resolver.ResolveVersionRange(ctx, req)
		e := rangeEntry{res: res, err: err}

		p.mu.Lock()
		p.ranges[key] = e
		p.mu.Unlock()
		return e, nil
	})
	e = v.(rangeEntry)
	return e.res, e.err
}

// firstReport reports whether key is seen for the first time
func (p *pool) firstReport(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.reported[key]; ok {
		return false
	}
	p.reported[key] = struct{}{}
	return true
}

// subtreeKey builds the memo key for expanding a under lvl. ok is false when
// one of the capabilities has no stable identity.
//
// The key does not include the ancestor path. A subtree memoised on one path
// is reused as is on another, so a cycle that only closes on the second path
// is neither cut again nor recorded: Result.Cycles lists the cycles met while
// expanding, not every cycle in the graph.
func subtreeKey(a artifact.Artifact, lvl level) (memoKey, bool) {
	k := memoKey{artifact: a.Key(), repos: repository.Fingerprint(lvl.repos)}
	var ok bool
	if k.manager, ok = collection.Identity(lvl.manager); !ok {
		return k, false
	}
	if k.selector, ok = collection.Identity(lvl.selector); !ok {
		return k, false
	}
	if k.traverser, ok = collection.Identity(lvl.traverser); !ok {
		return k, false
	}
	if k.filter, ok = collection.Identity(lvl.filter); !ok {
		return k, false
	}
	return k, true
}

func (p *pool) subtree(k memoKey) ([]*graph.Node, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	children, ok := p.children[k]
	return children, ok
}

// storeSubtree keeps the first expansion stored under k and returns it
func (p *pool) storeSubtree(k memoKey, children []*graph.Node) []*graph.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.children[k]; ok {
		return existing
	}
	p.children[k] = children
	return children
}
