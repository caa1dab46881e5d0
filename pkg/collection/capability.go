package collection

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/repository"
	"github.com/platinummonkey/depcollect/pkg/version"
)

// DependencyManager applies inherited dependency management. Derived managers
// are created once per node, from the context of that node, and manage the
// node's children.
type DependencyManager interface {
	// ManageDependency returns the overrides for dep, or nil
	ManageDependency(dep artifact.Dependency) *Management
	DeriveChildManager(ctx *Context) DependencyManager
}

// DependencySelector decides which discovered dependencies become nodes
type DependencySelector interface {
	SelectDependency(dep artifact.Dependency) bool
	DeriveChildSelector(ctx *Context) DependencySelector
}

// DependencyTraverser decides whether a dependency's own descriptor is read
type DependencyTraverser interface {
	TraverseDependency(dep artifact.Dependency) bool
	DeriveChildTraverser(ctx *Context) DependencyTraverser
}

// VersionFilter narrows the candidate versions of a range
type VersionFilter interface {
	FilterVersions(fc *VersionFilterContext) error
	DeriveChildFilter(ctx *Context) VersionFilter
}

// Fingerprinter is implemented by capabilities whose state is not a
// comparable value. Equal state must yield equal fingerprints.
type Fingerprinter interface {
	Fingerprint() uint64
}

// Cacheable is implemented by composite capabilities whose members may lack
// a stable identity.
type Cacheable interface {
	Cacheable() bool
}

type fingerprintIdentity struct {
	typ reflect.Type
	fp  uint64
}

// Identity returns a comparable value standing for capability c, used to key
// memoised subtrees. ok is false when c has no stable identity: it neither
// implements Fingerprinter nor is a comparable value.
func Identity(c any) (id any, ok bool) {
	if c == nil {
		return nil, true
	}
	if u, isU := c.(Cacheable); isU && !u.Cacheable() {
		return nil, false
	}
	if f, isF := c.(Fingerprinter); isF {
		return fingerprintIdentity{typ: reflect.TypeOf(c), fp: f.Fingerprint()}, true
	}
	if reflect.TypeOf(c).Comparable() {
		return c, true
	}
	return nil, false
}

// IdentityString renders Identity as a string
func IdentityString(c any) (string, bool) {
	id, ok := Identity(c)
	if !ok {
		return "", false
	}
	if fi, isFI := id.(fingerprintIdentity); isFI {
		return fmt.Sprintf("%s#%x", fi.typ, fi.fp), true
	}
	return fmt.Sprintf("%T:%#v", id, id), true
}

// Same reports whether a and b are the same capability without panicking on
// uncomparable dynamic types.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// FingerprintStrings hashes parts in order
func FingerprintStrings(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// VersionFilterContext carries the candidates of one range resolution
type VersionFilterContext struct {
	Session    *Session
	Dependency artifact.Dependency
	Constraint version.Constraint
	Versions   []version.Version
	Hosts      map[string]repository.Remote
}

// Filter keeps the candidates for which keep returns true, preserving order
func (c *VersionFilterContext) Filter(keep func(v version.Version) bool) {
	out := make([]version.Version, 0, len(c.Versions))
	for _, v := range c.Versions {
		if keep(v) {
			out = append(out, v)
		}
	}
	c.Versions = out
}

// Len returns the number of remaining candidates
func (c *VersionFilterContext) Len() int {
	return len(c.Versions)
}
