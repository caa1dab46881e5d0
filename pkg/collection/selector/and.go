package selector

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

// And selects a dependency only when every member selects it
type And struct {
	selectors []collection.DependencySelector
}

// NewAnd combines selectors. Nil members are dropped.
func NewAnd(selectors ...collection.DependencySelector) *And {
	out := make([]collection.DependencySelector, 0, len(selectors))
	for _, s := range selectors {
		if s != nil {
			out = append(out, s)
		}
	}
	return &And{selectors: out}
}

// Default returns the usual selection: test and provided dependencies,
// optional dependencies and excluded artifacts are not collected transitively.
func Default() *And {
	return NewAnd(
		NewScope(artifact.ScopeTest, artifact.ScopeProvided),
		NewOptional(),
		NewExclusion(),
	)
}

func (a *And) SelectDependency(dep artifact.Dependency) bool {
	for _, s := range a.selectors {
		if !s.SelectDependency(dep) {
			return false
		}
	}
	return true
}

func (a *And) DeriveChildSelector(ctx *collection.Context) collection.DependencySelector {
	var derived []collection.DependencySelector
	for i, s := range a.selectors {
		child := s.DeriveChildSelector(ctx)
		if derived == nil && collection.Same(child, s) {
			continue
		}
		if derived == nil {
			derived = append(make([]collection.DependencySelector, 0, len(a.selectors)), a.selectors[:i]...)
		}
		if child != nil {
			derived = append(derived, child)
		}
	}
	if derived == nil {
		return a
	}
	return &And{selectors: derived}
}

// Fingerprint combines the members' identities
func (a *And) Fingerprint() uint64 {
	fp, _ := a.fingerprint()
	return fp
}

// Cacheable reports whether every member has a stable identity
func (a *And) Cacheable() bool {
	_, ok := a.fingerprint()
	return ok
}

func (a *And) fingerprint() (uint64, bool) {
	parts := make([]string, 0, len(a.selectors)+1)
	parts = append(parts, "and")
	for _, s := range a.selectors {
		id, ok := collection.IdentityString(s)
		if !ok {
			return 0, false
		}
		parts = append(parts, id)
	}
	return collection.FingerprintStrings(parts...), true
}
