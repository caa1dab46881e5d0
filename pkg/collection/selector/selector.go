package selector

import (
	"sort"
	"strconv"
	"strings"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

// Scope drops transitive dependencies whose scope is excluded. Direct
// dependencies of the root are always selected.
type Scope struct {
	depth    int
	excluded map[string]struct{}
	fp       uint64
}

// NewScope creates a scope selector excluding the given scopes
func NewScope(excluded ...string) *Scope {
	set := make(map[string]struct{}, len(excluded))
	for _, s := range excluded {
		set[s] = struct{}{}
	}
	return newScope(0, set)
}

func newScope(depth int, excluded map[string]struct{}) *Scope {
	keys := make([]string, 0, len(excluded))
	for s := range excluded {
		keys = append(keys, s)
	}
	sort.Strings(keys)
	return &Scope{
		depth:    depth,
		excluded: excluded,
		fp:       collection.FingerprintStrings("scope", strconv.Itoa(depth), strings.Join(keys, ",")),
	}
}

func (s *Scope) SelectDependency(dep artifact.Dependency) bool {
	if s.depth < 2 {
		return true
	}
	_, excluded := s.excluded[dep.Scope]
	return !excluded
}

func (s *Scope) DeriveChildSelector(*collection.Context) collection.DependencySelector {
	if s.depth >= 2 {
		return s
	}
	return newScope(s.depth+1, s.excluded)
}

func (s *Scope) Fingerprint() uint64 { return s.fp }

// Optional drops transitive optional dependencies
type Optional struct {
	depth int
}

// NewOptional creates an optional selector
func NewOptional() Optional {
	return Optional{}
}

func (o Optional) SelectDependency(dep artifact.Dependency) bool {
	return o.depth < 2 || !dep.Optional
}

func (o Optional) DeriveChildSelector(*collection.Context) collection.DependencySelector {
	if o.depth >= 2 {
		return o
	}
	return Optional{depth: o.depth + 1}
}

// Exclusion drops dependencies matched by an exclusion declared on any
// ancestor dependency.
type Exclusion struct {
	exclusions []artifact.Exclusion
	fp         uint64
}

// NewExclusion creates an exclusion selector with optional initial exclusions
func NewExclusion(initial ...artifact.Exclusion) *Exclusion {
	return newExclusion(append([]artifact.Exclusion(nil), initial...))
}

func newExclusion(exclusions []artifact.Exclusion) *Exclusion {
	keys := make([]string, len(exclusions))
	for i, e := range exclusions {
		keys[i] = e.String()
	}
	sort.Strings(keys)
	return &Exclusion{exclusions: exclusions, fp: collection.FingerprintStrings(append([]string{"exclusion"}, keys...)...)}
}

func (e *Exclusion) SelectDependency(dep artifact.Dependency) bool {
	for _, ex := range e.exclusions {
		if ex.Matches(dep.Artifact) {
			return false
		}
	}
	return true
}

func (e *Exclusion) DeriveChildSelector(ctx *collection.Context) collection.DependencySelector {
	if ctx.Dependency == nil || len(ctx.Dependency.Exclusions) == 0 {
		return e
	}

	seen := make(map[artifact.Exclusion]struct{}, len(e.exclusions))
	merged := append([]artifact.Exclusion(nil), e.exclusions...)
	for _, ex := range e.exclusions {
		seen[ex] = struct{}{}
	}
	added := false
	for _, ex := range ctx.Dependency.Exclusions {
		if _, ok := seen[ex]; ok {
			continue
		}
		seen[ex] = struct{}{}
		merged = append(merged, ex)
		added = true
	}
	if !added {
		return e
	}
	return newExclusion(merged)
}

func (e *Exclusion) Fingerprint() uint64 { return e.fp }

// Static selects everything or nothing
type Static bool

func (s Static) SelectDependency(artifact.Dependency) bool { return bool(s) }

func (s Static) DeriveChildSelector(*collection.Context) collection.DependencySelector { return s }
