// Package filter provides the built-in version filters.
package filter

import (
	"strconv"

	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/version"
)

// Highest keeps only the highest candidate
type Highest struct{}

func (Highest) FilterVersions(fc *collection.VersionFilterContext) error {
	if n := len(fc.Versions); n > 1 {
		fc.Versions = []version.Version{fc.Versions[n-1]}
	}
	return nil
}

func (h Highest) DeriveChildFilter(*collection.Context) collection.VersionFilter { return h }

// Snapshot drops snapshot versions
type Snapshot struct{}

func (Snapshot) FilterVersions(fc *collection.VersionFilterContext) error {
	fc.Filter(func(v version.Version) bool { return !v.IsSnapshot() })
	return nil
}

func (s Snapshot) DeriveChildFilter(*collection.Context) collection.VersionFilter { return s }

// Predicate keeps the candidates accepted by Keep. Name identifies the
// predicate for subtree reuse; predicates with the same name must behave the
// same.
type Predicate struct {
	Name string
	Keep func(v version.Version) bool
}

// NewPredicate creates a named predicate filter
func NewPredicate(name string, keep func(v version.Version) bool) *Predicate {
	return &Predicate{Name: name, Keep: keep}
}

func (p *Predicate) FilterVersions(fc *collection.VersionFilterContext) error {
	fc.Filter(p.Keep)
	return nil
}

func (p *Predicate) DeriveChildFilter(*collection.Context) collection.VersionFilter { return p }

func (p *Predicate) Fingerprint() uint64 {
	return collection.FingerprintStrings("predicate", p.Name)
}

// Chained applies its members in order, stopping early once no candidate is
// left.
type Chained struct {
	filters []collection.VersionFilter
}

// NewChained combines filters. Nil members are dropped; a single member is
// returned as is.
func NewChained(filters ...collection.VersionFilter) collection.VersionFilter {
	out := make([]collection.VersionFilter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return &Chained{filters: out}
	}
}

func (c *Chained) FilterVersions(fc *collection.VersionFilterContext) error {
	for _, f := range c.filters {
		if err := f.FilterVersions(fc); err != nil {
			return err
		}
		if fc.Len() == 0 {
			return nil
		}
	}
	return nil
}

func (c *Chained) DeriveChildFilter(ctx *collection.Context) collection.VersionFilter {
	changed := false
	derived := make([]collection.VersionFilter, 0, len(c.filters))
	for _, f := range c.filters {
		child := f.DeriveChildFilter(ctx)
		if !collection.Same(child, f) {
			changed = true
		}
		if child != nil {
			derived = append(derived, child)
		}
	}
	if !changed {
		return c
	}
	return NewChained(derived...)
}

func (c *Chained) Fingerprint() uint64 {
	fp, _ := c.fingerprint()
	return fp
}

func (c *Chained) Cacheable() bool {
	_, ok := c.fingerprint()
	return ok
}

func (c *Chained) fingerprint() (uint64, bool) {
	parts := []string{"chained", strconv.Itoa(len(c.filters))}
	for _, f := range c.filters {
		id, ok := collection.IdentityString(f)
		if !ok {
			return 0, false
		}
		parts = append(parts, id)
	}
	return collection.FingerprintStrings(parts...), true
}

// ByName returns "highest", "snapshot", "highest+snapshot" or "none"
func ByName(name string) (collection.VersionFilter, bool) {
	switch name {
	case "", "none":
		return nil, true
	case "highest":
		return Highest{}, true
	case "snapshot":
		return Snapshot{}, true
	case "snapshot+highest", "highest+snapshot":
		return NewChained(Snapshot{}, Highest{}), true
	default:
		return nil, false
	}
}
