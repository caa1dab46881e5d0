package manager

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

// Manager applies management collected from managed dependencies. The three
// flavours differ in how deep management is collected and from which depth
// it is applied; see NewClassic, NewTransitive and NewDefault.
type Manager struct {
	kind        string
	depth       int
	deriveUntil int
	applyFrom   int
	rules       rules
	fp          uint64
}

// NewClassic returns a manager that only honours the management known at the
// root and applies it to transitive dependencies. Direct dependencies keep
// their declared version, scope and optional flag.
func NewClassic() *Manager {
	return newManager("classic", 0, 1, 2, rules{})
}

// NewTransitive returns a manager that collects management at every level and
// applies it to transitive dependencies. Management declared closer to the
// root wins.
func NewTransitive() *Manager {
	return newManager("transitive", 0, math.MaxInt, 2, rules{})
}

// NewDefault returns a manager that collects management at every level and
// applies it to direct dependencies as well.
func NewDefault() *Manager {
	return newManager("default", 0, math.MaxInt, 1, rules{})
}

func newManager(kind string, depth, deriveUntil, applyFrom int, r rules) *Manager {
	m := &Manager{kind: kind, depth: depth, deriveUntil: deriveUntil, applyFrom: applyFrom, rules: r}
	// depths past the apply threshold behave the same
	m.fp = collection.FingerprintStrings(kind, strconv.Itoa(min(depth, applyFrom)), r.digest())
	return m
}

// Name returns the manager flavour
func (m *Manager) Name() string {
	return m.kind
}

// Fingerprint implements collection.Fingerprinter
func (m *Manager) Fingerprint() uint64 {
	return m.fp
}

// DeriveChildManager implements collection.DependencyManager
func (m *Manager) DeriveChildManager(ctx *collection.Context) collection.DependencyManager {
	collecting := m.depth < m.deriveUntil && len(ctx.ManagedDependencies) > 0
	if !collecting && m.depth >= m.applyFrom {
		return m
	}

	r := m.rules
	if collecting {
		r = r.collect(ctx.ManagedDependencies)
	}
	return newManager(m.kind, m.depth+1, m.deriveUntil, m.applyFrom, r)
}

// ManageDependency implements collection.DependencyManager
func (m *Manager) ManageDependency(dep artifact.Dependency) *collection.Management {
	key := dep.Artifact.VersionlessKey()
	var mgmt *collection.Management
	lazy := func() *collection.Management {
		if mgmt == nil {
			mgmt = collection.NewManagement()
		}
		return mgmt
	}

	if m.depth >= m.applyFrom {
		if v, ok := m.rules.versions[key]; ok {
			lazy().SetVersion(v)
		}

		scope, scoped := m.rules.scopes[key]
		if scoped {
			lazy().SetScope(scope)
			if scope != artifact.ScopeSystem && dep.Artifact.Property(artifact.PropertyLocalPath, "") != "" {
				props := dep.Artifact.Properties()
				delete(props, artifact.PropertyLocalPath)
				lazy().SetProperties(props)
			}
		}

		if (scoped && scope == artifact.ScopeSystem) || (!scoped && dep.Scope == artifact.ScopeSystem) {
			if path, ok := m.rules.localPaths[key]; ok {
				lazy().SetProperties(dep.Artifact.WithProperty(artifact.PropertyLocalPath, path).Properties())
			}
		}

		if o, ok := m.rules.optionals[key]; ok {
			lazy().SetOptional(o)
		}
	}

	if ex, ok := m.rules.exclusions[key]; ok {
		lazy().SetExclusions(mergeExclusions(dep.Exclusions, ex))
	}
	return mgmt
}

func mergeExclusions(declared, managed []artifact.Exclusion) []artifact.Exclusion {
	out := make([]artifact.Exclusion, 0, len(declared)+len(managed))
	seen := make(map[artifact.Exclusion]struct{}, len(declared)+len(managed))
	for _, list := range [][]artifact.Exclusion{declared, managed} {
		for _, e := range list {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// rules is the management known at one depth. Maps are shared between
// derived managers and never modified after construction.
type rules struct {
	versions   map[string]string
	scopes     map[string]string
	optionals  map[string]bool
	localPaths map[string]string
	exclusions map[string][]artifact.Exclusion
}

// collect returns a copy of r extended with managed. Existing entries win.
func (r rules) collect(managed []artifact.Dependency) rules {
	out := rules{
		versions:   copyMap(r.versions),
		scopes:     copyMap(r.scopes),
		optionals:  copyMap(r.optionals),
		localPaths: copyMap(r.localPaths),
		exclusions: copyMap(r.exclusions),
	}

	for _, md := range managed {
		key := md.Artifact.VersionlessKey()
		if v := md.Artifact.Version(); v != "" {
			putIfAbsent(out.versions, key, v)
		}
		if md.Scope != "" {
			putIfAbsent(out.scopes, key, md.Scope)
		}
		// optional=false is indistinguishable from unset
		if md.Optional {
			putIfAbsent(out.optionals, key, true)
		}
		if path := md.Artifact.Property(artifact.PropertyLocalPath, ""); path != "" {
			putIfAbsent(out.localPaths, key, path)
		}
		if len(md.Exclusions) > 0 {
			out.exclusions[key] = append(append([]artifact.Exclusion(nil), out.exclusions[key]...), md.Exclusions...)
		}
	}
	return out
}

func (r rules) digest() string {
	var b strings.Builder
	writeSorted(&b, "v", r.versions, func(s string) string { return s })
	writeSorted(&b, "s", r.scopes, func(s string) string { return s })
	writeSorted(&b, "o", r.optionals, strconv.FormatBool)
	writeSorted(&b, "l", r.localPaths, func(s string) string { return s })
	writeSorted(&b, "e", r.exclusions, func(ex []artifact.Exclusion) string {
		parts := make([]string, len(ex))
		for i, e := range ex {
			parts[i] = e.String()
		}
		return strings.Join(parts, ",")
	})
	return b.String()
}

func writeSorted[V any](b *strings.Builder, tag string, m map[string]V, format func(V) string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(tag)
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(format(m[k]))
		b.WriteByte(';')
	}
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func putIfAbsent[V any](m map[string]V, key string, v V) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}
