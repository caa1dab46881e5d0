package collection

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/graph"
)

// Management holds the overrides a DependencyManager applies to one
// dependency. Fields that were never set are left alone.
type Management struct {
	set        graph.ManagedBits
	version    string
	scope      string
	optional   bool
	properties map[string]string
	exclusions []artifact.Exclusion
}

// NewManagement returns an empty management
func NewManagement() *Management {
	return &Management{}
}

func (m *Management) SetVersion(v string) *Management {
	m.version = v
	m.set |= graph.ManagedVersion
	return m
}

func (m *Management) SetScope(scope string) *Management {
	m.scope = scope
	m.set |= graph.ManagedScope
	return m
}

func (m *Management) SetOptional(optional bool) *Management {
	m.optional = optional
	m.set |= graph.ManagedOptional
	return m
}

// SetProperties replaces the artifact properties of the managed dependency
func (m *Management) SetProperties(props map[string]string) *Management {
	m.properties = make(map[string]string, len(props))
	for k, v := range props {
		m.properties[k] = v
	}
	m.set |= graph.ManagedProperties
	return m
}

// SetExclusions replaces the exclusions of the managed dependency
func (m *Management) SetExclusions(exclusions []artifact.Exclusion) *Management {
	m.exclusions = append([]artifact.Exclusion(nil), exclusions...)
	m.set |= graph.ManagedExclusions
	return m
}

func (m *Management) Version() (string, bool) {
	return m.version, m.set.Has(graph.ManagedVersion)
}

func (m *Management) Scope() (string, bool) {
	return m.scope, m.set.Has(graph.ManagedScope)
}

func (m *Management) Optional() (bool, bool) {
	return m.optional, m.set.Has(graph.ManagedOptional)
}

func (m *Management) Properties() (map[string]string, bool) {
	return m.properties, m.set.Has(graph.ManagedProperties)
}

func (m *Management) Exclusions() ([]artifact.Exclusion, bool) {
	return m.exclusions, m.set.Has(graph.ManagedExclusions)
}

// Bits returns the set of fields this management overrides
func (m *Management) Bits() graph.ManagedBits {
	if m == nil {
		return 0
	}
	return m.set
}

// Apply returns dep with the overrides applied, the bits that were applied and
// a snapshot of the replaced values.
func (m *Management) Apply(dep artifact.Dependency) (artifact.Dependency, graph.ManagedBits, *graph.Premanaged) {
	if m.Bits() == 0 {
		return dep, 0, nil
	}

	pre := &graph.Premanaged{
		Version:    dep.Artifact.Version(),
		Scope:      dep.Scope,
		Optional:   dep.Optional,
		Properties: dep.Artifact.Properties(),
		Exclusions: append([]artifact.Exclusion(nil), dep.Exclusions...),
	}

	a := dep.Artifact
	if v, ok := m.Version(); ok {
		a = a.WithVersion(v)
	}
	if props, ok := m.Properties(); ok {
		a = a.WithProperties(props)
	}
	dep = dep.WithArtifact(a)
	if s, ok := m.Scope(); ok {
		dep = dep.WithScope(s)
	}
	if o, ok := m.Optional(); ok {
		dep = dep.WithOptional(o)
	}
	if ex, ok := m.Exclusions(); ok {
		dep = dep.WithExclusions(ex)
	}
	return dep, m.set, pre
}
