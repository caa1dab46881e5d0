package repository

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// DependencyEntry is the serialized form of a dependency
type DependencyEntry struct {
	Coords     string               `json:"coords" yaml:"coords"`
	Scope      string               `json:"scope,omitempty" yaml:"scope,omitempty"`
	Optional   bool                 `json:"optional,omitempty" yaml:"optional,omitempty"`
	Exclusions []artifact.Exclusion `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	Properties map[string]string    `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// DescriptorDocument is the on-disk / on-wire form of a Descriptor
type DescriptorDocument struct {
	Artifact            string            `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Dependencies        []DependencyEntry `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	ManagedDependencies []DependencyEntry `json:"managedDependencies,omitempty" yaml:"managedDependencies,omitempty"`
	Repositories        []Remote          `json:"repositories,omitempty" yaml:"repositories,omitempty"`
}

// ToDependency converts an entry into a dependency
func (e DependencyEntry) ToDependency() (artifact.Dependency, error) {
	d, err := artifact.ParseDependency(e.Coords, e.Scope)
	if err != nil {
		return artifact.Dependency{}, err
	}
	if len(e.Properties) > 0 {
		d = d.WithArtifact(d.Artifact.WithProperties(e.Properties))
	}
	if len(e.Exclusions) > 0 {
		d = d.WithExclusions(e.Exclusions)
	}
	return d.WithOptional(e.Optional), nil
}

// NewDependencyEntry converts a dependency into its serialized form
func NewDependencyEntry(d artifact.Dependency) DependencyEntry {
	return DependencyEntry{
		Coords:     coords(d.Artifact),
		Scope:      d.Scope,
		Optional:   d.Optional,
		Exclusions: d.Exclusions,
		Properties: d.Artifact.Properties(),
	}
}

// coords renders the long form so that extension and classifier survive a round trip
func coords(a artifact.Artifact) string {
	if a.Classifier() != "" {
		return fmt.Sprintf("%s:%s:%s:%s:%s", a.GroupID(), a.ArtifactID(), a.Extension(), a.Classifier(), a.Version())
	}
	return fmt.Sprintf("%s:%s:%s:%s", a.GroupID(), a.ArtifactID(), a.Extension(), a.Version())
}

// NewDescriptorDocument converts a descriptor into its serialized form
func NewDescriptorDocument(d *Descriptor) DescriptorDocument {
	doc := DescriptorDocument{Repositories: d.Repositories}
	if !d.Artifact.IsZero() {
		doc.Artifact = coords(d.Artifact)
	}
	for _, dep := range d.Dependencies {
		doc.Dependencies = append(doc.Dependencies, NewDependencyEntry(dep))
	}
	for _, dep := range d.ManagedDependencies {
		doc.ManagedDependencies = append(doc.ManagedDependencies, NewDependencyEntry(dep))
	}
	return doc
}

// ToDescriptor converts the document. When the document does not name its
// artifact, a is used.
func (doc DescriptorDocument) ToDescriptor(a artifact.Artifact) (*Descriptor, error) {
	d := &Descriptor{Artifact: a, Repositories: doc.Repositories}
	if doc.Artifact != "" {
		parsed, err := artifact.Parse(doc.Artifact)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		d.Artifact = parsed
	}

	var err error
	if d.Dependencies, err = toDependencies(doc.Dependencies); err != nil {
		return nil, err
	}
	if d.ManagedDependencies, err = toDependencies(doc.ManagedDependencies); err != nil {
		return nil, err
	}
	return d, nil
}

func toDependencies(entries []DependencyEntry) ([]artifact.Dependency, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]artifact.Dependency, 0, len(entries))
	for _, e := range entries {
		d, err := e.ToDependency()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// DecodeDescriptor parses a YAML (or JSON) descriptor document
func DecodeDescriptor(data []byte, a artifact.Artifact) (*Descriptor, error) {
	var doc DescriptorDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return doc.ToDescriptor(a)
}

// EncodeDescriptor renders a descriptor as YAML
func EncodeDescriptor(d *Descriptor) ([]byte, error) {
	return yaml.Marshal(NewDescriptorDocument(d))
}
