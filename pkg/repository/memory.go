package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// Memory is an in-process descriptor store and version index
type Memory struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor // by artifact Key
	versions    map[string][]string    // by versionless key
	hosts       map[string]Remote      // by artifact Key
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		descriptors: make(map[string]*Descriptor),
		versions:    make(map[string][]string),
		hosts:       make(map[string]Remote),
	}
}

// Add registers a descriptor and its artifact version
func (m *Memory) Add(d *Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := d.Artifact.Key()
	if _, ok := m.descriptors[key]; !ok {
		vk := d.Artifact.VersionlessKey()
		m.versions[vk] = append(m.versions[vk], d.Artifact.Version())
	}
	m.descriptors[key] = d
}

// AddDependencies is a shorthand for Add with direct dependencies only
func (m *Memory) AddDependencies(a artifact.Artifact, deps ...artifact.Dependency) {
	m.Add(&Descriptor{Artifact: a, Dependencies: deps})
}

// AddVersions registers versions of an artifact without descriptors,
// optionally recording the hosting repository
func (m *Memory) AddVersions(a artifact.Artifact, host *Remote, versions ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vk := a.VersionlessKey()
	for _, v := range versions {
		if !slices.Contains(m.versions[vk], v) {
			m.versions[vk] = append(m.versions[vk], v)
		}
		if host != nil {
			m.hosts[a.WithVersion(v).Key()] = *host
		}
	}
}

// Remove forgets a descriptor
func (m *Memory) Remove(a artifact.Artifact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.descriptors, a.Key())
}

// ReadDescriptor implements DescriptorReader
func (m *Memory) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.descriptors[req.Artifact.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Artifact)
	}
	return d, nil
}

// ListVersions implements VersionLister
func (m *Memory) ListVersions(ctx context.Context, a artifact.Artifact, repos []Remote) ([]string, map[string]Remote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listed := append([]string(nil), m.versions[a.VersionlessKey()]...)
	hosts := make(map[string]Remote, len(listed))
	for _, v := range listed {
		if repo, ok := m.hosts[a.WithVersion(v).Key()]; ok {
			hosts[v] = repo
		} else if len(repos) > 0 {
			hosts[v] = repos[0]
		}
	}
	return listed, hosts, nil
}

// ResolveVersionRange implements VersionRangeResolver
func (m *Memory) ResolveVersionRange(ctx context.Context, req RangeRequest) (*RangeResult, error) {
	return ResolveWith(ctx, m, req)
}
