package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// DescriptorExt is the file extension of descriptor documents
const DescriptorExt = ".yaml"

// FileSystem reads YAML descriptors laid out as
// <root>/<groupId>/<artifactId>/<version>.yaml
type FileSystem struct {
	root string
	repo Remote
	log  *logrus.Logger
}

// NewFileSystem creates a filesystem backend rooted at dir
func NewFileSystem(dir string, log *logrus.Logger) (*FileSystem, error) {
	if log == nil {
		log = logrus.New()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", abs)
	}

	return &FileSystem{
		root: abs,
		repo: Remote{ID: "local", URL: "file://" + filepath.ToSlash(abs)},
		log:  log,
	}, nil
}

// Root returns the absolute repository root
func (f *FileSystem) Root() string { return f.root }

// Path returns the descriptor path for an artifact
func (f *FileSystem) Path(a artifact.Artifact) string {
	return filepath.Join(f.root, a.GroupID(), a.ArtifactID(), a.Version()+DescriptorExt)
}

// ArtifactForPath maps a descriptor path back to its artifact. ok is false
// for paths outside the layout.
func (f *FileSystem) ArtifactForPath(path string) (artifact.Artifact, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return artifact.Artifact{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || !strings.HasSuffix(parts[2], DescriptorExt) {
		return artifact.Artifact{}, false
	}
	v := strings.TrimSuffix(parts[2], DescriptorExt)
	return artifact.New(parts[0], parts[1], "", artifact.DefaultExtension, v), true
}

// ReadDescriptor implements DescriptorReader
func (f *FileSystem) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	path := f.Path(req.Artifact)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Artifact)
		}
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}

	d, err := DecodeDescriptor(data, req.Artifact)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f.log.WithFields(logrus.Fields{
		"artifact":     req.Artifact.String(),
		"dependencies": len(d.Dependencies),
	}).Debug("Read descriptor from filesystem")
	return d, nil
}

// WriteDescriptor stores a descriptor, creating directories as needed
func (f *FileSystem) WriteDescriptor(d *Descriptor) error {
	data, err := EncodeDescriptor(d)
	if err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	path := f.Path(d.Artifact)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

// ListVersions implements VersionLister
func (f *FileSystem) ListVersions(ctx context.Context, a artifact.Artifact, repos []Remote) ([]string, map[string]Remote, error) {
	dir := filepath.Join(f.root, a.GroupID(), a.ArtifactID())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to list versions: %w", err)
	}

	var versions []string
	hosts := make(map[string]Remote)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DescriptorExt) {
			continue
		}
		v := strings.TrimSuffix(e.Name(), DescriptorExt)
		versions = append(versions, v)
		hosts[v] = f.repo
	}
	return versions, hosts, nil
}

// ResolveVersionRange implements VersionRangeResolver
func (f *FileSystem) ResolveVersionRange(ctx context.Context, req RangeRequest) (*RangeResult, error) {
	return ResolveWith(ctx, f, req)
}
