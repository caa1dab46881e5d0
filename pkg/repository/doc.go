// Package repository provides the descriptor and version sources consumed by
// the collector.
//
// # Overview
//
// The collector depends on two capabilities: a DescriptorReader returning an
// artifact's direct and managed dependencies, and a VersionRangeResolver
// expanding version constraints into concrete candidates. A Manager decides
// how descriptor-declared repositories are merged into the request's list.
//
// # Backends
//
// Memory: in-process store, used by tests and embedded callers
// FileSystem: YAML descriptors under <root>/<groupId>/<artifactId>/<version>.yaml
// S3Reader: the same layout inside a bucket
// SQLIndex: version index in PostgreSQL or SQLite
// CachingReader: expiring LRU in front of any reader
// RedisCache: shared cache in front of any reader
// Watcher: invalidates caches when filesystem descriptors change
//
// # Usage Example
//
//	fs, err := repository.NewFileSystem("./repo", log)
//	reader := repository.NewCachingReader(fs, 1000, 10*time.Minute, log)
//
//	d, err := reader.ReadDescriptor(ctx, repository.DescriptorRequest{
//		Artifact:     artifact.MustParse("org.example:core:1.0"),
//		Repositories: []repository.Remote{{ID: "central", URL: "https://repo.example.org"}},
//	})
package repository
