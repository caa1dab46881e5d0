// Package collector builds the transitive dependency tree of one or more
// root dependencies.
//
// # Overview
//
// Collect walks descriptors depth first. For every node it applies inherited
// dependency management, runs the selector, resolves the version constraint,
// checks the ancestor stack for cycles and reads the descriptor. A dependency
// whose identity already appears on its branch becomes a childless node and a
// recorded cycle, so collection always terminates.
//
// Per-node failures do not stop the walk. They are recorded on the result
// and returned together with it as a *collection.CollectionError.
//
// # Usage
//
//	store := repository.NewMemory()
//	c := collector.New(store, store, collector.WithParallelism(8))
//	res, err := c.Collect(ctx, collector.DefaultSession(), collection.NewRequest(root, repos))
//
// # Caching
//
// Descriptors and version ranges are read at most once per Collect call.
// Subtrees are memoised by artifact, repositories and the identity of the
// derived capabilities, so identical subtrees share their children.
//
// # Related Packages
//
//   - pkg/collection: request, result, session and capability contracts
//   - pkg/repository: descriptor readers and version range resolvers
//   - pkg/graph: the resulting tree
package collector
