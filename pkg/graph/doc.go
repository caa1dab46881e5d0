// Package graph holds the collected dependency tree and tools to inspect it.
//
// # Overview
//
// A collection produces a tree of *Node values rooted at the requested
// dependency. The tree is finite and acyclic: a dependency that would
// re-enter one of its ancestors is recorded as a Cycle and materialised as a
// childless node. Subtrees reused by the collector are shared by pointer.
//
// # Key Features
//
// Managed Bits: which fields dependency management overrode on a node
// Premanaged Values: original values before management (verbose mode only)
// Rendering: indented text via WriteTree, Cytoscape.js via ToCytoscape
// Listing: Flatten returns every distinct coordinate, nearest first
// Build Order: BuildDAG collapses the tree into an artifact DAG
//
// # Usage Example
//
//	result, err := c.Collect(ctx, session, request)
//	graph.WriteTree(os.Stdout, result.Root)
//
//	dag, err := graph.BuildDAG(result.Root)
//	order, err := dag.BuildOrder()
//
// # Related Packages
//
//   - pkg/collector: builds the tree
//   - pkg/collection: request and result types
package graph
