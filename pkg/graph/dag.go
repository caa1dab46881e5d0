package graph

import (
	"errors"
	"fmt"

	dgraph "github.com/dominikbraun/graph"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// DAG is the de-duplicated artifact graph of a collected tree. Vertices are
// full coordinates; an edge points from a dependent to its dependency.
// Edges that would close a cycle are dropped and reported by BackEdges.
type DAG struct {
	graph     dgraph.Graph[string, artifact.Artifact]
	backEdges [][2]string
}

// BuildDAG converts a collected tree into a DAG
func BuildDAG(root *Node) (*DAG, error) {
	if root == nil {
		return nil, fmt.Errorf("root cannot be nil")
	}

	hash := func(a artifact.Artifact) string { return a.Key() }
	dg := dgraph.New[string, artifact.Artifact](hash, dgraph.Directed(), dgraph.PreventCycles())
	d := &DAG{graph: dg}

	addVertex := func(n *Node) error {
		if err := dg.AddVertex(n.Artifact()); err != nil && !errors.Is(err, dgraph.ErrVertexAlreadyExists) {
			return fmt.Errorf("failed to add vertex %s: %w", n.Artifact(), err)
		}
		return nil
	}

	expanded := make(map[*Node]bool)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if expanded[n] {
			return nil
		}
		expanded[n] = true

		for _, c := range n.Children {
			if err := addVertex(c); err != nil {
				return err
			}
			if !n.Synthetic() {
				src, dst := n.Artifact().Key(), c.Artifact().Key()
				err := dg.AddEdge(src, dst)
				switch {
				case err == nil, errors.Is(err, dgraph.ErrEdgeAlreadyExists):
				case errors.Is(err, dgraph.ErrEdgeCreatesCycle):
					d.backEdges = append(d.backEdges, [2]string{src, dst})
				default:
					return fmt.Errorf("failed to add edge %s -> %s: %w", src, dst, err)
				}
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}

	if !root.Synthetic() {
		if err := addVertex(root); err != nil {
			return nil, err
		}
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return d, nil
}

// Size returns the number of distinct artifacts
func (d *DAG) Size() int {
	n, err := d.graph.Order()
	if err != nil {
		return 0
	}
	return n
}

// BackEdges returns the dependent/dependency pairs dropped because they
// would have closed a cycle
func (d *DAG) BackEdges() [][2]string {
	return d.backEdges
}

// Dependencies returns the direct dependency keys of an artifact key
func (d *DAG) Dependencies(key string) ([]string, error) {
	adj, err := d.graph.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	edges, ok := adj[key]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", key)
	}
	out := make([]string, 0, len(edges))
	for target := range edges {
		out = append(out, target)
	}
	return out, nil
}

// BuildOrder lists artifact keys so that every artifact appears after all of
// its dependencies. Ties are broken lexically for stable output.
func (d *DAG) BuildOrder() ([]string, error) {
	order, err := dgraph.StableTopologicalSort(d.graph, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to compute topological sort: %w", err)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
