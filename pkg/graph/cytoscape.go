package graph

// CytoscapeNode represents a node in Cytoscape.js format
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains node data for Cytoscape.js
type CytoscapeNodeData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Scope   string `json:"scope,omitempty"`
	Type    string `json:"type"` // "root", "direct", "transitive"
}

// CytoscapeEdge represents an edge in Cytoscape.js format
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains edge data for Cytoscape.js
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"` // "direct", "transitive"
}

// CytoscapeGraph represents the complete graph in Cytoscape.js format
type CytoscapeGraph struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

const syntheticRootID = "(root)"

// ToCytoscape converts a collected tree into a Cytoscape.js graph. Nodes are
// identified by full coordinate, so repeated artifacts collapse into a single
// vertex and cycles show up as back edges.
func ToCytoscape(root *Node) CytoscapeGraph {
	g := CytoscapeGraph{
		Nodes: make([]CytoscapeNode, 0),
		Edges: make([]CytoscapeEdge, 0),
	}
	if root == nil {
		return g
	}

	visitedNodes := make(map[string]bool)
	visitedEdges := make(map[string]bool)
	expanded := make(map[*Node]bool)

	rootID := nodeID(root)
	g.Nodes = append(g.Nodes, CytoscapeNode{Data: nodeData(root, rootID, "root")})
	visitedNodes[rootID] = true

	var add func(parent *Node, parentID string, depth int)
	add = func(parent *Node, parentID string, depth int) {
		if expanded[parent] {
			return
		}
		expanded[parent] = true

		edgeType := "transitive"
		if depth == 0 {
			edgeType = "direct"
		}
		for _, child := range parent.Children {
			childID := nodeID(child)
			if !visitedNodes[childID] {
				visitedNodes[childID] = true
				g.Nodes = append(g.Nodes, CytoscapeNode{Data: nodeData(child, childID, edgeType)})
			}

			edgeID := parentID + "->" + childID
			if !visitedEdges[edgeID] {
				visitedEdges[edgeID] = true
				g.Edges = append(g.Edges, CytoscapeEdge{
					Data: CytoscapeEdgeData{
						ID:     edgeID,
						Source: parentID,
						Target: childID,
						Type:   edgeType,
					},
				})
			}
			add(child, childID, depth+1)
		}
	}
	add(root, rootID, 0)

	return g
}

func nodeID(n *Node) string {
	if n.Synthetic() {
		return syntheticRootID
	}
	return n.Artifact().Key()
}

func nodeData(n *Node, id, typ string) CytoscapeNodeData {
	a := n.Artifact()
	data := CytoscapeNodeData{
		ID:      id,
		Name:    a.GroupID() + ":" + a.ArtifactID(),
		Version: a.Version(),
		Type:    typ,
	}
	if n.Synthetic() {
		data.Name = syntheticRootID
	}
	if n.Dependency != nil {
		data.Scope = n.Dependency.Scope
	}
	return data
}
