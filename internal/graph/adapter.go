package graph

// FromParts rebuilds a graph from persisted nodes, edges and relation types.
// Nodes keep the given order; duplicate ids and duplicate edges collapse.
func FromParts(nodes []*Node, edges []Edge, relationTypes []string) *Graph {
	g := NewGraph()
	for _, n := range nodes {
		if n == nil {
			continue
		}
		g.AddNode(n.Clone())
	}
	for _, e := range edges {
		g.AddEdge(e.Source, e.Target, e.Type)
	}
	for _, t := range relationTypes {
		g.RegisterRelationType(t)
	}
	return g
}

// Parts returns copies of the nodes (insertion order) and edges of the graph.
func (g *Graph) Parts() ([]*Node, []Edge) {
	nodes := make([]*Node, 0, len(g.order))
	for _, n := range g.OrderedNodes() {
		nodes = append(nodes, n.Clone())
	}
	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)
	return nodes, edges
}

// DanglingEdges returns the edges whose source or target is not a node.
func (g *Graph) DanglingEdges() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if g.Nodes[e.Source] == nil || g.Nodes[e.Target] == nil {
			out = append(out, e)
		}
	}
	return out
}
