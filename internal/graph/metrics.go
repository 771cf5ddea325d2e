package graph

// Stats summarises the content of a graph for reports.
type Stats struct {
	Nodes         int
	Edges         int
	NodesByKind   map[Kind]int
	EdgesByType   map[string]int
	RelationTypes int
}

func (g *Graph) Stats() Stats {
	s := Stats{
		NodesByKind: make(map[Kind]int),
		EdgesByType: make(map[string]int),
	}
	if g == nil {
		return s
	}
	s.Nodes = len(g.Nodes)
	s.Edges = len(g.Edges)
	s.RelationTypes = len(g.relationTypes)
	for _, n := range g.Nodes {
		kind := n.Kind
		if kind == "" {
			kind = KindCategory
		}
		s.NodesByKind[kind]++
	}
	for _, e := range g.Edges {
		s.EdgesByType[e.Type]++
	}
	return s
}

// Counters flattens the stats into report counters.
func (s Stats) Counters() map[string]float64 {
	out := map[string]float64{
		"nodes":          float64(s.Nodes),
		"edges":          float64(s.Edges),
		"relation_types": float64(s.RelationTypes),
	}
	for k, v := range s.NodesByKind {
		out["nodes_"+string(k)] = float64(v)
	}
	for k, v := range s.EdgesByType {
		out["edges_"+k] = float64(v)
	}
	return out
}
