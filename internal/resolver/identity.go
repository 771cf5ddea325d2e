package resolver

import "ontoforge/internal/graph"

// IdentityResolver collapses nodes that share a simplified name into the
// first node created with that name. The representative keeps its own
// values; fields it lacks are filled from the discarded node.
type IdentityResolver struct {
	// MaxPasses bounds the fixed-point loop. Zero means no bound.
	MaxPasses int
}

func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{}
}

func (r *IdentityResolver) Name() string {
	return "identity"
}

// Resolve runs collapse passes until one of them merges nothing.
// Conflicts counts representative values that hid a different non-empty
// value of a discarded node.
func (r *IdentityResolver) Resolve(g *graph.Graph) (ResolveStats, error) {
	var stats ResolveStats
	if g == nil {
		return stats, nil
	}

	for {
		stats.Passes++
		merged := r.collapse(g, &stats)
		if merged == 0 {
			break
		}
		if r.MaxPasses > 0 && stats.Passes >= r.MaxPasses {
			break
		}
	}
	return stats, nil
}

func (r *IdentityResolver) collapse(g *graph.Graph, stats *ResolveStats) int {
	representative := make(map[string]*graph.Node)
	remap := make(map[string]string)

	for _, n := range g.OrderedNodes() {
		stats.Attempted++
		rep, ok := representative[n.Name]
		if !ok {
			representative[n.Name] = n
			continue
		}
		stats.Conflicts += absorb(rep, n)
		remap[n.ID] = rep.ID
	}
	if len(remap) == 0 {
		return 0
	}

	for id := range remap {
		g.RemoveNode(id)
	}

	edges := make([]graph.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if to, ok := remap[e.Source]; ok {
			e.Source = to
		}
		if to, ok := remap[e.Target]; ok {
			e.Target = to
		}
		edges = append(edges, e)
	}
	g.ReplaceEdges(edges)

	stats.Resolved += len(remap)
	return len(remap)
}

// absorb copies the fields rep lacks from dup and returns how many of dup's
// values were dropped because rep already held a different one.
func absorb(rep, dup *graph.Node) int {
	conflicts := 0
	fill := func(dst *string, src string) {
		switch {
		case src == "":
		case *dst == "":
			*dst = src
		case *dst != src:
			conflicts++
		}
	}

	fill(&rep.Description, dup.Description)
	fill(&rep.Label, dup.Label)
	fill(&rep.Source, dup.Source)
	fill(&rep.Origin, dup.Origin)
	if rep.Kind == "" {
		rep.Kind = dup.Kind
	}
	for k, v := range dup.Attributes {
		if !rep.SetAttr(k, v) && rep.Attr(k) != v {
			conflicts++
		}
	}
	return conflicts
}
