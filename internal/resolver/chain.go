package resolver

import "ontoforge/internal/graph"

type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
	Conflicts int
	Passes    int
}

type GraphResolver interface {
	Name() string
	Resolve(g *graph.Graph) (ResolveStats, error)
}

type StageResult struct {
	Resolver         string
	Stats            ResolveStats
	DuplicatesBefore int
	DuplicatesAfter  int
	EdgeCount        int
	Err              error
}

type ResolverChain struct {
	resolvers []GraphResolver
}

func NewResolverChain(resolvers ...GraphResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers}
}

// NewDefaultChain collapses duplicate names, then drops edges left without
// an endpoint.
func NewDefaultChain() *ResolverChain {
	return NewResolverChain(NewIdentityResolver(), NewDanglingEdgeResolver())
}

func (c *ResolverChain) Run(g *graph.Graph) []StageResult {
	if g == nil {
		return nil
	}

	var out []StageResult
	for _, r := range c.resolvers {
		before := DuplicateNames(g)
		stats, err := r.Resolve(g)
		after := DuplicateNames(g)
		out = append(out, StageResult{
			Resolver:         r.Name(),
			Stats:            stats,
			DuplicatesBefore: before,
			DuplicatesAfter:  after,
			EdgeCount:        len(g.Edges),
			Err:              err,
		})
		if err != nil {
			break
		}
	}
	return out
}

// DuplicateNames counts nodes whose simplified name is already carried by an
// earlier node.
func DuplicateNames(g *graph.Graph) int {
	seen := make(map[string]bool, len(g.Nodes))
	dup := 0
	for _, n := range g.OrderedNodes() {
		if seen[n.Name] {
			dup++
			continue
		}
		seen[n.Name] = true
	}
	return dup
}

// DanglingEdgeResolver removes edges whose source or target is not a node.
type DanglingEdgeResolver struct{}

func NewDanglingEdgeResolver() *DanglingEdgeResolver {
	return &DanglingEdgeResolver{}
}

func (r *DanglingEdgeResolver) Name() string {
	return "dangling"
}

func (r *DanglingEdgeResolver) Resolve(g *graph.Graph) (ResolveStats, error) {
	if g == nil {
		return ResolveStats{}, nil
	}
	kept := make([]graph.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if g.Node(e.Source) == nil || g.Node(e.Target) == nil {
			continue
		}
		kept = append(kept, e)
	}
	stats := ResolveStats{
		Attempted: len(g.Edges),
		Resolved:  len(kept),
		Skipped:   len(g.Edges) - len(kept),
		Passes:    1,
	}
	g.ReplaceEdges(kept)
	return stats, nil
}
