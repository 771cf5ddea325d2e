package retrieval

import (
	"sort"

	"ontoforge/internal/graph"
)

// Config controls how neighbourhood subgraphs are extracted.
type Config struct {
	MaxHops int
	// AllowedTypes limits traversal to these edge types. Empty allows all.
	AllowedTypes map[string]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:      2,
		AllowedTypes: nil,
	}
}

// Subgraph is the neighbourhood of a set of seed classes.
type Subgraph struct {
	MaxHops int
	SeedIDs []string
	// Missing lists the requested names with no node in the store.
	Missing []string
	NodeIDs []string
	// Depth is the hop distance of each node from the nearest seed.
	Depth map[string]int
	Edges []graph.Edge
}

// Extract walks the store breadth-first from the named nodes, following
// edges in both directions up to cfg.MaxHops.
func Extract(g *graph.Graph, names []string, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{Depth: map[string]int{}}
	}
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	seedSet, missing := findSeedNodeIDs(g, names)
	seedIDs := sortedKeys(seedSet)

	if len(seedIDs) == 0 {
		return &Subgraph{
			MaxHops: cfg.MaxHops,
			SeedIDs: seedIDs,
			Missing: missing,
			Depth:   map[string]int{},
		}
	}

	adj := make(map[string][]edgeHop)
	for _, e := range g.Edges {
		if !edgeAllowed(e, cfg) {
			continue
		}
		adj[e.Source] = append(adj[e.Source], edgeHop{to: e.Target, edge: e})
		adj[e.Target] = append(adj[e.Target], edgeHop{to: e.Source, edge: e})
	}

	visitedDepth := make(map[string]int, len(seedIDs))
	queue := make([]queueItem, 0, len(seedIDs))
	for _, id := range seedIDs {
		visitedDepth[id] = 0
		queue = append(queue, queueItem{id: id, depth: 0})
	}

	edgeSeen := make(map[graph.Edge]bool)
	edges := make([]graph.Edge, 0)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxHops {
			continue
		}

		for _, next := range adj[cur.id] {
			if !edgeSeen[next.edge] {
				edgeSeen[next.edge] = true
				edges = append(edges, next.edge)
			}

			nextDepth := cur.depth + 1
			prevDepth, seen := visitedDepth[next.to]
			if !seen || nextDepth < prevDepth {
				visitedDepth[next.to] = nextDepth
				queue = append(queue, queueItem{id: next.to, depth: nextDepth})
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source == edges[j].Source {
			if edges[i].Target == edges[j].Target {
				return edges[i].Type < edges[j].Type
			}
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Source < edges[j].Source
	})

	return &Subgraph{
		MaxHops: cfg.MaxHops,
		SeedIDs: seedIDs,
		Missing: missing,
		NodeIDs: sortedKeys(visitedDepth),
		Depth:   visitedDepth,
		Edges:   edges,
	}
}

// Graph copies the subgraph's nodes and edges out of g into a new store.
func (s *Subgraph) Graph(g *graph.Graph) *graph.Graph {
	out := graph.NewGraph()
	for _, id := range s.NodeIDs {
		if n := g.Node(id); n != nil {
			out.AddNode(n.Clone())
		}
	}
	for _, e := range s.Edges {
		out.AddEdge(e.Source, e.Target, e.Type)
		out.RegisterRelationType(e.Type)
	}
	return out
}

type queueItem struct {
	id    string
	depth int
}

type edgeHop struct {
	to   string
	edge graph.Edge
}

func findSeedNodeIDs(g *graph.Graph, names []string) (map[string]int, []string) {
	out := make(map[string]int)
	var missing []string
	for _, name := range names {
		n := g.NodeByName(graph.Simplify(name))
		if n == nil {
			n = g.Node(name)
		}
		if n == nil {
			missing = append(missing, name)
			continue
		}
		out[n.ID] = 0
	}
	return out, missing
}

func edgeAllowed(e graph.Edge, cfg Config) bool {
	if len(cfg.AllowedTypes) == 0 {
		return true
	}
	return cfg.AllowedTypes[e.Type]
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
