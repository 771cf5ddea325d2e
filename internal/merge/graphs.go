// Package merge composes per-origin stores and forests into global ones.
package merge

import (
	"strings"

	"ontoforge/internal/graph"
)

// SourceSeparator joins distinct provenance values.
const SourceSeparator = " / "

// GraphStats describes a graph merge.
type GraphStats struct {
	Inputs       int
	Nodes        int
	Edges        int
	Collisions   int
	Conflicts    int
	DroppedEdges int
}

// Key is the merge key of a node: its id, else the category id of its name.
func Key(n *graph.Node) string {
	if n.ID != "" {
		return n.ID
	}
	return graph.CategoryID(graph.Simplify(n.Name))
}

// JoinSources combines two provenance values. Equal values stay as they
// are, an empty side yields the other, and distinct values are joined
// without repeating a part the first one already holds.
func JoinSources(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == b:
		return a
	case a == "":
		return b
	case b == "":
		return a
	}

	parts := strings.Split(a, SourceSeparator)
	have := make(map[string]bool, len(parts))
	for _, p := range parts {
		have[strings.TrimSpace(p)] = true
	}
	for _, p := range strings.Split(b, SourceSeparator) {
		p = strings.TrimSpace(p)
		if p == "" || have[p] {
			continue
		}
		have[p] = true
		parts = append(parts, p)
	}
	return strings.Join(parts, SourceSeparator)
}

// Graphs merges stores in order into a new graph. Inputs are not modified.
// Edges whose endpoints are missing from the merged node set are dropped.
func Graphs(stores ...*graph.Graph) (*graph.Graph, GraphStats) {
	stats := GraphStats{Inputs: len(stores)}

	var order []string
	nodes := make(map[string]*graph.Node)
	for _, g := range stores {
		if g == nil {
			continue
		}
		for _, n := range g.OrderedNodes() {
			key := Key(n)
			existing, ok := nodes[key]
			if !ok {
				c := n.Clone()
				c.ID = key
				nodes[key] = c
				order = append(order, key)
				continue
			}
			stats.Collisions++
			stats.Conflicts += mergeNode(existing, n)
		}
	}

	out := graph.NewGraph()
	for _, key := range order {
		out.AddNode(nodes[key])
	}

	for _, g := range stores {
		if g == nil {
			continue
		}
		for _, e := range g.Edges {
			if out.Node(e.Source) == nil || out.Node(e.Target) == nil {
				stats.DroppedEdges++
				continue
			}
			out.AddEdge(e.Source, e.Target, e.Type)
		}
		for _, t := range g.RelationTypes() {
			out.RegisterRelationType(t)
		}
	}

	stats.Nodes = len(out.Nodes)
	stats.Edges = len(out.Edges)
	return out, stats
}

// mergeNode folds incoming into existing and returns the number of
// label/description values that were dropped.
func mergeNode(existing, incoming *graph.Node) int {
	conflicts := 0
	keep := func(dst *string, src string) {
		switch {
		case src == "":
		case *dst == "":
			*dst = src
		case *dst != src:
			conflicts++
		}
	}

	keep(&existing.Label, incoming.Label)
	keep(&existing.Description, incoming.Description)
	if existing.Name == "" {
		existing.Name = incoming.Name
	}
	if existing.Kind == "" {
		existing.Kind = incoming.Kind
	}
	existing.Source = JoinSources(existing.Source, incoming.Source)
	existing.Origin = JoinSources(existing.Origin, incoming.Origin)
	for k, v := range incoming.Attributes {
		existing.SetAttr(k, v)
	}
	return conflicts
}
