package hierarchy

import (
	"strings"

	"ontoforge/internal/graph"
)

// Stats describes a built forest.
type Stats struct {
	Roots    int
	Nodes    int
	MaxDepth int
	// Cycles lists the paths that were cut, as "A > B > A".
	Cycles []string
}

// BuildForest expands every root through the is_a children of store. Each
// path carries its own ancestor set, so a node reachable through two parents
// appears under both, and a node met again on its own path becomes a leaf
// marked as a cycle.
func BuildForest(store *graph.Graph, roots []string) (Forest, Stats) {
	b := &builder{store: store}
	forest := make(Forest, 0, len(roots))
	for _, name := range roots {
		forest = append(forest, b.expand(name, nil, map[string]bool{}, 0))
	}
	b.stats.Roots = len(forest)
	return forest, b.stats
}

type builder struct {
	store *graph.Graph
	stats Stats
}

func (b *builder) expand(name string, path []string, ancestors map[string]bool, depth int) *Node {
	b.stats.Nodes++
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	n := &Node{Name: name, Children: []*Node{}}
	if gn := b.store.NodeByName(name); gn != nil {
		n.ID = gn.ID
		n.Source = gn.Origin
	}

	if ancestors[name] {
		n.Cycle = true
		b.stats.Cycles = append(b.stats.Cycles, strings.Join(append(append([]string(nil), path...), name), " > "))
		return n
	}

	next := make(map[string]bool, len(ancestors)+1)
	for k := range ancestors {
		next[k] = true
	}
	next[name] = true
	nextPath := append(append(make([]string, 0, len(path)+1), path...), name)

	for _, child := range b.store.ChildrenOf(name) {
		n.Children = append(n.Children, b.expand(child, nextPath, next, depth+1))
	}
	return n
}
