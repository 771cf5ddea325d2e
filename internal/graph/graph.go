package graph

import (
	"sort"
)

// Graph is an in-memory node/edge store. Nodes are keyed by id and keep their
// insertion order; edges are unique by (source, target, type).
type Graph struct {
	Nodes map[string]*Node
	Edges []Edge

	order         []string
	edgeSet       map[Edge]bool
	relationTypes map[string]bool

	// Derived indices, rebuilt lazily after mutation.
	nameIndex map[string]string   // name -> id of the first node with that name
	children  map[string][]string // parent name -> child names (is_a)
	parents   map[string][]string // child name -> parent names (is_a)
	neighbors map[string][]string // name -> names linked by any other edge type
	dirty     bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:         make(map[string]*Node),
		Edges:         []Edge{},
		edgeSet:       make(map[Edge]bool),
		relationTypes: make(map[string]bool),
		dirty:         true,
	}
}

// EnsureNode returns the node with the given id, creating it if needed.
// An existing node is returned untouched.
func (g *Graph) EnsureNode(id, name string, kind Kind) *Node {
	if n, ok := g.Nodes[id]; ok {
		return n
	}
	if kind == "" {
		kind = KindCategory
	}
	n := &Node{ID: id, Name: name, Kind: kind}
	g.Nodes[id] = n
	g.order = append(g.order, id)
	g.dirty = true
	return n
}

// AddNode inserts a fully populated node. It reports false if the id exists.
func (g *Graph) AddNode(n *Node) bool {
	if n == nil || n.ID == "" {
		return false
	}
	if _, ok := g.Nodes[n.ID]; ok {
		return false
	}
	g.Nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.dirty = true
	return true
}

// Node looks a node up by id.
func (g *Graph) Node(id string) *Node {
	return g.Nodes[id]
}

// NodeByName returns the first node created with the given simplified name.
func (g *Graph) NodeByName(name string) *Node {
	g.ensureIndices()
	if id, ok := g.nameIndex[name]; ok {
		return g.Nodes[id]
	}
	return nil
}

// OrderedNodes returns the nodes in insertion order.
func (g *Graph) OrderedNodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		if n, ok := g.Nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// RemoveNode deletes a node. Edges are left alone; callers rewrite them.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.Nodes[id]; !ok {
		return
	}
	delete(g.Nodes, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.dirty = true
}

// AddEdge records an edge. Duplicate (source, target, type) triples collapse;
// the return value reports whether the edge was new.
func (g *Graph) AddEdge(source, target, typ string) bool {
	e := Edge{Source: source, Target: target, Type: typ}
	if g.edgeSet[e] {
		return false
	}
	g.edgeSet[e] = true
	g.Edges = append(g.Edges, e)
	g.dirty = true
	return true
}

// HasEdge reports whether the edge exists.
func (g *Graph) HasEdge(source, target, typ string) bool {
	return g.edgeSet[Edge{Source: source, Target: target, Type: typ}]
}

// ReplaceEdges swaps the edge list, collapsing duplicates and keeping the
// first occurrence order.
func (g *Graph) ReplaceEdges(edges []Edge) {
	g.Edges = make([]Edge, 0, len(edges))
	g.edgeSet = make(map[Edge]bool, len(edges))
	for _, e := range edges {
		g.AddEdge(e.Source, e.Target, e.Type)
	}
	g.dirty = true
}

// RegisterRelationType records an edge type or relation name for reporting.
func (g *Graph) RegisterRelationType(t string) {
	if t == "" {
		return
	}
	g.relationTypes[t] = true
}

// RelationTypes returns every registered relation type, sorted.
func (g *Graph) RelationTypes() []string {
	return sortedKeys(g.relationTypes)
}

// ChildrenOf returns the names of the nodes that declare nodeName as their
// is_a parent, sorted by name. Self loops are not children.
func (g *Graph) ChildrenOf(nodeName string) []string {
	g.ensureIndices()
	return g.children[nodeName]
}

// ParentsOf returns the is_a parents of nodeName, sorted by name.
func (g *Graph) ParentsOf(nodeName string) []string {
	g.ensureIndices()
	return g.parents[nodeName]
}

// Neighbors returns the names linked to nodeName by a non-hierarchical edge in
// either direction, sorted by name.
func (g *Graph) Neighbors(nodeName string) []string {
	g.ensureIndices()
	return g.neighbors[nodeName]
}

// Roots returns the names of nodes without an is_a parent, sorted by name.
// With candidates, only detected roots in the allow-list are returned, in
// allow-list order; if none of them is detected the allow-list is returned
// verbatim and fallback is true.
func (g *Graph) Roots(candidates []string) (roots []string, fallback bool) {
	g.ensureIndices()

	detected := make(map[string]bool)
	for _, n := range g.OrderedNodes() {
		if len(g.parents[n.Name]) == 0 {
			detected[n.Name] = true
		}
	}

	if len(candidates) == 0 {
		return sortedKeys(detected), false
	}

	for _, c := range candidates {
		if detected[c] {
			roots = append(roots, c)
		}
	}
	if len(roots) == 0 {
		return append([]string(nil), candidates...), true
	}
	return roots, false
}

// RebuildIndices recomputes the name index and adjacency maps. It runs
// automatically on the first query after a mutation.
func (g *Graph) RebuildIndices() {
	g.nameIndex = make(map[string]string, len(g.Nodes))
	for _, id := range g.order {
		n, ok := g.Nodes[id]
		if !ok {
			continue
		}
		if _, exists := g.nameIndex[n.Name]; !exists {
			g.nameIndex[n.Name] = id
		}
	}

	children := make(map[string]map[string]bool)
	parents := make(map[string]map[string]bool)
	neighbors := make(map[string]map[string]bool)
	for _, e := range g.Edges {
		src, ok1 := g.Nodes[e.Source]
		tgt, ok2 := g.Nodes[e.Target]
		if !ok1 || !ok2 || src.Name == tgt.Name {
			continue
		}
		if e.Type == EdgeIsA {
			addTo(children, tgt.Name, src.Name)
			addTo(parents, src.Name, tgt.Name)
			continue
		}
		addTo(neighbors, src.Name, tgt.Name)
		addTo(neighbors, tgt.Name, src.Name)
	}

	g.children = flatten(children)
	g.parents = flatten(parents)
	g.neighbors = flatten(neighbors)
	g.dirty = false
}

func (g *Graph) ensureIndices() {
	if g.dirty || g.nameIndex == nil {
		g.RebuildIndices()
	}
}

func addTo(m map[string]map[string]bool, key, value string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]bool)
		m[key] = set
	}
	set[value] = true
}

func flatten(m map[string]map[string]bool) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, set := range m {
		out[k] = sortedKeys(set)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
