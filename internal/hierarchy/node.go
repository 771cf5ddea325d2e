// Package hierarchy extracts name-sorted trees from the is_a relation of a
// graph store.
package hierarchy

import (
	"encoding/json"
	"sort"

	"ontoforge/internal/graph"
)

// LineStyle carries presentation hints for the edge leading to a node.
type LineStyle struct {
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// Node is one position in a tree. The same graph node reached through two
// parents appears twice.
type Node struct {
	Name          string     `json:"name" validate:"required"`
	ID            string     `json:"id,omitempty"`
	Source        string     `json:"source,omitempty"`
	Kind          graph.Kind `json:"kind,omitempty" validate:"omitempty,oneof=category relation root root-branch"`
	Color         string     `json:"color,omitempty" validate:"omitempty,hexcolor"`
	LineStyle     *LineStyle `json:"lineStyle,omitempty"`
	InvisibleRoot bool       `json:"invisibleRoot,omitempty"`
	Cycle         bool       `json:"cycle,omitempty"`
	Children      []*Node    `json:"children" validate:"dive,required"`
}

// Forest is an ordered list of roots.
type Forest []*Node

type nodeJSON Node

// MarshalJSON always emits children as an array.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON(*n)
	if out.Children == nil {
		out.Children = []*Node{}
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.LineStyle != nil {
		ls := *n.LineStyle
		c.LineStyle = &ls
	}
	c.Children = make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return &c
}

// Clone returns a deep copy of every tree.
func (f Forest) Clone() Forest {
	out := make(Forest, 0, len(f))
	for _, n := range f {
		out = append(out, n.Clone())
	}
	return out
}

// Wrap places a forest under a synthetic invisible root.
func Wrap(name string, forest Forest) *Node {
	children := make([]*Node, 0, len(forest))
	children = append(children, forest...)
	return &Node{
		Name:          name,
		Kind:          graph.KindRoot,
		InvisibleRoot: true,
		Children:      children,
	}
}

// Walk visits every node depth first, parents before children. Returning
// false from fn skips the node's children.
func Walk(forest Forest, fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if n == nil || !fn(n, depth) {
			return
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	for _, root := range forest {
		visit(root, 0)
	}
}

// Count returns the number of positions in the forest.
func Count(forest Forest) int {
	total := 0
	Walk(forest, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Names returns the distinct names in the forest, sorted.
func Names(forest Forest) []string {
	seen := make(map[string]bool)
	Walk(forest, func(n *Node, _ int) bool {
		seen[n.Name] = true
		return true
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortChildren orders every children list by name.
func SortChildren(forest Forest) {
	Walk(forest, func(n *Node, _ int) bool {
		sort.SliceStable(n.Children, func(i, j int) bool {
			return n.Children[i].Name < n.Children[j].Name
		})
		return true
	})
}
