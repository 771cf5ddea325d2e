package hierarchy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge/internal/graph"
)

func storeWith(pairs ...[2]string) *graph.Graph {
	g := graph.NewGraph()
	for _, p := range pairs {
		child, parent := p[0], p[1]
		g.EnsureNode(graph.CategoryID(child), child, graph.KindCategory)
		g.EnsureNode(graph.CategoryID(parent), parent, graph.KindCategory)
		g.AddEdge(graph.CategoryID(child), graph.CategoryID(parent), graph.EdgeIsA)
	}
	return g
}

func shape(n *Node) map[string]any {
	children := make([]any, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, shape(c))
	}
	return map[string]any{n.Name: children}
}

func TestBuildForest_SortedChildren(t *testing.T) {
	g := storeWith(
		[2]string{"Tank", "Vehicle"},
		[2]string{"Vehicle", "Entity"},
		[2]string{"Drone", "Vehicle"},
	)
	g.Node("CAT_Tank").Origin = "mim"

	forest, stats := BuildForest(g, []string{"Entity"})
	require.Len(t, forest, 1)

	assert.Equal(t, map[string]any{
		"Entity": []any{
			map[string]any{"Vehicle": []any{
				map[string]any{"Drone": []any{}},
				map[string]any{"Tank": []any{}},
			}},
		},
	}, shape(forest[0]))

	tank := forest[0].Children[0].Children[1]
	assert.Equal(t, "CAT_Tank", tank.ID)
	assert.Equal(t, "mim", tank.Source)
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Empty(t, stats.Cycles)
}

func TestBuildForest_Cycle(t *testing.T) {
	g := storeWith([2]string{"A", "B"}, [2]string{"B", "A"})

	forest, stats := BuildForest(g, []string{"A"})
	require.Len(t, forest, 1)

	a := forest[0]
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Equal(t, "B", b.Name)
	require.Len(t, b.Children, 1)
	leaf := b.Children[0]
	assert.Equal(t, "A", leaf.Name)
	assert.True(t, leaf.Cycle)
	assert.Empty(t, leaf.Children)
	assert.Equal(t, []string{"A > B > A"}, stats.Cycles)
}

func TestBuildForest_SharedChildAppearsPerPath(t *testing.T) {
	g := storeWith(
		[2]string{"Amphibian", "Boat"},
		[2]string{"Amphibian", "Car"},
		[2]string{"Boat", "Vehicle"},
		[2]string{"Car", "Vehicle"},
	)

	forest, stats := BuildForest(g, []string{"Vehicle"})
	assert.Empty(t, stats.Cycles, "diamond is not a cycle")
	assert.Equal(t, 5, Count(forest))
	assert.Equal(t, []string{"Amphibian", "Boat", "Car", "Vehicle"}, Names(forest))
}

func TestBuildForest_PathHasNoRepeats(t *testing.T) {
	g := storeWith(
		[2]string{"B", "A"}, [2]string{"C", "B"}, [2]string{"A", "C"},
		[2]string{"D", "C"}, [2]string{"B", "D"},
	)

	forest, _ := BuildForest(g, []string{"A", "B"})
	var check func(n *Node, seen map[string]bool)
	check = func(n *Node, seen map[string]bool) {
		if n.Cycle {
			assert.True(t, seen[n.Name])
			return
		}
		assert.False(t, seen[n.Name], n.Name)
		next := map[string]bool{n.Name: true}
		for k := range seen {
			next[k] = true
		}
		for _, c := range n.Children {
			check(c, next)
		}
	}
	for _, root := range forest {
		check(root, map[string]bool{})
	}
}

func TestBuildForest_UnknownRoot(t *testing.T) {
	forest, _ := BuildForest(graph.NewGraph(), []string{"Capability"})
	require.Len(t, forest, 1)
	assert.Equal(t, "Capability", forest[0].Name)
	assert.Empty(t, forest[0].ID)
	assert.NotNil(t, forest[0].Children)
}

func TestNode_JSON(t *testing.T) {
	n := &Node{Name: "Leaf"}
	data, err := json.Marshal(Forest{n})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Leaf","children":[]}]`, string(data))
}

func TestCloneAndWrap(t *testing.T) {
	original := Forest{{
		Name:      "Root",
		LineStyle: &LineStyle{Color: "#ffffff"},
		Children:  []*Node{{Name: "Child"}},
	}}

	copied := original.Clone()
	copied[0].Children[0].Name = "Changed"
	copied[0].LineStyle.Color = "#000000"
	assert.Equal(t, "Child", original[0].Children[0].Name)
	assert.Equal(t, "#ffffff", original[0].LineStyle.Color)

	wrapped := Wrap("Ontology", original)
	assert.True(t, wrapped.InvisibleRoot)
	assert.Equal(t, graph.KindRoot, wrapped.Kind)
	assert.Equal(t, 3, Count(Forest{wrapped}))
}

func TestWalk_SkipsChildren(t *testing.T) {
	forest := Forest{{Name: "A", Children: []*Node{{Name: "B", Children: []*Node{{Name: "C"}}}}}}
	var visited []string
	Walk(forest, func(n *Node, depth int) bool {
		visited = append(visited, n.Name)
		return depth < 1
	})
	assert.Equal(t, []string{"A", "B"}, visited)
}

func TestSortChildren(t *testing.T) {
	forest := Forest{{Name: "R", Children: []*Node{{Name: "b"}, {Name: "A"}, {Name: "a"}}}}
	SortChildren(forest)
	assert.Equal(t, []string{"A", "a", "b"}, []string{
		forest[0].Children[0].Name, forest[0].Children[1].Name, forest[0].Children[2].Name,
	})
}
