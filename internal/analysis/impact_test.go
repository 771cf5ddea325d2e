package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge/internal/graph"
)

func impactGraph() *graph.Graph {
	g := graph.NewGraph()
	add := func(name, origin string) {
		g.EnsureNode(graph.CategoryID(name), name, graph.KindCategory).Origin = origin
	}
	add("Vehicle", "mim")
	add("Tank", "mim")
	add("HeavyTank", "mim / propio")
	add("Crew", "cyberdem")
	add("Network", "cyberdem")
	g.AddEdge("CAT_Tank", "CAT_Vehicle", graph.EdgeIsA)
	g.AddEdge("CAT_HeavyTank", "CAT_Tank", graph.EdgeIsA)
	g.AddEdge("CAT_Crew", "CAT_Vehicle", "operates")
	return g
}

func names(nodes []*graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestAnalyzeImpact(t *testing.T) {
	report := NewAnalyzer(impactGraph()).AnalyzeImpact([]string{"Vehicle", "Missing"})

	assert.Equal(t, []string{"Missing"}, report.Missing)
	require.Len(t, report.DirectlyAffected, 1)
	assert.Equal(t, "Vehicle", report.DirectlyAffected[0].Name)
	assert.Equal(t, []string{"Crew", "HeavyTank", "Tank"}, names(report.IndirectlyAffected))
	assert.Equal(t, []string{"cyberdem", "mim", "propio"}, report.Origins)
}

func TestAnalyzeImpact_Leaf(t *testing.T) {
	report := NewAnalyzer(impactGraph()).AnalyzeImpact([]string{"Network"})
	assert.Empty(t, report.IndirectlyAffected)
	assert.Equal(t, []string{"cyberdem"}, report.Origins)
}

func TestAffectedViews(t *testing.T) {
	keys := []string{"mim", "cyberdem", "propio"}
	assert.Equal(t, []string{"cyberdem_mim", "cyberdem_mim_propio", "mim", "mim_propio", "all"},
		AffectedViews(keys, []string{"mim"}))
	assert.Nil(t, AffectedViews(keys, nil))
}
