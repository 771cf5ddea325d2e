package resolver

import (
	"errors"
	"testing"

	"ontoforge/internal/graph"
)

type fakeResolver struct {
	name string
	fn   func(g *graph.Graph) (ResolveStats, error)
}

func (f fakeResolver) Name() string { return f.name }
func (f fakeResolver) Resolve(g *graph.Graph) (ResolveStats, error) {
	return f.fn(g)
}

func TestResolverChain_Run(t *testing.T) {
	g := graph.NewGraph()
	g.EnsureNode("CAT_a", "a", graph.KindCategory)
	g.EnsureNode("REL_a", "a", graph.KindRelation)
	g.EnsureNode("CAT_b", "b", graph.KindCategory)
	g.EnsureNode("REL_b", "b", graph.KindRelation)

	r1 := fakeResolver{
		name: "r1",
		fn: func(g *graph.Graph) (ResolveStats, error) {
			g.RemoveNode("REL_a")
			g.AddEdge("CAT_a", "CAT_b", graph.EdgeIsA)
			return ResolveStats{Attempted: 2, Resolved: 1, Skipped: 1}, nil
		},
	}
	r2 := fakeResolver{
		name: "r2",
		fn: func(g *graph.Graph) (ResolveStats, error) {
			g.RemoveNode("REL_b")
			g.AddEdge("CAT_b", "CAT_a", "uses")
			return ResolveStats{Attempted: 1, Resolved: 1, Skipped: 0}, nil
		},
	}

	chain := NewResolverChain(r1, r2)
	results := chain.Run(g)

	if len(results) != 2 {
		t.Fatalf("expected 2 stage results, got %d", len(results))
	}
	if results[0].Resolver != "r1" || results[1].Resolver != "r2" {
		t.Fatalf("unexpected resolver order: %+v", results)
	}
	if results[0].DuplicatesBefore != 2 || results[0].DuplicatesAfter != 1 {
		t.Fatalf("unexpected duplicate transition for r1: %+v", results[0])
	}
	if results[1].DuplicatesBefore != 1 || results[1].DuplicatesAfter != 0 {
		t.Fatalf("unexpected duplicate transition for r2: %+v", results[1])
	}
	if results[1].EdgeCount != 2 {
		t.Fatalf("expected 2 edges after r2, got %d", results[1].EdgeCount)
	}
}

func TestResolverChain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	chain := NewResolverChain(
		fakeResolver{name: "fail", fn: func(*graph.Graph) (ResolveStats, error) { return ResolveStats{}, boom }},
		fakeResolver{name: "never", fn: func(*graph.Graph) (ResolveStats, error) { called = true; return ResolveStats{}, nil }},
	)

	results := chain.Run(graph.NewGraph())
	if len(results) != 1 || !errors.Is(results[0].Err, boom) {
		t.Fatalf("expected a single failed stage, got %+v", results)
	}
	if called {
		t.Fatal("resolver after a failure must not run")
	}
	if chain.Run(nil) != nil {
		t.Fatal("nil graph must yield no results")
	}
}
