package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge/internal/artifact"
	"ontoforge/internal/graph"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ontology.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mergedDoc() *artifact.Ontology {
	g := graph.NewGraph()
	vehicle := g.EnsureNode("CAT_Vehicle", "Vehicle", graph.KindCategory)
	vehicle.Origin = "mim"
	vehicle.Source = "MIM"
	tank := g.EnsureNode("CAT_Tank", "Tank", graph.KindCategory)
	tank.Origin = "mim / propio"
	tank.Source = "MIM / Propio"
	tank.Label = "Main battle tank"
	tank.SetAttr("info", "tracked")
	router := g.EnsureNode("CAT_Router", "Router", graph.KindCategory)
	router.Origin = "cyberdem"
	g.AddEdge("CAT_Tank", "CAT_Vehicle", graph.EdgeIsA)
	g.RegisterRelationType(graph.EdgeIsA)
	return artifact.NewOntology(g, artifact.Meta{
		Source:    "merged",
		Sources:   []string{"mim", "cyberdem", "propio"},
		Generated: "2025-01-01T00:00:00Z",
	})
}

func TestSQLiteStore_SaveOntology_SnapshotSync(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// 1. Save the first snapshot
	first := mergedDoc()
	require.NoError(t, store.SaveOntology(ctx, first))

	loaded, err := store.LoadOntology(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	// 2. Save a smaller snapshot; stale rows must disappear
	g := graph.NewGraph()
	g.EnsureNode("CAT_Drone", "Drone", graph.KindCategory).Origin = "propio"
	second := artifact.NewOntology(g, artifact.Meta{Source: "merged"})
	require.NoError(t, store.SaveOntology(ctx, second))

	loaded, err = store.LoadOntology(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "CAT_Drone", loaded.Nodes[0].ID)
	assert.Empty(t, loaded.Edges)
	assert.Empty(t, loaded.RelationTypes)

	_, err = store.GetNode(ctx, "CAT_Tank")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteStore_Queries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveOntology(ctx, mergedDoc()))

	t.Run("GetNode", func(t *testing.T) {
		n, err := store.GetNode(ctx, "CAT_Tank")
		require.NoError(t, err)
		assert.Equal(t, "Main battle tank", n.Label)
		assert.Equal(t, "tracked", n.Attr("info"))
		assert.Equal(t, graph.KindCategory, n.Kind)
	})

	t.Run("FindNodesByOrigin", func(t *testing.T) {
		nodes, err := store.FindNodesByOrigin(ctx, "propio")
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "Tank", nodes[0].Name)

		nodes, err = store.FindNodesByOrigin(ctx, "mim")
		require.NoError(t, err)
		assert.Len(t, nodes, 2)
	})

	t.Run("CountByOrigin", func(t *testing.T) {
		counts, err := store.CountByOrigin(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"mim": 2, "propio": 1, "cyberdem": 1}, counts)
	})
}

func TestSQLiteStore_EmptyLoad(t *testing.T) {
	store := newTestStore(t)
	doc, err := store.LoadOntology(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Nodes)
	assert.Empty(t, doc.Meta.Source)
}
