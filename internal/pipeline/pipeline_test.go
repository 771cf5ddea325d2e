package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge/internal/artifact"
	"ontoforge/internal/config"
	"ontoforge/internal/hierarchy"
	"ontoforge/internal/logging"
	"ontoforge/internal/merge"
	"ontoforge/internal/storage"
	"ontoforge/internal/views"
)

func testConfig(t *testing.T, inputs ...string) *config.Config {
	t.Helper()
	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")
	cfg := config.Default()
	if len(inputs) == 0 {
		inputs = []string{"testdata/ontologies/*.ttl"}
	}
	cfg.Inputs = inputs
	cfg.Output.Dir = filepath.Join(t.TempDir(), "data")
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config) *Pipeline {
	t.Helper()
	p, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	return p.WithOutput(io.Discard)
}

// dataArtifacts reads every artifact except the run report and metrics.
func dataArtifacts(t *testing.T, store *artifact.Store) map[string][]byte {
	t.Helper()
	files, err := store.List()
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range files {
		if f == artifact.ReportFile || f == artifact.MetricsFile {
			continue
		}
		data, err := os.ReadFile(store.Path(f))
		require.NoError(t, err)
		out[f] = data
	}
	return out
}

func TestPipeline_FullBuild(t *testing.T) {
	p := newTestPipeline(t, testConfig(t))
	require.NoError(t, p.Run(context.Background(), Options{}))
	store := p.Store()

	t.Run("Artifacts", func(t *testing.T) {
		files, err := store.List()
		require.NoError(t, err)
		for _, name := range []string{
			artifact.ReferenceOntology,
			artifact.OriginOntology("mim"), artifact.OriginOntology("cyberdem"), artifact.OriginOntology("propio"),
			artifact.OriginHierarchy("mim"), artifact.OriginHierarchy("cyberdem"), artifact.OriginHierarchy("propio"),
			artifact.MergedOntology, artifact.MergedHierarchy, artifact.GlobalHierarchy,
			artifact.ReportFile, artifact.MetricsFile,
			"views/" + views.FileName(views.AllKey), "views/class-hierarchy_cyberdem_mim_propio.json",
		} {
			assert.Contains(t, files, name)
		}
	})

	t.Run("Per-origin partition", func(t *testing.T) {
		mim, err := store.LoadOntology(artifact.OriginOntology("mim"))
		require.NoError(t, err)
		assert.Equal(t, 3, mim.Meta.TotalNodes)
		assert.Equal(t, "mim", mim.Meta.Source)
		assert.Equal(t, "2023-11-14T22:13:20Z", mim.Meta.Generated)

		tree, err := store.LoadTree(artifact.OriginHierarchy("cyberdem"), "unused")
		require.NoError(t, err)
		assert.Equal(t, "CYBERDEM Ontology", tree.Name)
		assert.Equal(t, []string{"Network", "Router"}, hierarchy.Names(tree.Children))
	})

	t.Run("Merged ontology has no dangling edges", func(t *testing.T) {
		merged, err := store.LoadOntology(artifact.MergedOntology)
		require.NoError(t, err)
		assert.Equal(t, 7, merged.Meta.TotalNodes)
		assert.Len(t, merged.Meta.Sources, 3)
		assert.Empty(t, merged.Dangling())
	})

	t.Run("Root candidates select the merged forest", func(t *testing.T) {
		forest, err := store.LoadForest(artifact.MergedHierarchy)
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Equal(t, "Capability", forest[0].Name)
		assert.False(t, p.Report().HasSignal(SignalRootFallback))
	})

	t.Run("Global forest branches", func(t *testing.T) {
		global, err := store.LoadTree(artifact.GlobalHierarchy, "Ontology")
		require.NoError(t, err)
		assert.True(t, global.InvisibleRoot)
		require.Len(t, global.Children, 3)
		assert.Equal(t, "MIM", global.Children[0].Name)
		assert.Equal(t, "CYBERDEM", global.Children[1].Name)
		assert.Equal(t, "PROPIO", global.Children[2].Name)
	})

	t.Run("Report", func(t *testing.T) {
		r := p.Report()
		for _, name := range []string{stageExtract, stageHierarchies, stageMerge, stageViews} {
			st, ok := r.Stage(name)
			require.True(t, ok, name)
			assert.Equal(t, "ok", st.Status, name)
		}
		st, ok := r.Stage(stagePublish)
		require.True(t, ok)
		assert.Equal(t, "skipped", st.Status)
	})
}

func TestPipeline_Idempotent(t *testing.T) {
	cfg := testConfig(t)

	first := newTestPipeline(t, cfg)
	require.NoError(t, first.Run(context.Background(), Options{}))
	before := dataArtifacts(t, first.Store())

	second := newTestPipeline(t, cfg)
	require.NoError(t, second.Run(context.Background(), Options{Clean: true}))
	after := dataArtifacts(t, second.Store())

	require.Equal(t, len(before), len(after))
	for name, data := range before {
		assert.Equal(t, string(data), string(after[name]), name)
	}
}

func TestPipeline_MergeOnly(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg)
	require.NoError(t, p.Run(context.Background(), Options{}))
	want := dataArtifacts(t, p.Store())

	require.NoError(t, os.Remove(p.Store().Path(artifact.MergedOntology)))
	require.NoError(t, os.RemoveAll(p.Store().Path(artifact.ViewsDir)))

	fast := newTestPipeline(t, cfg)
	require.NoError(t, fast.Run(context.Background(), Options{MergeOnly: true}))
	assert.Equal(t, want, dataArtifacts(t, fast.Store()))

	st, ok := fast.Report().Stage(stageExtract)
	require.True(t, ok)
	assert.Equal(t, "skipped", st.Status)
	assert.Equal(t, "merge-only", fast.Report().Mode)
}

func TestPipeline_MissingArtifact(t *testing.T) {
	p := newTestPipeline(t, testConfig(t))

	err := p.Run(context.Background(), Options{MergeOnly: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrMissing)
	assert.Contains(t, err.Error(), artifact.OriginOntology("mim"))

	assert.False(t, p.Store().Exists(artifact.MergedOntology))
	assert.True(t, p.Store().Exists(artifact.ReportFile), "report is written for failed runs")

	st, ok := p.Report().Stage(stageMerge)
	require.True(t, ok)
	assert.Equal(t, "error", st.Status)
}

func TestPipeline_MergeFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	built := newTestPipeline(t, cfg)
	require.NoError(t, built.Run(context.Background(), Options{}))
	store := built.Store()

	outputs := []string{artifact.MergedOntology, artifact.MergedHierarchy, artifact.GlobalHierarchy}
	removeOutputs := func() {
		for _, name := range outputs {
			require.NoError(t, os.Remove(store.Path(name)))
		}
	}

	t.Run("Missing origin hierarchy", func(t *testing.T) {
		removeOutputs()
		require.NoError(t, os.Remove(store.Path(artifact.OriginHierarchy("cyberdem"))))

		p := newTestPipeline(t, cfg)
		err := p.Run(context.Background(), Options{MergeOnly: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, artifact.ErrMissing)
		assert.Contains(t, err.Error(), artifact.OriginHierarchy("cyberdem"))
		for _, name := range outputs {
			assert.False(t, store.Exists(name), name)
		}
	})

	t.Run("Every origin empty", func(t *testing.T) {
		for _, key := range built.origins.Keys() {
			require.NoError(t, store.WriteJSON(artifact.OriginHierarchy(key), hierarchy.Forest{}))
		}

		p := newTestPipeline(t, cfg)
		err := p.Run(context.Background(), Options{MergeOnly: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, merge.ErrNoBranches)
		assert.True(t, p.Report().HasSignal(SignalOriginEmpty))
		for _, name := range outputs {
			assert.False(t, store.Exists(name), name)
		}
	})
}

func TestPipeline_CycleAndEmptyOrigins(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cycle.ttl")
	require.NoError(t, os.WriteFile(input, []byte(`@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/onto#> .

ex:A rdfs:subClassOf ex:Top .
ex:A rdfs:subClassOf ex:B .
ex:B rdfs:subClassOf ex:A .
`), 0o644))

	p := newTestPipeline(t, testConfig(t, input))
	require.NoError(t, p.Run(context.Background(), Options{}))

	r := p.Report()
	assert.True(t, r.HasSignal(SignalCycle))
	assert.True(t, r.HasSignal(SignalOriginEmpty))
	assert.True(t, r.HasSignal(SignalRootFallback))

	global, err := p.Store().LoadTree(artifact.GlobalHierarchy, "Ontology")
	require.NoError(t, err)
	require.Len(t, global.Children, 1)
	assert.Equal(t, "PROPIO", global.Children[0].Name)

	var cycleLeaves int
	hierarchy.Walk(hierarchy.Forest{global}, func(n *hierarchy.Node, _ int) bool {
		if n.Cycle {
			cycleLeaves++
		}
		return true
	})
	assert.Equal(t, 1, cycleLeaves)
}

type recordingUploader struct {
	keys []string
}

func (r *recordingUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.keys = append(r.keys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestPipeline_PublishAndCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Enabled = true
	cfg.Publish.S3.Bucket = "ontologies"
	cfg.Publish.S3.Prefix = "nightly"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "catalog.db")

	up := &recordingUploader{}
	p := newTestPipeline(t, cfg).WithUploader(up)
	require.NoError(t, p.Run(context.Background(), Options{}))

	assert.Contains(t, up.keys, "nightly/"+artifact.MergedOntology)
	assert.Contains(t, up.keys, "nightly/views/"+views.FileName(views.AllKey))
	st, ok := p.Report().Stage(stagePublish)
	require.True(t, ok)
	assert.Equal(t, "ok", st.Status)

	db, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	require.NoError(t, err)
	defer db.Close()

	counts, err := db.CountByOrigin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"mim": 3, "cyberdem": 2, "propio": 2}, counts)
}
