package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"ontoforge/internal/artifact"
	"ontoforge/internal/crawler"
	"ontoforge/internal/extractor"
	"ontoforge/internal/graph"
	"ontoforge/internal/hierarchy"
	"ontoforge/internal/index"
	"ontoforge/internal/merge"
	"ontoforge/internal/publish"
	"ontoforge/internal/report"
	"ontoforge/internal/resolver"
	"ontoforge/internal/storage"
	"ontoforge/internal/views"
)

const (
	stageClean       = "clean"
	stageExtract     = "extract"
	stageHierarchies = "hierarchies"
	stageMerge       = "merge"
	stageViews       = "views"
	stagePublish     = "publish"
)

// Signal codes written to the run report.
const (
	SignalInputFailed  = "input_failed"
	SignalConflicts    = "annotation_conflicts"
	SignalCycle        = "cycle_detected"
	SignalRootFallback = "root_fallback"
	SignalOriginEmpty  = "origin_empty"
	SignalDropped      = "dangling_edges_dropped"
)

func (p *Pipeline) cleanStage() error {
	h := p.report.BeginStage(stageClean)
	removed, err := p.store.Clean()
	p.report.EndStage(h, "ok", map[string]float64{"removed": float64(removed)}, nil, err)
	if err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}
	fmt.Fprintf(p.out, "🧹 Removed %d persisted artifacts.\n", removed)
	return nil
}

func (p *Pipeline) extractStage() error {
	h := p.report.BeginStage(stageExtract)

	idx := index.NewIndexer(crawler.NewCrawler(extractor.NewExtractor(), p.logger), p.origins, p.logger)
	res, err := idx.BuildGraph(p.cfg.Inputs)
	if err != nil {
		p.report.EndStage(h, "ok", nil, nil, err)
		return fmt.Errorf("extract stage failed: %w", err)
	}

	generated := artifact.Timestamp(res.Files)
	counters := res.Tally.Counters()
	counters["files"] = float64(len(res.Files))
	counters["files_failed"] = float64(len(res.Failed))
	counters["reference_nodes"] = float64(len(res.Reference.Nodes))

	ref := artifact.NewOntology(res.Reference, artifact.Meta{Sources: res.Files, Generated: generated})
	if err := p.store.SaveOntology(artifact.ReferenceOntology, ref); err != nil {
		p.report.EndStage(h, "ok", counters, nil, err)
		return fmt.Errorf("failed to save reference ontology: %w", err)
	}

	var notes []string
	for _, key := range p.origins.Keys() {
		g := res.ByOrigin[key]
		if g == nil {
			g = graph.NewGraph()
		}
		doc := artifact.NewOntology(g, artifact.Meta{Source: key, Sources: res.Files, Generated: generated})
		if err := p.store.SaveOntology(artifact.OriginOntology(key), doc); err != nil {
			p.report.EndStage(h, "ok", counters, notes, err)
			return fmt.Errorf("failed to save %s ontology: %w", key, err)
		}
		p.metrics.SetGraph(key, len(g.Nodes), len(g.Edges))
		counters["nodes_"+key] = float64(len(g.Nodes))
		notes = append(notes, fmt.Sprintf("%s: %d nodes, %d edges", key, len(g.Nodes), len(g.Edges)))
	}

	if len(res.Failed) > 0 {
		p.report.AddSignal(SignalInputFailed, stageExtract, report.SeverityWarning,
			"some input files could not be parsed: "+strings.Join(res.Failed, ", "), float64(len(res.Failed)))
	}
	if res.Tally.Conflicts > 0 {
		p.report.AddSignal(SignalConflicts, stageExtract, report.SeverityInfo,
			"annotation values dropped by first-write-wins", float64(res.Tally.Conflicts))
	}

	p.report.EndStage(h, "ok", counters, notes, nil)
	fmt.Fprintf(p.out, "📥 Extract: %d files, %d records, %d reference nodes.\n",
		len(res.Files), res.Tally.Records, len(res.Reference.Nodes))
	for _, note := range notes {
		fmt.Fprintf(p.out, "  -> %s\n", note)
	}
	return nil
}

func (p *Pipeline) hierarchiesStage() error {
	h := p.report.BeginStage(stageHierarchies)
	counters := map[string]float64{}

	for _, o := range p.origins.Origins() {
		doc, err := p.store.LoadOntology(artifact.OriginOntology(o.Key))
		if err != nil {
			p.report.EndStage(h, "ok", counters, nil, err)
			return fmt.Errorf("hierarchies stage failed: %w", err)
		}

		g := doc.Graph()
		roots, _ := g.Roots(nil)
		forest, stats := hierarchy.BuildForest(g, roots)
		p.recordCycles(stageHierarchies, o.Key, stats.Cycles)

		root := &hierarchy.Node{
			Name:     o.DisplayName() + " Ontology",
			Kind:     graph.KindRoot,
			Source:   o.Key,
			Children: forest,
		}
		if err := p.store.SaveTree(artifact.OriginHierarchy(o.Key), root); err != nil {
			p.report.EndStage(h, "ok", counters, nil, err)
			return fmt.Errorf("failed to save %s hierarchy: %w", o.Key, err)
		}
		counters["roots_"+o.Key] = float64(stats.Roots)
		counters["depth_"+o.Key] = float64(stats.MaxDepth)
		fmt.Fprintf(p.out, "🌳 Hierarchy %s: %d roots, %d nodes, depth %d.\n", o.Key, stats.Roots, stats.Nodes, stats.MaxDepth)
	}

	p.report.EndStage(h, "ok", counters, nil, nil)
	return nil
}

func (p *Pipeline) mergeStage(ctx context.Context) error {
	h := p.report.BeginStage(stageMerge)
	fail := func(err error) error {
		p.report.EndStage(h, "ok", nil, nil, err)
		return fmt.Errorf("merge stage failed: %w", err)
	}

	// 1. Merge per-origin ontologies
	var (
		stores    []*graph.Graph
		sources   []string
		generated []string
	)
	seen := make(map[string]bool)
	for _, key := range p.origins.Keys() {
		doc, err := p.store.LoadOntology(artifact.OriginOntology(key))
		if err != nil {
			return fail(err)
		}
		stores = append(stores, doc.Graph())
		generated = append(generated, doc.Meta.Generated)
		for _, s := range doc.Meta.Sources {
			if !seen[s] {
				seen[s] = true
				sources = append(sources, s)
			}
		}
	}
	sort.Strings(sources)

	merged, mstats := merge.Graphs(stores...)
	resolution := resolver.NewDefaultChain().Run(merged)
	for _, r := range resolution {
		if r.Err != nil {
			return fail(fmt.Errorf("resolver %s: %w", r.Resolver, r.Err))
		}
	}
	if mstats.DroppedEdges > 0 {
		p.report.AddSignal(SignalDropped, stageMerge, report.SeverityInfo,
			"edges with a missing endpoint were dropped", float64(mstats.DroppedEdges))
	}

	// 2. Forest over the merged store
	roots, fallback := merged.Roots(p.cfg.Hierarchy.RootCandidates)
	if fallback {
		p.logger.Warn("no root candidate found in merged store, using candidates verbatim", "candidates", roots)
		p.report.AddSignal(SignalRootFallback, stageMerge, report.SeverityWarning,
			"no configured root candidate exists in the merged store", float64(len(roots)))
	}
	forest, fstats := hierarchy.BuildForest(merged, roots)
	p.recordCycles(stageMerge, "merged", fstats.Cycles)

	// 3. Global forest from the per-origin hierarchies
	branches := make([]merge.Branch, 0, p.origins.Len())
	for _, o := range p.origins.Origins() {
		f, err := p.store.LoadForest(artifact.OriginHierarchy(o.Key))
		if err != nil {
			return fail(err)
		}
		branches = append(branches, merge.Branch{Origin: o, Forest: unwrapOrigin(f)})
	}
	global, empty, err := merge.Forests(branches)
	for _, key := range empty {
		p.logger.Warn("origin produced an empty hierarchy", "origin", key)
		p.report.AddSignal(SignalOriginEmpty, stageMerge, report.SeverityWarning,
			fmt.Sprintf("origin %s produced an empty hierarchy", key), 0)
	}
	if err != nil {
		return fail(err)
	}

	// Nothing is written until every input has loaded and merged.
	doc := artifact.NewOntology(merged, artifact.Meta{Sources: sources, Generated: artifact.Latest(generated...)})
	if err := p.store.SaveOntology(artifact.MergedOntology, doc); err != nil {
		return fail(err)
	}
	p.metrics.SetGraph("merged", len(merged.Nodes), len(merged.Edges))
	if err := p.store.WriteJSON(artifact.MergedHierarchy, forest); err != nil {
		return fail(err)
	}
	if err := p.store.SaveTree(artifact.GlobalHierarchy, global); err != nil {
		return fail(err)
	}

	// 4. Optional SQLite snapshot
	if p.cfg.Storage.SQLitePath != "" {
		if err := p.saveCatalog(ctx, doc); err != nil {
			return fail(err)
		}
	}

	counters := merged.Stats().Counters()
	counters["collisions"] = float64(mstats.Collisions)
	counters["conflicts"] = float64(mstats.Conflicts)
	counters["dropped_edges"] = float64(mstats.DroppedEdges)
	counters["forest_nodes"] = float64(fstats.Nodes)
	counters["global_nodes"] = float64(hierarchy.Count(hierarchy.Forest{global}))
	p.report.EndStage(h, "ok", counters, nil, nil)

	fmt.Fprintf(p.out, "🔀 Merge: %d nodes, %d edges from %d origins (%d collisions).\n",
		len(merged.Nodes), len(merged.Edges), len(stores), mstats.Collisions)
	return nil
}

func (p *Pipeline) saveCatalog(ctx context.Context, doc *artifact.Ontology) error {
	db, err := storage.NewSQLiteStore(p.cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	if err := db.SaveOntology(ctx, doc); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	counts, err := db.CountByOrigin(ctx)
	if err != nil {
		return err
	}
	for _, key := range p.origins.Keys() {
		p.logger.Info("catalog origin", "origin", key, "nodes", counts[key])
	}
	fmt.Fprintf(p.out, "💾 Saved merged ontology to %s\n", p.cfg.Storage.SQLitePath)
	return nil
}

func (p *Pipeline) viewsStage() error {
	h := p.report.BeginStage(stageViews)

	global, err := p.store.LoadTree(artifact.GlobalHierarchy, merge.RootName)
	if err != nil {
		p.report.EndStage(h, "ok", nil, nil, err)
		return fmt.Errorf("views stage failed: %w", err)
	}

	vs := views.Generate(global, p.origins)
	for _, v := range vs {
		name := path.Join(artifact.ViewsDir, views.FileName(v.Key))
		if err := p.store.SaveTree(name, v.Root); err != nil {
			p.report.EndStage(h, "ok", nil, nil, err)
			return fmt.Errorf("failed to save view %s: %w", v.Key, err)
		}
	}
	p.metrics.SetViews(len(vs))

	p.report.EndStage(h, "ok", map[string]float64{"views": float64(len(vs))}, nil, nil)
	fmt.Fprintf(p.out, "🗂️  Views: %d written.\n", len(vs))
	return nil
}

func (p *Pipeline) publishStage(ctx context.Context) ([]string, error) {
	h := p.report.BeginStage(stagePublish)

	s3cfg := p.cfg.Publish.S3
	if s3cfg.Bucket == "" {
		err := errors.New("publish requires publish.s3.bucket")
		p.report.EndStage(h, "ok", nil, nil, err)
		return nil, err
	}

	up := p.uploader
	if up == nil {
		client, err := publish.NewS3Client(ctx, s3cfg)
		if err != nil {
			p.report.EndStage(h, "ok", nil, nil, err)
			return nil, err
		}
		up = client
	}

	keys, err := publish.NewPublisher(up, s3cfg.Bucket, s3cfg.Prefix, p.logger).Publish(ctx, p.store)
	p.report.EndStage(h, "ok", map[string]float64{"objects": float64(len(keys))}, nil, err)
	if err != nil {
		return keys, fmt.Errorf("publish stage failed: %w", err)
	}
	fmt.Fprintf(p.out, "☁️  Published %d artifacts to s3://%s\n", len(keys), s3cfg.Bucket)
	return keys, nil
}

func (p *Pipeline) recordCycles(stage, scope string, cycles []string) {
	if len(cycles) == 0 {
		return
	}
	for _, c := range cycles {
		p.logger.Warn("is_a cycle", "scope", scope, "path", c)
	}
	p.metrics.AddCycles(len(cycles))
	p.report.AddSignal(SignalCycle, stage, report.SeverityWarning,
		fmt.Sprintf("%s: %d is_a cycles cut", scope, len(cycles)), float64(len(cycles)))
}

// unwrapOrigin returns the children of a persisted per-origin root. Other
// shapes are returned unchanged.
func unwrapOrigin(f hierarchy.Forest) hierarchy.Forest {
	if len(f) == 1 && f[0].Kind == graph.KindRoot {
		return f[0].Children
	}
	return f
}
