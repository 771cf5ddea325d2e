package index

import (
	"fmt"

	"github.com/charmbracelet/log"

	"ontoforge/internal/classifier"
	"ontoforge/internal/crawler"
	"ontoforge/internal/extractor"
	"ontoforge/internal/graph"
	"ontoforge/internal/logging"
	"ontoforge/internal/origin"
	"ontoforge/internal/resolver"
)

// Indexer orchestrates record extraction and graph construction.
type Indexer struct {
	crawler *crawler.Crawler
	origins *origin.Set
	logger  *log.Logger
}

// Result holds the stores built from one set of inputs.
type Result struct {
	Files     []string
	Failed    []string
	Reference *graph.Graph
	ByOrigin  map[string]*graph.Graph
	Tally     *classifier.Tally
	// Resolution holds the resolver chain results, keyed by "" for the
	// reference store and by origin key otherwise.
	Resolution map[string][]resolver.StageResult
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler, origins *origin.Set, logger *log.Logger) *Indexer {
	return &Indexer{
		crawler: c,
		origins: origins,
		logger:  logging.OrDefault(logger),
	}
}

// BuildGraph reads every input matched by patterns and builds the reference
// store plus one store per origin. Classification of all records completes
// before any resolution runs.
func (i *Indexer) BuildGraph(patterns []string) (*Result, error) {
	var records []extractor.Record
	stats, err := i.crawler.ScanInputs(patterns, func(_ string, rec extractor.Record) {
		records = append(records, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	res := i.Build(records)
	res.Files = stats.Files
	res.Failed = stats.Failed
	return res, nil
}

// Build classifies records into the reference store, resolves it, and then
// partitions the records into per-origin stores using the source metadata
// the reference store collected.
func (i *Indexer) Build(records []extractor.Record) *Result {
	res := &Result{
		Reference:  graph.NewGraph(),
		ByOrigin:   make(map[string]*graph.Graph, i.origins.Len()),
		Resolution: make(map[string][]resolver.StageResult),
	}

	ref := classifier.New()
	ref.ApplyAll(res.Reference, records)
	res.Tally = ref.Tally()
	res.Resolution[""] = resolver.NewDefaultChain().Run(res.Reference)

	lookup := func(name string) string {
		return res.Reference.NodeByName(name).Provenance()
	}
	for _, n := range res.Reference.OrderedNodes() {
		n.Origin = i.origins.ClassifyNames(lookup, n.Name)
	}

	classifiers := make(map[string]*classifier.Classifier, i.origins.Len())
	for _, key := range i.origins.Keys() {
		res.ByOrigin[key] = graph.NewGraph()
		classifiers[key] = classifier.New()
	}
	for _, rec := range records {
		key := i.origins.ClassifyNames(lookup, recordNames(rec)...)
		classifiers[key].Apply(res.ByOrigin[key], rec)
	}

	for _, key := range i.origins.Keys() {
		g := res.ByOrigin[key]
		res.Resolution[key] = resolver.NewDefaultChain().Run(g)
		for _, n := range g.OrderedNodes() {
			n.Origin = key
		}
		i.logger.Info("partitioned origin", "origin", key, "nodes", len(g.Nodes), "edges", len(g.Edges))
	}
	return res
}

func recordNames(rec extractor.Record) []string {
	names := []string{graph.Simplify(rec.Subject)}
	if !rec.IsLiteral {
		names = append(names, graph.Simplify(rec.Object))
	}
	return names
}
