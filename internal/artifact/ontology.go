// Package artifact reads and writes the JSON files the pipeline stages hand
// to each other.
package artifact

import (
	"os"
	"sort"
	"strconv"
	"time"

	"ontoforge/internal/graph"
)

// Artifact file names.
const (
	ReferenceOntology = "ontology.json"
	MergedOntology    = "ontology_merged.json"
	MergedHierarchy   = "class-hierarchy.json"
	GlobalHierarchy   = "class-hierarchy_final.json"
	ViewsDir          = "views"
	ReportFile        = "pipeline-report.json"
	MetricsFile       = "metrics.prom"
)

// OriginOntology is the file name of a per-origin ontology.
func OriginOntology(key string) string { return "ontology_" + key + ".json" }

// OriginHierarchy is the file name of a per-origin hierarchy.
func OriginHierarchy(key string) string { return "hierarchy_" + key + ".json" }

// Meta describes how an ontology artifact was produced.
type Meta struct {
	Source     string            `json:"source,omitempty"`
	Sources    []string          `json:"sources"`
	IDPrefixes map[string]string `json:"idPrefixes"`
	TotalNodes int               `json:"totalNodes" validate:"min=0"`
	TotalEdges int               `json:"totalEdges" validate:"min=0"`
	Generated  string            `json:"generated,omitempty"`
}

// Ontology is the persisted form of a graph store.
type Ontology struct {
	Meta          Meta          `json:"meta"`
	Nodes         []*graph.Node `json:"nodes" validate:"dive,required"`
	Edges         []graph.Edge  `json:"edges" validate:"dive"`
	RelationTypes []string      `json:"relationTypes"`
}

// NewOntology snapshots g. Totals and the prefix table are filled in.
func NewOntology(g *graph.Graph, meta Meta) *Ontology {
	nodes, edges := g.Parts()
	meta.TotalNodes = len(nodes)
	meta.TotalEdges = len(edges)
	meta.IDPrefixes = graph.IDPrefixes()
	if meta.Sources == nil {
		meta.Sources = []string{}
	}
	return &Ontology{
		Meta:          meta,
		Nodes:         nodes,
		Edges:         edges,
		RelationTypes: append([]string{}, g.RelationTypes()...),
	}
}

// Graph rebuilds a graph store. Nodes without an id get the category id of
// their simplified name.
func (o *Ontology) Graph() *graph.Graph {
	nodes := make([]*graph.Node, 0, len(o.Nodes))
	for _, n := range o.Nodes {
		if n == nil {
			continue
		}
		if n.ID == "" {
			c := n.Clone()
			c.ID = graph.CategoryID(graph.Simplify(n.Name))
			n = c
		}
		nodes = append(nodes, n)
	}
	return graph.FromParts(nodes, o.Edges, o.RelationTypes)
}

// Dangling returns the edges whose endpoints are not in the node list.
func (o *Ontology) Dangling() []graph.Edge {
	ids := make(map[string]bool, len(o.Nodes))
	for _, n := range o.Nodes {
		if n != nil {
			ids[n.ID] = true
		}
	}
	var out []graph.Edge
	for _, e := range o.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// Timestamp returns the generation time recorded in metadata. It honours
// SOURCE_DATE_EPOCH and otherwise uses the newest modification time of the
// given files, so unchanged inputs give the same value.
func Timestamp(files []string) string {
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC().Format(time.RFC3339)
		}
	}
	var newest time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Latest returns the greatest RFC 3339 timestamp.
func Latest(stamps ...string) string {
	sorted := append([]string(nil), stamps...)
	sort.Strings(sorted)
	if len(sorted) == 0 {
		return ""
	}
	return sorted[len(sorted)-1]
}
