package analysis

import (
	"sort"
	"strings"

	"ontoforge/internal/graph"
	"ontoforge/internal/merge"
	"ontoforge/internal/views"
)

// ImpactReport summarizes the classes affected by a change to a set of
// classes.
type ImpactReport struct {
	Missing []string
	// DirectlyAffected holds the changed classes themselves.
	DirectlyAffected []*graph.Node
	// IndirectlyAffected holds transitive subclasses and nodes related to a
	// changed class through a non-hierarchy edge.
	IndirectlyAffected []*graph.Node
	// Origins lists the origin keys carried by any affected node.
	Origins []string
}

// Analyzer performs impact analysis on a merged ontology store.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact identifies which nodes are affected when the named classes
// change.
func (a *Analyzer) AnalyzeImpact(names []string) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}

	seenDirect := make(map[string]bool)
	seenIndirect := make(map[string]bool)

	// 1. Find Direct Impacts
	for _, name := range names {
		node := a.g.NodeByName(graph.Simplify(name))
		if node == nil {
			report.Missing = append(report.Missing, name)
			continue
		}
		if !seenDirect[node.Name] {
			report.DirectlyAffected = append(report.DirectlyAffected, node)
			seenDirect[node.Name] = true
		}
	}

	// 2. Find Indirect Impacts (subclasses and relation neighbours)
	var queue []string
	for _, node := range report.DirectlyAffected {
		queue = append(queue, node.Name)
		for _, nb := range a.g.Neighbors(node.Name) {
			a.addIndirect(report, nb, seenDirect, seenIndirect)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range a.g.ChildrenOf(cur) {
			if a.addIndirect(report, child, seenDirect, seenIndirect) {
				queue = append(queue, child)
			}
		}
	}

	sort.Slice(report.IndirectlyAffected, func(i, j int) bool {
		return report.IndirectlyAffected[i].Name < report.IndirectlyAffected[j].Name
	})
	report.Origins = affectedOrigins(report)
	return report
}

func (a *Analyzer) addIndirect(report *ImpactReport, name string, seenDirect, seenIndirect map[string]bool) bool {
	if seenDirect[name] || seenIndirect[name] {
		return false
	}
	node := a.g.NodeByName(name)
	if node == nil {
		return false
	}
	seenIndirect[name] = true
	report.IndirectlyAffected = append(report.IndirectlyAffected, node)
	return true
}

func affectedOrigins(report *ImpactReport) []string {
	set := make(map[string]bool)
	for _, group := range [][]*graph.Node{report.DirectlyAffected, report.IndirectlyAffected} {
		for _, n := range group {
			for _, part := range strings.Split(n.Origin, merge.SourceSeparator) {
				if part = strings.TrimSpace(part); part != "" {
					set[part] = true
				}
			}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AffectedViews returns the view keys whose origin subset contains at least
// one of origins, plus the all view. keys is the full origin key list.
func AffectedViews(keys, origins []string) []string {
	if len(origins) == 0 {
		return nil
	}
	hit := make(map[string]bool, len(origins))
	for _, o := range origins {
		hit[o] = true
	}
	var out []string
	for _, combo := range views.Combinations(keys) {
		for _, k := range combo {
			if hit[k] {
				out = append(out, views.Key(combo))
				break
			}
		}
	}
	sort.Strings(out)
	return append(out, views.AllKey)
}
