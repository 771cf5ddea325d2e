// Package classifier turns RDF statements into nodes and edges of a graph store.
package classifier

import (
	"strings"

	"ontoforge/internal/extractor"
	"ontoforge/internal/graph"
)

// Outcome tells which rule consumed a record.
type Outcome int

const (
	Skipped Outcome = iota
	NoMatch
	RuleClass
	RuleSubClass
	RuleProperty
	RuleDomain
	RuleRange
	RuleAnnotation
	RuleLiteral
	RuleRelation
)

var outcomeNames = map[Outcome]string{
	Skipped:        "skipped",
	NoMatch:        "no_match",
	RuleClass:      "class",
	RuleSubClass:   "subclass",
	RuleProperty:   "property",
	RuleDomain:     "domain",
	RuleRange:      "range",
	RuleAnnotation: "annotation",
	RuleLiteral:    "literal",
	RuleRelation:   "relation",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

var (
	classConcepts = map[string]bool{
		"class":     true,
		"owlclass":  true,
		"rdfsclass": true,
	}
	propertyConcepts = map[string]bool{
		"objectproperty":     true,
		"datatypeproperty":   true,
		"annotationproperty": true,
		"property":           true,
	}
	reservedNamespaces = []string{
		"http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"http://www.w3.org/2000/01/rdf-schema#",
		"http://www.w3.org/2002/07/owl#",
	}
)

// Predicate terms recognised by the rules, compared case-insensitively.
const (
	termType        = "type"
	termSubClassOf  = "subclassof"
	termDomain      = "domain"
	termRange       = "range"
	termLabel       = "label"
	termComment     = "comment"
	termDescription = "description"
	termDefinition  = "definition"
	termSource      = "source"
)

// Tally counts classification outcomes over a run.
type Tally struct {
	Records   int
	Outcomes  map[Outcome]int
	Conflicts int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{Outcomes: make(map[Outcome]int)}
}

// Add records one outcome.
func (t *Tally) Add(o Outcome) {
	t.Records++
	t.Outcomes[o]++
}

// Merge folds another tally into t.
func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	t.Records += other.Records
	t.Conflicts += other.Conflicts
	for k, v := range other.Outcomes {
		t.Outcomes[k] += v
	}
}

// Counters flattens the tally for the run report.
func (t *Tally) Counters() map[string]float64 {
	out := map[string]float64{
		"records":            float64(t.Records),
		"annotation_dropped": float64(t.Conflicts),
	}
	for k, v := range t.Outcomes {
		out["rule_"+k.String()] = float64(v)
	}
	return out
}

// Classifier applies the statement rules in priority order. The first rule
// that matches consumes the record.
type Classifier struct {
	tally *Tally
}

// New creates a classifier with its own tally.
func New() *Classifier {
	return &Classifier{tally: NewTally()}
}

// Tally returns the outcomes counted so far.
func (c *Classifier) Tally() *Tally {
	return c.tally
}

// ApplyAll classifies every record into g.
func (c *Classifier) ApplyAll(g *graph.Graph, records []extractor.Record) {
	for _, rec := range records {
		c.Apply(g, rec)
	}
}

// Apply classifies one record into g and reports which rule consumed it.
func (c *Classifier) Apply(g *graph.Graph, rec extractor.Record) Outcome {
	out := c.apply(g, rec)
	c.tally.Add(out)
	return out
}

func (c *Classifier) apply(g *graph.Graph, rec extractor.Record) Outcome {
	if !rec.Valid() {
		return Skipped
	}

	s := graph.Simplify(rec.Subject)
	p := graph.Simplify(rec.Predicate)
	if s == "" || p == "" {
		return Skipped
	}
	term := strings.ToLower(Term(rec.Predicate))

	var o string
	if !rec.IsLiteral {
		o = graph.Simplify(rec.Object)
	}
	concept := strings.ToLower(o)

	switch {
	case term == termType && classConcepts[concept]:
		c.category(g, s)
		return RuleClass

	case term == termSubClassOf && o != "":
		c.category(g, s)
		c.category(g, o)
		g.AddEdge(graph.CategoryID(s), graph.CategoryID(o), graph.EdgeIsA)
		g.RegisterRelationType(graph.EdgeIsA)
		return RuleSubClass

	case term == termType && propertyConcepts[concept]:
		c.relation(g, s)
		return RuleProperty

	case term == termDomain && o != "":
		c.category(g, o)
		c.relation(g, s)
		g.AddEdge(graph.CategoryID(o), graph.RelationID(s), graph.EdgeDomainOf)
		g.RegisterRelationType(graph.EdgeDomainOf)
		return RuleDomain

	case term == termRange && o != "":
		c.relation(g, s)
		c.category(g, o)
		g.AddEdge(graph.RelationID(s), graph.CategoryID(o), graph.EdgeRangeOf)
		g.RegisterRelationType(graph.EdgeRangeOf)
		return RuleRange

	case rec.IsLiteral && isAnnotation(term):
		n := c.category(g, s)
		if term == termLabel {
			c.fill(&n.Label, rec.Object)
		} else {
			c.fill(&n.Description, rec.Object)
		}
		return RuleAnnotation

	case rec.IsLiteral && !Reserved(rec.Predicate):
		n := c.category(g, s)
		if term == termSource {
			c.fill(&n.Source, rec.Object)
		} else if !n.SetAttr(p, rec.Object) && n.Attr(p) != rec.Object {
			c.tally.Conflicts++
		}
		return RuleLiteral

	case !rec.IsLiteral && o != "" && s != o && !Reserved(rec.Predicate):
		c.category(g, s)
		c.category(g, o)
		g.AddEdge(graph.CategoryID(s), graph.CategoryID(o), p)
		g.RegisterRelationType(p)
		return RuleRelation
	}

	return NoMatch
}

func (c *Classifier) category(g *graph.Graph, name string) *graph.Node {
	return g.EnsureNode(graph.CategoryID(name), name, graph.KindCategory)
}

func (c *Classifier) relation(g *graph.Graph, name string) *graph.Node {
	g.RegisterRelationType(name)
	return g.EnsureNode(graph.RelationID(name), name, graph.KindRelation)
}

// fill sets an empty field. A second, different value is dropped and counted.
func (c *Classifier) fill(field *string, value string) {
	if *field == "" {
		*field = value
		return
	}
	if *field != value {
		c.tally.Conflicts++
	}
}

func isAnnotation(term string) bool {
	switch term {
	case termLabel, termComment, termDescription, termDefinition:
		return true
	}
	return false
}

// Term returns the local part of a predicate: the text after the last '#',
// '/' or ':' with every non alphanumeric character removed. "rdfs:label" and
// "http://www.w3.org/2000/01/rdf-schema#label" both give "label".
func Term(predicate string) string {
	if i := strings.LastIndexAny(predicate, "#/:"); i >= 0 {
		predicate = predicate[i+1:]
	}
	return graph.Simplify(predicate)
}

// Reserved reports whether a predicate belongs to the RDF, RDFS or OWL
// vocabularies. Prefixed names ("rdf:type", "owl:sameAs") are recognised by
// their simplified form.
func Reserved(predicate string) bool {
	for _, ns := range reservedNamespaces {
		if strings.HasPrefix(predicate, ns) {
			return true
		}
	}
	p := graph.Simplify(predicate)
	return strings.HasPrefix(p, "rdf") || strings.HasPrefix(p, "owl")
}
