package generator

import (
	"fmt"
	"regexp"
	"strings"

	"ontoforge/internal/graph"
	"ontoforge/internal/hierarchy"
)

var nonIDRe = regexp.MustCompile(`[^a-z0-9_]`)

// MermaidGenerator renders ontology structures as Mermaid diagrams.
type MermaidGenerator struct {
	// MaxDepth bounds hierarchy diagrams. Zero means unbounded.
	MaxDepth int
}

// GenerateHierarchy renders a hierarchy as a top-down flowchart. A node
// reached through several paths is drawn once per path. Invisible roots are
// omitted and coloured nodes get a matching stroke.
func (m *MermaidGenerator) GenerateHierarchy(root *hierarchy.Node) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")
	if root == nil {
		sb.WriteString("```\n")
		return sb.String()
	}

	forest := hierarchy.Forest{root}
	if root.InvisibleRoot {
		forest = root.Children
	}

	var styles []string
	counter := 0
	var draw func(n *hierarchy.Node, parentID string, depth int)
	draw = func(n *hierarchy.Node, parentID string, depth int) {
		id := fmt.Sprintf("n%d", counter)
		counter++

		label := n.Name
		if n.Cycle {
			label += " ↺"
		}
		sb.WriteString(fmt.Sprintf("    %s[%q]\n", id, label))
		if parentID != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, id))
		}
		if n.Color != "" {
			styles = append(styles, fmt.Sprintf("    style %s stroke:%s", id, n.Color))
		}
		if m.MaxDepth > 0 && depth+1 >= m.MaxDepth {
			return
		}
		for _, c := range n.Children {
			draw(c, id, depth+1)
		}
	}
	for _, n := range forest {
		draw(n, "", 0)
	}

	for _, s := range styles {
		sb.WriteString(s + "\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

// GenerateClassDiagram renders a store as a class diagram: is_a edges as
// inheritance, every other edge as a labelled association.
func (m *MermaidGenerator) GenerateClassDiagram(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("classDiagram\n")
	if g == nil {
		sb.WriteString("```\n")
		return sb.String()
	}

	ids := make(map[string]string, len(g.Nodes))
	for _, n := range g.OrderedNodes() {
		if n.Kind == graph.KindRelation {
			continue
		}
		id := sanitizeMermaidID(n.Name)
		ids[n.ID] = id
		sb.WriteString(fmt.Sprintf("    class %s[%q]\n", id, n.Name))
	}

	for _, e := range g.Edges {
		from, okFrom := ids[e.Source]
		to, okTo := ids[e.Target]
		if !okFrom || !okTo {
			continue
		}
		if e.Type == graph.EdgeIsA {
			sb.WriteString(fmt.Sprintf("    %s <|-- %s\n", to, from))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n", from, to, e.Type))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return "node"
	}
	v = nonIDRe.ReplaceAllString(strings.ReplaceAll(v, "-", "_"), "_")
	if v[0] >= '0' && v[0] <= '9' {
		v = "n_" + v
	}
	return v
}
