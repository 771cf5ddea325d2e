package merge

import (
	"errors"

	"ontoforge/internal/graph"
	"ontoforge/internal/hierarchy"
	"ontoforge/internal/origin"
)

// ErrNoBranches is returned when every origin produced an empty forest.
var ErrNoBranches = errors.New("no origin produced a non-empty hierarchy")

// RootName is the name of the invisible super root.
const RootName = "Ontology"

// RootLineColor is the line colour of the super root.
const RootLineColor = "#ffffff"

// Branch is the forest contributed by one origin.
type Branch struct {
	Origin origin.Origin
	Forest hierarchy.Forest
}

// Forests places every non-empty origin forest under a branch node and all
// branches under an invisible root. Inputs are cloned. The keys of origins
// that contributed nothing are returned for reporting.
func Forests(branches []Branch) (*hierarchy.Node, []string, error) {
	root := &hierarchy.Node{
		Name:          RootName,
		Kind:          graph.KindRoot,
		InvisibleRoot: true,
		LineStyle:     &hierarchy.LineStyle{Color: RootLineColor},
		Children:      []*hierarchy.Node{},
	}

	var empty []string
	for _, b := range branches {
		if len(b.Forest) == 0 {
			empty = append(empty, b.Origin.Key)
			continue
		}
		children := b.Forest.Clone()
		hierarchy.SortChildren(children)
		node := &hierarchy.Node{
			Name:     b.Origin.DisplayName(),
			Source:   b.Origin.Key,
			Kind:     graph.KindRootBranch,
			Color:    b.Origin.Color,
			Children: children,
		}
		if b.Origin.Color != "" {
			node.LineStyle = &hierarchy.LineStyle{Color: b.Origin.Color}
		}
		root.Children = append(root.Children, node)
	}

	if len(root.Children) == 0 {
		return nil, empty, ErrNoBranches
	}
	return root, empty, nil
}
