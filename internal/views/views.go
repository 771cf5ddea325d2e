// Package views projects the global forest onto every subset of origins.
package views

import (
	"fmt"
	"sort"
	"strings"

	"ontoforge/internal/hierarchy"
	"ontoforge/internal/merge"
	"ontoforge/internal/origin"
)

// AllKey names the view holding the unfiltered global forest.
const AllKey = "all"

// KeySeparator joins origin keys in a view key.
const KeySeparator = "_"

// View is the global forest restricted to a set of origins.
type View struct {
	Key     string
	Origins []string
	Root    *hierarchy.Node
}

// FileName is the artifact file name of a view.
func FileName(key string) string {
	return "class-hierarchy_" + key + ".json"
}

// Key returns the view key of an origin subset: the sorted keys joined.
func Key(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return strings.Join(sorted, KeySeparator)
}

// Combinations returns every non-empty subset of keys, each in the given
// order. There are 2^n - 1 of them.
func Combinations(keys []string) [][]string {
	n := len(keys)
	out := make([][]string, 0, (1<<n)-1)
	for mask := 1; mask < 1<<n; mask++ {
		var subset []string
		for i, k := range keys {
			if mask&(1<<i) != 0 {
				subset = append(subset, k)
			}
		}
		out = append(out, subset)
	}
	return out
}

// Generate builds one view per non-empty origin subset plus the "all" view.
// Views are sorted by key with "all" last. The global root is never modified.
func Generate(global *hierarchy.Node, set *origin.Set) []View {
	combos := Combinations(set.Keys())
	views := make([]View, 0, len(combos)+1)
	for _, subset := range combos {
		views = append(views, View{
			Key:     Key(subset),
			Origins: subset,
			Root:    Filter(global, set, subset),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })

	views = append(views, View{
		Key:     AllKey,
		Origins: set.Keys(),
		Root:    global.Clone(),
	})
	return views
}

// Filter clones global keeping the nodes whose detected origin is in
// subset, plus every ancestor of a kept node. The root is always kept and
// renamed after the subset.
func Filter(global *hierarchy.Node, set *origin.Set, subset []string) *hierarchy.Node {
	active := make(map[string]bool, len(subset))
	labels := make([]string, 0, len(subset))
	for _, key := range subset {
		active[key] = true
		if o, ok := set.Get(key); ok {
			labels = append(labels, o.DisplayName())
		} else {
			labels = append(labels, strings.ToUpper(key))
		}
	}

	root := shallow(global)
	root.Name = fmt.Sprintf("%s (%s)", global.Name, strings.Join(labels, " + "))
	for _, child := range global.Children {
		if kept := filter(child, set, active); kept != nil {
			root.Children = append(root.Children, kept)
		}
	}
	return root
}

func filter(n *hierarchy.Node, set *origin.Set, active map[string]bool) *hierarchy.Node {
	var children []*hierarchy.Node
	for _, child := range n.Children {
		if kept := filter(child, set, active); kept != nil {
			children = append(children, kept)
		}
	}
	if len(children) == 0 && !active[nodeOrigin(set, n.Source)] {
		return nil
	}
	c := shallow(n)
	c.Children = append(c.Children, children...)
	return c
}

// nodeOrigin resolves a node's origin key. Sources hold origin keys joined by
// merge.SourceSeparator; the first configured key wins. Free text falls back
// to keyword classification.
func nodeOrigin(set *origin.Set, source string) string {
	for _, part := range strings.Split(source, merge.SourceSeparator) {
		key := strings.ToLower(strings.TrimSpace(part))
		if _, ok := set.Get(key); ok {
			return key
		}
	}
	return set.Classify(source)
}

func shallow(n *hierarchy.Node) *hierarchy.Node {
	c := *n
	if n.LineStyle != nil {
		ls := *n.LineStyle
		c.LineStyle = &ls
	}
	c.Children = []*hierarchy.Node{}
	return &c
}
