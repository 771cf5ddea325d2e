package graph

// Kind classifies a node.
type Kind string

const (
	KindCategory   Kind = "category"
	KindRelation   Kind = "relation"
	KindRoot       Kind = "root"
	KindRootBranch Kind = "root-branch"
)

// Edge types produced by triple classification. Generic relations use the
// predicate name as their type.
const (
	EdgeIsA      = "is_a"
	EdgeDomainOf = "domainOf"
	EdgeRangeOf  = "rangeOf"
)

// Id prefixes. A node id is one of these followed by the simplified name.
const (
	PrefixCategory  = "CAT_"
	PrefixRelation  = "REL_"
	PrefixComponent = "COMP_"
)

// IDPrefixes is the prefix table recorded in artifact metadata.
func IDPrefixes() map[string]string {
	return map[string]string{
		"category":  PrefixCategory,
		"relation":  PrefixRelation,
		"component": PrefixComponent,
	}
}

// CategoryID returns the id of the category node for a simplified name.
func CategoryID(name string) string { return PrefixCategory + name }

// RelationID returns the id of the relation node for a simplified name.
func RelationID(name string) string { return PrefixRelation + name }

// Node is an ontology class, property or generic entity.
type Node struct {
	ID          string            `json:"id" validate:"required"`
	Name        string            `json:"name"`
	Kind        Kind              `json:"kind,omitempty" validate:"omitempty,oneof=category relation root root-branch"`
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	Source      string            `json:"source,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Attr returns a literal attribute, or "".
func (n *Node) Attr(key string) string {
	if n == nil || n.Attributes == nil {
		return ""
	}
	return n.Attributes[key]
}

// SetAttr stores a literal attribute unless one is already set.
func (n *Node) SetAttr(key, value string) bool {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	if n.Attributes[key] != "" {
		return false
	}
	n.Attributes[key] = value
	return true
}

// Provenance is the free text origin classification reads: the source
// literal, else the info attribute.
func (n *Node) Provenance() string {
	if n == nil {
		return ""
	}
	if n.Source != "" {
		return n.Source
	}
	return n.Attr("info")
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Attributes != nil {
		c.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// Edge is a directed, typed relation between two node ids.
// Its identity is the (Source, Target, Type) triple.
type Edge struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Type   string `json:"type" validate:"required"`
}
