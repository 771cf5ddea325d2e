// Package origin attributes ontology entities to a provenance group.
package origin

import (
	"fmt"
	"strings"
)

// Built-in origin keys.
const (
	MIM      = "mim"
	CyberDEM = "cyberdem"
	Propio   = "propio"
)

// Origin is one provenance group. An origin without keywords is the default group.
type Origin struct {
	Key      string   `yaml:"key" json:"key" validate:"required,alphanum"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Color    string   `yaml:"color,omitempty" json:"color,omitempty" validate:"omitempty,hexcolor"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// DisplayName is the label shown on branch nodes.
func (o Origin) DisplayName() string {
	if o.Label != "" {
		return o.Label
	}
	return strings.ToUpper(o.Key)
}

// Defaults returns the provenance groups of the core ontology in priority order.
func Defaults() []Origin {
	return []Origin{
		{Key: MIM, Color: "#00e68a", Keywords: []string{"mim"}},
		{Key: CyberDEM, Color: "#00baff", Keywords: []string{"cyberdem", "siso-ref-072"}},
		{Key: Propio, Color: "#ff9f1c"},
	}
}

// Set is an ordered, closed set of origins. Keyword origins are checked in the
// order they were declared; text matching none of them goes to the default.
type Set struct {
	origins    []Origin
	defaultKey string
}

// NewSet validates the origin list. Exactly one origin must have no keywords.
func NewSet(origins []Origin) (*Set, error) {
	if len(origins) == 0 {
		return nil, fmt.Errorf("origin set is empty")
	}

	s := &Set{origins: make([]Origin, 0, len(origins))}
	seen := make(map[string]bool, len(origins))
	for _, o := range origins {
		key := strings.ToLower(strings.TrimSpace(o.Key))
		if key == "" {
			return nil, fmt.Errorf("origin with empty key")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate origin %q", key)
		}
		seen[key] = true

		o.Key = key
		keywords := make([]string, 0, len(o.Keywords))
		for _, kw := range o.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		o.Keywords = keywords

		if len(o.Keywords) == 0 {
			if s.defaultKey != "" {
				return nil, fmt.Errorf("origins %q and %q both lack keywords; only one default origin is allowed", s.defaultKey, key)
			}
			s.defaultKey = key
		}
		s.origins = append(s.origins, o)
	}
	if s.defaultKey == "" {
		return nil, fmt.Errorf("no default origin: one origin must have no keywords")
	}
	return s, nil
}

// DefaultSet returns the built-in mim / cyberdem / propio set.
func DefaultSet() *Set {
	s, err := NewSet(Defaults())
	if err != nil {
		panic(err)
	}
	return s
}

// Classify lowercases and trims text and returns the first origin whose keyword
// occurs in it, or the default origin.
func (s *Set) Classify(text string) string {
	txt := strings.ToLower(strings.TrimSpace(text))
	if txt == "" {
		return s.defaultKey
	}
	for _, o := range s.origins {
		for _, kw := range o.Keywords {
			if strings.Contains(txt, kw) {
				return o.Key
			}
		}
	}
	return s.defaultKey
}

// Lookup returns the free-text source metadata known for a simplified name, or "".
type Lookup func(name string) string

// ClassifyNames attributes a statement to an origin from the names it mentions.
// For each name in order, its looked-up source is tried before the name itself;
// the first non-default answer wins.
func (s *Set) ClassifyNames(lookup Lookup, names ...string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		if lookup != nil {
			if src := lookup(name); src != "" {
				if key := s.Classify(src); key != s.defaultKey {
					return key
				}
			}
		}
		if key := s.Classify(name); key != s.defaultKey {
			return key
		}
	}
	return s.defaultKey
}

// Keys returns the origin keys in declaration order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.origins))
	for i, o := range s.origins {
		keys[i] = o.Key
	}
	return keys
}

// Origins returns a copy of the configured origins.
func (s *Set) Origins() []Origin {
	out := make([]Origin, len(s.origins))
	copy(out, s.origins)
	return out
}

// Get looks an origin up by key.
func (s *Set) Get(key string) (Origin, bool) {
	for _, o := range s.origins {
		if o.Key == key {
			return o, true
		}
	}
	return Origin{}, false
}

// DefaultKey is the key of the unaffiliated group.
func (s *Set) DefaultKey() string { return s.defaultKey }

// Len is the number of origins.
func (s *Set) Len() int { return len(s.origins) }
