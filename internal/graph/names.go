package graph

import (
	"regexp"
	"strings"
)

var (
	namespaceRe = regexp.MustCompile(`^.*[#/]`)
	symbolRe    = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Simplify strips the namespace of an IRI and every character that is not an
// ASCII letter or digit. Two entities are the same iff their simplified names
// are equal.
func Simplify(uri string) string {
	if uri == "" {
		return ""
	}
	s := namespaceRe.ReplaceAllString(uri, "")
	s = symbolRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
