package extractor

// Record is one normalized statement handed to the triple classifier.
// Object is empty when the statement has no object.
type Record struct {
	Subject   string `json:"subject"`   // Subject IRI or name
	Predicate string `json:"predicate"` // Predicate IRI or name
	Object    string `json:"object"`    // Object IRI, name or literal value
	IsLiteral bool   `json:"isLiteral"` // Object is a literal value, not a reference
}

// Valid reports whether the record carries the fields classification needs.
func (r Record) Valid() bool {
	return r.Subject != "" && r.Predicate != ""
}

// Format identifies how an input file is serialized.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatJSON     Format = "json"  // JSON array of records
	FormatJSONL    Format = "jsonl" // one JSON record per line
)
