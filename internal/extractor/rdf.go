package extractor

import (
	"bytes"
	"errors"
	"io"

	"github.com/knakk/rdf"
)

// rdfDecoder parses Turtle and N-Triples documents.
type rdfDecoder struct {
	format Format
}

func (d rdfDecoder) Decode(data []byte) ([]Record, error) {
	f := rdf.NTriples
	if d.format == FormatTurtle {
		f = rdf.Turtle
	}
	dec := rdf.NewTripleDecoder(bytes.NewReader(data), f)

	var records []Record
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		if rec, ok := fromTriple(tr); ok {
			records = append(records, rec)
		}
	}
}

// fromTriple converts a parsed triple. Statements about or pointing to blank
// nodes (anonymous restrictions, lists) carry no named entity and are dropped.
func fromTriple(tr rdf.Triple) (Record, bool) {
	if tr.Subj == nil || tr.Pred == nil || tr.Subj.Type() == rdf.TermBlank {
		return Record{}, false
	}
	rec := Record{
		Subject:   tr.Subj.String(),
		Predicate: tr.Pred.String(),
	}
	if tr.Obj != nil {
		switch tr.Obj.Type() {
		case rdf.TermBlank:
			return Record{}, false
		case rdf.TermLiteral:
			rec.IsLiteral = true
		}
		rec.Object = tr.Obj.String()
	}
	return rec, true
}
