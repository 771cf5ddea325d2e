package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor reads ontology documents into records. Parsing itself is
// delegated to a format-specific decoder.
type Extractor struct {
	decoders map[Format]Decoder
}

// Decoder turns the bytes of one document into records. A decoder that hits a
// syntax error returns the records read so far together with the error.
type Decoder interface {
	Decode(data []byte) ([]Record, error)
}

// NewExtractor creates an extractor with every built-in decoder registered.
func NewExtractor() *Extractor {
	return &Extractor{
		decoders: map[Format]Decoder{
			FormatTurtle:   rdfDecoder{format: FormatTurtle},
			FormatNTriples: rdfDecoder{format: FormatNTriples},
			FormatJSON:     jsonDecoder{},
			FormatJSONL:    jsonlDecoder{},
		},
	}
}

// Register installs or replaces the decoder for a format.
func (e *Extractor) Register(format Format, d Decoder) {
	e.decoders[format] = d
}

// Supports reports whether the file extension maps to a registered decoder.
func (e *Extractor) Supports(path string) bool {
	format, err := DetectFormat(path)
	if err != nil {
		return false
	}
	_, ok := e.decoders[format]
	return ok
}

// ExtractFromFile reads a whole file and decodes it into records.
func (e *Extractor) ExtractFromFile(path string) ([]Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	dec, ok := e.decoders[format]
	if !ok {
		return nil, fmt.Errorf("no decoder for format %s", format)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	records, err := dec.Decode(data)
	if err != nil {
		return records, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	return records, nil
}

// DetectFormat maps a file extension to its serialization format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".turtle":
		return FormatTurtle, nil
	case ".nt":
		return FormatNTriples, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported input format: %s", path)
	}
}
