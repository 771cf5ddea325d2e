package artifact

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"
)

// Schema reflects a JSON Schema from the Go type of value.
func Schema(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// WriteSchemas writes one "<name>.schema.json" file per entry of types and
// returns the written names, sorted.
func (s *Store) WriteSchemas(types map[string]any) ([]string, error) {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		data, err := json.MarshalIndent(Schema(types[name]), "", "  ")
		if err != nil {
			return written, fmt.Errorf("failed to encode schema %s: %w", name, err)
		}
		file := name + ".schema.json"
		if err := s.WriteFile(file, append(data, '\n')); err != nil {
			return written, err
		}
		written = append(written, file)
	}
	return written, nil
}
