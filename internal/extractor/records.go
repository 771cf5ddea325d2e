package extractor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonDecoder reads a JSON array of records produced by an external parser.
type jsonDecoder struct{}

func (jsonDecoder) Decode(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// jsonlDecoder reads one record per line. Blank lines are ignored; a bad line
// stops decoding and the records read so far are returned.
type jsonlDecoder struct{}

func (jsonlDecoder) Decode(data []byte) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return records, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
