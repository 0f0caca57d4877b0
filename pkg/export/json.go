package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/stars-export/pkg/record"
)

// WriteJSON writes records as a two-space indented JSON array.
func WriteJSON(w io.Writer, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ReadJSON reads a JSON array of records. It accepts both this package's
// output and raw starred-list API pages, since the field names overlap,
// and normalizes every entry again.
func ReadJSON(r io.Reader) ([]record.Record, error) {
	var raws []record.Raw
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return record.NormalizeAll(raws), nil
}
