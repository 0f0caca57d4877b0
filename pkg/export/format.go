// Package export writes accumulated records as CSV, XLSX or JSON files and
// converts between those formats.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an output file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats and file extensions the
// exporter does not handle.
var ErrUnsupportedFormat = errors.New("unsupported format")

// AllFormats returns every supported format in the order exports are written.
func AllFormats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatXLSX}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat converts a name such as "csv" or ".XLSX" to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	switch Format(name) {
	case FormatJSON, FormatCSV, FormatXLSX:
		return Format(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ParseFormats parses a list of names, each of which may itself be a
// comma-separated list. "all" selects every format. Duplicates are dropped.
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)

	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}

	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				for _, f := range AllFormats() {
					add(f)
				}
				continue
			}
			f, err := ParseFormat(part)
			if err != nil {
				return nil, err
			}
			add(f)
		}
	}

	if len(formats) == 0 {
		return nil, errors.New("no export format selected")
	}
	return formats, nil
}
