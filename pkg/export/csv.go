package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/stars-export/pkg/record"
)

// WriteCSV writes records as RFC 4180 CSV with CRLF line endings. Field
// content is written unchanged; fields holding a comma, quote, CR or LF are
// quoted.
func WriteCSV(w io.Writer, records []record.Record) error {
	return writeCSVRows(w, Rows(records))
}

// ReadCSV reads every row, header included. Quoted fields keep their CR and
// LF bytes exactly as written.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	rows, err := parseCSV(string(data))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// writeCSVRows quotes with encoding/csv in LF mode, which leaves CR and LF
// inside fields alone, and ends each record with CRLF itself.
func writeCSVRows(w io.Writer, rows [][]string) error {
	out := bufio.NewWriter(w)

	var line bytes.Buffer
	writer := csv.NewWriter(&line)

	for _, row := range rows {
		line.Reset()
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}

		out.Write(bytes.TrimSuffix(line.Bytes(), []byte{'\n'}))
		out.WriteString("\r\n")
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func parseCSV(s string) ([][]string, error) {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		quoted   bool // current field started with a quote
		inQuotes bool
		line     = 1
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
		quoted = false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inQuotes {
			switch {
			case c == '"' && i+1 < len(s) && s[i+1] == '"':
				field.WriteByte('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				if c == '\n' {
					line++
				}
				field.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			if quoted || field.Len() > 0 {
				return nil, fmt.Errorf("line %d: bare quote in field", line)
			}
			quoted, inQuotes = true, true
		case ',':
			endField()
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				continue
			}
			if quoted {
				return nil, fmt.Errorf("line %d: text after closing quote", line)
			}
			field.WriteByte(c)
		case '\n':
			// Blank lines carry no record.
			if len(row) > 0 || field.Len() > 0 || quoted {
				endField()
				rows = append(rows, row)
				row = nil
			}
			line++
		default:
			if quoted {
				return nil, fmt.Errorf("line %d: text after closing quote", line)
			}
			field.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("line %d: unterminated quoted field", line)
	}
	if len(row) > 0 || field.Len() > 0 || quoted {
		endField()
		rows = append(rows, row)
	}
	return rows, nil
}
