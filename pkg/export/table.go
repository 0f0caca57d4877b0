package export

import (
	"github.com/Sternrassler/stars-export/pkg/record"
)

// Header is the column row shared by the CSV and XLSX outputs.
var Header = []string{"Name", "Description", "URL", "Language", "Stars", "Created At"}

// Rows returns the header followed by one row per record. The Stars column
// carries the display string, not the raw count.
func Rows(records []record.Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, r := range records {
		rows = append(rows, []string{
			r.Name,
			r.Description,
			r.URL,
			r.Language,
			r.StarCountDisplay,
			r.CreatedAt,
		})
	}
	return rows
}
